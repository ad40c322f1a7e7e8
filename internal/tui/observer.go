package tui

// ChannelObserver forwards indicator changes to a channel for Bubble Tea.
// Bursts collapse into one pending notification.
type ChannelObserver struct {
	ch chan struct{}
}

// NewChannelObserver creates a new channel-based observer.
func NewChannelObserver() *ChannelObserver {
	return &ChannelObserver{ch: make(chan struct{}, 1)}
}

// Notify signals a change (non-blocking if one is already pending).
func (o *ChannelObserver) Notify() {
	select {
	case o.ch <- struct{}{}:
	default: // Already pending
	}
}

// C returns the notification channel
func (o *ChannelObserver) C() <-chan struct{} {
	return o.ch
}
