package reconcile

import (
	"sync"

	"github.com/mmcdole/checkmark/internal/domain"
)

// Marks is an in-memory domain.Annotator. Views render from it and may
// register a callback to hear about changes.
type Marks struct {
	mu       sync.RWMutex
	verdicts map[string]domain.Verdict
	onChange func()
}

// NewMarks creates an empty annotator
func NewMarks() *Marks {
	return &Marks{verdicts: make(map[string]domain.Verdict)}
}

// OnChange registers fn to run after every mutation (outside the lock)
func (m *Marks) OnChange(fn func()) {
	m.mu.Lock()
	m.onChange = fn
	m.mu.Unlock()
}

// Marked implements domain.Annotator
func (m *Marks) Marked(id string) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, ok := m.verdicts[id]
	return ok
}

// Unmark implements domain.Annotator
func (m *Marks) Unmark(id string) {
	m.mu.Lock()
	_, existed := m.verdicts[id]
	delete(m.verdicts, id)
	fn := m.onChange
	m.mu.Unlock()

	if existed && fn != nil {
		fn()
	}
}

// Annotate implements domain.Annotator
func (m *Marks) Annotate(v domain.Verdict) {
	m.mu.Lock()
	m.verdicts[v.ID] = v
	fn := m.onChange
	m.mu.Unlock()

	if fn != nil {
		fn()
	}
}

// ClearAll implements domain.Annotator
func (m *Marks) ClearAll() {
	m.mu.Lock()
	had := len(m.verdicts) > 0
	m.verdicts = make(map[string]domain.Verdict)
	fn := m.onChange
	m.mu.Unlock()

	if had && fn != nil {
		fn()
	}
}

// Get returns the verdict currently shown for id
func (m *Marks) Get(id string) (domain.Verdict, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := m.verdicts[id]
	return v, ok
}

// Len returns the number of marked tracks
func (m *Marks) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.verdicts)
}
