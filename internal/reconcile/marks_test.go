package reconcile

import (
	"testing"

	"github.com/mmcdole/checkmark/internal/domain"
	"github.com/stretchr/testify/assert"
)

func TestMarks(t *testing.T) {
	m := NewMarks()
	changes := 0
	m.OnChange(func() { changes++ })

	m.Annotate(domain.Verdict{ID: "a", InLibrary: true})
	m.Annotate(domain.Verdict{ID: "b"})
	assert.True(t, m.Marked("a"))
	assert.Equal(t, 2, m.Len())

	v, ok := m.Get("a")
	assert.True(t, ok)
	assert.True(t, v.InLibrary)

	m.Unmark("a")
	m.Unmark("missing")
	assert.False(t, m.Marked("a"))

	m.ClearAll()
	m.ClearAll()
	assert.Equal(t, 0, m.Len())

	// two annotations, one effective unmark, one effective clear
	assert.Equal(t, 4, changes)
}
