package keyword

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCleanAssignStripsMarker(t *testing.T) {
	t.Parallel()
	c := &Call{Assign: []string{"${x}", "${y} ="}}
	assert.Equal(t, []string{"${x}", "${y}"}, c.CleanAssign())
}

func TestCleanAssignEmpty(t *testing.T) {
	t.Parallel()
	c := &Call{}
	assert.Nil(t, c.CleanAssign())
}

func TestIsTeardown(t *testing.T) {
	t.Parallel()
	assert.True(t, (&Call{Type: TypeTeardown}).IsTeardown())
	assert.False(t, (&Call{Type: TypeKeyword}).IsTeardown())
}
