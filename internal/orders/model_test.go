package orders

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPatchEmpty(t *testing.T) {
	assert.True(t, Patch{}.Empty())

	notes := ""
	assert.False(t, Patch{Notes: &notes}.Empty())
}
