package client

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCounterNeverGoesNegative(t *testing.T) {
	c := NewCounter()

	c.Decrease()
	assert.Equal(t, 0, c.Value())

	c.Increase()
	c.Increase()
	c.Decrease()
	assert.Equal(t, 1, c.Value())

	c.Set(-5)
	assert.Equal(t, 0, c.Value())
}

func TestCounterReset(t *testing.T) {
	c := NewCounter()
	c.Set(7)
	c.Reset()
	assert.Equal(t, 0, c.Value())
}
