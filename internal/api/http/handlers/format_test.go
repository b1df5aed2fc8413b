package handlers

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFormatPoints(t *testing.T) {
	assert.Equal(t, "1,234.5", formatPoints(1234.5))
	assert.Equal(t, "1,200", formatPoints(1200))
	assert.Equal(t, "1,234,567", formatPoints(1234567))
	assert.Equal(t, "0", formatPoints(0))
	assert.Equal(t, "-15", formatPoints(-15))
}
