package util

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewSHA256(t *testing.T) {
	got := NewSHA256("cmdstan-2.24.1.tar.gz")

	assert.Len(t, got, 64)
	assert.Equal(t, got, NewSHA256("cmdstan-2.24.1.tar.gz"))
	assert.NotEqual(t, got, NewSHA256("cmdstan-2.23.0.tar.gz"))
}

func TestGetID(t *testing.T) {
	a := GetID()
	b := GetID()

	assert.NotEmpty(t, a)
	assert.NotEqual(t, a, b)
}

func TestRemoveDuplicates(t *testing.T) {
	got := RemoveDuplicates([]string{"2.24.1", "2.23.0", "2.24.1", "2.36.0", "2.23.0"})

	assert.Equal(t, []string{"2.24.1", "2.23.0", "2.36.0"}, got)
}
