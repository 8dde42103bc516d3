package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMaskKey(t *testing.T) {
	tests := []struct {
		name string
		key  string
		want string
	}{
		{name: "empty", key: "", want: "(empty)"},
		{name: "short key fully masked", key: "shortkey", want: "****"},
		{name: "long key shows edges", key: "sk-1234567890abcdefghij", want: "sk-12345...ghij"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, MaskKey(tt.key))
		})
	}
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "hello", Truncate("hello", 10))
	assert.Equal(t, "hello", Truncate("hello", 5))
	assert.Equal(t, "hel...", Truncate("hello", 3))
	assert.Equal(t, "hello", Truncate("hello", 0), "non-positive limit disables truncation")
}
