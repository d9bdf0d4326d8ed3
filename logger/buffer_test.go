package logger

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBufferCollectsMessages(t *testing.T) {
	b := NewBuffer()

	b.Debug("llama %s", "one")
	b.Info("llama %s", "two")
	b.Warn("llama %s", "three")

	assert.Equal(t, []string{
		"[debug] llama one",
		"[info] llama two",
		"[warn] llama three",
	}, b.Messages)
}

func TestBufferStartsEmpty(t *testing.T) {
	b := NewBuffer()
	assert.Equal(t, []string{}, b.Messages)
}
