package util

import (
	"bytes"
	"crypto/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewRunId(t *testing.T) {
	a, err := NewRunId(rand.Reader)
	require.NoError(t, err)
	b, err := NewRunId(rand.Reader)
	require.NoError(t, err)
	assert.Len(t, a, 12)
	assert.NotEqual(t, a, b)

	fixed, err := NewRunId(bytes.NewReader(make([]byte, 16)))
	require.NoError(t, err)
	assert.Equal(t, "000000000000", fixed)

	_, err = NewRunId(bytes.NewReader(nil))
	assert.Error(t, err)
}
