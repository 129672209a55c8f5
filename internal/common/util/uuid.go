package util

import (
	"io"
	"strings"

	"github.com/google/uuid"
)

// NewRunId returns a short identifier suitable for directory names, drawing randomness from r.
func NewRunId(r io.Reader) (string, error) {
	id, err := uuid.NewRandomFromReader(r)
	if err != nil {
		return "", err
	}
	return strings.ReplaceAll(id.String(), "-", "")[:12], nil
}
