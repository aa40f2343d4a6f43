package errors

import (
	"errors"
	"fmt"
	"io/fs"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTypedErrorsMatchSentinels(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		sentinel error
		typ      ErrorType
	}{
		{"missing file", MissingFile("/logs/2024/01/01.log", fs.ErrNotExist), ErrMissingFile, ErrorTypeMissingFile},
		{"corrupt store", CorruptStore("/data/cp.json", errors.New("bad json")), ErrCorruptStore, ErrorTypeCorruptStore},
		{"malformed template", MalformedTemplate("static.log"), ErrMalformedTemplate, ErrorTypeMalformedTemplate},
		{"session closed", SessionClosed(), ErrSessionClosed, ErrorTypeSessionClosed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			wrapped := fmt.Errorf("outer: %w", tt.err)

			assert.ErrorIs(t, wrapped, tt.sentinel)
			assert.Equal(t, tt.typ, TypeOf(wrapped))
		})
	}
}

func TestMissingFileKeepsCause(t *testing.T) {
	err := MissingFile("/logs/a.log", &fs.PathError{Op: "open", Path: "/logs/a.log", Err: fs.ErrNotExist})

	assert.ErrorIs(t, err, fs.ErrNotExist)
	assert.NotErrorIs(t, err, ErrCorruptStore)
	assert.Contains(t, err.Error(), "missing_file")
	assert.Contains(t, err.Error(), "/logs/a.log")
}

func TestTypeOfUnknown(t *testing.T) {
	assert.Equal(t, ErrorTypeUnknown, TypeOf(errors.New("plain")))
	assert.Equal(t, ErrorTypeUnknown, TypeOf(nil))
}
