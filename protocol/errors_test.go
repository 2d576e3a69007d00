package protocol

import (
	"errors"
	"testing"
)

func TestError_Is(t *testing.T) {
	err := NewMethodNotFound("missing")

	if !errors.Is(err, &Error{Code: CodeMethodNotFound}) {
		t.Error("errors with the same code must match")
	}
	if errors.Is(err, &Error{Code: CodeInvalidParams}) {
		t.Error("errors with different codes must not match")
	}
	if errors.Is(err, errors.New("missing")) {
		t.Error("non-protocol errors must not match")
	}
}

func TestError_WithData(t *testing.T) {
	base := NewServerError("boom")
	withData := base.WithData(map[string]string{"error": "details"})

	if base.Data != nil {
		t.Error("WithData must not mutate the original error")
	}
	if withData.Code != base.Code || withData.Message != base.Message {
		t.Error("WithData must preserve code and message")
	}
	if withData.Data == nil {
		t.Error("data not attached")
	}
}

func TestError_Constructors(t *testing.T) {
	tests := []struct {
		name string
		err  *Error
		code int
	}{
		{"parse", NewParseError("x"), CodeParseError},
		{"invalid request", NewInvalidRequest("x"), CodeInvalidRequest},
		{"method not found", NewMethodNotFound("x"), CodeMethodNotFound},
		{"invalid params", NewInvalidParams("x"), CodeInvalidParams},
		{"internal", NewInternalError("x"), CodeInternalError},
		{"server", NewServerError("x"), CodeServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.err.Code != tt.code {
				t.Errorf("Code = %d, want %d", tt.err.Code, tt.code)
			}
			if err := tt.err.Validate(); err != nil {
				t.Errorf("constructor produced invalid error: %v", err)
			}
		})
	}
}
