package common

import (
	"errors"
	"strings"
	"testing"
)

func TestAppErrorChain(t *testing.T) {
	e := NewAppError("CONFIG_ERROR", "ADI_ENDPOINT is required", ErrInvalidInput)
	if !errors.Is(e, ErrInvalidInput) {
		t.Error("AppError must unwrap to its cause")
	}
	msg := e.Error()
	if !strings.Contains(msg, "CONFIG_ERROR") || !strings.Contains(msg, "ADI_ENDPOINT") {
		t.Errorf("message = %q", msg)
	}
}

func TestWrapError(t *testing.T) {
	wrapped := WrapError(ErrStore, "open record store")
	if !errors.Is(wrapped, ErrStore) {
		t.Error("wrapped error must keep the sentinel")
	}
	if !strings.HasPrefix(wrapped.Error(), "open record store: ") {
		t.Errorf("message = %q", wrapped.Error())
	}
	if WrapError(nil, "noop") != nil {
		t.Error("wrapping nil must stay nil")
	}
}
