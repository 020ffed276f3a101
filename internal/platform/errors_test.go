package platform

import (
	"errors"
	"fmt"
	"strings"
	"testing"
)

func TestError_MessageCarriesCodeAndCause(t *testing.T) {
	native := errors.New("0x80070005 access denied")
	err := PlatformError("SetFocus failed", native)

	msg := err.Error()
	if !strings.Contains(msg, "PLATFORM_ERROR") {
		t.Errorf("message %q does not carry the code", msg)
	}
	if !strings.Contains(msg, "access denied") {
		t.Errorf("message %q lost the native error text", msg)
	}
	if !errors.Is(err, native) {
		t.Errorf("cause is not reachable through errors.Is")
	}
}

func TestError_IsMatchesByCode(t *testing.T) {
	err := fmt.Errorf("resolving selector: %w", ElementNotFound("no match"))

	if !errors.Is(err, ElementNotFound("")) {
		t.Errorf("wrapped errors should match sentinel targets by code")
	}
	if errors.Is(err, TimeoutError("")) {
		t.Errorf("different codes must not match")
	}
}

func TestCodeOf(t *testing.T) {
	cases := []struct {
		err  error
		want ErrorCode
	}{
		{UnsupportedOperation("overlay"), ErrCodeUnsupportedOperation},
		{InvalidArgument("bad selector"), ErrCodeInvalidArgument},
		{ElementNotFound("gone"), ErrCodeElementNotFound},
		{TimeoutError("slow"), ErrCodeTimeout},
		{fmt.Errorf("wrapped: %w", TimeoutError("slow")), ErrCodeTimeout},
		{errors.New("plain os failure"), ErrCodePlatform},
	}
	for _, tc := range cases {
		if got := CodeOf(tc.err); got != tc.want {
			t.Errorf("CodeOf(%v) = %s, want %s", tc.err, got, tc.want)
		}
	}
}

func TestIsCode(t *testing.T) {
	if IsCode(nil, ErrCodeTimeout) {
		t.Errorf("nil error carries no code")
	}
	if !IsCode(TimeoutError("x"), ErrCodeTimeout) {
		t.Errorf("IsCode should match a direct typed error")
	}
	if IsCode(TimeoutError("x"), ErrCodeElementNotFound) {
		t.Errorf("IsCode must not match a different code")
	}
}

func TestUnsupportedOperation_NamesTheOperation(t *testing.T) {
	err := UnsupportedOperation("window highlight")
	if !strings.Contains(err.Error(), "window highlight") {
		t.Errorf("message %q should name the missing capability", err)
	}
}
