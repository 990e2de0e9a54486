package errors

import (
	stderrors "errors"
	"fmt"
	"strings"
	"testing"
)

func TestNewAndCode(t *testing.T) {
	err := New(CodeParseFailed, "bad row")
	if err.Code != CodeParseFailed {
		t.Errorf("Code = %s, want %s", err.Code, CodeParseFailed)
	}
	if !strings.Contains(err.Error(), "[E103] bad row") {
		t.Errorf("Error() = %q", err.Error())
	}
	if len(err.StackTrace) == 0 {
		t.Error("expected a captured stack trace")
	}
}

func TestWrapPreservesCause(t *testing.T) {
	cause := stderrors.New("disk on fire")
	err := Wrap(cause, CodeArchiveFailed, "cannot persist report")

	if !stderrors.Is(err, cause) {
		t.Error("wrapped error should match its cause via errors.Is")
	}
	if !strings.Contains(err.Error(), "disk on fire") {
		t.Errorf("Error() = %q, want cause included", err.Error())
	}
	if !IsCode(err, CodeArchiveFailed) {
		t.Error("IsCode should see the wrapping code")
	}
}

func TestWrapNil(t *testing.T) {
	if err := Wrap(nil, CodeUnknown, "nothing"); err != nil {
		t.Errorf("Wrap(nil) = %v, want nil", err)
	}
}

func TestWrapfFormats(t *testing.T) {
	err := Wrapf(stderrors.New("boom"), CodePackFailed, "pack %s row %d", "numeric", 7)
	if !strings.Contains(err.Error(), "pack numeric row 7") {
		t.Errorf("Error() = %q", err.Error())
	}
}

func TestWithContext(t *testing.T) {
	err := New(CodeFileNotFound, "file not found").WithContext("path", "/tmp/x.csv")
	if got := err.Context["path"]; got != "/tmp/x.csv" {
		t.Errorf("Context[path] = %v", got)
	}
	if !strings.Contains(err.Error(), "path=/tmp/x.csv") {
		t.Errorf("Error() = %q, want context rendered", err.Error())
	}
}

func TestGetCode(t *testing.T) {
	inner := New(CodeEmptyDataset, "no rows")
	outer := fmt.Errorf("loading: %w", inner)

	if got := GetCode(outer); got != CodeEmptyDataset {
		t.Errorf("GetCode = %s, want %s", got, CodeEmptyDataset)
	}
	if got := GetCode(stderrors.New("plain")); got != CodeUnknown {
		t.Errorf("GetCode(plain) = %s, want %s", got, CodeUnknown)
	}
}

func TestIsFatal(t *testing.T) {
	cases := []struct {
		code  Code
		fatal bool
	}{
		{CodeFileNotFound, true},
		{CodeUnsupportedType, true},
		{CodeEmptyDataset, true},
		{CodePackFailed, false},
		{CodeLLMRequest, false},
	}
	for _, tc := range cases {
		if got := IsFatal(New(tc.code, "x")); got != tc.fatal {
			t.Errorf("IsFatal(%s) = %v, want %v", tc.code, got, tc.fatal)
		}
	}
}

func TestMultiError(t *testing.T) {
	var m MultiError
	if m.HasErrors() {
		t.Error("empty MultiError should report no errors")
	}
	if m.Combined() != nil {
		t.Error("Combined on empty should be nil")
	}

	first := New(CodePackFailed, "one")
	m.Add(first)
	m.Add(nil)
	if got := m.Combined(); got != first {
		t.Errorf("Combined with one error = %v, want the error itself", got)
	}

	m.Add(New(CodeVerifyFailed, "two"))
	combined := m.Combined()
	if combined != &m {
		t.Errorf("Combined with two errors = %T, want *MultiError", combined)
	}
	if !strings.Contains(combined.Error(), "2 errors occurred") {
		t.Errorf("Error() = %q", combined.Error())
	}
}
