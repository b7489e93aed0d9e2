package errors

import (
	"errors"
	"testing"
)

func TestDomainError(t *testing.T) {
	t.Run("New", func(t *testing.T) {
		err := New(CodeNotFound, "project root not found")
		if err.Error() != "[NOT_FOUND] project root not found" {
			t.Errorf("expected [NOT_FOUND] project root not found, got %s", err.Error())
		}
	})

	t.Run("Newf", func(t *testing.T) {
		err := Newf(CodeConfig, "unknown preset %q", "fast")
		if err.Error() != `[CONFIG_ERROR] unknown preset "fast"` {
			t.Errorf("unexpected message: %s", err.Error())
		}
	})

	t.Run("Wrap", func(t *testing.T) {
		original := errors.New("disk gone")
		err := Wrap(original, CodeStorage, "save analysis")
		expected := "[STORAGE_ERROR] save analysis: disk gone"
		if err.Error() != expected {
			t.Errorf("expected %s, got %s", expected, err.Error())
		}
	})

	t.Run("IsCode", func(t *testing.T) {
		err := New(CodeParse, "unreadable file")
		if !IsCode(err, CodeParse) {
			t.Error("expected IsCode to return true for CodeParse")
		}
		if IsCode(err, CodeNotFound) {
			t.Error("expected IsCode to return false for CodeNotFound")
		}
	})

	t.Run("IsCodeWithWrapped", func(t *testing.T) {
		original := errors.New("boom")
		err := Wrap(original, CodeValidator, "validator crashed")
		if !IsCode(err, CodeValidator) {
			t.Error("expected IsCode to return true for wrapped CodeValidator")
		}
	})

	t.Run("Unwrap", func(t *testing.T) {
		original := errors.New("root cause")
		err := Wrap(original, CodeInternal, "outer")
		if !errors.Is(err, original) {
			t.Error("expected errors.Is to find the wrapped cause")
		}
	})

	t.Run("WithContext", func(t *testing.T) {
		err := AddContext(New(CodeParse, "bad file"), CtxPath, "src/a.py")
		var de *DomainError
		if !errors.As(err, &de) {
			t.Fatal("expected a DomainError")
		}
		if de.Context[CtxPath] != "src/a.py" {
			t.Errorf("expected context path src/a.py, got %v", de.Context[CtxPath])
		}
	})
}
