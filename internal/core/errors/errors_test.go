package errors

import (
	"errors"
	"fmt"
	"testing"
)

func TestDomainError(t *testing.T) {
	t.Run("New", func(t *testing.T) {
		err := New(CodeNotFound, "module not found")
		if err.Error() != "[NOT_FOUND] module not found" {
			t.Errorf("expected [NOT_FOUND] module not found, got %s", err.Error())
		}
	})

	t.Run("Wrap", func(t *testing.T) {
		original := errors.New("disk full")
		err := Wrap(original, CodeInternal, "save scan")
		expected := "[INTERNAL_ERROR] save scan: disk full"
		if err.Error() != expected {
			t.Errorf("expected %s, got %s", expected, err.Error())
		}
		if !errors.Is(err, original) {
			t.Error("expected wrapped error to unwrap to original")
		}
	})

	t.Run("IsCode", func(t *testing.T) {
		err := New(CodeValidationError, "seed handle is nil")
		if !IsCode(err, CodeValidationError) {
			t.Error("expected IsCode to return true for CodeValidationError")
		}
		if IsCode(err, CodeNotFound) {
			t.Error("expected IsCode to return false for CodeNotFound")
		}
		if IsCode(errors.New("plain"), CodeInternal) {
			t.Error("expected IsCode to return false for plain errors")
		}
	})

	t.Run("SentinelMatchesByCode", func(t *testing.T) {
		sentinel := Sentinel(CodeNotFound)
		err := fmt.Errorf("load: %w", New(CodeNotFound, `module "App.Data" not found`))
		if !errors.Is(err, sentinel) {
			t.Error("expected errors.Is to match sentinel by code")
		}
		if errors.Is(New(CodeConflict, "dup"), sentinel) {
			t.Error("expected sentinel not to match other codes")
		}
	})

	t.Run("AddContext", func(t *testing.T) {
		err := AddContext(New(CodeNotFound, "missing"), CtxModule, "App.Core")
		expected := "[NOT_FOUND] missing {module=App.Core}"
		if err.Error() != expected {
			t.Errorf("expected %s, got %s", expected, err.Error())
		}

		plain := AddContext(errors.New("boom"), CtxOperation, "load")
		if !IsCode(plain, CodeInternal) {
			t.Error("expected plain errors to be wrapped as internal")
		}
	})
}
