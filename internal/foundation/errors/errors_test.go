package errors

import (
	"errors"
	"fmt"
	"testing"
)

func TestClassifiedError(t *testing.T) {
	t.Run("Basic error creation", func(t *testing.T) {
		err := NewError(CategoryConfig, "target document not found").
			WithSeverity(SeverityFatal).
			WithContext("path", "paper.tex").
			Build()

		if err.Category() != CategoryConfig {
			t.Errorf("expected category %s, got %s", CategoryConfig, err.Category())
		}
		if err.Severity() != SeverityFatal {
			t.Errorf("expected severity %s, got %s", SeverityFatal, err.Severity())
		}
		if err.Message() != "target document not found" {
			t.Errorf("unexpected message %q", err.Message())
		}

		path, exists := err.Context().GetString("path")
		if !exists || path != "paper.tex" {
			t.Errorf("expected context path=paper.tex, got %v", path)
		}
	})

	t.Run("Error detection", func(t *testing.T) {
		err := ConfigError("test error").Build()

		if !IsClassified(err) {
			t.Error("expected error to be classified")
		}
		if !HasCategory(err, CategoryConfig) {
			t.Error("expected error to have config category")
		}
		if !err.IsFatal() {
			t.Error("expected config error to be fatal")
		}
	})

	t.Run("Build errors are not fatal", func(t *testing.T) {
		err := BuildError("compiler exited with status 1").Build()
		if err.IsFatal() {
			t.Error("expected build error to be non-fatal")
		}
	})

	t.Run("Classification survives wrapping", func(t *testing.T) {
		inner := StagingError("copy failed").Build()
		wrapped := fmt.Errorf("assemble: %w", inner)

		if !HasCategory(wrapped, CategoryStaging) {
			t.Error("expected wrapped error to keep staging category")
		}
		if GetCategory(errors.New("plain")) != CategoryInternal {
			t.Error("expected unclassified errors to default to internal")
		}
	})
}

func TestErrorBuilder(t *testing.T) {
	originalErr := errors.New("permission denied")
	err := WrapError(originalErr, CategoryFileSystem, "write archive").
		Warning().
		WithContext("path", "out/main.tar.gz").
		WithContext("entries", 3).
		Build()

	if err.Severity() != SeverityWarning {
		t.Errorf("expected severity %s, got %s", SeverityWarning, err.Severity())
	}
	if !errors.Is(err, originalErr) {
		t.Error("expected error to wrap original error")
	}
	if got := err.Error(); got != "[filesystem:warning] write archive: permission denied" {
		t.Errorf("unexpected Error() %q", got)
	}

	withMore := err.WithContext("retry", false)
	if _, ok := err.Context().Get("retry"); ok {
		t.Error("WithContext must not mutate the original error")
	}
	if v, ok := withMore.Context().Get("entries"); !ok || v != 3 {
		t.Errorf("expected copied context, got %v", v)
	}
}

func TestErrorContextMerge(t *testing.T) {
	a := ErrorContext{"a": 1, "shared": "a"}
	b := ErrorContext{"b": 2, "shared": "b"}

	merged := a.Merge(b)
	if merged["shared"] != "b" {
		t.Errorf("expected other to take precedence, got %v", merged["shared"])
	}
	if len(merged) != 3 {
		t.Errorf("expected 3 keys, got %d", len(merged))
	}

	var nilCtx ErrorContext
	if got := nilCtx.Merge(b); got["b"] != 2 {
		t.Error("merge into nil context should return other")
	}
}
