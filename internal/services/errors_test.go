package services_test

import (
	"errors"
	"strings"
	"testing"

	"scenefilter/internal/services"
)

func TestWrapIncludesContext(t *testing.T) {
	base := errors.New("boom")
	err := services.Wrap(services.ErrValidation, "store", "add segment", "duplicate", base)
	if err == nil {
		t.Fatal("expected error")
	}
	if !errors.Is(err, services.ErrValidation) {
		t.Fatalf("expected marker to be retained, got %v", err)
	}
	if !errors.Is(err, base) {
		t.Fatalf("expected wrapped error to contain base error, got %v", err)
	}
	msg := err.Error()
	for _, fragment := range []string{"store", "add segment", "duplicate"} {
		if !strings.Contains(msg, fragment) {
			t.Fatalf("expected %q in error string %q", fragment, msg)
		}
	}
}

func TestWrapDefaultsToTransient(t *testing.T) {
	err := services.Wrap(nil, "store", "open", "", errors.New("io"))
	if !errors.Is(err, services.ErrTransient) {
		t.Fatalf("expected transient marker, got %v", err)
	}
}

func TestIsRetryable(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"validation", services.Wrap(services.ErrValidation, "store", "add", "bad range", nil), false},
		{"configuration", services.Wrap(services.ErrConfiguration, "daemon", "start", "no bind", nil), false},
		{"not found", services.Wrap(services.ErrNotFound, "store", "remove", "missing", nil), false},
		{"transient", services.Wrap(services.ErrTransient, "store", "open", "locked", nil), true},
		{"untagged", errors.New("io"), true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := services.IsRetryable(tc.err); got != tc.want {
				t.Fatalf("IsRetryable = %v, want %v", got, tc.want)
			}
		})
	}
}
