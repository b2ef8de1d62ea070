package dasherr_test

import (
	"errors"
	"fmt"
	"testing"

	"github.com/macrat/ssdash/internal/dasherr"
)

var (
	errKind  = errors.New("kind error")
	errOther = errors.New("other kind")
	errCause = errors.New("cause error")
)

func TestNew(t *testing.T) {
	tests := []struct {
		Name    string
		Cause   error
		Format  string
		Args    []interface{}
		Message string
	}{
		{"with-cause", errCause, "hello %s", []interface{}{"world"}, "hello world: cause error"},
		{"without-cause", nil, "hello %s", []interface{}{"world"}, "hello world"},
		{"empty-format", errCause, "", nil, "cause error"},
	}

	for _, tt := range tests {
		t.Run(tt.Name, func(t *testing.T) {
			err := dasherr.New(errKind, tt.Cause, tt.Format, tt.Args...)

			if err.Error() != tt.Message {
				t.Errorf("unexpected message: %q", err)
			}

			if !errors.Is(err, errKind) {
				t.Errorf("error should be %v but reports as not", errKind)
			}

			if tt.Cause != nil && !errors.Is(err, tt.Cause) {
				t.Errorf("error should wrap %v but reports as not", tt.Cause)
			}

			if errors.Is(err, errOther) {
				t.Errorf("error reports as %v unexpectedly", errOther)
			}
		})
	}
}

func TestKindOf(t *testing.T) {
	err := fmt.Errorf("wrapped: %w", dasherr.New(errKind, errCause, "test"))

	if k := dasherr.KindOf(err, errOther, errKind); k != errKind {
		t.Errorf("unexpected kind: %v", k)
	}

	if k := dasherr.KindOf(err, errOther); k != nil {
		t.Errorf("unexpected kind: %v", k)
	}
}

func TestListBuilder(t *testing.T) {
	lb := &dasherr.ListBuilder{Kind: errKind}

	if err := lb.Build(); err != nil {
		t.Fatalf("empty builder should build nil but got %v", err)
	}

	lb.Pushf("%s is required", "name")
	lb.Pushf("port must be in 1-65535 but got %d", 0)

	if lb.Len() != 2 {
		t.Fatalf("unexpected length: %d", lb.Len())
	}

	err := lb.Build()
	if !errors.Is(err, errKind) {
		t.Errorf("list should be %v", errKind)
	}

	want := "kind error:\n  name is required\n  port must be in 1-65535 but got 0"
	if err.Error() != want {
		t.Errorf("unexpected message:\n%s", err)
	}
}
