package domain

import (
	"errors"
	"fmt"
	"strings"
	"testing"
)

func TestPartitionMismatchErrorNamesTheSpecifics(t *testing.T) {
	err := PartitionMismatchError{
		Partition:  PartitionKey{Scope: SectorScope("s1"), Type: TypeCalculation, Rigidity: RigidityFlexible},
		Missing:    []string{"r-2"},
		Unexpected: []string{"r-9"},
		CrossTier:  true,
	}
	msg := err.Error()
	for _, want := range []string{"sector:s1/calculation/flexible", "r-2", "r-9", "cross-tier"} {
		if !strings.Contains(msg, want) {
			t.Fatalf("error message %q missing %q", msg, want)
		}
	}
}

func TestUnavailableErrorWraps(t *testing.T) {
	cause := errors.New("dial timeout")
	err := UnavailableError{Dependency: "activity registry", Err: cause}
	if !errors.Is(fmt.Errorf("evaluate: %w", err), cause) {
		t.Fatalf("unavailable error must unwrap to its cause")
	}
}

func TestErrorTaxonomyIsDistinguishable(t *testing.T) {
	var notFound NotFoundError
	var invalid ValidationError
	var unavailable UnavailableError

	wrapped := fmt.Errorf("op: %w", NewRuleNotFound("r-1"))
	if !errors.As(wrapped, &notFound) {
		t.Fatalf("expected NotFoundError")
	}
	if errors.As(wrapped, &invalid) || errors.As(wrapped, &unavailable) {
		t.Fatalf("taxonomy overlap: not-found matched other classes")
	}
}
