package domain

import (
	"context"
	"errors"
	"testing"
)

type staticCheck struct {
	name   string
	issues []Issue
	err    error
}

func (c staticCheck) Name() string { return c.name }

func (c staticCheck) Check(_ context.Context, _ string, _ []Rule) ([]Issue, error) {
	return c.issues, c.err
}

func TestAutoModeEngineAggregates(t *testing.T) {
	engine := NewAutoModeEngine()
	engine.Register(staticCheck{name: "a", issues: []Issue{{Check: "a", Severity: IssueWarn, Message: "heads up"}}})
	engine.Register(staticCheck{name: "b"})

	report, err := engine.Run(context.Background(), "sector-a", nil)
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if !report.CanUseAutoMode {
		t.Fatalf("warnings alone must not disable auto mode: %+v", report)
	}
	if len(report.Issues) != 1 {
		t.Fatalf("expected 1 issue, got %d", len(report.Issues))
	}

	engine.Register(staticCheck{name: "c", issues: []Issue{{Check: "c", Severity: IssueBlock, Message: "no baseline"}}})
	report, err = engine.Run(context.Background(), "sector-a", nil)
	if err != nil {
		t.Fatalf("run with blocking check: %v", err)
	}
	if report.CanUseAutoMode {
		t.Fatalf("blocking issue must disable auto mode")
	}
}

func TestAutoModeEnginePropagatesCheckError(t *testing.T) {
	engine := NewAutoModeEngine()
	boom := errors.New("registry down")
	engine.Register(staticCheck{name: "a", err: boom})
	if _, err := engine.Run(context.Background(), "sector-a", nil); !errors.Is(err, boom) {
		t.Fatalf("expected check error to propagate, got %v", err)
	}
}
