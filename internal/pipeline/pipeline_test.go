package pipeline

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"

	"github.com/nao1215/seoscan/internal/config"
)

// mockStep is a test helper that implements the Step interface.
type mockStep struct {
	name      string
	doFunc    func(ctx context.Context, run *Run) error
	callCount atomic.Int32
}

func (m *mockStep) Do(ctx context.Context, run *Run) error {
	m.callCount.Add(1)
	if m.doFunc != nil {
		return m.doFunc(ctx, run)
	}
	return nil
}

func (m *mockStep) Name() string {
	return m.name
}

// finalStep is a mockStep that runs after cancellation.
type finalStep struct {
	mockStep
}

func (f *finalStep) RunsAfterCancel() bool { return true }

func testRun() *Run {
	return NewRun(config.Site{StartURL: "https://example.com/"})
}

func TestPipelineNew(t *testing.T) {
	t.Parallel()

	t.Run("creates pipeline with default settings", func(t *testing.T) {
		t.Parallel()

		p := New()
		if p.StepCount() != 0 {
			t.Errorf("expected 0 steps, got %d", p.StepCount())
		}
		if p.continueOnError {
			t.Error("expected continueOnError to default to false")
		}
		if p.logger == nil {
			t.Error("expected default logger")
		}
	})

	t.Run("applies WithContinueOnError option", func(t *testing.T) {
		t.Parallel()

		p := New(WithContinueOnError(true))
		if !p.continueOnError {
			t.Error("expected continueOnError to be true")
		}
	})
}

func TestPipelineSteps(t *testing.T) {
	t.Parallel()

	p := New()
	p.AddStep(&mockStep{name: "first"})
	p.AddSteps(&mockStep{name: "second"}, &mockStep{name: "third"})

	names := p.StepNames()
	want := []string{"first", "second", "third"}
	if len(names) != len(want) {
		t.Fatalf("expected %d names, got %v", len(want), names)
	}
	for i := range want {
		if names[i] != want[i] {
			t.Errorf("step %d: expected %q, got %q", i, want[i], names[i])
		}
	}
}

func TestPipelineExecute(t *testing.T) {
	t.Parallel()

	t.Run("runs steps in order", func(t *testing.T) {
		t.Parallel()

		var order []string
		record := func(name string) func(context.Context, *Run) error {
			return func(context.Context, *Run) error {
				order = append(order, name)
				return nil
			}
		}

		p := New()
		p.AddSteps(
			&mockStep{name: "a", doFunc: record("a")},
			&mockStep{name: "b", doFunc: record("b")},
		)

		run := testRun()
		if err := p.Execute(context.Background(), run); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(order) != 2 || order[0] != "a" || order[1] != "b" {
			t.Errorf("unexpected order %v", order)
		}
		if len(run.PerformedSteps) != 2 {
			t.Errorf("expected 2 performed steps, got %v", run.PerformedSteps)
		}
	})

	t.Run("stops on first error by default", func(t *testing.T) {
		t.Parallel()

		errBoom := errors.New("boom")
		second := &mockStep{name: "second"}
		p := New()
		p.AddSteps(
			&mockStep{name: "first", doFunc: func(context.Context, *Run) error { return errBoom }},
			second,
		)

		err := p.Execute(context.Background(), testRun())
		if !errors.Is(err, errBoom) {
			t.Errorf("expected errBoom, got %v", err)
		}
		if second.callCount.Load() != 0 {
			t.Error("second step should not run")
		}
	})

	t.Run("continues on error when configured", func(t *testing.T) {
		t.Parallel()

		errBoom := errors.New("boom")
		second := &mockStep{name: "second"}
		p := New(WithContinueOnError(true))
		p.AddSteps(
			&mockStep{name: "first", doFunc: func(context.Context, *Run) error { return errBoom }},
			second,
		)

		err := p.Execute(context.Background(), testRun())
		if !errors.Is(err, errBoom) {
			t.Errorf("expected errBoom, got %v", err)
		}
		if second.callCount.Load() != 1 {
			t.Error("second step should run once")
		}
	})

	t.Run("cancelled context skips steps except finalizers", func(t *testing.T) {
		t.Parallel()

		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		regular := &mockStep{name: "regular"}
		final := &finalStep{mockStep{name: "final"}}
		p := New()
		p.AddSteps(regular, final)

		run := testRun()
		err := p.Execute(ctx, run)
		if !errors.Is(err, context.Canceled) {
			t.Errorf("expected context.Canceled, got %v", err)
		}
		if regular.callCount.Load() != 0 {
			t.Error("regular step should be skipped")
		}
		if final.callCount.Load() != 1 {
			t.Error("final step should run")
		}
		if !run.TimedOut {
			t.Error("expected run to be marked as timed out")
		}
	})
}
