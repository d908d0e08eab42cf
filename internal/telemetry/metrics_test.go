package telemetry

import (
	"context"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/goliatone/go-cms-inline/internal/autosave"
	"github.com/goliatone/go-cms-inline/internal/domain"
	"github.com/goliatone/go-cms-inline/internal/elements"
	"github.com/goliatone/go-cms-inline/internal/scheduler"
)

func TestMetricsCountSaveOutcomes(t *testing.T) {
	m := NewMetrics(prometheus.NewRegistry())

	m.SaveStarted(autosave.IntentAutosave)
	m.SaveFinished(autosave.IntentAutosave, autosave.ClassNone, 20*time.Millisecond)
	m.SaveStarted(autosave.IntentPublish)
	m.SaveFinished(autosave.IntentPublish, autosave.ClassConflict, 5*time.Millisecond)

	if got := testutil.ToFloat64(m.SavesStarted.WithLabelValues("autosave")); got != 1 {
		t.Fatalf("expected one autosave start, got %v", got)
	}
	if got := testutil.ToFloat64(m.SavesFinished.WithLabelValues("autosave", "success")); got != 1 {
		t.Fatalf("expected one autosave success, got %v", got)
	}
	if got := testutil.ToFloat64(m.SavesFinished.WithLabelValues("publish", "conflict")); got != 1 {
		t.Fatalf("expected one publish conflict, got %v", got)
	}
	if got := testutil.ToFloat64(m.SavesInFlight); got != 0 {
		t.Fatalf("expected no saves in flight, got %v", got)
	}
}

func TestMetricsRetriesAndSupersede(t *testing.T) {
	m := NewMetrics(prometheus.NewRegistry())

	m.RetryScheduled(autosave.IntentAutosave, 1, time.Second)
	m.RetryScheduled(autosave.IntentAutosave, 2, 2*time.Second)
	m.RetriesExhausted(autosave.IntentAutosave)
	m.Superseded(autosave.IntentAutosave)

	if got := testutil.ToFloat64(m.RetriesScheduled.WithLabelValues("autosave")); got != 2 {
		t.Fatalf("expected two retries, got %v", got)
	}
	if got := testutil.ToFloat64(m.RetriesExhaustedCt.WithLabelValues("autosave")); got != 1 {
		t.Fatalf("expected one exhausted, got %v", got)
	}
	if got := testutil.ToFloat64(m.SavesSuperseded.WithLabelValues("autosave")); got != 1 {
		t.Fatalf("expected one superseded, got %v", got)
	}
}

func TestOutcomeLabels(t *testing.T) {
	if Outcome(autosave.ClassNone) != "success" {
		t.Fatalf("expected success label for no failure")
	}
	if Outcome(autosave.ClassNetwork) != "network" {
		t.Fatalf("expected network label")
	}
}

type flakyGateway struct {
	calls int
}

func (f *flakyGateway) Upsert(_ context.Context, req elements.UpsertRequest) (*elements.Element, error) {
	f.calls++
	if f.calls == 1 {
		return nil, autosave.ErrUnavailable
	}
	return &elements.Element{PageKey: req.PageKey, ElementKey: req.ElementKey, Revision: f.calls}, nil
}

func TestMetricsObserveManagerRetries(t *testing.T) {
	m := NewMetrics(prometheus.NewRegistry())
	clock := scheduler.NewManual(scheduler.WithStart(time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)))
	cfg := autosave.DefaultConfig()
	gw := &flakyGateway{}

	mgr, err := autosave.New(
		domain.ElementRef{PageKey: "home", ElementKey: "hero_badge"},
		domain.ElementText,
		autosave.Snapshot{},
		gw,
		cfg,
		autosave.WithScheduler(clock),
		autosave.WithDispatcher(autosave.Synchronous),
		autosave.WithRecorder(m),
	)
	if err != nil {
		t.Fatalf("new manager: %v", err)
	}
	defer mgr.Close()

	if err := mgr.Update(autosave.Snapshot{ContentEn: "Welcome"}, autosave.OriginUser); err != nil {
		t.Fatalf("update: %v", err)
	}
	clock.Advance(cfg.DebounceTime)
	clock.Advance(cfg.RetryBackoff)

	if gw.calls != 2 {
		t.Fatalf("expected two gateway calls, got %d", gw.calls)
	}
	if got := testutil.ToFloat64(m.SavesFinished.WithLabelValues("autosave", "network")); got != 1 {
		t.Fatalf("expected one network failure, got %v", got)
	}
	if got := testutil.ToFloat64(m.SavesFinished.WithLabelValues("autosave", "success")); got != 1 {
		t.Fatalf("expected one success, got %v", got)
	}
	if got := testutil.ToFloat64(m.RetriesScheduled.WithLabelValues("autosave")); got != 1 {
		t.Fatalf("expected one retry, got %v", got)
	}
	if status := mgr.Status(); status.State != autosave.StateIdle || status.Dirty {
		t.Fatalf("expected clean idle session, got %+v", status)
	}
}

func TestMetricsCountCommands(t *testing.T) {
	m := NewMetrics(prometheus.NewRegistry())

	m.CommandExecuted("elements.publish", "ok", 3*time.Millisecond)
	m.CommandExecuted("elements.publish", "denied", time.Millisecond)
	m.CommandExecuted("collections.save", "ok", 2*time.Millisecond)

	if got := testutil.ToFloat64(m.CommandsExecuted.WithLabelValues("elements.publish", "ok")); got != 1 {
		t.Fatalf("expected one successful publish command, got %v", got)
	}
	if got := testutil.ToFloat64(m.CommandsExecuted.WithLabelValues("elements.publish", "denied")); got != 1 {
		t.Fatalf("expected one denied publish command, got %v", got)
	}
	if got := testutil.CollectAndCount(m.CommandDuration); got != 2 {
		t.Fatalf("expected duration series per operation, got %d", got)
	}
}
