package policy_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/ErlanBelekov/dist-job-scheduler/internal/domain"
	"github.com/ErlanBelekov/dist-job-scheduler/internal/policy"
	"github.com/ErlanBelekov/dist-job-scheduler/internal/repository"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type fakeDTWRepo struct {
	executed  map[string]bool
	scheduled map[string]bool
}

func newFakeDTWRepo() *fakeDTWRepo {
	return &fakeDTWRepo{executed: map[string]bool{}, scheduled: map[string]bool{}}
}

func (f *fakeDTWRepo) Create(ctx context.Context, d *domain.DTW) (*domain.DTW, error) { return d, nil }
func (f *fakeDTWRepo) Get(ctx context.Context, name, projectID string, insecure bool) (*domain.DTW, error) {
	return nil, domain.ErrDTWNotFound
}
func (f *fakeDTWRepo) List(ctx context.Context, input repository.ListDTWInput) ([]*domain.DTW, error) {
	return nil, nil
}
func (f *fakeDTWRepo) Delete(ctx context.Context, name, projectID string) error { return nil }
func (f *fakeDTWRepo) GetUnscheduled(ctx context.Context, insecure bool) ([]*domain.DTW, error) {
	return nil, nil
}
func (f *fakeDTWRepo) CASSetExecuted(ctx context.Context, name string, want bool) (bool, error) {
	if f.executed[name] == want {
		return false, nil
	}
	f.executed[name] = want
	return true, nil
}
func (f *fakeDTWRepo) CASSetScheduled(ctx context.Context, name string, want bool) (bool, error) {
	if f.scheduled[name] == want {
		return false, nil
	}
	f.scheduled[name] = want
	return true, nil
}

type fakeCronTriggerRepo struct {
	created []*domain.CronTrigger
}

func (f *fakeCronTriggerRepo) Create(ctx context.Context, t *domain.CronTrigger) (*domain.CronTrigger, error) {
	f.created = append(f.created, t)
	return t, nil
}
func (f *fakeCronTriggerRepo) Get(ctx context.Context, name string) (*domain.CronTrigger, error) {
	return nil, domain.ErrCronTriggerNotFound
}
func (f *fakeCronTriggerRepo) Delete(ctx context.Context, name string) error { return nil }
func (f *fakeCronTriggerRepo) ListDue(ctx context.Context, now time.Time) ([]*domain.CronTrigger, error) {
	return nil, nil
}
func (f *fakeCronTriggerRepo) Advance(ctx context.Context, t *domain.CronTrigger, nextFireTime func(string, time.Time) (time.Time, error)) (bool, error) {
	return true, nil
}

type fakeDispatcher struct {
	calls int
	err   error
}

func (f *fakeDispatcher) StartWorkflow(_ context.Context, _ string, _, _ map[string]any, _ string) error {
	f.calls++
	return f.err
}

type fakeOracle struct {
	curve *domain.PriceCurve
	err   error
}

func (f *fakeOracle) GetPrices(_ context.Context) (*domain.PriceCurve, error) { return f.curve, f.err }

func TestResolveMode(t *testing.T) {
	tests := []struct {
		name         string
		configured   string
		legacy       bool
		want         policy.Mode
		wantErr      bool
	}{
		{"explicit wins", "energy-aware", true, policy.ModeEnergyAware, false},
		{"legacy true maps to last-minute", "", true, policy.ModeLastMinute, false},
		{"legacy false maps to immediately", "", false, policy.ModeImmediate, false},
		{"unknown mode errors", "bogus", false, "", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := policy.ResolveMode(tt.configured, tt.legacy)
			if tt.wantErr {
				if err == nil {
					t.Fatal("expected error, got nil")
				}
				var cfgErr *domain.ConfigError
				if !errors.As(err, &cfgErr) {
					t.Fatalf("expected a *domain.ConfigError, got %T", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.want {
				t.Errorf("ResolveMode() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestImmediate_Handle_DispatchesOnce(t *testing.T) {
	dtws := newFakeDTWRepo()
	dispatcher := &fakeDispatcher{}
	p := &policy.Immediate{DTWs: dtws, Dispatcher: dispatcher, Logger: discardLogger()}

	d := &domain.DTW{Name: "dtw-1", WorkflowName: "wf"}
	if err := p.Handle(context.Background(), d); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if dispatcher.calls != 1 {
		t.Fatalf("expected 1 dispatch call, got %d", dispatcher.calls)
	}

	// Second call loses the CAS race and must not dispatch again.
	if err := p.Handle(context.Background(), d); err != nil {
		t.Fatalf("unexpected error on second call: %v", err)
	}
	if dispatcher.calls != 1 {
		t.Fatalf("expected dispatch to stay at 1 after losing CAS, got %d", dispatcher.calls)
	}
}

func TestLastMinute_Handle_SchedulesAtDeadlineMinusDuration(t *testing.T) {
	dtws := newFakeDTWRepo()
	triggers := &fakeCronTriggerRepo{}
	p := &policy.LastMinute{DTWs: dtws, CronTriggers: triggers, Logger: discardLogger()}

	deadline := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	d := &domain.DTW{Name: "dtw-2", Deadline: deadline, JobDurationMin: 30}

	if err := p.Handle(context.Background(), d); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(triggers.created) != 1 {
		t.Fatalf("expected 1 trigger created, got %d", len(triggers.created))
	}
	want := deadline.Add(-30 * time.Minute)
	if !triggers.created[0].NextExecutionTime.Equal(want) {
		t.Errorf("NextExecutionTime = %v, want %v", triggers.created[0].NextExecutionTime, want)
	}
}

func TestEnergyAware_LongJob_FallsBackToImmediate(t *testing.T) {
	dtws := newFakeDTWRepo()
	dispatcher := &fakeDispatcher{}
	triggers := &fakeCronTriggerRepo{}
	p := &policy.EnergyAware{
		DTWs: dtws, CronTriggers: triggers, Dispatcher: dispatcher,
		Oracle: &fakeOracle{}, Logger: discardLogger(),
	}

	d := &domain.DTW{Name: "dtw-long", JobDurationMin: 500}
	if err := p.Handle(context.Background(), d); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if dispatcher.calls != 1 {
		t.Fatalf("expected long job to dispatch immediately, got %d calls", dispatcher.calls)
	}
	if len(triggers.created) != 0 {
		t.Fatalf("expected no cron trigger for a long job, got %d", len(triggers.created))
	}
}

func TestEnergyAware_OracleUnavailable_FallsBackToTwoMinutes(t *testing.T) {
	dtws := newFakeDTWRepo()
	triggers := &fakeCronTriggerRepo{}
	now := time.Date(2026, 1, 1, 10, 0, 0, 0, time.UTC)
	p := &policy.EnergyAware{
		DTWs: dtws, CronTriggers: triggers, Dispatcher: &fakeDispatcher{},
		Oracle: &fakeOracle{curve: nil}, Logger: discardLogger(),
		Now: func() time.Time { return now },
	}

	d := &domain.DTW{Name: "dtw-short", JobDurationMin: 60, Deadline: now.Add(6 * time.Hour)}
	if err := p.Handle(context.Background(), d); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(triggers.created) != 1 {
		t.Fatalf("expected 1 trigger, got %d", len(triggers.created))
	}
	want := now.Add(2 * time.Minute)
	if !triggers.created[0].NextExecutionTime.Equal(want) {
		t.Errorf("NextExecutionTime = %v, want fallback %v", triggers.created[0].NextExecutionTime, want)
	}
}
