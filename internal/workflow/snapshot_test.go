package workflow

import (
	"bytes"
	"context"
	"errors"
	"slices"
	"strings"
	"testing"
	"time"

	"github.com/vietdv277/shotty/internal/dispatch"
	"github.com/vietdv277/shotty/pkg/provider"
	"github.com/vietdv277/shotty/pkg/provider/fake"
	"github.com/vietdv277/shotty/pkg/types"
)

func newProvider() *fake.Provider {
	p := fake.New()
	p.AddInstance(types.Instance{ID: "i-1", Tags: map[string]string{"Project": "demo"}},
		types.Volume{ID: "vol-1"},
		types.Volume{ID: "vol-2"},
	)
	p.AddInstance(types.Instance{ID: "i-2", Tags: map[string]string{"Project": "demo"}},
		types.Volume{ID: "vol-3"},
	)
	p.AddInstance(types.Instance{ID: "i-3", Tags: map[string]string{"Project": "other"}},
		types.Volume{ID: "vol-4"},
	)
	return p
}

func TestRunSequence(t *testing.T) {
	p := newProvider()
	var out bytes.Buffer

	err := New(p, &out).Run(context.Background(), dispatch.Resolve(context.Background(), p, "demo"))
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	wantCalls := []string{
		"stop i-1",
		"wait i-1 stopped",
		"snapshot vol-1",
		"snapshot vol-2",
		"start i-1",
		"wait i-1 running",
		"stop i-2",
		"wait i-2 stopped",
		"snapshot vol-3",
		"start i-2",
		"wait i-2 running",
	}
	if !slices.Equal(p.Calls, wantCalls) {
		t.Fatalf("calls:\n%v\nwant:\n%v", p.Calls, wantCalls)
	}

	wantOut := strings.Join([]string{
		"Stopping i-1...",
		"Creating snapshot of vol-1...",
		"Creating snapshot of vol-2...",
		"Starting i-1...",
		"Instance i-1 is running again, snapshots started",
		"Stopping i-2...",
		"Creating snapshot of vol-3...",
		"Starting i-2...",
		"Instance i-2 is running again, snapshots started",
		"Job done",
	}, "\n") + "\n"
	if out.String() != wantOut {
		t.Fatalf("output:\n%s\nwant:\n%s", out.String(), wantOut)
	}

	if p.SnapshotCount("vol-4") != 0 {
		t.Fatal("instance outside the project was snapshotted")
	}
	if p.State("i-1") != types.InstanceStateRunning {
		t.Fatalf("i-1 state = %s", p.State("i-1"))
	}
}

func TestRunDescription(t *testing.T) {
	p := newProvider()

	err := New(p, &bytes.Buffer{}).Run(context.Background(), dispatch.Single(types.Instance{ID: "i-2"}))
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	for snap, err := range p.Snapshots(context.Background(), "vol-3") {
		if err != nil {
			t.Fatal(err)
		}
		if snap.Description != SnapshotDescription {
			t.Fatalf("description = %q", snap.Description)
		}
	}
}

func TestRunInstanceWithoutVolumes(t *testing.T) {
	p := fake.New()
	p.AddInstance(types.Instance{ID: "i-9"})

	var out bytes.Buffer
	if err := New(p, &out).Run(context.Background(), dispatch.Resolve(context.Background(), p, "")); err != nil {
		t.Fatalf("Run: %v", err)
	}

	want := []string{"stop i-9", "wait i-9 stopped", "start i-9", "wait i-9 running"}
	if !slices.Equal(p.Calls, want) {
		t.Fatalf("calls = %v, want %v", p.Calls, want)
	}
}

func TestRunEmptySelection(t *testing.T) {
	p := newProvider()

	var out bytes.Buffer
	if err := New(p, &out).Run(context.Background(), dispatch.Resolve(context.Background(), p, "missing")); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(p.Calls) != 0 {
		t.Fatalf("calls = %v", p.Calls)
	}
	if out.String() != "Job done\n" {
		t.Fatalf("output = %q", out.String())
	}
}

func TestRunStopWaitTimeout(t *testing.T) {
	p := newProvider()
	p.Fail["wait i-1 stopped"] = &provider.WaitError{
		InstanceID: "i-1",
		Want:       types.InstanceStateStopped,
		Kind:       provider.ErrWaitTimeout,
	}

	var out bytes.Buffer
	err := New(p, &out).Run(context.Background(), dispatch.Resolve(context.Background(), p, "demo"))
	if !errors.Is(err, provider.ErrWaitTimeout) {
		t.Fatalf("expected wait timeout, got %v", err)
	}

	var werr *provider.WaitError
	if !errors.As(err, &werr) || werr.InstanceID != "i-1" {
		t.Fatalf("expected WaitError for i-1, got %v", err)
	}

	if want := []string{"stop i-1", "wait i-1 stopped"}; !slices.Equal(p.Calls, want) {
		t.Fatalf("calls = %v, want %v", p.Calls, want)
	}
	if strings.Contains(out.String(), "Job done") {
		t.Fatal("Job done printed after a failure")
	}
}

func TestRunSnapshotFailureStopsRun(t *testing.T) {
	p := newProvider()
	p.Fail["snapshot vol-2"] = provider.ErrPermissionDenied

	err := New(p, &bytes.Buffer{}).Run(context.Background(), dispatch.Resolve(context.Background(), p, "demo"))
	if !errors.Is(err, provider.ErrPermissionDenied) {
		t.Fatalf("expected permission error, got %v", err)
	}

	want := []string{"stop i-1", "wait i-1 stopped", "snapshot vol-1", "snapshot vol-2"}
	if !slices.Equal(p.Calls, want) {
		t.Fatalf("calls = %v, want %v", p.Calls, want)
	}
	if p.SnapshotCount("vol-1") != 1 {
		t.Fatal("snapshot already started should be kept")
	}
}

func TestRunRunningWaitFailure(t *testing.T) {
	p := newProvider()
	p.Fail["wait i-1 running"] = &provider.WaitError{
		InstanceID: "i-1",
		Want:       types.InstanceStateRunning,
		Kind:       provider.ErrUnexpectedState,
	}

	err := New(p, &bytes.Buffer{}).Run(context.Background(), dispatch.Resolve(context.Background(), p, "demo"))
	if !errors.Is(err, provider.ErrUnexpectedState) {
		t.Fatalf("expected unexpected state, got %v", err)
	}
	if slices.Contains(p.Calls, "stop i-2") {
		t.Fatal("run continued after a failed instance")
	}
}

func TestRunSkipPending(t *testing.T) {
	p := newProvider()
	p.AddSnapshot(types.Snapshot{ID: "snap-old", VolumeID: "vol-1", State: types.SnapshotStatePending})
	p.AddSnapshot(types.Snapshot{ID: "snap-done", VolumeID: "vol-2", State: types.SnapshotStateCompleted})

	var out bytes.Buffer
	err := New(p, &out, WithSkipPending(true)).Run(context.Background(), dispatch.Single(types.Instance{ID: "i-1"}))
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	if slices.Contains(p.Calls, "snapshot vol-1") {
		t.Fatal("volume with a pending snapshot was snapshotted")
	}
	if !slices.Contains(p.Calls, "snapshot vol-2") {
		t.Fatal("volume with a completed snapshot was skipped")
	}
	if !strings.Contains(out.String(), "Skipping vol-1, snapshot already in progress\n") {
		t.Fatalf("output = %q", out.String())
	}
}

func TestRunSkipPendingUsesNewestSnapshot(t *testing.T) {
	base := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)

	p := newProvider()
	// vol-1: an old pending snapshot listed after a newer completed one
	p.AddSnapshot(types.Snapshot{ID: "snap-old", VolumeID: "vol-1", State: types.SnapshotStatePending, StartTime: base})
	p.AddSnapshot(types.Snapshot{ID: "snap-new", VolumeID: "vol-1", State: types.SnapshotStateCompleted, StartTime: base.Add(time.Hour)})
	// vol-2: the newest snapshot is pending but listed last
	p.AddSnapshot(types.Snapshot{ID: "snap-pending", VolumeID: "vol-2", State: types.SnapshotStatePending, StartTime: base.Add(2 * time.Hour)})
	p.AddSnapshot(types.Snapshot{ID: "snap-done", VolumeID: "vol-2", State: types.SnapshotStateCompleted, StartTime: base})

	var out bytes.Buffer
	err := New(p, &out, WithSkipPending(true)).Run(context.Background(), dispatch.Single(types.Instance{ID: "i-1"}))
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	if !slices.Contains(p.Calls, "snapshot vol-1") {
		t.Fatal("vol-1 was skipped although its newest snapshot completed")
	}
	if slices.Contains(p.Calls, "snapshot vol-2") {
		t.Fatal("vol-2 was snapshotted although its newest snapshot is pending")
	}
}

func TestRunProgressAndWaitOptions(t *testing.T) {
	p := newProvider()

	var shown []string
	stopped := 0
	opts := provider.WaitOptions{PollInterval: 1, Timeout: 2}

	s := New(p, &bytes.Buffer{},
		WithWaitOptions(opts),
		WithProgress(func(msg string) func() {
			shown = append(shown, msg)
			return func() { stopped++ }
		}),
	)
	if s.wait != opts {
		t.Fatalf("wait options = %+v", s.wait)
	}

	if err := s.Run(context.Background(), dispatch.Single(types.Instance{ID: "i-2"})); err != nil {
		t.Fatalf("Run: %v", err)
	}

	want := []string{"Waiting for i-2 to be stopped", "Waiting for i-2 to be running"}
	if !slices.Equal(shown, want) {
		t.Fatalf("progress = %v, want %v", shown, want)
	}
	if stopped != 2 {
		t.Fatalf("progress stopped %d times", stopped)
	}
}

func TestNewDefaults(t *testing.T) {
	s := New(fake.New(), &bytes.Buffer{})
	if s.wait.PollInterval != provider.DefaultPollInterval || s.wait.Timeout != provider.DefaultWaitTimeout {
		t.Fatalf("wait options = %+v", s.wait)
	}
}
