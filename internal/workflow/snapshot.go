// Package workflow sequences the stop, snapshot and start cycle over instances.
package workflow

import (
	"context"
	"fmt"
	"io"
	"iter"

	"github.com/inconshreveable/log15"
	"github.com/vietdv277/shotty/internal/dispatch"
	"github.com/vietdv277/shotty/internal/logging"
	"github.com/vietdv277/shotty/pkg/provider"
	"github.com/vietdv277/shotty/pkg/types"
)

// SnapshotDescription is attached to every snapshot created by the workflow
const SnapshotDescription = "Created by snapshot function from shotty"

// Snapshotter takes a snapshot of every volume of an instance while it is stopped
type Snapshotter struct {
	provider    provider.ComputeProvider
	out         io.Writer
	log         log15.Logger
	wait        provider.WaitOptions
	skipPending bool
	progress    func(msg string) (stop func())
}

// Option allows customizing the Snapshotter
type Option func(*Snapshotter)

// WithLogger sets the logger
func WithLogger(l log15.Logger) Option {
	return func(s *Snapshotter) {
		s.log = l
	}
}

// WithWaitOptions bounds the waits for the stopped and running states
func WithWaitOptions(o provider.WaitOptions) Option {
	return func(s *Snapshotter) {
		s.wait = o
	}
}

// WithSkipPending skips volumes whose latest snapshot has not completed yet
func WithSkipPending(skip bool) Option {
	return func(s *Snapshotter) {
		s.skipPending = skip
	}
}

// WithProgress sets a function called when a wait begins; the returned func is
// called when the wait ends.
func WithProgress(f func(msg string) (stop func())) Option {
	return func(s *Snapshotter) {
		s.progress = f
	}
}

// New creates a Snapshotter writing progress lines to out
func New(p provider.ComputeProvider, out io.Writer, opts ...Option) *Snapshotter {
	s := &Snapshotter{
		provider: p,
		out:      out,
	}

	for _, opt := range opts {
		opt(s)
	}

	if s.log == nil {
		s.log = logging.Discard()
	}
	s.wait = s.wait.WithDefaults()

	return s
}

// Run snapshots the instances of seq one after the other. The first failure stops
// the run; snapshots already started are left in place and an instance whose wait
// failed is left in whatever state it reached.
func (s *Snapshotter) Run(ctx context.Context, seq iter.Seq2[types.Instance, error]) error {
	_, err := dispatch.Apply(ctx, seq,
		func(inst types.Instance) string { return inst.ID },
		s.snapshotInstance,
		dispatch.ApplyOptions{
			Verb:    string(dispatch.CommandSnapshot),
			Isolate: dispatch.Isolated(dispatch.CommandSnapshot),
		},
	)
	if err != nil {
		return err
	}

	fmt.Fprintln(s.out, "Job done")
	return nil
}

func (s *Snapshotter) snapshotInstance(ctx context.Context, inst types.Instance) error {
	log := s.log.New("instance", inst.ID)

	fmt.Fprintf(s.out, "Stopping %s...\n", inst.ID)
	if err := s.provider.Stop(ctx, inst.ID); err != nil {
		return err
	}
	if err := s.waitFor(ctx, inst.ID, types.InstanceStateStopped); err != nil {
		return err
	}

	for v, err := range s.provider.Volumes(ctx, inst.ID) {
		if err != nil {
			return err
		}

		if s.skipPending {
			pending, err := s.latestPending(ctx, v.ID)
			if err != nil {
				return err
			}
			if pending {
				fmt.Fprintf(s.out, "Skipping %s, snapshot already in progress\n", v.ID)
				log.Info("skipped volume", "volume", v.ID)
				continue
			}
		}

		fmt.Fprintf(s.out, "Creating snapshot of %s...\n", v.ID)
		snap, err := s.provider.CreateSnapshot(ctx, v.ID, SnapshotDescription)
		if err != nil {
			return fmt.Errorf("snapshot %s: %w", v.ID, err)
		}
		log.Info("snapshot started", "volume", v.ID, "snapshot", snap.ID)
	}

	fmt.Fprintf(s.out, "Starting %s...\n", inst.ID)
	if err := s.provider.Start(ctx, inst.ID); err != nil {
		return err
	}
	if err := s.waitFor(ctx, inst.ID, types.InstanceStateRunning); err != nil {
		return err
	}

	fmt.Fprintf(s.out, "Instance %s is running again, snapshots started\n", inst.ID)
	return nil
}

func (s *Snapshotter) waitFor(ctx context.Context, id string, state types.InstanceState) error {
	if s.progress != nil {
		stop := s.progress(fmt.Sprintf("Waiting for %s to be %s", id, state))
		defer stop()
	}

	s.log.Debug("waiting", "instance", id, "state", state, "timeout", s.wait.Timeout)
	return s.provider.WaitUntil(ctx, id, state, s.wait)
}

// latestPending reports whether the newest snapshot of a volume is still pending.
// Snapshots come in no particular order, so every one is read.
func (s *Snapshotter) latestPending(ctx context.Context, volumeID string) (bool, error) {
	var latest *types.Snapshot
	for snap, err := range s.provider.Snapshots(ctx, volumeID) {
		if err != nil {
			return false, err
		}
		if latest == nil || snap.StartTime.After(latest.StartTime) {
			latest = &snap
		}
	}
	return latest != nil && latest.IsPending(), nil
}
