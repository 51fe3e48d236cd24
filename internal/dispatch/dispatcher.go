package dispatch

import (
	"context"
	"fmt"
	"io"
	"iter"
	"strconv"
	"time"

	"github.com/inconshreveable/log15"
	"github.com/vietdv277/shotty/internal/logging"
	"github.com/vietdv277/shotty/pkg/provider"
	"github.com/vietdv277/shotty/pkg/types"
)

// Command names a user command applied to a set of instances
type Command string

const (
	CommandList      Command = "list"
	CommandStart     Command = "start"
	CommandStop      Command = "stop"
	CommandTerminate Command = "terminate"
	CommandSnapshot  Command = "snapshot"
)

// Isolated reports whether a failure on one instance is reported and skipped for cmd.
// Start and stop are best effort. Terminate, snapshot and listings stop at the
// first failure.
func Isolated(cmd Command) bool {
	switch cmd {
	case CommandStart, CommandStop:
		return true
	default:
		return false
	}
}

// Column headers, used by table output
var (
	InstanceHeaders = []string{"ID", "Type", "AZ", "State", "Public DNS", "Project"}
	VolumeHeaders   = []string{"Volume", "Instance", "State", "Size", "Encryption"}
	SnapshotHeaders = []string{"Snapshot", "Volume", "Instance", "State", "Progress", "Started"}
)

// Dispatcher fans user commands out over the instances selected by a project
type Dispatcher struct {
	provider provider.ComputeProvider
	out      io.Writer
	log      log15.Logger
	sink     SinkFactory
}

// Option allows customizing the Dispatcher
type Option func(*Dispatcher)

// WithLogger sets the logger for the dispatcher
func WithLogger(l log15.Logger) Option {
	return func(d *Dispatcher) {
		d.log = l
	}
}

// WithSink sets how list commands render their rows
func WithSink(f SinkFactory) Option {
	return func(d *Dispatcher) {
		d.sink = f
	}
}

// New creates a Dispatcher writing progress and listings to out
func New(p provider.ComputeProvider, out io.Writer, opts ...Option) *Dispatcher {
	d := &Dispatcher{
		provider: p,
		out:      out,
		sink:     TextSink,
	}

	for _, opt := range opts {
		opt(d)
	}

	if d.log == nil {
		d.log = logging.Discard()
	}

	return d
}

// ListInstances prints one line per selected instance
func (d *Dispatcher) ListInstances(ctx context.Context, project string) error {
	rows := d.sink(d.out, InstanceHeaders, ", ")

	_, err := Apply(ctx, Resolve(ctx, d.provider, project), instanceID,
		func(ctx context.Context, inst types.Instance) error {
			return rows.Row(InstanceFields(inst)...)
		},
		ApplyOptions{Verb: string(CommandList), Isolate: Isolated(CommandList)},
	)
	if err != nil {
		return err
	}

	return rows.Flush()
}

// ListVolumes prints one line per volume attached to a selected instance
func (d *Dispatcher) ListVolumes(ctx context.Context, project string) error {
	rows := d.sink(d.out, VolumeHeaders, ",")

	_, err := Apply(ctx, Resolve(ctx, d.provider, project), instanceID,
		func(ctx context.Context, inst types.Instance) error {
			for v, err := range d.provider.Volumes(ctx, inst.ID) {
				if err != nil {
					return err
				}
				if err := rows.Row(VolumeFields(v, inst.ID)...); err != nil {
					return err
				}
			}
			return nil
		},
		ApplyOptions{Verb: "list volumes of", Isolate: Isolated(CommandList)},
	)
	if err != nil {
		return err
	}

	return rows.Flush()
}

// ListSnapshots prints one line per snapshot of the volumes attached to selected
// instances, in the order the provider returns them.
func (d *Dispatcher) ListSnapshots(ctx context.Context, project string) error {
	rows := d.sink(d.out, SnapshotHeaders, ",")

	_, err := Apply(ctx, Resolve(ctx, d.provider, project), instanceID,
		func(ctx context.Context, inst types.Instance) error {
			for v, err := range d.provider.Volumes(ctx, inst.ID) {
				if err != nil {
					return err
				}
				for s, err := range d.provider.Snapshots(ctx, v.ID) {
					if err != nil {
						return err
					}
					if err := rows.Row(SnapshotFields(s, v.ID, inst.ID)...); err != nil {
						return err
					}
				}
			}
			return nil
		},
		ApplyOptions{Verb: "list snapshots of", Isolate: Isolated(CommandList)},
	)
	if err != nil {
		return err
	}

	return rows.Flush()
}

// StartInstances issues a start to every selected instance
func (d *Dispatcher) StartInstances(ctx context.Context, project string) ([]Outcome, error) {
	return d.Each(ctx, CommandStart, Resolve(ctx, d.provider, project))
}

// StopInstances issues a stop to every selected instance
func (d *Dispatcher) StopInstances(ctx context.Context, project string) ([]Outcome, error) {
	return d.Each(ctx, CommandStop, Resolve(ctx, d.provider, project))
}

// TerminateInstances issues a terminate to every selected instance
func (d *Dispatcher) TerminateInstances(ctx context.Context, project string) ([]Outcome, error) {
	return d.Each(ctx, CommandTerminate, Resolve(ctx, d.provider, project))
}

// Each issues one start, stop or terminate per instance of seq without waiting for
// the state change, following the isolation policy of cmd.
func (d *Dispatcher) Each(ctx context.Context, cmd Command, seq iter.Seq2[types.Instance, error]) ([]Outcome, error) {
	var issue func(context.Context, string) error
	var progress string

	switch cmd {
	case CommandStart:
		issue, progress = d.provider.Start, "Starting"
	case CommandStop:
		issue, progress = d.provider.Stop, "Stopping"
	case CommandTerminate:
		issue, progress = d.provider.Terminate, "Terminating"
	default:
		return nil, fmt.Errorf("unsupported command: %s", cmd)
	}

	log := d.log.New("command", string(cmd))

	return Apply(ctx, seq, instanceID,
		func(ctx context.Context, inst types.Instance) error {
			fmt.Fprintf(d.out, "%s %s...\n", progress, inst.ID)
			log.Debug("issuing command", "instance", inst.ID)
			return issue(ctx, inst.ID)
		},
		ApplyOptions{
			Verb:    string(cmd),
			Isolate: Isolated(cmd),
			OnFailure: func(id string, err error) {
				fmt.Fprintf(d.out, "Could not %s %s: %v\n", cmd, id, err)
				log.Warn("command failed", "instance", id, "err", err)
			},
		},
	)
}

// Single returns a sequence holding only inst
func Single(inst types.Instance) iter.Seq2[types.Instance, error] {
	return func(yield func(types.Instance, error) bool) {
		yield(inst, nil)
	}
}

// InstanceFields returns the fields printed by the instance listing
func InstanceFields(inst types.Instance) []string {
	return []string{
		inst.ID,
		inst.Type,
		inst.AZ,
		string(inst.State),
		inst.PublicDNS,
		inst.ProjectOrPlaceholder(),
	}
}

// VolumeFields returns the fields printed by the volume listing
func VolumeFields(v types.Volume, instanceID string) []string {
	return []string{
		v.ID,
		instanceID,
		v.State,
		strconv.Itoa(int(v.SizeGiB)) + "GiB",
		v.EncryptionLabel(),
	}
}

// SnapshotFields returns the fields printed by the snapshot listing
func SnapshotFields(s types.Snapshot, volumeID, instanceID string) []string {
	return []string{
		s.ID,
		volumeID,
		instanceID,
		string(s.State),
		s.Progress,
		FormatStartTime(s.StartTime),
	}
}

// FormatStartTime formats t in local time like the C locale's %c
func FormatStartTime(t time.Time) string {
	return t.Local().Format(time.ANSIC)
}

func instanceID(inst types.Instance) string {
	return inst.ID
}
