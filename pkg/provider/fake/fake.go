// Package fake provides an in-memory ComputeProvider that records every command it
// receives. It is meant for tests.
package fake

import (
	"context"
	"fmt"
	"iter"
	"time"

	"github.com/vietdv277/shotty/pkg/provider"
	"github.com/vietdv277/shotty/pkg/types"
)

// Provider is an in-memory provider.ComputeProvider.
//
// Commands and waits are appended to Calls as "<verb> <id>" strings, for example
// "stop i-1", "wait i-1 stopped" or "snapshot vol-1". Reads are counted in Reads.
type Provider struct {
	Calls []string
	Reads int

	// Fail maps a call string to the error returned for it
	Fail map[string]error

	// ListErr is yielded by Instances after the instances matching so far
	ListErr error

	instances []*types.Instance
	volumes   map[string][]types.Volume
	snapshots map[string][]types.Snapshot
	nextSnap  int
	now       func() time.Time
}

var _ provider.ComputeProvider = (*Provider)(nil)

// New returns an empty fake provider
func New() *Provider {
	return &Provider{
		Fail:      make(map[string]error),
		volumes:   make(map[string][]types.Volume),
		snapshots: make(map[string][]types.Snapshot),
		now:       time.Now,
	}
}

// AddInstance registers an instance and its attached volumes
func (p *Provider) AddInstance(inst types.Instance, vols ...types.Volume) {
	inst.VolumeIDs = nil
	for i := range vols {
		vols[i].InstanceID = inst.ID
		inst.VolumeIDs = append(inst.VolumeIDs, vols[i].ID)
	}
	if inst.State == "" {
		inst.State = types.InstanceStateRunning
	}
	p.instances = append(p.instances, &inst)
	p.volumes[inst.ID] = vols
}

// AddSnapshot registers an existing snapshot; it becomes the volume's newest one
func (p *Provider) AddSnapshot(snap types.Snapshot) {
	p.snapshots[snap.VolumeID] = append([]types.Snapshot{snap}, p.snapshots[snap.VolumeID]...)
}

// State returns the current state of an instance
func (p *Provider) State(id string) types.InstanceState {
	if inst := p.find(id); inst != nil {
		return inst.State
	}
	return ""
}

// SnapshotCount returns the number of snapshots recorded for a volume
func (p *Provider) SnapshotCount(volumeID string) int {
	return len(p.snapshots[volumeID])
}

// Reset clears recorded calls and reads
func (p *Provider) Reset() {
	p.Calls = nil
	p.Reads = 0
}

func (p *Provider) Instances(ctx context.Context, filter *provider.InstanceFilter) iter.Seq2[types.Instance, error] {
	return func(yield func(types.Instance, error) bool) {
		p.Reads++
		for _, inst := range p.instances {
			if filter != nil && filter.Project != "" && !inst.InProject(filter.Project) {
				continue
			}
			if !yield(*inst, nil) {
				return
			}
		}
		if p.ListErr != nil {
			yield(types.Instance{}, p.ListErr)
		}
	}
}

func (p *Provider) Volumes(ctx context.Context, instanceID string) iter.Seq2[types.Volume, error] {
	return func(yield func(types.Volume, error) bool) {
		p.Reads++
		if err := p.Fail["volumes "+instanceID]; err != nil {
			yield(types.Volume{}, err)
			return
		}
		for _, v := range p.volumes[instanceID] {
			if !yield(v, nil) {
				return
			}
		}
	}
}

func (p *Provider) Snapshots(ctx context.Context, volumeID string) iter.Seq2[types.Snapshot, error] {
	return func(yield func(types.Snapshot, error) bool) {
		p.Reads++
		for _, s := range p.snapshots[volumeID] {
			if !yield(s, nil) {
				return
			}
		}
	}
}

func (p *Provider) Start(ctx context.Context, instanceID string) error {
	return p.command("start "+instanceID, instanceID, types.InstanceStatePending)
}

func (p *Provider) Stop(ctx context.Context, instanceID string) error {
	return p.command("stop "+instanceID, instanceID, types.InstanceStateStopping)
}

func (p *Provider) Terminate(ctx context.Context, instanceID string) error {
	return p.command("terminate "+instanceID, instanceID, types.InstanceStateShuttingDown)
}

func (p *Provider) CreateSnapshot(ctx context.Context, volumeID, description string) (*types.Snapshot, error) {
	call := "snapshot " + volumeID
	p.Calls = append(p.Calls, call)
	if err := p.Fail[call]; err != nil {
		return nil, err
	}

	p.nextSnap++
	snap := types.Snapshot{
		ID:          fmt.Sprintf("snap-%04d", p.nextSnap),
		VolumeID:    volumeID,
		State:       types.SnapshotStatePending,
		Progress:    "0%",
		StartTime:   p.now(),
		Description: description,
	}
	p.AddSnapshot(snap)
	return &snap, nil
}

func (p *Provider) WaitUntil(ctx context.Context, instanceID string, state types.InstanceState, opts provider.WaitOptions) error {
	call := fmt.Sprintf("wait %s %s", instanceID, state)
	p.Calls = append(p.Calls, call)
	if err := p.Fail[call]; err != nil {
		return err
	}

	inst := p.find(instanceID)
	if inst == nil {
		return fmt.Errorf("instance %s: %w", instanceID, provider.ErrNotFound)
	}
	inst.State = state
	return nil
}

func (p *Provider) command(call, instanceID string, next types.InstanceState) error {
	p.Calls = append(p.Calls, call)
	if err := p.Fail[call]; err != nil {
		return err
	}

	inst := p.find(instanceID)
	if inst == nil {
		return fmt.Errorf("instance %s: %w", instanceID, provider.ErrNotFound)
	}
	inst.State = next
	return nil
}

func (p *Provider) find(id string) *types.Instance {
	for _, inst := range p.instances {
		if inst.ID == id {
			return inst
		}
	}
	return nil
}
