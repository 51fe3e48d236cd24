package provider

import (
	"context"
	"errors"
	"fmt"
	"iter"
	"time"

	"github.com/vietdv277/shotty/pkg/types"
)

// Common errors
var (
	ErrNotFound         = errors.New("resource not found")
	ErrNotConfigured    = errors.New("provider not configured")
	ErrAuthFailed       = errors.New("authentication failed")
	ErrPermissionDenied = errors.New("permission denied")
	ErrWaitTimeout      = errors.New("timed out waiting for instance state")
	ErrUnexpectedState  = errors.New("instance entered an unexpected state")
)

// Default bounds for WaitUntil: 40 polls, 15s apart
const (
	DefaultPollInterval = 15 * time.Second
	DefaultWaitTimeout  = 10 * time.Minute
)

// InstanceFilter contains filters for instance listing
type InstanceFilter struct {
	Project string // exact Project tag value, empty for all instances
}

// WaitOptions bounds a WaitUntil call
type WaitOptions struct {
	PollInterval time.Duration
	Timeout      time.Duration
}

// WithDefaults fills zero fields with the package defaults
func (o WaitOptions) WithDefaults() WaitOptions {
	if o.PollInterval <= 0 {
		o.PollInterval = DefaultPollInterval
	}
	if o.Timeout <= 0 {
		o.Timeout = DefaultWaitTimeout
	}
	return o
}

// WaitError is returned when an instance does not reach the wanted state.
// It matches ErrWaitTimeout or ErrUnexpectedState through errors.Is.
type WaitError struct {
	InstanceID string
	Want       types.InstanceState
	Kind       error // ErrWaitTimeout or ErrUnexpectedState
	Err        error // underlying provider error, may be nil
}

func (e *WaitError) Error() string {
	msg := fmt.Sprintf("waiting for %s to be %s", e.InstanceID, e.Want)
	if e.Kind != nil {
		msg += ": " + e.Kind.Error()
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *WaitError) Unwrap() []error {
	var errs []error
	if e.Kind != nil {
		errs = append(errs, e.Kind)
	}
	if e.Err != nil {
		errs = append(errs, e.Err)
	}
	return errs
}

// ComputeProvider exposes the instance, volume and snapshot operations shotty needs.
// Sequences are lazy and read pages from the provider as they are consumed; each
// returned sequence should be iterated at most once. An error is yielded at most once
// and ends the sequence.
type ComputeProvider interface {
	// Instances returns instances matching the filter, in provider order
	Instances(ctx context.Context, filter *InstanceFilter) iter.Seq2[types.Instance, error]

	// Volumes returns the volumes attached to an instance, in provider order
	Volumes(ctx context.Context, instanceID string) iter.Seq2[types.Volume, error]

	// Snapshots returns the snapshots of a volume, newest first
	Snapshots(ctx context.Context, volumeID string) iter.Seq2[types.Snapshot, error]

	// Start starts an instance without waiting for it to run
	Start(ctx context.Context, instanceID string) error

	// Stop stops an instance without waiting for it to stop
	Stop(ctx context.Context, instanceID string) error

	// Terminate terminates an instance without waiting
	Terminate(ctx context.Context, instanceID string) error

	// CreateSnapshot starts a snapshot of a volume and returns without waiting
	CreateSnapshot(ctx context.Context, volumeID, description string) (*types.Snapshot, error)

	// WaitUntil blocks until the instance reaches state, or returns a *WaitError
	WaitUntil(ctx context.Context, instanceID string, state types.InstanceState, opts WaitOptions) error
}
