package aws

import (
	"context"
	"errors"
	"fmt"
	"iter"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ec2"
	ec2types "github.com/aws/aws-sdk-go-v2/service/ec2/types"
	"github.com/inconshreveable/log15"

	"github.com/vietdv277/shotty/internal/logging"
	"github.com/vietdv277/shotty/pkg/provider"
	"github.com/vietdv277/shotty/pkg/types"
)

// Messages returned by the SDK instance waiters
const (
	waiterTimeoutMsg = "exceeded max wait time"
	waiterFailureMsg = "waiter state transitioned to Failure"
)

// ComputeProvider implements provider.ComputeProvider for AWS EC2
type ComputeProvider struct {
	api EC2API
	log log15.Logger
}

var _ provider.ComputeProvider = (*ComputeProvider)(nil)

// NewComputeProvider creates a new EC2 compute provider
func NewComputeProvider(api EC2API, log log15.Logger) *ComputeProvider {
	if log == nil {
		log = logging.Discard()
	}
	return &ComputeProvider{
		api: api,
		log: log.New("provider", "aws"),
	}
}

// Instances pages through DescribeInstances as the sequence is consumed.
// Tag filter values are wildcard patterns for EC2, so the Project tag is matched
// again here to keep the match exact.
func (p *ComputeProvider) Instances(ctx context.Context, filter *provider.InstanceFilter) iter.Seq2[types.Instance, error] {
	project := ""
	if filter != nil {
		project = filter.Project
	}

	input := &ec2.DescribeInstancesInput{}
	if project != "" {
		input.Filters = []ec2types.Filter{
			{
				Name:   aws.String("tag:" + types.ProjectTag),
				Values: []string{project},
			},
		}
	}

	return func(yield func(types.Instance, error) bool) {
		paginator := ec2.NewDescribeInstancesPaginator(p.api, input)

		for page := 1; paginator.HasMorePages(); page++ {
			output, err := paginator.NextPage(ctx)
			if err != nil {
				yield(types.Instance{}, classify(err))
				return
			}
			p.log.Debug("describe instances", "page", page, "reservations", len(output.Reservations))

			for _, reservation := range output.Reservations {
				for _, i := range reservation.Instances {
					inst := toInstance(i)
					if project != "" && !inst.InProject(project) {
						continue
					}
					if !yield(inst, nil) {
						return
					}
				}
			}
		}
	}
}

// Volumes pages through the volumes attached to an instance
func (p *ComputeProvider) Volumes(ctx context.Context, instanceID string) iter.Seq2[types.Volume, error] {
	input := &ec2.DescribeVolumesInput{
		Filters: []ec2types.Filter{
			{
				Name:   aws.String("attachment.instance-id"),
				Values: []string{instanceID},
			},
		},
	}

	return func(yield func(types.Volume, error) bool) {
		paginator := ec2.NewDescribeVolumesPaginator(p.api, input)

		for page := 1; paginator.HasMorePages(); page++ {
			output, err := paginator.NextPage(ctx)
			if err != nil {
				yield(types.Volume{}, classify(err))
				return
			}
			p.log.Debug("describe volumes", "instance", instanceID, "page", page, "volumes", len(output.Volumes))

			for _, v := range output.Volumes {
				if !yield(toVolume(v, instanceID), nil) {
					return
				}
			}
		}
	}
}

// Snapshots pages through the snapshots owned by the account for a volume
func (p *ComputeProvider) Snapshots(ctx context.Context, volumeID string) iter.Seq2[types.Snapshot, error] {
	input := &ec2.DescribeSnapshotsInput{
		OwnerIds: []string{"self"},
		Filters: []ec2types.Filter{
			{
				Name:   aws.String("volume-id"),
				Values: []string{volumeID},
			},
		},
	}

	return func(yield func(types.Snapshot, error) bool) {
		paginator := ec2.NewDescribeSnapshotsPaginator(p.api, input)

		for page := 1; paginator.HasMorePages(); page++ {
			output, err := paginator.NextPage(ctx)
			if err != nil {
				yield(types.Snapshot{}, classify(err))
				return
			}
			p.log.Debug("describe snapshots", "volume", volumeID, "page", page, "snapshots", len(output.Snapshots))

			for _, s := range output.Snapshots {
				if !yield(toSnapshot(s), nil) {
					return
				}
			}
		}
	}
}

// Start starts an EC2 instance
func (p *ComputeProvider) Start(ctx context.Context, instanceID string) error {
	_, err := p.api.StartInstances(ctx, &ec2.StartInstancesInput{
		InstanceIds: []string{instanceID},
	})
	return classify(err)
}

// Stop stops an EC2 instance
func (p *ComputeProvider) Stop(ctx context.Context, instanceID string) error {
	_, err := p.api.StopInstances(ctx, &ec2.StopInstancesInput{
		InstanceIds: []string{instanceID},
	})
	return classify(err)
}

// Terminate terminates an EC2 instance
func (p *ComputeProvider) Terminate(ctx context.Context, instanceID string) error {
	_, err := p.api.TerminateInstances(ctx, &ec2.TerminateInstancesInput{
		InstanceIds: []string{instanceID},
	})
	return classify(err)
}

// CreateSnapshot starts a snapshot of an EBS volume
func (p *ComputeProvider) CreateSnapshot(ctx context.Context, volumeID, description string) (*types.Snapshot, error) {
	output, err := p.api.CreateSnapshot(ctx, &ec2.CreateSnapshotInput{
		VolumeId:    aws.String(volumeID),
		Description: aws.String(description),
	})
	if err != nil {
		return nil, classify(err)
	}

	snap := types.Snapshot{
		ID:          aws.ToString(output.SnapshotId),
		VolumeID:    aws.ToString(output.VolumeId),
		State:       types.SnapshotState(output.State),
		Progress:    aws.ToString(output.Progress),
		StartTime:   aws.ToTime(output.StartTime),
		Description: aws.ToString(output.Description),
	}
	return &snap, nil
}

// WaitUntil polls DescribeInstances with the SDK waiters until the instance reaches
// state. The poll interval is used as both the minimum and maximum waiter delay.
func (p *ComputeProvider) WaitUntil(ctx context.Context, instanceID string, state types.InstanceState, opts provider.WaitOptions) error {
	opts = opts.WithDefaults()
	input := &ec2.DescribeInstancesInput{
		InstanceIds: []string{instanceID},
	}

	p.log.Debug("waiting for instance", "instance", instanceID, "state", state,
		"interval", opts.PollInterval, "timeout", opts.Timeout)

	var err error
	switch state {
	case types.InstanceStateStopped:
		w := ec2.NewInstanceStoppedWaiter(p.api, func(o *ec2.InstanceStoppedWaiterOptions) {
			o.MinDelay, o.MaxDelay = opts.PollInterval, opts.PollInterval
		})
		err = w.Wait(ctx, input, opts.Timeout)
	case types.InstanceStateRunning:
		w := ec2.NewInstanceRunningWaiter(p.api, func(o *ec2.InstanceRunningWaiterOptions) {
			o.MinDelay, o.MaxDelay = opts.PollInterval, opts.PollInterval
		})
		err = w.Wait(ctx, input, opts.Timeout)
	case types.InstanceStateTerminated:
		w := ec2.NewInstanceTerminatedWaiter(p.api, func(o *ec2.InstanceTerminatedWaiterOptions) {
			o.MinDelay, o.MaxDelay = opts.PollInterval, opts.PollInterval
		})
		err = w.Wait(ctx, input, opts.Timeout)
	default:
		return fmt.Errorf("cannot wait for instance state %q", state)
	}

	if err == nil {
		return nil
	}
	return waitError(ctx, instanceID, state, err)
}

// waitError converts a waiter failure into a *provider.WaitError
func waitError(ctx context.Context, instanceID string, state types.InstanceState, err error) error {
	werr := &provider.WaitError{
		InstanceID: instanceID,
		Want:       state,
		Err:        classify(err),
	}

	switch {
	case ctx.Err() != nil:
		// cancelled by the caller, not a timeout
	case errors.Is(err, context.DeadlineExceeded), strings.Contains(err.Error(), waiterTimeoutMsg):
		werr.Kind = provider.ErrWaitTimeout
	case strings.Contains(err.Error(), waiterFailureMsg):
		werr.Kind = provider.ErrUnexpectedState
	}

	return werr
}

// toInstance converts an EC2 instance to our Instance type
func toInstance(i ec2types.Instance) types.Instance {
	inst := types.Instance{
		ID:        aws.ToString(i.InstanceId),
		Type:      string(i.InstanceType),
		PublicDNS: aws.ToString(i.PublicDnsName),
		Tags:      make(map[string]string, len(i.Tags)),
	}

	if i.State != nil {
		inst.State = types.InstanceState(i.State.Name)
	}

	if i.Placement != nil {
		inst.AZ = aws.ToString(i.Placement.AvailabilityZone)
	}

	if i.LaunchTime != nil {
		inst.LaunchTime = *i.LaunchTime
	}

	for _, tag := range i.Tags {
		inst.Tags[aws.ToString(tag.Key)] = aws.ToString(tag.Value)
	}

	for _, m := range i.BlockDeviceMappings {
		if m.Ebs != nil && m.Ebs.VolumeId != nil {
			inst.VolumeIDs = append(inst.VolumeIDs, *m.Ebs.VolumeId)
		}
	}

	return inst
}

// toVolume converts an EBS volume to our Volume type
func toVolume(v ec2types.Volume, instanceID string) types.Volume {
	return types.Volume{
		ID:         aws.ToString(v.VolumeId),
		InstanceID: instanceID,
		State:      string(v.State),
		SizeGiB:    aws.ToInt32(v.Size),
		Encrypted:  aws.ToBool(v.Encrypted),
		VolumeType: string(v.VolumeType),
		AZ:         aws.ToString(v.AvailabilityZone),
		CreatedAt:  aws.ToTime(v.CreateTime),
	}
}

// toSnapshot converts an EBS snapshot to our Snapshot type
func toSnapshot(s ec2types.Snapshot) types.Snapshot {
	return types.Snapshot{
		ID:          aws.ToString(s.SnapshotId),
		VolumeID:    aws.ToString(s.VolumeId),
		State:       types.SnapshotState(s.State),
		Progress:    aws.ToString(s.Progress),
		StartTime:   aws.ToTime(s.StartTime),
		Description: aws.ToString(s.Description),
	}
}
