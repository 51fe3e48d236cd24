package cmd

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/vietdv277/shotty/internal/dispatch"
	"github.com/vietdv277/shotty/internal/ui"
	"github.com/vietdv277/shotty/internal/workflow"
	"github.com/vietdv277/shotty/pkg/provider"
	pkgtypes "github.com/vietdv277/shotty/pkg/types"
)

var instancesCmd = &cobra.Command{
	Use:     "instances",
	Aliases: []string{"instance", "i"},
	Short:   "Commands for instances",
	Long: `List, start, stop, terminate and snapshot EC2 instances.

Every subcommand acts on all instances, or only on those whose "Project" tag
equals --project exactly.`,
}

var instancesListCmd = &cobra.Command{
	Use:     "list",
	Aliases: []string{"ls"},
	Short:   "List EC2 instances",
	Long: `List EC2 instances with their type, availability zone, state, public DNS
name and project.

Examples:
  shotty instances list                    # All instances
  shotty instances list --project demo     # Instances tagged Project=demo
  shotty instances list -i                 # Pick an instance and act on it`,
	RunE: runInstancesList,
}

var instancesStartCmd = &cobra.Command{
	Use:   "start",
	Short: "Start EC2 instances",
	Long: `Issue a start to every selected instance without waiting for it to run.
A failure on one instance is reported and the others are still started.

Examples:
  shotty instances start --project demo`,
	RunE: runInstancesStart,
}

var instancesStopCmd = &cobra.Command{
	Use:   "stop",
	Short: "Stop EC2 instances",
	Long: `Issue a stop to every selected instance without waiting for it to stop.
A failure on one instance is reported and the others are still stopped.

Examples:
  shotty instances stop --project demo`,
	RunE: runInstancesStop,
}

var instancesTerminateCmd = &cobra.Command{
	Use:   "terminate",
	Short: "Terminate EC2 instances",
	Long: `Issue a terminate to every selected instance. The first failure stops the
command.

Examples:
  shotty instances terminate --project demo`,
	RunE: runInstancesTerminate,
}

var instancesSnapshotCmd = &cobra.Command{
	Use:   "snapshot",
	Short: "Create snapshots of all volumes",
	Long: `For each selected instance in turn: stop it, wait until it is stopped,
start a snapshot of every attached volume, start it again and wait until it
is running. Snapshots are not waited for.

Examples:
  shotty instances snapshot --project demo
  shotty instances snapshot --project demo --skip-pending
  shotty instances snapshot --wait-timeout 20m --poll-interval 30s`,
	RunE: runInstancesSnapshot,
}

var (
	// instances flags
	project      string
	interactive  bool
	skipPending  bool
	waitTimeout  time.Duration
	pollInterval time.Duration
)

func init() {
	rootCmd.AddCommand(instancesCmd)

	instancesCmd.AddCommand(instancesListCmd)
	instancesCmd.AddCommand(instancesStartCmd)
	instancesCmd.AddCommand(instancesStopCmd)
	instancesCmd.AddCommand(instancesTerminateCmd)
	instancesCmd.AddCommand(instancesSnapshotCmd)

	for _, c := range instancesCmd.Commands() {
		c.Flags().StringVar(&project, "project", "", "Only instances tagged Project=<name>")
	}

	instancesListCmd.Flags().BoolVarP(&interactive, "interactive", "i", false, "Choose an instance and an action interactively")

	instancesSnapshotCmd.Flags().BoolVar(&skipPending, "skip-pending", false, "Skip volumes whose latest snapshot is still pending")
	instancesSnapshotCmd.Flags().DurationVar(&waitTimeout, "wait-timeout", 0, "Maximum wait for each state change (default from config, 10m)")
	instancesSnapshotCmd.Flags().DurationVar(&pollInterval, "poll-interval", 0, "Delay between state polls (default from config, 15s)")
}

func runInstancesList(cmd *cobra.Command, args []string) error {
	p, err := computeProvider(cmd)
	if err != nil {
		return err
	}

	if interactive {
		return runInstancesInteractive(cmd, p)
	}

	return dispatcher(cmd, p).ListInstances(cmd.Context(), project)
}

func runInstancesStart(cmd *cobra.Command, args []string) error {
	p, err := computeProvider(cmd)
	if err != nil {
		return err
	}

	outcomes, err := dispatcher(cmd, p).StartInstances(cmd.Context(), project)
	log.Info("start issued", "instances", len(outcomes), "failed", len(dispatch.Failures(outcomes)))
	return err
}

func runInstancesStop(cmd *cobra.Command, args []string) error {
	p, err := computeProvider(cmd)
	if err != nil {
		return err
	}

	outcomes, err := dispatcher(cmd, p).StopInstances(cmd.Context(), project)
	log.Info("stop issued", "instances", len(outcomes), "failed", len(dispatch.Failures(outcomes)))
	return err
}

func runInstancesTerminate(cmd *cobra.Command, args []string) error {
	p, err := computeProvider(cmd)
	if err != nil {
		return err
	}

	outcomes, err := dispatcher(cmd, p).TerminateInstances(cmd.Context(), project)
	log.Info("terminate issued", "instances", len(outcomes), "failed", len(dispatch.Failures(outcomes)))
	return err
}

func runInstancesSnapshot(cmd *cobra.Command, args []string) error {
	p, err := computeProvider(cmd)
	if err != nil {
		return err
	}

	s, err := snapshotter(cmd, p)
	if err != nil {
		return err
	}

	return s.Run(cmd.Context(), dispatch.Resolve(cmd.Context(), p, project))
}

// snapshotter builds the snapshot workflow, letting the wait flags override settings
func snapshotter(cmd *cobra.Command, p provider.ComputeProvider) (*workflow.Snapshotter, error) {
	wait := settings.Wait
	if waitTimeout > 0 {
		wait.Timeout = waitTimeout
	}
	if pollInterval > 0 {
		wait.PollInterval = pollInterval
	}
	if wait.PollInterval > wait.Timeout {
		return nil, fmt.Errorf("poll interval %s is longer than wait timeout %s", wait.PollInterval, wait.Timeout)
	}

	return workflow.New(p, cmd.OutOrStdout(),
		workflow.WithLogger(log.New("component", "snapshot")),
		workflow.WithWaitOptions(wait),
		workflow.WithSkipPending(skipPending),
		workflow.WithProgress(ui.Progress(cmd.ErrOrStderr())),
	), nil
}

// runInstancesInteractive lets the user pick one instance and an action for it
func runInstancesInteractive(cmd *cobra.Command, p provider.ComputeProvider) error {
	var instances []pkgtypes.Instance
	for inst, err := range dispatch.Resolve(cmd.Context(), p, project) {
		if err != nil {
			return err
		}
		instances = append(instances, inst)
	}

	if len(instances) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "No instances found")
		return nil
	}

	selected, action, err := ui.SelectInstance(instances)
	if errors.Is(err, ui.ErrCancelled) {
		return nil
	}
	if err != nil {
		return err
	}

	log.Info("interactive selection", "instance", selected.ID, "action", action)
	return runAction(cmd, p, *selected, action)
}

// runAction applies an action chosen in the selector to one instance
func runAction(cmd *cobra.Command, p provider.ComputeProvider, inst pkgtypes.Instance, action ui.Action) error {
	d := dispatcher(cmd, p)

	switch action {
	case ui.ActionStart:
		_, err := d.Each(cmd.Context(), dispatch.CommandStart, dispatch.Single(inst))
		return err
	case ui.ActionStop:
		_, err := d.Each(cmd.Context(), dispatch.CommandStop, dispatch.Single(inst))
		return err
	case ui.ActionSnapshot:
		s, err := snapshotter(cmd, p)
		if err != nil {
			return err
		}
		return s.Run(cmd.Context(), dispatch.Single(inst))
	default:
		_, err := fmt.Fprintln(cmd.OutOrStdout(), strings.Join(dispatch.InstanceFields(inst), ", "))
		return err
	}
}
