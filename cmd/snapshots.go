package cmd

import (
	"github.com/spf13/cobra"
)

var snapshotsCmd = &cobra.Command{
	Use:     "snapshots",
	Aliases: []string{"snapshot", "s"},
	Short:   "Commands for snapshots",
}

var snapshotsListCmd = &cobra.Command{
	Use:     "list",
	Aliases: []string{"ls"},
	Short:   "List EBS snapshots",
	Long: `List every snapshot of every volume attached to the selected instances.

Examples:
  shotty snapshots list
  shotty snapshots list --project demo`,
	RunE: runSnapshotsList,
}

func init() {
	rootCmd.AddCommand(snapshotsCmd)
	snapshotsCmd.AddCommand(snapshotsListCmd)

	snapshotsListCmd.Flags().StringVar(&project, "project", "", "Only instances tagged Project=<name>")
}

func runSnapshotsList(cmd *cobra.Command, args []string) error {
	p, err := computeProvider(cmd)
	if err != nil {
		return err
	}

	return dispatcher(cmd, p).ListSnapshots(cmd.Context(), project)
}
