package cmd

import (
	"github.com/spf13/cobra"
)

var volumesCmd = &cobra.Command{
	Use:     "volumes",
	Aliases: []string{"volume", "v"},
	Short:   "Commands for volumes",
}

var volumesListCmd = &cobra.Command{
	Use:     "list",
	Aliases: []string{"ls"},
	Short:   "List EBS volumes",
	Long: `List the EBS volumes attached to the selected instances with their state,
size and encryption.

Examples:
  shotty volumes list
  shotty volumes list --project demo --output table`,
	RunE: runVolumesList,
}

func init() {
	rootCmd.AddCommand(volumesCmd)
	volumesCmd.AddCommand(volumesListCmd)

	volumesListCmd.Flags().StringVar(&project, "project", "", "Only instances tagged Project=<name>")
}

func runVolumesList(cmd *cobra.Command, args []string) error {
	p, err := computeProvider(cmd)
	if err != nil {
		return err
	}

	return dispatcher(cmd, p).ListVolumes(cmd.Context(), project)
}
