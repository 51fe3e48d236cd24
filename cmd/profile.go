package cmd

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"
	"github.com/vietdv277/shotty/internal/aws"
	"github.com/vietdv277/shotty/internal/config"
	"github.com/vietdv277/shotty/internal/ui"
)

var profileCmd = &cobra.Command{
	Use:   "profile",
	Short: "Manage AWS profiles",
	Long: `Manage the AWS profile used by shotty.

When run without subcommands, shows an interactive selector to choose a profile.

Examples:
  shotty profile                    # Interactive profile selector
  shotty profile ls                 # List all available profiles
  shotty profile set my-profile     # Set a specific profile`,
	RunE: runProfileInteractive,
}

var profileLsCmd = &cobra.Command{
	Use:   "ls",
	Short: "List available AWS profiles",
	Long: `List all available AWS profiles from ~/.aws/credentials and ~/.aws/config.

Examples:
  shotty profile ls`,
	RunE: runProfileList,
}

var profileSetCmd = &cobra.Command{
	Use:   "set <profile-name>",
	Short: "Set the active AWS profile",
	Long: `Set a specific AWS profile as active.

The profile is saved to ~/.config/shotty/config.yaml and used by future commands
unless --profile or SHOTTY_AWS_PROFILE is given.

Examples:
  shotty profile set my-profile`,
	Args: cobra.ExactArgs(1),
	RunE: runProfileSet,
}

func init() {
	rootCmd.AddCommand(profileCmd)
	profileCmd.AddCommand(profileLsCmd)
	profileCmd.AddCommand(profileSetCmd)
}

func runProfileInteractive(cmd *cobra.Command, args []string) error {
	profiles, err := aws.ListProfiles()
	if err != nil {
		return fmt.Errorf("failed to list profiles: %w", err)
	}

	if len(profiles) == 0 {
		printNoProfiles(cmd)
		return nil
	}

	selected, err := ui.SelectProfile(profiles, settings.Profile)
	if errors.Is(err, ui.ErrCancelled) {
		return nil
	}
	if err != nil {
		return err
	}

	return saveProfile(cmd, selected.Name)
}

func runProfileList(cmd *cobra.Command, args []string) error {
	profiles, err := aws.ListProfiles()
	if err != nil {
		return fmt.Errorf("failed to list profiles: %w", err)
	}

	if len(profiles) == 0 {
		printNoProfiles(cmd)
		return nil
	}

	if settings.Output == config.OutputTable {
		ui.PrintProfileTable(cmd.OutOrStdout(), profiles, settings.Profile)
		return nil
	}

	for _, p := range profiles {
		marker := " "
		if p.Name == settings.Profile {
			marker = "*"
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%s %s,%s,%s\n", marker, p.Name, p.Region, p.Source)
	}
	return nil
}

func runProfileSet(cmd *cobra.Command, args []string) error {
	profileName := args[0]

	if !aws.ValidateProfile(profileName) {
		return fmt.Errorf("profile %q not found", profileName)
	}

	return saveProfile(cmd, profileName)
}

func saveProfile(cmd *cobra.Command, name string) error {
	if err := config.SetProfile(name); err != nil {
		return fmt.Errorf("failed to save profile: %w", err)
	}

	log.Info("profile saved", "name", name, "path", config.GetConfigPath())

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Profile set to: %s\n", name)
	fmt.Fprintf(out, "Saved to: %s\n", config.GetConfigPath())
	return nil
}

func printNoProfiles(cmd *cobra.Command) {
	fmt.Fprintln(cmd.OutOrStdout(), "No AWS profiles found")
	fmt.Fprintln(cmd.OutOrStdout(), "Create profiles in ~/.aws/credentials or ~/.aws/config")
}
