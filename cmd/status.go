package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/vietdv277/shotty/internal/aws"
	"github.com/vietdv277/shotty/internal/config"
	"github.com/vietdv277/shotty/internal/ui"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show current profile and authentication status",
	Long: `Display the active AWS profile and region and verify the credentials
they resolve to.

Examples:
  shotty status
  shotty status --profile production`,
	RunE: runStatus,
}

func init() {
	rootCmd.AddCommand(statusCmd)
}

func runStatus(cmd *cobra.Command, args []string) error {
	out := cmd.OutOrStdout()

	fmt.Fprintln(out, "Current Status")
	fmt.Fprintln(out, ui.MutedStyle.Render("─────────────────────────────────"))
	fmt.Fprintf(out, "Config:   %s\n", config.GetConfigPath())

	client, err := aws.NewClient(cmd.Context(), aws.WithProfile(settings.Profile), aws.WithRegion(settings.Region))
	if err != nil {
		fmt.Fprintf(out, "Profile:  %s\n", orDefault(settings.Profile))
		fmt.Fprintf(out, "Region:   %s\n", orDefault(settings.Region))
		fmt.Fprintln(out, "Auth:     "+ui.StoppedStyle.Render("✗ Not configured"))
		fmt.Fprintf(out, "          %s\n", ui.MutedStyle.Render(err.Error()))
		return nil
	}

	fmt.Fprintf(out, "Profile:  %s\n", orDefault(client.Profile()))
	fmt.Fprintf(out, "Region:   %s\n", orDefault(client.Region()))
	fmt.Fprintln(out)

	fmt.Fprint(out, "Auth:     ")
	identity, err := client.CallerIdentity(cmd.Context())
	if err != nil {
		status := "✗ Not authenticated"
		if code := aws.ErrorCode(err); code != "" {
			status += " (" + code + ")"
		}
		fmt.Fprintln(out, ui.StoppedStyle.Render(status))
		fmt.Fprintf(out, "          %s\n", ui.MutedStyle.Render(err.Error()))
		if settings.Profile != "" {
			fmt.Fprintln(out)
			fmt.Fprintln(out, "To authenticate:")
			fmt.Fprintf(out, "  aws sso login --profile %s\n", settings.Profile)
		}
		return nil
	}

	fmt.Fprintln(out, ui.RunningStyle.Render("✓ Authenticated"))
	fmt.Fprintf(out, "Account:  %s\n", identity.Account)
	fmt.Fprintf(out, "ARN:      %s\n", identity.Arn)
	return nil
}

func orDefault(s string) string {
	if s == "" {
		return ui.MutedStyle.Render("(default)")
	}
	return s
}
