package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/inconshreveable/log15"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"github.com/vietdv277/shotty/internal/aws"
	"github.com/vietdv277/shotty/internal/config"
	"github.com/vietdv277/shotty/internal/dispatch"
	"github.com/vietdv277/shotty/internal/logging"
	"github.com/vietdv277/shotty/internal/ui"
	"github.com/vietdv277/shotty/pkg/provider"
)

var (
	// v merges flags, SHOTTY_* environment and the preferences file
	v = viper.New()

	// settings and log are resolved before any subcommand runs
	settings *config.Settings
	log      log15.Logger = logging.Discard()
)

// newProvider builds the compute provider used by the resource commands
var newProvider = func(ctx context.Context, s *config.Settings, log log15.Logger) (provider.ComputeProvider, error) {
	client, err := aws.NewClient(ctx, aws.WithProfile(s.Profile), aws.WithRegion(s.Region))
	if err != nil {
		return nil, fmt.Errorf("failed to create AWS client: %w", err)
	}
	return aws.NewComputeProvider(client.EC2, log), nil
}

var rootCmd = &cobra.Command{
	Use:   "shotty",
	Short: "Shotty - manage EC2 instances, volumes and snapshots by project",
	Long: `Shotty lists and controls EC2 instances, their EBS volumes and snapshots,
grouped by the value of their "Project" tag.

Resource Commands:
  shotty instances list --project demo      # List instances of a project
  shotty instances stop --project demo      # Stop every instance of a project
  shotty instances snapshot --project demo  # Stop, snapshot all volumes, start again
  shotty volumes list                       # List volumes of all instances
  shotty snapshots list                     # List every snapshot

Settings:
  shotty profile ls                         # List AWS profiles
  shotty profile set my-profile             # Save the profile to use
  shotty status                             # Show profile, region and identity`,
	SilenceUsage:      true,
	SilenceErrors:     true,
	PersistentPreRunE: initSettings,
}

// Execute runs the root command. An interrupt cancels the command context.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		stop()
		os.Exit(1)
	}
}

func init() {
	// Global persistent flags (available to all subcommands)
	rootCmd.PersistentFlags().StringP("profile", "p", "", "AWS profile to use")
	rootCmd.PersistentFlags().StringP("region", "r", "", "AWS region to use")
	rootCmd.PersistentFlags().StringP("output", "o", config.OutputText, "Output format: text or table")
	rootCmd.PersistentFlags().String("log-level", "warn", "Log level: debug, info, warn, error, crit")

	bindFlags(v)
}

// bindFlags binds the global flags to their viper keys
func bindFlags(v *viper.Viper) {
	flags := rootCmd.PersistentFlags()
	_ = v.BindPFlag(config.KeyProfile, flags.Lookup("profile"))
	_ = v.BindPFlag(config.KeyRegion, flags.Lookup("region"))
	_ = v.BindPFlag(config.KeyOutput, flags.Lookup("output"))
	_ = v.BindPFlag(config.KeyLogLevel, flags.Lookup("log-level"))
}

func initSettings(cmd *cobra.Command, args []string) error {
	if err := config.Init(v); err != nil {
		return err
	}

	s, err := config.Load(v)
	if err != nil {
		return err
	}

	l, err := logging.New(s.LogLevel, cmd.ErrOrStderr())
	if err != nil {
		return err
	}

	settings = s
	log = l.New("profile", s.Profile, "region", s.Region)
	log.Debug("settings loaded", "output", s.Output, "config", config.GetConfigPath())
	return nil
}

// sink returns the row renderer for the selected output format
func sink() dispatch.SinkFactory {
	if settings.Output == config.OutputTable {
		return ui.TableSink
	}
	return dispatch.TextSink
}

// computeProvider builds the provider for the current settings
func computeProvider(cmd *cobra.Command) (provider.ComputeProvider, error) {
	return newProvider(cmd.Context(), settings, log)
}

// dispatcher builds a Dispatcher over p writing to the command output
func dispatcher(cmd *cobra.Command, p provider.ComputeProvider) *dispatch.Dispatcher {
	return dispatch.New(p, cmd.OutOrStdout(),
		dispatch.WithLogger(log.New("component", "dispatch")),
		dispatch.WithSink(sink()),
	)
}
