package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
	"github.com/vietdv277/shotty/pkg/provider"
)

// Viper keys, matching the preferences file layout
const (
	KeyProfile      = "aws_profile"
	KeyRegion       = "aws_region"
	KeyOutput       = "output"
	KeyLogLevel     = "log_level"
	KeyWaitTimeout  = "wait.timeout"
	KeyPollInterval = "wait.poll_interval"
)

// Output formats
const (
	OutputText  = "text"
	OutputTable = "table"
)

// EnvPrefix is the prefix of environment overrides, e.g. SHOTTY_AWS_PROFILE
const EnvPrefix = "SHOTTY"

// Settings is the merged view of flags, environment, preferences file and defaults
type Settings struct {
	Profile  string
	Region   string
	Output   string
	LogLevel string
	Wait     provider.WaitOptions
}

// Init points v at the preferences file and the SHOTTY_ environment.
// A missing preferences file is not an error.
func Init(v *viper.Viper) error {
	v.SetDefault(KeyOutput, OutputText)
	v.SetDefault(KeyLogLevel, "warn")
	v.SetDefault(KeyWaitTimeout, provider.DefaultWaitTimeout)
	v.SetDefault(KeyPollInterval, provider.DefaultPollInterval)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetConfigFile(GetConfigPath())
	v.SetConfigType("yaml")
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) || errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("failed to read config file: %w", err)
	}

	return nil
}

// Load returns the merged settings held by v.
//
// Profile priority: --profile flag > SHOTTY_AWS_PROFILE > preferences file > AWS_PROFILE.
// Region priority: --region flag > SHOTTY_AWS_REGION > preferences file > AWS_REGION >
// AWS_DEFAULT_REGION.
func Load(v *viper.Viper) (*Settings, error) {
	s := &Settings{
		Profile:  v.GetString(KeyProfile),
		Region:   v.GetString(KeyRegion),
		Output:   strings.ToLower(v.GetString(KeyOutput)),
		LogLevel: strings.ToLower(v.GetString(KeyLogLevel)),
		Wait: provider.WaitOptions{
			Timeout:      v.GetDuration(KeyWaitTimeout),
			PollInterval: v.GetDuration(KeyPollInterval),
		},
	}

	if s.Profile == "" {
		s.Profile = os.Getenv("AWS_PROFILE")
	}

	if s.Region == "" {
		s.Region = os.Getenv("AWS_REGION")
		if s.Region == "" {
			s.Region = os.Getenv("AWS_DEFAULT_REGION")
		}
	}

	switch s.Output {
	case OutputText, OutputTable:
	default:
		return nil, fmt.Errorf("invalid output format %q (want %s or %s)", s.Output, OutputText, OutputTable)
	}

	if s.Wait.Timeout <= 0 {
		return nil, fmt.Errorf("invalid %s: %v", KeyWaitTimeout, s.Wait.Timeout)
	}
	if s.Wait.PollInterval <= 0 || s.Wait.PollInterval > s.Wait.Timeout {
		return nil, fmt.Errorf("invalid %s: %v (must be positive and at most %s)",
			KeyPollInterval, s.Wait.PollInterval, s.Wait.Timeout.Round(time.Second))
	}

	return s, nil
}
