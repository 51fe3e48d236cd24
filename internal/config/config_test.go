package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/vietdv277/shotty/pkg/provider"
)

// isolate points the config directory at a temp dir and clears AWS variables
func isolate(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", dir)
	for _, k := range []string{"AWS_PROFILE", "AWS_REGION", "AWS_DEFAULT_REGION",
		"SHOTTY_AWS_PROFILE", "SHOTTY_AWS_REGION", "SHOTTY_OUTPUT", "SHOTTY_LOG_LEVEL",
		"SHOTTY_WAIT_TIMEOUT", "SHOTTY_WAIT_POLL_INTERVAL"} {
		t.Setenv(k, "")
		os.Unsetenv(k)
	}
	return dir
}

func TestConfigPath(t *testing.T) {
	dir := isolate(t)
	if got, want := GetConfigPath(), filepath.Join(dir, "shotty", "config.yaml"); got != want {
		t.Fatalf("GetConfigPath() = %s, want %s", got, want)
	}
}

func TestLoadMissingConfig(t *testing.T) {
	isolate(t)

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if *cfg != (Config{}) {
		t.Fatalf("expected empty config, got %+v", cfg)
	}
	if GetSavedProfile() != "" {
		t.Fatal("expected no saved profile")
	}
}

func TestSaveAndLoad(t *testing.T) {
	isolate(t)

	in := &Config{
		AWSProfile: "demo",
		AWSRegion:  "eu-west-1",
		Output:     OutputTable,
		Wait:       WaitConfig{Timeout: 20 * time.Minute, PollInterval: 30 * time.Second},
	}
	if err := SaveConfig(in); err != nil {
		t.Fatalf("SaveConfig: %v", err)
	}

	out, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if *out != *in {
		t.Fatalf("loaded %+v, want %+v", out, in)
	}

	if err := SetProfile("other"); err != nil {
		t.Fatalf("SetProfile: %v", err)
	}
	if got := GetSavedProfile(); got != "other" {
		t.Fatalf("GetSavedProfile() = %q", got)
	}
	if out, _ := LoadConfig(); out.AWSRegion != "eu-west-1" {
		t.Fatal("SetProfile dropped other settings")
	}
}

func TestLoadInvalidConfig(t *testing.T) {
	dir := isolate(t)
	if err := os.MkdirAll(filepath.Join(dir, "shotty"), 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(GetConfigPath(), []byte("aws_profile: [unclosed"), 0644); err != nil {
		t.Fatal(err)
	}

	if _, err := LoadConfig(); err == nil {
		t.Fatal("expected a parse error")
	}
	if err := Init(viper.New()); err == nil {
		t.Fatal("expected Init to report the parse error")
	}
}

func TestSettingsDefaults(t *testing.T) {
	isolate(t)

	v := viper.New()
	if err := Init(v); err != nil {
		t.Fatalf("Init: %v", err)
	}
	s, err := Load(v)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if s.Profile != "" || s.Region != "" {
		t.Fatalf("unexpected profile/region: %+v", s)
	}
	if s.Output != OutputText || s.LogLevel != "warn" {
		t.Fatalf("unexpected output/log level: %+v", s)
	}
	if s.Wait.Timeout != provider.DefaultWaitTimeout || s.Wait.PollInterval != provider.DefaultPollInterval {
		t.Fatalf("unexpected wait options: %+v", s.Wait)
	}
}

func TestSettingsPrecedence(t *testing.T) {
	isolate(t)
	if err := SaveConfig(&Config{
		AWSProfile: "saved",
		AWSRegion:  "eu-west-1",
		Wait:       WaitConfig{Timeout: 5 * time.Minute},
	}); err != nil {
		t.Fatal(err)
	}
	t.Setenv("AWS_PROFILE", "from-aws-env")
	t.Setenv("AWS_REGION", "us-west-2")

	v := viper.New()
	if err := Init(v); err != nil {
		t.Fatalf("Init: %v", err)
	}
	s, err := Load(v)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if s.Profile != "saved" || s.Region != "eu-west-1" {
		t.Fatalf("preferences file should beat AWS_*: %+v", s)
	}
	if s.Wait.Timeout != 5*time.Minute || s.Wait.PollInterval != provider.DefaultPollInterval {
		t.Fatalf("wait = %+v", s.Wait)
	}

	t.Setenv("SHOTTY_AWS_PROFILE", "from-shotty-env")
	t.Setenv("SHOTTY_WAIT_POLL_INTERVAL", "5s")
	if s, err = Load(v); err != nil {
		t.Fatalf("Load: %v", err)
	}
	if s.Profile != "from-shotty-env" || s.Wait.PollInterval != 5*time.Second {
		t.Fatalf("SHOTTY_ env should beat the file: %+v", s)
	}

	v.Set(KeyProfile, "from-flag")
	if s, err = Load(v); err != nil {
		t.Fatalf("Load: %v", err)
	}
	if s.Profile != "from-flag" {
		t.Fatalf("explicit value should win: %+v", s)
	}
}

func TestSettingsAWSFallback(t *testing.T) {
	isolate(t)
	t.Setenv("AWS_PROFILE", "env-profile")
	t.Setenv("AWS_DEFAULT_REGION", "ap-south-1")

	v := viper.New()
	if err := Init(v); err != nil {
		t.Fatalf("Init: %v", err)
	}
	s, err := Load(v)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if s.Profile != "env-profile" || s.Region != "ap-south-1" {
		t.Fatalf("settings = %+v", s)
	}
}

func TestSettingsValidation(t *testing.T) {
	tests := []struct {
		key, value, wantErr string
	}{
		{KeyOutput, "json", "invalid output format"},
		{KeyWaitTimeout, "0s", "invalid wait.timeout"},
		{KeyPollInterval, "11m", "invalid wait.poll_interval"},
	}

	for _, tt := range tests {
		t.Run(tt.key, func(t *testing.T) {
			isolate(t)
			v := viper.New()
			if err := Init(v); err != nil {
				t.Fatalf("Init: %v", err)
			}
			v.Set(tt.key, tt.value)

			_, err := Load(v)
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Fatalf("expected %q error, got %v", tt.wantErr, err)
			}
		})
	}
}
