package aws

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	pkgtypes "github.com/vietdv277/shotty/pkg/types"
)

const testCredentials = `[default]
aws_access_key_id = AKIA
aws_secret_access_key = secret

# comment
[work]
aws_access_key_id = AKIB
`

const testConfig = `[default]
region = us-east-1

[profile work]
region = eu-west-1

[profile sso-dev]
sso_session = corp
region = ap-southeast-1

[sso-session corp]
sso_region = us-east-1
region = us-west-2
`

func TestParseProfilesConfig(t *testing.T) {
	profiles, err := parseProfiles(strings.NewReader(testConfig), "config")
	if err != nil {
		t.Fatalf("parseProfiles: %v", err)
	}

	want := []pkgtypes.AWSProfile{
		{Name: "default", Region: "us-east-1", Source: "config"},
		{Name: "work", Region: "eu-west-1", Source: "config"},
		{Name: "sso-dev", Region: "ap-southeast-1", Source: "config"},
	}
	if len(profiles) != len(want) {
		t.Fatalf("profiles = %+v", profiles)
	}
	for i := range want {
		if profiles[i] != want[i] {
			t.Errorf("profile %d = %+v, want %+v", i, profiles[i], want[i])
		}
	}
}

func TestListProfiles(t *testing.T) {
	dir := t.TempDir()
	credPath := filepath.Join(dir, "credentials")
	configPath := filepath.Join(dir, "config")
	if err := os.WriteFile(credPath, []byte(testCredentials), 0600); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(configPath, []byte(testConfig), 0600); err != nil {
		t.Fatal(err)
	}
	t.Setenv("AWS_SHARED_CREDENTIALS_FILE", credPath)
	t.Setenv("AWS_CONFIG_FILE", configPath)

	profiles, err := ListProfiles()
	if err != nil {
		t.Fatalf("ListProfiles: %v", err)
	}

	var names []string
	for _, p := range profiles {
		names = append(names, p.Name)
	}
	if got := strings.Join(names, ","); got != "default,sso-dev,work" {
		t.Fatalf("names = %s", got)
	}

	// credentials come first, config only fills in the region
	if profiles[0].Source != "credentials" || profiles[0].Region != "us-east-1" {
		t.Fatalf("default = %+v", profiles[0])
	}
	if profiles[2].Source != "credentials" || profiles[2].Region != "eu-west-1" {
		t.Fatalf("work = %+v", profiles[2])
	}

	if !ValidateProfile("work") {
		t.Error("work should be valid")
	}
	if ValidateProfile("corp") {
		t.Error("sso-session must not be listed as a profile")
	}
}

func TestListProfilesMissingFiles(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("AWS_SHARED_CREDENTIALS_FILE", filepath.Join(dir, "nope"))
	t.Setenv("AWS_CONFIG_FILE", filepath.Join(dir, "nope-either"))

	profiles, err := ListProfiles()
	if err != nil {
		t.Fatalf("ListProfiles: %v", err)
	}
	if len(profiles) != 0 {
		t.Fatalf("profiles = %+v", profiles)
	}
}
