package aws

import (
	"bufio"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"

	pkgtypes "github.com/vietdv277/shotty/pkg/types"
)

var (
	sectionRe = regexp.MustCompile(`^\[\s*(?:profile\s+)?([^\]]+?)\s*\]$`)
	regionRe  = regexp.MustCompile(`^\s*region\s*=\s*(.+)$`)
)

// ListProfiles reads AWS profiles from the shared credentials and config files.
// The locations honor AWS_SHARED_CREDENTIALS_FILE and AWS_CONFIG_FILE.
func ListProfiles() ([]pkgtypes.AWSProfile, error) {
	credPath, configPath, err := sharedFilePaths()
	if err != nil {
		return nil, err
	}

	profiles := make(map[string]*pkgtypes.AWSProfile)

	for _, src := range []struct {
		path   string
		source string
	}{
		{credPath, "credentials"},
		{configPath, "config"},
	} {
		f, err := os.Open(src.path)
		if err != nil {
			continue
		}
		parsed, err := parseProfiles(f, src.source)
		f.Close()
		if err != nil {
			return nil, err
		}

		for _, p := range parsed {
			existing, ok := profiles[p.Name]
			if !ok {
				profiles[p.Name] = &p
				continue
			}
			if existing.Region == "" {
				existing.Region = p.Region
			}
		}
	}

	var result []pkgtypes.AWSProfile
	for _, p := range profiles {
		result = append(result, *p)
	}

	// "default" first, the rest alphabetically
	sort.Slice(result, func(i, j int) bool {
		if result[i].Name == "default" {
			return true
		}
		if result[j].Name == "default" {
			return false
		}
		return result[i].Name < result[j].Name
	})

	return result, nil
}

// ValidateProfile checks if a profile exists
func ValidateProfile(name string) bool {
	profiles, err := ListProfiles()
	if err != nil {
		return false
	}

	for _, p := range profiles {
		if p.Name == name {
			return true
		}
	}
	return false
}

func sharedFilePaths() (string, string, error) {
	credPath := os.Getenv("AWS_SHARED_CREDENTIALS_FILE")
	configPath := os.Getenv("AWS_CONFIG_FILE")
	if credPath != "" && configPath != "" {
		return credPath, configPath, nil
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return "", "", err
	}
	if credPath == "" {
		credPath = filepath.Join(home, ".aws", "credentials")
	}
	if configPath == "" {
		configPath = filepath.Join(home, ".aws", "config")
	}
	return credPath, configPath, nil
}

// parseProfiles reads the sections of an INI-style AWS file. Sections in the config
// file are written "[profile name]", except "[default]".
func parseProfiles(r io.Reader, source string) ([]pkgtypes.AWSProfile, error) {
	var profiles []pkgtypes.AWSProfile
	current := -1

	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") || strings.HasPrefix(line, ";") {
			continue
		}

		if m := sectionRe.FindStringSubmatch(line); m != nil {
			if source == "config" && m[1] != "default" && !strings.HasPrefix(strings.TrimPrefix(line, "["), "profile") {
				// sso-session and services sections are not profiles
				current = -1
				continue
			}
			profiles = append(profiles, pkgtypes.AWSProfile{Name: m[1], Source: source})
			current = len(profiles) - 1
			continue
		}

		if current < 0 {
			continue
		}
		if m := regionRe.FindStringSubmatch(line); m != nil {
			profiles[current].Region = strings.TrimSpace(m[1])
		}
	}

	return profiles, scanner.Err()
}
