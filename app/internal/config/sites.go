package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"statuswatch/app/internal/models"
)

// ErrDuplicateSite is returned when two sites share a name
var ErrDuplicateSite = errors.New("duplicate site name")

type sitesFile struct {
	Sites []models.SiteConfig `yaml:"sites"`
}

// LoadSites reads the YAML sites file:
//
//	sites:
//	  - name: Example
//	    url: https://example.com
func LoadSites(path string) ([]models.SiteConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read sites file: %w", err)
	}
	return ParseSites(data)
}

// ParseSites decodes and validates a sites document
func ParseSites(data []byte) ([]models.SiteConfig, error) {
	var f sitesFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse sites file: %w", err)
	}
	if len(f.Sites) == 0 {
		return nil, errors.New("sites file lists no sites")
	}

	seen := make(map[string]bool, len(f.Sites))
	sites := make([]models.SiteConfig, 0, len(f.Sites))
	for i, s := range f.Sites {
		s.Name = strings.TrimSpace(s.Name)
		s.URL = strings.TrimSpace(s.URL)
		if s.Name == "" {
			return nil, fmt.Errorf("site %d: name is required", i+1)
		}
		if err := validateURL(s.URL); err != nil {
			return nil, fmt.Errorf("site %q: %w", s.Name, err)
		}
		if seen[s.Name] {
			return nil, fmt.Errorf("%w: %q", ErrDuplicateSite, s.Name)
		}
		seen[s.Name] = true
		sites = append(sites, s)
	}
	return sites, nil
}

func validateURL(raw string) error {
	if raw == "" {
		return errors.New("url is required")
	}
	u, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("invalid url: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("url scheme %q: must be http or https", u.Scheme)
	}
	if u.Host == "" {
		return errors.New("url has no host")
	}
	return nil
}
