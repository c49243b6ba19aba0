package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// DefaultConfigFile is the per-project configuration file name.
const DefaultConfigFile = ".seoscan"

// xdgConfigFile is the configuration file name inside XDGConfigDir.
const xdgConfigFile = "config.yaml"

// ErrConfigNotFound is returned when the configuration file does not exist.
var ErrConfigNotFound = errors.New("configuration file not found")

// LoadConfigFile reads and checks a site configuration file.
// Host keys are lowercased so lookups are case-insensitive.
func LoadConfigFile(path string) (*File, error) {
	data, err := os.ReadFile(path) //nolint:gosec // user-provided config path
	if errors.Is(err, os.ErrNotExist) {
		return nil, ErrConfigNotFound
	}
	if err != nil {
		return nil, err
	}

	var cf File
	if err := yaml.Unmarshal(data, &cf); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}

	if err := cf.Defaults.check(); err != nil {
		return nil, fmt.Errorf("defaults: %w", err)
	}
	sites := make(map[string]SiteConfig, len(cf.Sites))
	for host, sc := range cf.Sites {
		if err := sc.check(); err != nil {
			return nil, fmt.Errorf("site %s: %w", host, err)
		}
		sites[strings.ToLower(host)] = sc
	}
	cf.Sites = sites

	return &cf, nil
}

// check rejects override values Validate would reject on the command line.
func (sc SiteConfig) check() error {
	if sc.Depth != nil && *sc.Depth < 0 {
		return ErrInvalidDepth
	}
	if sc.Concurrency != nil && *sc.Concurrency < 1 {
		return ErrInvalidConcurrency
	}
	if sc.Sitemap != "" && !isAbsoluteHTTP(sc.Sitemap) {
		return ErrInvalidSitemapURL
	}
	return nil
}

// FindConfigFile returns the configuration file to load, or "".
//
// An explicit configPath is returned only if it exists. Otherwise the
// first existing file among ./.seoscan, XDGConfigDir()/config.yaml and
// ~/.seoscan wins.
func FindConfigFile(configPath string) string {
	if configPath != "" {
		if fileExists(configPath) {
			return configPath
		}
		return ""
	}

	var candidates []string
	if cwd, err := os.Getwd(); err == nil {
		candidates = append(candidates, filepath.Join(cwd, DefaultConfigFile))
	}
	candidates = append(candidates, filepath.Join(XDGConfigDir(), xdgConfigFile))
	if home, err := os.UserHomeDir(); err == nil {
		candidates = append(candidates, filepath.Join(home, DefaultConfigFile))
	}

	for _, c := range candidates {
		if fileExists(c) {
			return c
		}
	}
	return ""
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}
