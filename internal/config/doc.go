// Package config provides configuration structures and utilities for seoscan.
// It defines the crawl limits, retry policy, analysis switches and report
// preferences, and loads per-site overrides from a YAML file.
package config
