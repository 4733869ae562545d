// Package config loads sourcetrace settings from file, environment, and
// defaults.
package config

import (
	"errors"
	"fmt"
)

// Default search roots when none are configured.
var defaultRoots = []string{"."}

// errEmptyRoot rejects configured search roots that are empty strings.
var errEmptyRoot = errors.New("search root must not be empty")

// Config holds the checker settings.
type Config struct {
	// Roots are the filesystem search roots module names resolve
	// against, probed in order.
	Roots []string `mapstructure:"roots"`

	// IgnoreTests excludes modules whose second dotted component is
	// "tests", together with their subtrees.
	IgnoreTests bool `mapstructure:"ignore_tests"`

	// PackagesOnly restricts enumeration output to packages.
	PackagesOnly bool `mapstructure:"packages_only"`

	// IgnoreNotFound lists module-name prefixes whose load failures are
	// tolerated during checking.
	IgnoreNotFound []string `mapstructure:"ignore_not_found"`
}

// Validate checks the configuration for invalid values.
func (c *Config) Validate() error {
	for idx, root := range c.Roots {
		if root == "" {
			return fmt.Errorf("%w: roots[%d]", errEmptyRoot, idx)
		}
	}

	return nil
}
