package config

import (
	"fmt"
	"regexp"

	zerr "github.com/regtools/tagreap/errors"
	"github.com/regtools/tagreap/pkg/common"
)

// Validate rejects ambiguous policies before any registry call is made.
func (c *Config) Validate() error {
	if c.Registry.Repository == "" {
		return fmt.Errorf("%w: registry repository must be set", zerr.ErrBadConfig)
	}

	if c.Registry.BatchSize <= 0 || c.Registry.BatchSize > MaxBatchSize {
		return fmt.Errorf("%w: batch size must be between 1 and %d, got %d",
			zerr.ErrBadConfig, MaxBatchSize, c.Registry.BatchSize)
	}

	if len(c.Retention.Policies) == 0 {
		return fmt.Errorf("%w: at least one keep policy is required", zerr.ErrBadConfig)
	}

	for _, policy := range c.Retention.Policies {
		if err := validatePolicy(policy); err != nil {
			return err
		}
	}

	return nil
}

func validatePolicy(policy KeepPolicy) error {
	if len(policy.Repositories) == 0 {
		return fmt.Errorf("%w: policy has no repository patterns", zerr.ErrBadConfig)
	}

	if policy.KeepCount < 0 {
		return fmt.Errorf("%w: %d", zerr.ErrNegativeKeepCount, policy.KeepCount)
	}

	groups, err := patternGroups(policy.Pattern)
	if err != nil {
		return err
	}

	if !common.Contains(groups, "project") {
		return fmt.Errorf("%w: pattern captures no 'project' group", zerr.ErrBadPattern)
	}

	switch policy.Recency {
	case RecencyPushed:
	case RecencyEmbedded:
		if !common.Contains(groups, "date") {
			return fmt.Errorf("%w: recency %q needs a 'date' group in the pattern",
				zerr.ErrBadConfig, policy.Recency)
		}
	case RecencyVersion:
		if !common.Contains(groups, "version") {
			return fmt.Errorf("%w: recency %q needs a 'version' group in the pattern",
				zerr.ErrBadConfig, policy.Recency)
		}
	default:
		return fmt.Errorf("%w: unknown recency source %q", zerr.ErrBadConfig, policy.Recency)
	}

	return nil
}

// patternGroups compiles the convention pattern and returns its named capture
// groups.
func patternGroups(pattern string) ([]string, error) {
	if pattern == "" {
		return nil, fmt.Errorf("%w: pattern is empty", zerr.ErrBadPattern)
	}

	compiled, err := regexp.Compile(pattern)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", zerr.ErrBadPattern, err)
	}

	groups := make([]string, 0)

	for _, name := range compiled.SubexpNames() {
		if name != "" {
			groups = append(groups, name)
		}
	}

	return groups, nil
}
