package config

import (
	glob "github.com/bmatcuk/doublestar/v4"

	zerr "github.com/regtools/tagreap/errors"
)

var (
	Commit    string //nolint: gochecknoglobals
	GoVersion string //nolint: gochecknoglobals
)

// Recency sources usable by a keep policy. They decide which marker orders a
// group newest-first; the choice is explicit, never a silent fallback.
const (
	RecencyPushed   = "pushed"   // registry push timestamp
	RecencyEmbedded = "embedded" // timestamp captured from the tag itself
	RecencyVersion  = "version"  // semver captured from the tag
)

const (
	// DefaultPattern matches
	// {project}-{hash}-{date}[-{client}]-{environment}.
	DefaultPattern = `^(?P<project>.+?)-(?P<hash>[a-f0-9]{7})-` +
		`(?P<date>\d{4}-\d{2}-\d{2}-\d{2}-\d{2}-\d{2})` +
		`(?:-(?P<client>.+?))?-(?P<environment>[a-zA-Z]+)$`

	DefaultDateLayout = "2006-01-02-15-04-05"

	DefaultKeepCount = 3

	// ECR rejects batches above 100 image ids.
	MaxBatchSize = 100
)

type LogConfig struct {
	Level  string
	Output string
	Audit  string
}

type RegistryConfig struct {
	Region     string
	Repository string
	BatchSize  int
}

// KeepPolicy is one retention rule set: which repositories it covers (glob
// patterns), the tag convention and how many of the newest members of each
// group survive.
type KeepPolicy struct {
	Repositories []string
	Pattern      string
	DateLayout   string
	KeepCount    int
	Recency      string
}

type RetentionConfig struct {
	DryRun   bool
	Policies []KeepPolicy
}

type Config struct {
	Log       LogConfig
	Registry  RegistryConfig
	Retention RetentionConfig
}

func New() *Config {
	return &Config{
		Log: LogConfig{Level: "info"},
		Registry: RegistryConfig{
			BatchSize: MaxBatchSize,
		},
		Retention: RetentionConfig{
			DryRun: true,
			Policies: []KeepPolicy{
				{
					Repositories: []string{"**"},
					Pattern:      DefaultPattern,
					DateLayout:   DefaultDateLayout,
					KeepCount:    DefaultKeepCount,
					Recency:      RecencyEmbedded,
				},
			},
		},
	}
}

// PolicyForRepo returns the first keep policy whose repository globs match.
func (c *Config) PolicyForRepo(repo string) (KeepPolicy, error) {
	for _, policy := range c.Retention.Policies {
		for _, pattern := range policy.Repositories {
			matched, err := glob.Match(pattern, repo)
			if err == nil && matched {
				return policy, nil
			}
		}
	}

	return KeepPolicy{}, zerr.ErrPolicyNotFound
}
