package retention

import (
	"fmt"
	"regexp"
	"time"

	zerr "github.com/regtools/tagreap/errors"
	"github.com/regtools/tagreap/pkg/api/config"
	"github.com/regtools/tagreap/pkg/retention/types"
)

// Convention is the compiled tag naming rule. It is a pluggable policy: the
// planner only sees the extracted fields, never the pattern itself.
type Convention struct {
	compiled *regexp.Regexp
	layout   string
	groups   map[string]int
}

func NewConvention(pattern, layout string) (*Convention, error) {
	if pattern == "" {
		return nil, fmt.Errorf("%w: pattern is empty", zerr.ErrBadPattern)
	}

	compiled, err := regexp.Compile(pattern)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", zerr.ErrBadPattern, err)
	}

	groups := make(map[string]int)

	for idx, name := range compiled.SubexpNames() {
		if name != "" {
			groups[name] = idx
		}
	}

	if _, ok := groups["project"]; !ok {
		return nil, fmt.Errorf("%w: pattern captures no 'project' group", zerr.ErrBadPattern)
	}

	if layout == "" {
		layout = config.DefaultDateLayout
	}

	return &Convention{compiled: compiled, layout: layout, groups: groups}, nil
}

// Parse applies the convention to a raw tag. Non-conformance is an expected
// outcome reported through the error, wrapping ErrNonConforming; it never
// panics and has no side effects.
func (c *Convention) Parse(tag string) (types.TagFields, error) {
	match := c.compiled.FindStringSubmatch(tag)
	if match == nil {
		return types.TagFields{}, zerr.ErrNonConforming
	}

	fields := types.TagFields{
		Project:     c.capture(match, "project"),
		Hash:        c.capture(match, "hash"),
		Client:      c.capture(match, "client"),
		Environment: c.capture(match, "environment"),
		Version:     c.capture(match, "version"),
	}

	if date := c.capture(match, "date"); date != "" {
		embedded, err := time.Parse(c.layout, date)
		if err != nil {
			return types.TagFields{}, fmt.Errorf("%w: bad embedded date %q", zerr.ErrNonConforming, date)
		}

		fields.EmbeddedTime = embedded
	}

	return fields, nil
}

func (c *Convention) capture(match []string, group string) string {
	idx, ok := c.groups[group]
	if !ok {
		return ""
	}

	return match[idx]
}
