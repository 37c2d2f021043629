package retention

import (
	"context"
	"fmt"
	"sort"

	semver "github.com/Masterminds/semver"

	zerr "github.com/regtools/tagreap/errors"
	"github.com/regtools/tagreap/pkg/api/config"
	zcommon "github.com/regtools/tagreap/pkg/common"
	zlog "github.com/regtools/tagreap/pkg/log"
	"github.com/regtools/tagreap/pkg/registry"
	"github.com/regtools/tagreap/pkg/retention/types"
)

const (
	reasonUntagged    = "untagged"
	reasonExceedsKeep = "exceeds keep count"
	retainedStrFormat = "retained by %s policy"
)

// Planner computes keep/delete partitions. It is pure: it never calls the
// deletion collaborator and holds no mutable state between runs, so the same
// records and policy always produce the same plan.
type Planner struct {
	policy     config.KeepPolicy
	convention *Convention
	dryRun     bool
	log        zlog.Logger
	auditLog   *zlog.Logger
}

func NewPlanner(policy config.KeepPolicy, dryRun bool, log zlog.Logger, auditLog *zlog.Logger,
) (*Planner, error) {
	if policy.KeepCount < 0 {
		return nil, fmt.Errorf("%w: %d", zerr.ErrNegativeKeepCount, policy.KeepCount)
	}

	convention, err := NewConvention(policy.Pattern, policy.DateLayout)
	if err != nil {
		return nil, err
	}

	return &Planner{
		policy:     policy,
		convention: convention,
		dryRun:     dryRun,
		log:        log,
		auditLog:   auditLog,
	}, nil
}

func (p *Planner) ruleName() string {
	return fmt.Sprintf("%s:%d", p.policy.Recency, p.policy.KeepCount)
}

// Plan groups the listed images by the convention's identity fields, orders
// each group newest-first and keeps the first KeepCount members. Untagged and
// non-conforming images end up in the rejection report.
func (p *Planner) Plan(ctx context.Context, repo string, images []registry.Image,
) (types.Plan, error) {
	plan := types.Plan{Repository: repo, KeepCount: p.policy.KeepCount}

	groups := make(map[types.GroupKey][]*types.Candidate)
	versions := make(map[*types.Candidate]*semver.Version)

	for _, img := range images {
		if zcommon.IsContextDone(ctx) {
			return types.Plan{}, ctx.Err()
		}

		if img.Tag == "" {
			p.reject(&plan, img, reasonUntagged)

			continue
		}

		fields, err := p.convention.Parse(img.Tag)
		if err != nil {
			p.reject(&plan, img, err.Error())

			continue
		}

		candidate := &types.Candidate{
			TagFields:     fields,
			Tag:           img.Tag,
			Digest:        img.Digest,
			PushTimestamp: img.PushedAt,
		}

		if p.policy.Recency == config.RecencyVersion {
			version, err := semver.NewVersion(fields.Version)
			if err != nil {
				p.reject(&plan, img, fmt.Sprintf("bad version marker %q", fields.Version))

				continue
			}

			versions[candidate] = version
		}

		key := types.GroupKey{
			Project:     fields.Project,
			Client:      fields.Client,
			Environment: fields.Environment,
		}
		groups[key] = append(groups[key], candidate)
	}

	keys := make([]types.GroupKey, 0, len(groups))
	for key := range groups {
		keys = append(keys, key)
	}

	sort.Slice(keys, func(i, j int) bool {
		return keys[i].String() < keys[j].String()
	})

	for _, key := range keys {
		members := groups[key]
		p.order(members, versions)

		upper := p.policy.KeepCount
		if upper > len(members) {
			upper = len(members)
		}

		group := types.GroupPlan{
			Key:     key,
			Members: members,
			Keep:    members[:upper],
			Delete:  members[upper:],
		}

		reason := fmt.Sprintf(retainedStrFormat, p.ruleName())
		for _, candidate := range group.Keep {
			p.logAction(repo, "keep", reason, candidate, &p.log)
		}

		for _, candidate := range group.Delete {
			p.logAction(repo, "delete", reasonExceedsKeep, candidate, &p.log)

			if p.auditLog != nil {
				p.logAction(repo, "delete", reasonExceedsKeep, candidate, p.auditLog)
			}
		}

		plan.Groups = append(plan.Groups, group)
	}

	return plan, nil
}

// order sorts newest-first per the policy's recency source; equal markers fall
// back to digest then tag so the outcome is reproducible across runs.
func (p *Planner) order(members []*types.Candidate, versions map[*types.Candidate]*semver.Version) {
	sort.Slice(members, func(i, j int) bool {
		lhs, rhs := members[i], members[j]

		if cmp := p.compareRecency(lhs, rhs, versions); cmp != 0 {
			return cmp > 0
		}

		if lhs.Digest != rhs.Digest {
			return lhs.Digest < rhs.Digest
		}

		return lhs.Tag < rhs.Tag
	})
}

func (p *Planner) compareRecency(lhs, rhs *types.Candidate,
	versions map[*types.Candidate]*semver.Version,
) int {
	switch p.policy.Recency {
	case config.RecencyPushed:
		return lhs.PushTimestamp.Compare(rhs.PushTimestamp)
	case config.RecencyVersion:
		return versions[lhs].Compare(versions[rhs])
	default:
		return lhs.EmbeddedTime.Compare(rhs.EmbeddedTime)
	}
}

func (p *Planner) reject(plan *types.Plan, img registry.Image, reason string) {
	p.log.Info().Str("module", "retention").
		Bool("dry-run", p.dryRun).
		Str("repository", plan.Repository).
		Str("tag", img.Tag).
		Str("digest", img.Digest.String()).
		Str("decision", "skip").
		Str("reason", reason).Msg("tag excluded from planning")

	plan.Rejected = append(plan.Rejected, types.Rejection{
		Tag:    img.Tag,
		Digest: img.Digest,
		Reason: reason,
	})
}

func (p *Planner) logAction(repo, decision, reason string, candidate *types.Candidate, log *zlog.Logger) {
	log.Info().Str("module", "retention").
		Bool("dry-run", p.dryRun).
		Str("repository", repo).
		Str("group", types.GroupKey{
			Project:     candidate.Project,
			Client:      candidate.Client,
			Environment: candidate.Environment,
		}.String()).
		Str("digest", candidate.Digest.String()).
		Str("tag", candidate.Tag).
		Str("pushTimestamp", candidate.PushTimestamp.String()).
		Str("decision", decision).
		Str("reason", reason).Msg("applied policy")
}
