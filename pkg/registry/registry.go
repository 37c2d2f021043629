package registry

import (
	"context"
	"time"

	godigest "github.com/opencontainers/go-digest"
)

// Image is one (tag, digest) record reported by a registry listing. Untagged
// images have an empty Tag.
type Image struct {
	Tag      string
	Digest   godigest.Digest
	PushedAt time.Time
}

type DeleteFailure struct {
	Digest godigest.Digest
	Code   string
	Reason string
}

// Lister must deliver a complete, non-duplicated listing for a repository;
// pagination is its problem, not the planner's.
type Lister interface {
	ListImages(ctx context.Context, repo string) ([]Image, error)
}

// Deleter deletes in batches sized to its own API limits. Partial failures
// are reported per digest and never invalidate the plan.
type Deleter interface {
	DeleteDigests(ctx context.Context, repo string, digests []godigest.Digest) ([]DeleteFailure, error)
}
