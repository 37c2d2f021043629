package types

import (
	"sort"
	"time"

	godigest "github.com/opencontainers/go-digest"
)

// TagFields is what the convention extracts from a conforming tag. Optional
// groups that the tag does not populate are the empty string, so every
// conforming tag maps to exactly one group.
type TagFields struct {
	Project      string
	Hash         string
	Client       string
	Environment  string
	Version      string
	EmbeddedTime time.Time
}

// Candidate is one tagged image under consideration by the planner.
type Candidate struct {
	TagFields

	Tag           string
	Digest        godigest.Digest
	PushTimestamp time.Time
}

// Rejection is an image excluded from planning: untagged, or its tag does not
// follow the convention. Rejections are reported, never deleted.
type Rejection struct {
	Tag    string
	Digest godigest.Digest
	Reason string
}

type GroupKey struct {
	Project     string
	Client      string
	Environment string
}

func (k GroupKey) String() string {
	client := k.Client
	if client == "" {
		client = "-"
	}

	return k.Project + "/" + client + "/" + k.Environment
}

// GroupPlan partitions one group's members, ordered newest-first, into the
// keep prefix and the delete remainder.
type GroupPlan struct {
	Key     GroupKey
	Members []*Candidate
	Keep    []*Candidate
	Delete  []*Candidate
}

// Plan is the computed retention outcome for a repository. It holds no
// external resources and can always be recomputed from a fresh listing.
type Plan struct {
	Repository string
	KeepCount  int
	Groups     []GroupPlan
	Rejected   []Rejection
}

// DeleteDigests returns the digests safe to delete. A digest retained by any
// group is excluded even if another tag of the same image fell in a delete
// partition.
func (p Plan) DeleteDigests() []godigest.Digest {
	kept := make(map[godigest.Digest]struct{})

	for _, group := range p.Groups {
		for _, candidate := range group.Keep {
			kept[candidate.Digest] = struct{}{}
		}
	}

	seen := make(map[godigest.Digest]struct{})
	digests := make([]godigest.Digest, 0)

	for _, group := range p.Groups {
		for _, candidate := range group.Delete {
			if _, ok := kept[candidate.Digest]; ok {
				continue
			}

			if _, ok := seen[candidate.Digest]; ok {
				continue
			}

			seen[candidate.Digest] = struct{}{}
			digests = append(digests, candidate.Digest)
		}
	}

	sort.Slice(digests, func(i, j int) bool {
		return digests[i] < digests[j]
	})

	return digests
}
