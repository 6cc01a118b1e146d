// Package domain holds the value types shared by every lock-arbitration
// component: resources, locks, taken-lock tallies, and the interfaces the
// build-promotion type a host scheduler fills in for the arbiter.
package domain

import "errors"

// ResourceKind distinguishes a capacity-based resource from a
// named-value one. There is no third kind; callers switch on this.
type ResourceKind int

const (
	// Quoted resources are a semaphore: an integer capacity, or infinite.
	Quoted ResourceKind = iota
	// Custom resources are a finite pool of distinct string values.
	Custom
)

func (k ResourceKind) String() string {
	switch k {
	case Quoted:
		return "quoted"
	case Custom:
		return "custom"
	default:
		return "unknown"
	}
}

// InfiniteQuota marks a Quoted resource as having no capacity limit.
const InfiniteQuota = -1

// Resource is a named, project-scoped lockable thing. ID is stable and
// distinct from Name; Name is what locks reference, ID is what affinity
// reservations and stamped attributes key off of (spec: resource "id"
// distinct from "name", needed for affinity stamping).
type Resource struct {
	ID        string
	Name      string
	ProjectID string
	Kind      ResourceKind

	// Quota is only meaningful when Kind == Quoted. InfiniteQuota means
	// unbounded.
	Quota int

	// Values is only meaningful when Kind == Custom. It holds no
	// duplicates and keeps the order of the definition; the arbiter
	// tries values in this order when it picks a free one.
	Values []string
}

var (
	// ErrEmptyValuePool is returned constructing a Custom resource with
	// no values; the spec requires a non-empty finite set.
	ErrEmptyValuePool = errors.New("custom resource must have a non-empty value pool")
	// ErrBadQuota is returned constructing a Quoted resource with a
	// quota below 1 that isn't the infinite sentinel.
	ErrBadQuota = errors.New("quoted resource quota must be >= 1 or InfiniteQuota")
)

// NewQuotedResource builds a Quoted resource, validating the quota.
func NewQuotedResource(id, name, projectID string, quota int) (Resource, error) {
	if quota != InfiniteQuota && quota < 1 {
		return Resource{}, ErrBadQuota
	}
	return Resource{ID: id, Name: name, ProjectID: projectID, Kind: Quoted, Quota: quota}, nil
}

// NewCustomResource builds a Custom resource, validating the value pool.
// Duplicate values are collapsed; the pool is copied so later mutation
// of the caller's slice can't reach back into the resource.
func NewCustomResource(id, name, projectID string, values []string) (Resource, error) {
	if len(values) == 0 {
		return Resource{}, ErrEmptyValuePool
	}
	seen := make(map[string]struct{}, len(values))
	out := make([]string, 0, len(values))
	for _, v := range values {
		if _, dup := seen[v]; dup {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	return Resource{ID: id, Name: name, ProjectID: projectID, Kind: Custom, Values: out}, nil
}

// IsInfinite reports whether a Quoted resource has no cap.
func (r Resource) IsInfinite() bool {
	return r.Kind == Quoted && r.Quota == InfiniteQuota
}

// HasValue reports whether v is a member of a Custom resource's pool.
func (r Resource) HasValue(v string) bool {
	for _, candidate := range r.Values {
		if candidate == v {
			return true
		}
	}
	return false
}
