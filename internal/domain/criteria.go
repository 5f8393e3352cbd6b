package domain

// SortMode selects the ordering applied after filtering.
type SortMode string

// Sort modes. SortDefault preserves the catalog's curated order.
const (
	SortDefault      SortMode = ""
	SortAudienceAsc  SortMode = "audience_asc"
	SortAudienceDesc SortMode = "audience_desc"
	SortName         SortMode = "name"
)

// Valid reports whether the sort mode is known.
func (m SortMode) Valid() bool {
	switch m {
	case SortDefault, SortAudienceAsc, SortAudienceDesc, SortName:
		return true
	}
	return false
}

// FeedbackFilter narrows results by reviewer verdict.
type FeedbackFilter string

// Feedback filters. FeedbackAll is a no-op; FeedbackPending matches podcasts
// the reviewer has not yet approved or rejected.
const (
	FeedbackAll      FeedbackFilter = ""
	FeedbackApproved FeedbackFilter = "approved"
	FeedbackRejected FeedbackFilter = "rejected"
	FeedbackPending  FeedbackFilter = "pending"
)

// Valid reports whether the feedback filter is known.
func (f FeedbackFilter) Valid() bool {
	switch f {
	case FeedbackAll, FeedbackApproved, FeedbackRejected, FeedbackPending:
		return true
	}
	return false
}

// RangeBucket is a half-open numeric range [Min, Max). Max <= 0 means
// unbounded above. The "any" bucket matches everything.
type RangeBucket struct {
	ID  string
	Min int64
	Max int64
}

// BucketAny is the ID of the no-op bucket for both bucket dimensions.
const BucketAny = "any"

// Audience size buckets offered by the dashboard.
var audienceBuckets = []RangeBucket{
	{ID: BucketAny},
	{ID: "under-10k", Min: 0, Max: 10_000},
	{ID: "10k-50k", Min: 10_000, Max: 50_000},
	{ID: "50k-plus", Min: 50_000},
}

// Episode count buckets offered by the dashboard.
var episodeBuckets = []RangeBucket{
	{ID: BucketAny},
	{ID: "under-25", Min: 0, Max: 25},
	{ID: "25-100", Min: 25, Max: 100},
	{ID: "100-plus", Min: 100},
}

// AudienceBucket looks up an audience bucket by ID. Empty ID means "any".
func AudienceBucket(id string) (RangeBucket, bool) {
	return findBucket(audienceBuckets, id)
}

// EpisodeBucket looks up an episode bucket by ID. Empty ID means "any".
func EpisodeBucket(id string) (RangeBucket, bool) {
	return findBucket(episodeBuckets, id)
}

func findBucket(buckets []RangeBucket, id string) (RangeBucket, bool) {
	if id == "" {
		id = BucketAny
	}
	for _, b := range buckets {
		if b.ID == id {
			return b, true
		}
	}
	return RangeBucket{}, false
}

// Contains reports whether n falls inside the bucket's half-open range.
func (b RangeBucket) Contains(n int64) bool {
	if b.ID == BucketAny || b.ID == "" {
		return true
	}
	if n < b.Min {
		return false
	}
	return b.Max <= 0 || n < b.Max
}

// Criteria is the full set of dashboard filter controls. It is an immutable
// value: every UI change produces a wholesale replacement, never an in-place
// mutation, so the filter pipeline stays a pure function of its inputs.
type Criteria struct {
	Query          string         `json:"query"`
	CategoryIDs    []string       `json:"category_ids,omitempty"`
	Feedback       FeedbackFilter `json:"feedback"`
	EpisodeBucket  string         `json:"episode_bucket"`
	AudienceBucket string         `json:"audience_bucket"`
	Sort           SortMode       `json:"sort"`
}

// Validate checks that every criterion refers to a known value.
func (c Criteria) Validate() error {
	if !c.Feedback.Valid() {
		return errInvalid("feedback filter", string(c.Feedback))
	}
	if _, ok := EpisodeBucket(c.EpisodeBucket); !ok {
		return errInvalid("episode bucket", c.EpisodeBucket)
	}
	if _, ok := AudienceBucket(c.AudienceBucket); !ok {
		return errInvalid("audience bucket", c.AudienceBucket)
	}
	if !c.Sort.Valid() {
		return errInvalid("sort mode", string(c.Sort))
	}
	return nil
}
