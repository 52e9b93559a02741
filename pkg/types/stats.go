package types

import "time"

// Confidence buckets used by relationship statistics.
const (
	BucketLow    = "low"
	BucketMedium = "medium"
	BucketHigh   = "high"
)

// ConfidenceBucket maps a score to its tier: 1-2 low, 3 medium, 4-5 high.
// Missing or out-of-range scores fall in the lowest tier.
func ConfidenceBucket(score int) string {
	switch {
	case score >= 4:
		return BucketHigh
	case score == 3:
		return BucketMedium
	}
	return BucketLow
}

// EntityStats aggregates the entity table.
type EntityStats struct {
	TotalEntities    int            `json:"total_entities"`
	ByClassification map[string]int `json:"by_classification"`
	RecentAdditions  int            `json:"recent_additions"`
	LastUpdated      *time.Time     `json:"last_updated,omitempty"`
}

// RelationshipStats aggregates the relationship table.
type RelationshipStats struct {
	TotalRelationships int            `json:"total_relationships"`
	ByType             map[string]int `json:"by_type"`
	ByConfidenceBucket map[string]int `json:"by_confidence_bucket"`
	// ByScore counts relationships per raw score; 0 holds unscored ones.
	ByScore       map[int]int `json:"by_confidence"`
	AvgConfidence float64     `json:"avg_confidence"`
	LastUpdated   *time.Time  `json:"last_updated,omitempty"`
}

// TypeCount is a relationship type with its frequency.
type TypeCount struct {
	Type  string `json:"relationship_type"`
	Count int    `json:"count"`
}

// Statistics bundles both aggregates with the store revision they reflect.
type Statistics struct {
	Revision      uint64             `json:"revision"`
	Entities      *EntityStats       `json:"entities,omitempty"`
	Relationships *RelationshipStats `json:"relationships,omitempty"`
}
