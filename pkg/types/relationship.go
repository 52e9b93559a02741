package types

import (
	"strings"
	"time"
)

// Relationship is a directed, typed link from SourceID to TargetID.
type Relationship struct {
	ID          string           `json:"id" yaml:"id" mapstructure:"id"`
	SourceID    string           `json:"source_id" yaml:"source_id" mapstructure:"source_id"`
	TargetID    string           `json:"target_id" yaml:"target_id" mapstructure:"target_id"`
	Type        string           `json:"relationship_type" yaml:"relationship_type" mapstructure:"relationship_type"`
	Quantity    *float64         `json:"quantity,omitempty" yaml:"quantity,omitempty" mapstructure:"quantity"`
	Unit        string           `json:"unit,omitempty" yaml:"unit,omitempty" mapstructure:"unit"`
	Context     map[string]Value `json:"context,omitempty" yaml:"context,omitempty" mapstructure:"context"`
	Uncertainty map[string]Value `json:"uncertainty,omitempty" yaml:"uncertainty,omitempty" mapstructure:"uncertainty"`
	// Confidence is nil when the source did not provide a score.
	Confidence *int      `json:"confidence_score,omitempty" yaml:"confidence_score,omitempty" mapstructure:"confidence_score"`
	CreatedAt  time.Time `json:"created_at" yaml:"created_at,omitempty" mapstructure:"created_at"`
	UpdatedAt  time.Time `json:"updated_at" yaml:"updated_at,omitempty" mapstructure:"updated_at"`
}

// Validate checks if the Relationship has all required fields set.
func (r *Relationship) Validate() error {
	if strings.TrimSpace(r.ID) == "" {
		return ErrEmptyID
	}
	if strings.TrimSpace(r.SourceID) == "" {
		return ErrEmptySourceID
	}
	if strings.TrimSpace(r.TargetID) == "" {
		return ErrEmptyTargetID
	}
	if strings.TrimSpace(r.Type) == "" {
		return ErrEmptyType
	}
	if r.Confidence != nil && (*r.Confidence < MinConfidence || *r.Confidence > MaxConfidence) {
		return ErrInvalidConfidence
	}
	if r.Quantity != nil && *r.Quantity < 0 {
		return ErrInvalidQuantity
	}
	return nil
}

// Score returns the confidence score, or 0 when it is absent.
func (r *Relationship) Score() int {
	if r.Confidence == nil {
		return 0
	}
	return *r.Confidence
}

// Other returns the endpoint opposite to id.
func (r *Relationship) Other(id string) string {
	if r.SourceID == id {
		return r.TargetID
	}
	return r.SourceID
}

// Clone returns a copy that shares no mutable state with r.
func (r Relationship) Clone() Relationship {
	out := r
	if r.Quantity != nil {
		q := *r.Quantity
		out.Quantity = &q
	}
	if r.Confidence != nil {
		c := *r.Confidence
		out.Confidence = &c
	}
	out.Context = cloneValues(r.Context)
	out.Uncertainty = cloneValues(r.Uncertainty)
	return out
}

func cloneValues(m map[string]Value) map[string]Value {
	if m == nil {
		return nil
	}
	out := make(map[string]Value, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

// IntPtr returns a pointer to i. Handy for optional confidence scores.
func IntPtr(i int) *int { return &i }

// FloatPtr returns a pointer to f.
func FloatPtr(f float64) *float64 { return &f }
