package types

import (
	"encoding/json"
	"sort"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// AttributeValue is one entry of an entity's attribute map.
type AttributeValue struct {
	Value      Value  `json:"value" yaml:"value"`
	Source     string `json:"source,omitempty" yaml:"source,omitempty"`
	Confidence *int   `json:"confidence,omitempty" yaml:"confidence,omitempty"`
}

type attributeValueWire struct {
	Value      Value  `json:"value" yaml:"value"`
	Source     string `json:"source" yaml:"source"`
	Confidence *int   `json:"confidence" yaml:"confidence"`
}

// UnmarshalJSON accepts both the {"value": ..., "source": ...} envelope and
// a bare value.
func (a *AttributeValue) UnmarshalJSON(data []byte) error {
	var probe map[string]json.RawMessage
	if err := json.Unmarshal(data, &probe); err == nil {
		if _, ok := probe["value"]; ok {
			var w attributeValueWire
			if err := json.Unmarshal(data, &w); err != nil {
				return err
			}
			*a = AttributeValue(w)
			return nil
		}
	}
	var v Value
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	*a = AttributeValue{Value: v}
	return nil
}

// UnmarshalYAML mirrors UnmarshalJSON for YAML seed files.
func (a *AttributeValue) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind == yaml.MappingNode {
		for i := 0; i+1 < len(node.Content); i += 2 {
			if node.Content[i].Value == "value" {
				var w attributeValueWire
				if err := node.Decode(&w); err != nil {
					return err
				}
				*a = AttributeValue(w)
				return nil
			}
		}
	}
	var v Value
	if err := node.Decode(&v); err != nil {
		return err
	}
	*a = AttributeValue{Value: v}
	return nil
}

// HealthOutcome is a health benefit tag attached to an entity, optionally
// linked to health pillar ids.
type HealthOutcome struct {
	Outcome    string `json:"outcome" yaml:"outcome"`
	Pillars    []int  `json:"pillars,omitempty" yaml:"pillars,omitempty"`
	Confidence *int   `json:"confidence,omitempty" yaml:"confidence,omitempty"`
}

type healthOutcomeWire struct {
	Outcome    string `json:"outcome" yaml:"outcome"`
	Pillars    []int  `json:"pillars" yaml:"pillars"`
	Confidence *int   `json:"confidence" yaml:"confidence"`
}

// UnmarshalJSON accepts either a bare tag string or an outcome object.
func (h *HealthOutcome) UnmarshalJSON(data []byte) error {
	var tag string
	if err := json.Unmarshal(data, &tag); err == nil {
		*h = HealthOutcome{Outcome: tag}
		return nil
	}
	var w healthOutcomeWire
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	*h = HealthOutcome(w)
	return nil
}

// UnmarshalYAML accepts either a bare tag string or an outcome mapping.
func (h *HealthOutcome) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind == yaml.ScalarNode {
		*h = HealthOutcome{Outcome: node.Value}
		return nil
	}
	var w healthOutcomeWire
	if err := node.Decode(&w); err != nil {
		return err
	}
	*h = HealthOutcome(w)
	return nil
}

// CompoundRef records a compound present in an ingredient.
type CompoundRef struct {
	CompoundID string   `json:"compound_id" yaml:"compound_id"`
	Quantity   *float64 `json:"quantity,omitempty" yaml:"quantity,omitempty"`
	Unit       string   `json:"unit,omitempty" yaml:"unit,omitempty"`
}

// Entity is a food-science concept indexed by the engine.
type Entity struct {
	ID                    string                    `json:"id" yaml:"id" mapstructure:"id"`
	Name                  string                    `json:"name" yaml:"name" mapstructure:"name"`
	DisplayName           string                    `json:"display_name,omitempty" yaml:"display_name,omitempty" mapstructure:"display_name"`
	PrimaryClassification Classification            `json:"primary_classification" yaml:"primary_classification" mapstructure:"primary_classification"`
	Classifications       []Classification          `json:"classifications,omitempty" yaml:"classifications,omitempty" mapstructure:"classifications"`
	Aliases               []string                  `json:"aliases,omitempty" yaml:"aliases,omitempty" mapstructure:"aliases"`
	Attributes            map[string]AttributeValue `json:"attributes,omitempty" yaml:"attributes,omitempty" mapstructure:"attributes"`
	HealthOutcomes        []HealthOutcome           `json:"health_outcomes,omitempty" yaml:"health_outcomes,omitempty" mapstructure:"health_outcomes"`
	Compounds             []CompoundRef             `json:"compounds,omitempty" yaml:"compounds,omitempty" mapstructure:"compounds"`
	CreatedAt             time.Time                 `json:"created_at" yaml:"created_at,omitempty" mapstructure:"created_at"`
	UpdatedAt             time.Time                 `json:"updated_at" yaml:"updated_at,omitempty" mapstructure:"updated_at"`
}

// Validate checks if the Entity has all required fields set.
func (e *Entity) Validate() error {
	if strings.TrimSpace(e.ID) == "" {
		return ErrEmptyID
	}
	if strings.TrimSpace(e.Name) == "" {
		return ErrEmptyName
	}
	return nil
}

// Label returns the name used for display, falling back to the id.
func (e *Entity) Label() string {
	if e.DisplayName != "" {
		return e.DisplayName
	}
	if e.Name != "" {
		return e.Name
	}
	return e.ID
}

// Attribute returns the value stored under key.
func (e *Entity) Attribute(key string) (Value, bool) {
	a, ok := e.Attributes[key]
	if !ok {
		return Value{}, false
	}
	return a.Value, true
}

// InClassifications reports whether the primary classification or any
// secondary classification is in set. Out-of-vocabulary primaries never match.
func (e *Entity) InClassifications(set []Classification) bool {
	if !e.PrimaryClassification.Valid() {
		return false
	}
	for _, want := range set {
		if e.PrimaryClassification == want {
			return true
		}
		for _, c := range e.Classifications {
			if c == want {
				return true
			}
		}
	}
	return false
}

// OutcomeTags returns the lowercased, de-duplicated health outcome tags of
// the entity, merging the explicit list with a "health_outcomes" attribute.
func (e *Entity) OutcomeTags() []string {
	seen := make(map[string]struct{})
	add := func(s string) {
		s = strings.ToLower(strings.TrimSpace(s))
		if s != "" {
			seen[s] = struct{}{}
		}
	}
	for _, h := range e.HealthOutcomes {
		add(h.Outcome)
	}
	if v, ok := e.Attribute("health_outcomes"); ok {
		if items, ok := v.AsList(); ok {
			for _, item := range items {
				if s, ok := item.AsString(); ok {
					add(s)
				} else if o, ok := item.Get("outcome"); ok {
					add(o.Text())
				}
			}
		}
	}
	tags := make([]string, 0, len(seen))
	for s := range seen {
		tags = append(tags, s)
	}
	sort.Strings(tags)
	return tags
}

// CompoundIDs returns the ids of compounds listed on the entity, both from
// the Compounds field and from a "compounds" attribute.
func (e *Entity) CompoundIDs() []string {
	var ids []string
	for _, c := range e.Compounds {
		ids = append(ids, c.CompoundID)
	}
	if v, ok := e.Attribute("compounds"); ok {
		if items, ok := v.AsList(); ok {
			for _, item := range items {
				if s, ok := item.AsString(); ok {
					ids = append(ids, s)
				} else if id, ok := item.Get("compound_id"); ok {
					ids = append(ids, id.Text())
				}
			}
		}
	}
	return ids
}

// Clone returns a copy that shares no mutable state with e.
func (e Entity) Clone() Entity {
	out := e
	out.Classifications = append([]Classification(nil), e.Classifications...)
	out.Aliases = append([]string(nil), e.Aliases...)
	out.HealthOutcomes = append([]HealthOutcome(nil), e.HealthOutcomes...)
	for i := range out.HealthOutcomes {
		h := &out.HealthOutcomes[i]
		h.Pillars = append([]int(nil), h.Pillars...)
		h.Confidence = cloneInt(h.Confidence)
	}
	out.Compounds = append([]CompoundRef(nil), e.Compounds...)
	for i := range out.Compounds {
		if q := out.Compounds[i].Quantity; q != nil {
			v := *q
			out.Compounds[i].Quantity = &v
		}
	}
	if e.Attributes != nil {
		out.Attributes = make(map[string]AttributeValue, len(e.Attributes))
		for k, v := range e.Attributes {
			v.Confidence = cloneInt(v.Confidence)
			out.Attributes[k] = v
		}
	}
	return out
}

func cloneInt(p *int) *int {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}
