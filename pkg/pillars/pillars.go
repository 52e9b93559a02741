// Package pillars holds the health pillar vocabulary and maps free-form
// health outcome strings onto pillar ids.
package pillars

import (
	"sort"
	"strings"

	"github.com/flavorlab/nutrigraph/pkg/types"
)

// Pillar is one of the eight health goals entities are grouped under.
type Pillar struct {
	ID          int    `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
}

var pillars = []Pillar{
	{1, "Increased Energy", "Supports sustained energy levels and reduces fatigue"},
	{2, "Improved Digestion", "Promotes healthy digestive function and gut health"},
	{3, "Enhanced Immunity", "Strengthens immune system and resilience"},
	{4, "Better Sleep", "Supports quality sleep and rest"},
	{5, "Mental Clarity", "Enhances focus, cognitive function and brain health"},
	{6, "Heart Health", "Supports cardiovascular health and circulation"},
	{7, "Muscle Recovery", "Aids muscle recovery, strength and athletic performance"},
	{8, "Inflammation Reduction", "Reduces inflammation and supports anti-inflammatory processes"},
}

// outcomeKeywords maps lowercase keywords to pillar ids. An outcome string
// matches every keyword it contains.
var outcomeKeywords = map[string][]int{
	"energy": {1}, "vitality": {1}, "stamina": {1}, "fatigue": {1}, "endurance": {1},

	"digestion": {2}, "digestive": {2}, "gut": {2}, "bloating": {2}, "intestinal": {2},
	"gastrointestinal": {2},

	"immunity": {3}, "immune": {3}, "resilience": {3},

	"sleep": {4}, "rest": {4}, "insomnia": {4},

	"mental": {5}, "focus": {5}, "cognitive": {5}, "brain": {5}, "clarity": {5},
	"concentration": {5}, "memory": {5},

	"heart": {6}, "cardiovascular": {6}, "cholesterol": {6}, "blood pressure": {6},
	"circulation": {6}, "cardiac": {6},

	"muscle": {7}, "recovery": {7}, "strength": {7}, "athletic": {7}, "performance": {7},
	"exercise": {7},

	"inflammation": {8}, "inflammatory": {8},

	// foods commonly used as outcome labels in seed data
	"turmeric": {8}, "ginger": {2, 8}, "garlic": {3, 6, 8}, "olive oil": {6, 8},
	"salmon": {6, 7, 8}, "fatty fish": {6, 7, 8}, "walnut": {5, 6, 8}, "almond": {6, 7},
	"blueberr": {3, 5, 8}, "berries": {3, 5, 8}, "cherr": {4, 8}, "green tea": {5, 6, 8},
	"dark chocolate": {5, 6}, "coffee": {1, 5}, "yogurt": {2, 7}, "kefir": {2, 3},
	"oats": {1, 2, 6}, "banana": {1, 4}, "spinach": {1, 3, 6}, "lentil": {1, 2, 6},
	"chamomile": {4}, "kiwi": {3, 4}, "avocado": {5, 6}, "beet": {1, 6, 7},
	"pomegranate": {6, 8}, "citrus": {3, 6}, "broccoli": {2, 3, 8}, "mushroom": {3, 7},
	"kale": {1, 3, 6, 8}, "whole grain": {1, 2, 6},
}

// All returns the pillars ordered by id.
func All() []Pillar {
	out := make([]Pillar, len(pillars))
	copy(out, pillars)
	return out
}

// Valid reports whether id names a pillar.
func Valid(id int) bool {
	return id >= 1 && id <= len(pillars)
}

// Name returns the pillar name, or "" for an unknown id.
func Name(id int) string {
	if !Valid(id) {
		return ""
	}
	return pillars[id-1].Name
}

// ForOutcome returns the sorted pillar ids an outcome string maps to,
// matching every known keyword contained in it.
func ForOutcome(outcome string) []int {
	outcome = strings.ToLower(strings.TrimSpace(outcome))
	if outcome == "" {
		return nil
	}
	set := make(map[int]struct{})
	for kw, ids := range outcomeKeywords {
		if strings.Contains(outcome, kw) {
			for _, id := range ids {
				set[id] = struct{}{}
			}
		}
	}
	return sortedIDs(set)
}

// ForEntity returns the pillar ids supported by an entity: those listed
// explicitly on its health outcomes plus those derived from outcome tags.
func ForEntity(e *types.Entity) []int {
	set := make(map[int]struct{})
	for _, h := range e.HealthOutcomes {
		for _, id := range h.Pillars {
			if Valid(id) {
				set[id] = struct{}{}
			}
		}
	}
	for _, tag := range e.OutcomeTags() {
		for _, id := range ForOutcome(tag) {
			set[id] = struct{}{}
		}
	}
	return sortedIDs(set)
}

func sortedIDs(set map[int]struct{}) []int {
	if len(set) == 0 {
		return nil
	}
	ids := make([]int, 0, len(set))
	for id := range set {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	return ids
}
