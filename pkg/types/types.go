package types

import (
	"errors"
	"strings"
)

// Validation errors
var (
	ErrEmptyID             = errors.New("id cannot be empty")
	ErrEmptyName           = errors.New("name cannot be empty")
	ErrEmptySourceID       = errors.New("source_id cannot be empty")
	ErrEmptyTargetID       = errors.New("target_id cannot be empty")
	ErrEmptyType           = errors.New("relationship_type cannot be empty")
	ErrInvalidConfidence   = errors.New("confidence_score must be between 1 and 5")
	ErrInvalidQuantity     = errors.New("quantity cannot be negative")
	ErrUnknownEntity       = errors.New("referenced entity does not exist")
	ErrDuplicateEntityID   = errors.New("duplicate entity id in batch")
	ErrDuplicateRelationID = errors.New("duplicate relationship id in batch")
)

// Confidence score bounds and tiers.
const (
	MinConfidence     = 1
	MaxConfidence     = 5
	DefaultConfidence = 3
)

// Classification is the primary category of an entity.
type Classification string

const (
	// ClassIngredient represents whole foods such as garlic or ginger.
	ClassIngredient Classification = "ingredient"
	// ClassNutrient represents vitamins, minerals and macronutrients.
	ClassNutrient Classification = "nutrient"
	// ClassCompound represents bioactive molecules.
	ClassCompound Classification = "compound"
	// ClassOther represents anything outside the curated categories.
	ClassOther Classification = "other"
)

// Classifications lists the closed classification set in display order.
var Classifications = []Classification{ClassIngredient, ClassNutrient, ClassCompound, ClassOther}

// Valid reports whether c belongs to the closed classification set.
func (c Classification) Valid() bool {
	switch c {
	case ClassIngredient, ClassNutrient, ClassCompound, ClassOther:
		return true
	}
	return false
}

// ParseClassification normalizes s and returns the matching classification.
func ParseClassification(s string) (Classification, bool) {
	c := Classification(strings.ToLower(strings.TrimSpace(s)))
	return c, c.Valid()
}

// Common relationship types. The vocabulary is open; these are the curated ones.
const (
	RelContains   = "contains"
	RelFoundIn    = "found_in"
	RelRelatedTo  = "related_to"
	RelSupports   = "supports"
	RelInhibits   = "inhibits"
	RelEnhances   = "enhances"
	RelConvertsTo = "converts_to"
)

// RecordKind selects which record table an operation targets.
type RecordKind string

const (
	// KindEntity targets the entity table.
	KindEntity RecordKind = "entity"
	// KindRelationship targets the relationship table.
	KindRelationship RecordKind = "relationship"
)

// ParseRecordKind accepts singular and plural spellings.
func ParseRecordKind(s string) (RecordKind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "entity", "entities":
		return KindEntity, nil
	case "relationship", "relationships":
		return KindRelationship, nil
	}
	return "", &InvalidArgumentError{Field: "kind", Reason: "must be entity or relationship, got " + s}
}

// Direction controls which edges a traversal follows.
type Direction string

const (
	// DirectionOut follows edges from source to target.
	DirectionOut Direction = "out"
	// DirectionIn follows edges from target to source.
	DirectionIn Direction = "in"
	// DirectionBoth treats edges as undirected.
	DirectionBoth Direction = "both"
)

// ParseDirection accepts out/in/both and the outgoing/incoming spellings.
// An empty string yields DirectionOut.
func ParseDirection(s string) (Direction, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "out", "outgoing":
		return DirectionOut, nil
	case "in", "incoming":
		return DirectionIn, nil
	case "both", "any":
		return DirectionBoth, nil
	}
	return "", &InvalidArgumentError{Field: "direction", Reason: "must be out, in or both, got " + s}
}
