// Package types defines the core data types for the nutrigraph engine.
//
// This package contains the fundamental types used throughout nutrigraph:
//   - Entity: an ingredient, nutrient, compound or other food-science concept
//   - Relationship: a directed, typed, confidence-weighted link between entities
//   - Value: the closed tagged variant used for attribute values
//   - EntityQuery/RelationshipQuery: predicate sets evaluated by the filter engine
//   - EntityStats/RelationshipStats: aggregate views over store contents
//
// # Classifications
//
// Every entity carries a primary classification drawn from a closed set:
//   - Ingredient: whole foods such as garlic or ginger
//   - Nutrient: vitamins, minerals and macronutrients
//   - Compound: bioactive molecules such as allicin
//   - Other: anything else worth indexing
//
// Entities whose primary classification falls outside the set can still be
// stored; they simply never match a classification predicate.
//
// # Attribute values
//
// Attribute values are modelled as a Value rather than interface{}, so that
// predicate evaluation never needs reflection:
//
//	attrs := map[string]types.AttributeValue{
//	    "calories": {Value: types.Number(149)},
//	    "origin":   {Value: types.String("Central Asia"), Source: "usda"},
//	}
//
// # Errors
//
// Query failures are reported with typed errors that match the sentinels
// ErrNotFound, ErrNotConnected and ErrInvalidArgument through errors.Is:
//
//	if errors.Is(err, types.ErrNotConnected) {
//	    // both endpoints exist but no path within the depth bound
//	}
package types
