// Package search implements the filter engine of nutrigraph: predicate
// evaluation, ordering and pagination over the in-memory store.
//
// # Semantics
//
// Every non-empty clause of a query must hold (AND). A query with no clauses
// matches every record. Evaluation is a linear scan of one consistent store
// view, so results never mix two store revisions.
//
// Entity clauses:
//   - Text: case-insensitive substring of the name, or of the id
//   - PrimaryClassification / Classifications: set membership
//   - HealthOutcomes / Pillars: non-empty intersection
//   - CompoundIDs: listed compounds or "contains" relationships
//   - Attributes: operator applied to attributes[key].value; a missing key fails
//
// Relationship clauses:
//   - SourceID, TargetID, EntityID (either end)
//   - Type / Types
//   - MinConfidence..MaxConfidence, inclusive; a missing score counts as 0
//   - HasQuantity, Context equality
//
// # Ordering and pagination
//
// Results are stably sorted by the requested key and then by id ascending,
// so equal keys always come back in the same order. The total count is taken
// after filtering and before the offset/limit window is applied:
//
//	searcher := search.NewSearcher(st, logger)
//	res, err := searcher.SearchEntities(&types.EntityQuery{
//	    Classifications: []types.Classification{types.ClassIngredient},
//	    Sort:            types.Sort{Field: types.SortByName},
//	    Page:            types.Page{Offset: 0, Limit: 20},
//	})
package search
