// Package nutrigraph provides a search and relationship-graph engine for
// nutrition knowledge.
//
// The engine holds food-science entities (ingredients, nutrients, compounds)
// and the typed, confidence-scored relationships between them in memory, and
// answers structured queries over them: filtered and paginated searches,
// direct connections of an entity, shortest paths between two entities and
// aggregate statistics.
//
// # Basic Usage
//
// Create a store, load seed records and query through a Client:
//
//	st := store.New(logger)
//	client := nutrigraph.NewClient(st, nil, logger)
//
//	report, err := client.Load(ctx, &loader.FileSource{
//		EntityFiles:       []string{"seed/entities.json"},
//		RelationshipFiles: []string{"seed/relationships.json"},
//	})
//	if err != nil {
//		log.Fatal(err)
//	}
//	fmt.Printf("loaded %d entities, rejected %d records\n", report.EntitiesLoaded, report.Rejected())
//
// # Searching
//
// All clauses of a query must hold. Results are sorted and then paginated:
//
//	res, err := client.SearchEntities(ctx, &types.EntityQuery{
//		Text:            "garl",
//		Classifications: []types.Classification{types.ClassIngredient},
//		Attributes: []types.AttributePredicate{
//			{Key: "calories", Operator: types.OpLt, Value: types.Number(200)},
//		},
//		Page: types.Page{Limit: 20},
//	})
//
// # Paths
//
// FindPath runs a breadth-first search bounded by a maximum depth. A missing
// endpoint yields an error matching types.ErrNotFound; endpoints that exist
// but are not linked within the bound yield types.ErrNotConnected:
//
//	path, err := client.FindPath(ctx, "garlic", "immune-function", 0, types.DirectionBoth)
//	switch {
//	case errors.Is(err, types.ErrNotConnected):
//		fmt.Println("no link")
//	case err == nil:
//		fmt.Println(path.EntityIDs)
//	}
//
// # Statistics
//
// GetStatistics reports counts per classification, per relationship type and
// per confidence bucket. Results are reused until the store changes; a Redis
// cache can share them across replicas via SetStatsCache.
package nutrigraph
