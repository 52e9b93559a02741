package cli

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/flavorlab/nutrigraph/pkg/types"
)

var searchCmd = &cobra.Command{
	Use:   "search",
	Short: "Search entities or relationships",
}

var searchEntitiesCmd = &cobra.Command{
	Use:   "entities",
	Short: "Search entities by text, classification, outcome, pillar, compound and attributes",
	Example: `  nutrigraph search entities --text garlic
  nutrigraph search entities --class ingredient --attr calories:lt:200 --sort name`,
	RunE: runSearchEntities,
}

var searchRelationshipsCmd = &cobra.Command{
	Use:     "relationships",
	Short:   "Search relationships by endpoint, type and confidence",
	Example: `  nutrigraph search relationships --entity garlic --min-confidence 4`,
	RunE:    runSearchRelationships,
}

var pathCmd = &cobra.Command{
	Use:   "path SOURCE TARGET",
	Short: "Find the shortest path between two entities",
	Args:  cobra.ExactArgs(2),
	RunE:  runPath,
}

var connectionsCmd = &cobra.Command{
	Use:   "connections ENTITY",
	Short: "List the direct relationships of an entity",
	Args:  cobra.ExactArgs(1),
	RunE:  runConnections,
}

var statsCmd = &cobra.Command{
	Use:       "stats [entities|relationships]",
	Short:     "Print catalogue statistics",
	Args:      cobra.MaximumNArgs(1),
	ValidArgs: []string{"entities", "relationships"},
	RunE:      runStats,
}

var suggestCmd = &cobra.Command{
	Use:   "suggest PREFIX",
	Short: "Autocomplete entity names or relationship types",
	Args:  cobra.ExactArgs(1),
	RunE:  runSuggest,
}

func init() {
	rootCmd.AddCommand(searchCmd, pathCmd, connectionsCmd, statsCmd, suggestCmd)
	searchCmd.AddCommand(searchEntitiesCmd, searchRelationshipsCmd)

	f := searchEntitiesCmd.Flags()
	f.String("text", "", "Case-insensitive substring of name or id")
	f.String("class", "", "Primary classification")
	f.StringSlice("classification", nil, "Classifications, any of which may match")
	f.StringSlice("outcome", nil, "Health outcomes")
	f.IntSlice("pillar", nil, "Pillar ids")
	f.StringSlice("compound", nil, "Compound ids")
	f.StringArray("attr", nil, "Attribute filter key[.path]:operator:value, repeatable")
	addPageFlags(searchEntitiesCmd)

	f = searchRelationshipsCmd.Flags()
	f.String("source", "", "Source entity id")
	f.String("target", "", "Target entity id")
	f.String("entity", "", "Entity id at either end")
	f.StringSlice("type", nil, "Relationship types")
	f.Int("min-confidence", 0, "Minimum confidence score (inclusive)")
	f.Int("max-confidence", 0, "Maximum confidence score (inclusive)")
	addPageFlags(searchRelationshipsCmd)

	pathCmd.Flags().Int("max-depth", 0, "Maximum hops (0 uses the configured default)")
	pathCmd.Flags().String("direction", "out", "Edge direction: out, in or both")

	connectionsCmd.Flags().String("direction", "both", "Edge direction: out, in or both")
	connectionsCmd.Flags().StringSlice("type", nil, "Relationship types")

	suggestCmd.Flags().String("kind", "entity", "entity or relationship")
	suggestCmd.Flags().String("class", "", "Restrict entity suggestions to a classification")
	suggestCmd.Flags().Int("limit", 0, "Maximum suggestions")
}

func addPageFlags(cmd *cobra.Command) {
	cmd.Flags().String("sort", "", "Sort field")
	cmd.Flags().String("order", "", "Sort order: asc or desc")
	cmd.Flags().Int("offset", 0, "Results to skip")
	cmd.Flags().Int("limit", 0, "Page size (0 uses the configured default)")
}

func pageFlags(cmd *cobra.Command) (types.Sort, types.Page) {
	sortBy, _ := cmd.Flags().GetString("sort")
	order, _ := cmd.Flags().GetString("order")
	offset, _ := cmd.Flags().GetInt("offset")
	limit, _ := cmd.Flags().GetInt("limit")
	return types.Sort{Field: types.SortField(sortBy), Order: types.SortOrder(order)},
		types.Page{Offset: offset, Limit: limit}
}

// withApp bootstraps the engine, runs fn and prints its result as JSON.
func withApp(cmd *cobra.Command, fn func(ctx context.Context, a *app) (interface{}, error)) error {
	ctx := commandContext(cmd)
	a, err := bootstrap(ctx)
	if err != nil {
		return err
	}
	defer a.close(context.Background())

	out, err := fn(ctx, a)
	if err != nil {
		return err
	}
	return printJSON(cmd.OutOrStdout(), out)
}

func runSearchEntities(cmd *cobra.Command, args []string) error {
	q, err := entityQueryFromFlags(cmd)
	if err != nil {
		return err
	}
	return withApp(cmd, func(ctx context.Context, a *app) (interface{}, error) {
		return a.client.SearchEntities(ctx, q)
	})
}

func entityQueryFromFlags(cmd *cobra.Command) (*types.EntityQuery, error) {
	f := cmd.Flags()
	q := &types.EntityQuery{}
	q.Text, _ = f.GetString("text")
	class, _ := f.GetString("class")
	q.PrimaryClassification = types.Classification(class)
	classes, _ := f.GetStringSlice("classification")
	for _, c := range classes {
		q.Classifications = append(q.Classifications, types.Classification(c))
	}
	q.HealthOutcomes, _ = f.GetStringSlice("outcome")
	q.Pillars, _ = f.GetIntSlice("pillar")
	q.CompoundIDs, _ = f.GetStringSlice("compound")

	attrs, _ := f.GetStringArray("attr")
	for _, raw := range attrs {
		p, err := parseAttributeFilter(raw)
		if err != nil {
			return nil, err
		}
		q.Attributes = append(q.Attributes, p)
	}
	q.Sort, q.Page = pageFlags(cmd)
	return q, nil
}

// parseAttributeFilter reads key[.path]:operator[:value].
func parseAttributeFilter(raw string) (types.AttributePredicate, error) {
	parts := strings.SplitN(raw, ":", 3)
	if len(parts) < 2 || parts[0] == "" {
		return types.AttributePredicate{}, fmt.Errorf("invalid --attr %q: want key:operator:value", raw)
	}
	op, err := types.ParseOperator(parts[1])
	if err != nil {
		return types.AttributePredicate{}, err
	}
	keys := strings.Split(parts[0], ".")
	p := types.AttributePredicate{Key: keys[0], Path: keys[1:], Operator: op}
	if len(p.Path) == 0 {
		p.Path = nil
	}
	if len(parts) == 3 {
		p.Value = parseScalar(parts[2])
	}
	return p, nil
}

func parseScalar(s string) types.Value {
	if n, err := strconv.ParseFloat(s, 64); err == nil {
		return types.Number(n)
	}
	if b, err := strconv.ParseBool(s); err == nil {
		return types.Bool(b)
	}
	if strings.Contains(s, ",") {
		return types.Strings(strings.Split(s, ",")...)
	}
	return types.String(s)
}

func runSearchRelationships(cmd *cobra.Command, args []string) error {
	f := cmd.Flags()
	q := &types.RelationshipQuery{}
	q.SourceID, _ = f.GetString("source")
	q.TargetID, _ = f.GetString("target")
	q.EntityID, _ = f.GetString("entity")
	q.Types, _ = f.GetStringSlice("type")
	if f.Changed("min-confidence") {
		v, _ := f.GetInt("min-confidence")
		q.MinConfidence = &v
	}
	if f.Changed("max-confidence") {
		v, _ := f.GetInt("max-confidence")
		q.MaxConfidence = &v
	}
	q.Sort, q.Page = pageFlags(cmd)

	return withApp(cmd, func(ctx context.Context, a *app) (interface{}, error) {
		return a.client.SearchRelationships(ctx, q)
	})
}

func runPath(cmd *cobra.Command, args []string) error {
	depth, _ := cmd.Flags().GetInt("max-depth")
	dir, _ := cmd.Flags().GetString("direction")
	return withApp(cmd, func(ctx context.Context, a *app) (interface{}, error) {
		return a.client.FindPath(ctx, args[0], args[1], depth, types.Direction(dir))
	})
}

func runConnections(cmd *cobra.Command, args []string) error {
	dir, _ := cmd.Flags().GetString("direction")
	relTypes, _ := cmd.Flags().GetStringSlice("type")
	return withApp(cmd, func(ctx context.Context, a *app) (interface{}, error) {
		return a.client.GetEntityConnections(ctx, args[0], types.Direction(dir), relTypes)
	})
}

func runStats(cmd *cobra.Command, args []string) error {
	var kind types.RecordKind
	if len(args) == 1 {
		kind = types.RecordKind(args[0])
	}
	return withApp(cmd, func(ctx context.Context, a *app) (interface{}, error) {
		return a.client.GetStatistics(ctx, kind)
	})
}

func runSuggest(cmd *cobra.Command, args []string) error {
	kind, _ := cmd.Flags().GetString("kind")
	class, _ := cmd.Flags().GetString("class")
	limit, _ := cmd.Flags().GetInt("limit")
	return withApp(cmd, func(ctx context.Context, a *app) (interface{}, error) {
		out, err := a.client.Suggest(ctx, args[0], types.RecordKind(kind), types.Classification(class), limit)
		if err != nil {
			return nil, err
		}
		if out == nil {
			out = []types.Suggestion{}
		}
		return out, nil
	})
}
