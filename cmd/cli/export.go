package cli

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/flavorlab/nutrigraph/pkg/snapshot"
)

var exportCmd = &cobra.Command{
	Use:   "export DIR",
	Short: "Write entities and relationships to Parquet files",
	Long: `Write the loaded catalogue to DIR/entities.parquet and
DIR/relationships.parquet for offline analysis.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd, func(ctx context.Context, a *app) (interface{}, error) {
			res, err := snapshot.Export(a.client.Store(), args[0])
			if err != nil {
				return nil, err
			}
			a.logger.Info("Export complete", "entities", res.Entities, "relationships", res.Relationships)
			return res, nil
		})
	},
}

func init() {
	rootCmd.AddCommand(exportCmd)
}
