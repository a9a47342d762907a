package cli

import (
	"github.com/spf13/cobra"
)

func newCatalogCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "catalog",
		Short: "List power-ups and their prices",
		RunE: func(cmd *cobra.Command, args []string) error {
			var result Catalog

			if err := client.Get(cmd.Context(), "/api/v1/catalog", &result); err != nil {
				return err
			}

			output(cmd).Print(result)
			return nil
		},
	}
}
