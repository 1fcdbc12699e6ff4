package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/pageza/souschef/backend/internal/catalog"
)

func newConvertCmd(a *app) *cobra.Command {
	var in, out string

	cmd := &cobra.Command{
		Use:   "convert-csv",
		Short: "Convert the Kaggle recipe CSV into the bundled dataset",
		Long: `Reads the food dataset export (Title, Ingredients, Instructions, Image_Name,
Cleaned_Ingredients) and writes dataset JSON with cuisine and dietary tags applied.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			src, err := os.Open(in)
			if err != nil {
				return fmt.Errorf("failed to open csv: %w", err)
			}
			defer src.Close()

			entries, stats, err := catalog.ConvertCSV(src)
			if err != nil {
				return err
			}

			dst, err := os.Create(out)
			if err != nil {
				return fmt.Errorf("failed to create output: %w", err)
			}
			if err := catalog.WriteDataset(dst, entries); err != nil {
				dst.Close()
				return err
			}
			if err := dst.Close(); err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "rows=%d written=%d skipped=%d -> %s\n",
				stats.Rows, stats.Written, stats.Skipped, out)
			return nil
		},
	}
	cmd.Flags().StringVar(&in, "in", "", "input CSV file")
	cmd.Flags().StringVar(&out, "out", "recipes.json", "output dataset file")
	_ = cmd.MarkFlagRequired("in")
	return cmd
}
