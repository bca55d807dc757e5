package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/fiscalbyte/budgetlens/internal/catalog"
	"github.com/fiscalbyte/budgetlens/internal/matching"
)

var catalogCmd = &cobra.Command{
	Use:   "catalog [file]",
	Short: "Validate and summarize a reference price catalog",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		path := ""
		if len(args) == 1 {
			path = args[0]
		} else if cfg != nil {
			path = cfg.ReferencePath
		}
		if path == "" {
			return fmt.Errorf("no catalog file: pass a path or set reference_path in config")
		}

		cat, err := catalog.Load(path)
		if err != nil {
			return err
		}
		s := cat.Summarize()
		fmt.Printf("✓ %s: %d reference items\n", path, s.Count)
		fmt.Printf("  unit_price: min %.4g, max %.4g, mean %.4g, std %.4g\n", s.Min, s.Max, s.Mean, s.Std)

		// Entries that normalize to the same text compete for the same
		// matches; the earlier one always wins ties.
		seen := map[string]string{}
		for _, it := range cat.Items {
			n := matching.Normalize(it.Name)
			if first, dup := seen[n]; dup {
				fmt.Printf("⚠ duplicate after normalization: %q and %q\n", first, it.Name)
				continue
			}
			seen[n] = it.Name
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(catalogCmd)
}
