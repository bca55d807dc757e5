package cmd

import (
	"fmt"
	"sort"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/fiscalbyte/budgetlens/internal/budget"
	"github.com/fiscalbyte/budgetlens/internal/catalog"
	"github.com/fiscalbyte/budgetlens/internal/pipeline"
	"github.com/fiscalbyte/budgetlens/internal/scoring"
)

var (
	anaReference     string
	anaContamination float64
	anaOutputPath    string
	anaThreshold     int
	anaWorkers       int
	anaTrees         int
	anaSeed          int64
	anaDelimiter     string
	anaDecimal       string
	anaThousands     string
	anaSheetName     string
	anaSheetIndex    int
	anaTop           int
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze <budget-file>",
	Short: "Analyze a budget CSV/TSV/XLSX for abnormal line items",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		path := args[0]

		refPath := anaReference
		if refPath == "" && cfg != nil {
			refPath = cfg.ReferencePath
		}
		if refPath == "" {
			return fmt.Errorf("no reference catalog: pass --reference or set reference_path in config")
		}

		contamination := anaContamination
		if !cmd.Flags().Changed("contamination") && cfg != nil && cfg.Contamination > 0 {
			contamination = cfg.Contamination
		}
		if contamination < scoring.MinContamination || contamination > scoring.MaxContamination {
			return fmt.Errorf("contamination %.3f out of range [%.2f, %.2f]",
				contamination, scoring.MinContamination, scoring.MaxContamination)
		}

		opt := budget.ReadOptions{SheetName: anaSheetName, SheetIndex: anaSheetIndex}
		switch anaDelimiter {
		case "":
		case ",":
			opt.Delimiter = ','
		case ";":
			opt.Delimiter = ';'
		case "\t", "tab":
			opt.Delimiter = '\t'
		default:
			return fmt.Errorf("unsupported --delimiter: %s", anaDelimiter)
		}
		switch anaDecimal {
		case "":
		case ",", "comma":
			opt.DecimalSeparator = ','
		case ".", "dot":
			opt.DecimalSeparator = '.'
		default:
			return fmt.Errorf("unsupported --decimal: %s (use '.'|'comma')", anaDecimal)
		}
		switch anaThousands {
		case "":
		case ",":
			opt.ThousandsSeparator = ','
		case ".":
			opt.ThousandsSeparator = '.'
		case "space", " ":
			opt.ThousandsSeparator = ' '
		default:
			return fmt.Errorf("unsupported --thousands: %s (use ','|'.'|'space')", anaThousands)
		}

		cat, err := catalog.Load(refPath)
		if err != nil {
			return err
		}
		fmt.Printf("✓ Loaded %d reference items from %s\n", len(cat.Items), refPath)

		table, err := budget.ReadFile(path, opt)
		if err != nil {
			return err
		}

		popt := pipeline.Options{
			Contamination:  contamination,
			MatchThreshold: anaThreshold,
			MatchWorkers:   anaWorkers,
			Trees:          anaTrees,
			Seed:           anaSeed,
			Logger:         log,
		}
		if cfg != nil {
			if !cmd.Flags().Changed("threshold") {
				popt.MatchThreshold = cfg.MatchThreshold
			}
			if !cmd.Flags().Changed("workers") {
				popt.MatchWorkers = cfg.MatchWorkers
			}
			if !cmd.Flags().Changed("trees") {
				popt.Trees = cfg.Trees
			}
			if !cmd.Flags().Changed("seed") {
				popt.Seed = cfg.Seed
			}
			popt.Thresholds = scoring.Thresholds{
				PriceHighRatio:       cfg.PriceHighRatio,
				PriceLowRatio:        cfg.PriceLowRatio,
				DiscrepancyTolerance: cfg.DiscrepancyTolerance,
				QuantityZ:            cfg.QuantityZThreshold,
				LowMatchScore:        cfg.LowMatchScore,
			}
		}

		res := pipeline.Analyze(table, cat, popt)
		printSummary(res)

		if anaOutputPath != "" {
			if err := budget.ExportCSV(anaOutputPath, res.Table); err != nil {
				return err
			}
			fmt.Printf("✓ Wrote full results to %s\n", anaOutputPath)
		}
		return nil
	},
}

func printSummary(res *pipeline.Result) {
	fmt.Printf("✓ Analyzed %d rows (%d matched) in %s\n", res.Rows, res.Matched, res.Elapsed.Round(time.Millisecond))
	if res.Anomalies == 0 {
		color.Green("No anomalies flagged at current settings.")
		return
	}
	color.Red("Flagged anomalies: %d", res.Anomalies)

	flagged := make([]*budget.LineItem, 0, res.Anomalies)
	for i := range res.Table.Items {
		if res.Table.Items[i].AnomalyFlag {
			flagged = append(flagged, &res.Table.Items[i])
		}
	}
	sort.Slice(flagged, func(i, j int) bool { return flagged[i].RiskScore > flagged[j].RiskScore })
	top := anaTop
	if top <= 0 || top > len(flagged) {
		top = len(flagged)
	}
	fmt.Println("\nHigh risk items:")
	for _, it := range flagged[:top] {
		ref := "-"
		if it.ReferenceUnitPrice.Valid {
			ref = fmt.Sprintf("%.0f", it.ReferenceUnitPrice.Val)
		}
		color.Red("  [%5.1f] %s (unit %.0f, ref %s): %s",
			it.RiskScore, it.Description, it.UnitPrice, ref, it.Explanation)
	}
}

func init() {
	rootCmd.AddCommand(analyzeCmd)
	analyzeCmd.Flags().StringVarP(&anaReference, "reference", "r", "", "reference price catalog CSV")
	analyzeCmd.Flags().Float64VarP(&anaContamination, "contamination", "c", scoring.DefaultContamination, "expected anomaly fraction (0.01-0.20)")
	analyzeCmd.Flags().StringVarP(&anaOutputPath, "output", "o", "", "path to write the full enriched result table (CSV)")
	analyzeCmd.Flags().IntVar(&anaThreshold, "threshold", 0, "minimum match score to accept a reference match (default 70)")
	analyzeCmd.Flags().IntVar(&anaWorkers, "workers", 0, "matching worker goroutines (0 = all CPUs)")
	analyzeCmd.Flags().IntVar(&anaTrees, "trees", 0, "isolation forest ensemble size (default 100)")
	analyzeCmd.Flags().Int64Var(&anaSeed, "seed", 0, "random seed for the outlier model (default 42)")
	analyzeCmd.Flags().StringVar(&anaDelimiter, "delimiter", "", "CSV delimiter: ',' | ';' | 'tab'")
	analyzeCmd.Flags().StringVar(&anaDecimal, "decimal", "", "decimal separator for numbers: '.'|'comma' (auto-detect if omitted)")
	analyzeCmd.Flags().StringVar(&anaThousands, "thousands", "", "thousands separator for numbers: ','|'.'|'space' (auto-detect if omitted)")
	analyzeCmd.Flags().StringVar(&anaSheetName, "sheet-name", "", "XLSX: sheet name to analyze")
	analyzeCmd.Flags().IntVar(&anaSheetIndex, "sheet-index", 1, "XLSX: 1-based sheet index (used if --sheet-name not provided)")
	analyzeCmd.Flags().IntVar(&anaTop, "top", 10, "number of high-risk items to print (0 = all)")
}
