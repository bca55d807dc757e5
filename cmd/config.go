package cmd

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	cfgpkg "github.com/fiscalbyte/budgetlens/internal/config"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "View or set BudgetLens configuration",
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show effective configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		if cfg == nil {
			fmt.Println("No config loaded")
			return nil
		}
		fmt.Printf("reference_path: %s\n", cfg.ReferencePath)
		fmt.Printf("match_threshold: %d\n", cfg.MatchThreshold)
		fmt.Printf("match_workers: %d\n", cfg.MatchWorkers)
		fmt.Printf("contamination: %.3f\n", cfg.Contamination)
		fmt.Printf("trees: %d\n", cfg.Trees)
		fmt.Printf("seed: %d\n", cfg.Seed)
		fmt.Printf("price_high_ratio: %.2f\n", cfg.PriceHighRatio)
		fmt.Printf("price_low_ratio: %.2f\n", cfg.PriceLowRatio)
		fmt.Printf("discrepancy_tolerance: %.3f\n", cfg.DiscrepancyTolerance)
		fmt.Printf("quantity_z_threshold: %.2f\n", cfg.QuantityZThreshold)
		fmt.Printf("low_match_score: %d\n", cfg.LowMatchScore)
		fmt.Printf("log_level: %s\n", cfg.LogLevel)
		return nil
	},
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Write the default configuration to disk",
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := cfgpkg.Load("")
		if err != nil {
			return err
		}
		if err := cfgpkg.Save(c, cfgFile); err != nil {
			return err
		}
		fmt.Println("Saved default config")
		return nil
	},
}

var configSetCmd = &cobra.Command{
	Use:   "set <key> <value>",
	Short: "Set a config value and save to disk",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		key, val := args[0], args[1]
		if cfg == nil {
			c, err := cfgpkg.Load(cfgFile)
			if err != nil {
				return err
			}
			cfg = c
		}
		switch key {
		case "reference_path":
			cfg.ReferencePath = val
		case "match_threshold":
			i, err := strconv.Atoi(val)
			if err != nil || i < 0 || i > 100 {
				return fmt.Errorf("invalid match_threshold: %v (use 0-100)", val)
			}
			cfg.MatchThreshold = i
		case "match_workers":
			i, err := strconv.Atoi(val)
			if err != nil || i < 0 {
				return fmt.Errorf("invalid int for match_workers: %v", val)
			}
			cfg.MatchWorkers = i
		case "contamination":
			f, err := strconv.ParseFloat(val, 64)
			if err != nil || f < 0.01 || f > 0.20 {
				return fmt.Errorf("invalid contamination: %v (use 0.01-0.20)", val)
			}
			cfg.Contamination = f
		case "trees":
			i, err := strconv.Atoi(val)
			if err != nil || i <= 0 {
				return fmt.Errorf("invalid int for trees: %v", val)
			}
			cfg.Trees = i
		case "seed":
			i, err := strconv.ParseInt(val, 10, 64)
			if err != nil {
				return fmt.Errorf("invalid int for seed: %w", err)
			}
			cfg.Seed = i
		case "log_level":
			switch val {
			case "debug", "info", "warn", "error":
				cfg.LogLevel = val
			default:
				return fmt.Errorf("invalid log_level: %s (use debug|info|warn|error)", val)
			}
		default:
			return fmt.Errorf("unknown key: %s", key)
		}
		if err := cfgpkg.Save(cfg, cfgFile); err != nil {
			return err
		}
		fmt.Println("Saved config")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configInitCmd)
	configCmd.AddCommand(configSetCmd)
}
