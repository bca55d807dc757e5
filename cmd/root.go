package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	cfgpkg "github.com/fiscalbyte/budgetlens/internal/config"
	"github.com/fiscalbyte/budgetlens/pkg/logger"
)

var (
	// Global flags
	cfgFile string
	debug   bool

	// Loaded configuration
	cfg *cfgpkg.Global
	// Structured logger shared by all subcommands
	log logger.Logger = logger.NewNop()
)

var rootCmd = &cobra.Command{
	Use:   "budgetlens",
	Short: "BudgetLens: flag abnormal budget line items against a reference price catalog",
	Long: `BudgetLens matches free-text budget line items against a reference price
catalog, derives structural and statistical deviation features, and scores
each item with an unsupervised outlier model. Flags are decision support,
not verdicts: every flagged item needs human validation.`,
}

// Execute is the entry point called by main.main()
func Execute() {
	cobra.OnInitialize(initRuntime)
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "✗ Error:", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ~/.budgetlens/config.yaml)")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "enable debug logging")
}

func initRuntime() {
	c, err := cfgpkg.Load(cfgFile)
	if err != nil {
		// Non-fatal: allow running commands that don't need config
		fmt.Fprintf(os.Stderr, "⚠ Warning: failed to load config: %v\n", err)
		c = &cfgpkg.Global{}
	}
	cfg = c

	level := cfg.LogLevel
	if debug {
		level = "debug"
	}
	if l, err := logger.New(level); err == nil {
		log = l
	}
}
