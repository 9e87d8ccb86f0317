package main

import (
	"encoding/json"
	"fmt"
	"os"
	"slices"
	"strings"

	"github.com/spf13/cobra"

	"pathtutor/internal/usage"
)

var usageJSON bool

// usageCmd reports token usage
var usageCmd = &cobra.Command{
	Use:   "usage",
	Short: "Show token usage by provider, model, category and operation",
	RunE:  runUsage,
}

func init() {
	usageCmd.Flags().BoolVar(&usageJSON, "json", false, "Print raw JSON")
}

func runUsage(cmd *cobra.Command, args []string) error {
	if !cfg.Usage.Enabled {
		fmt.Println("Usage tracking is disabled (usage.enabled: false).")
		return nil
	}
	tracker, err := usage.NewTracker(cfg.Usage.Path)
	if err != nil {
		return err
	}
	stats := tracker.Stats()

	if usageJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(stats)
	}

	fmt.Println("Token Usage")
	fmt.Println(strings.Repeat("─", 50))
	fmt.Printf("Calls: %d  Input: %d  Output: %d  Total: %d\n",
		stats.Calls, stats.Total.Input, stats.Total.Output, stats.Total.Total)
	printBreakdown("By provider", stats.ByProvider)
	printBreakdown("By model", stats.ByModel)
	printBreakdown("By operation", stats.ByOperation)
	printBreakdown("By category", stats.ByCategory)
	return nil
}

func printBreakdown(title string, m map[string]usage.TokenCounts) {
	if len(m) == 0 {
		return
	}
	fmt.Printf("\n%s:\n", title)
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	for _, k := range keys {
		name := k
		if name == "" {
			name = "(none)"
		}
		fmt.Printf("  %-24s %8d in %8d out\n", name, m[k].Input, m[k].Output)
	}
}
