package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

// promptsCmd lists the specialist table
var promptsCmd = &cobra.Command{
	Use:   "prompts",
	Short: "List the configured specialists and their prompts",
	RunE:  runPrompts,
}

var promptsVerbose bool

func init() {
	promptsCmd.Flags().BoolVar(&promptsVerbose, "templates", false, "Include full templates")
}

func runPrompts(cmd *cobra.Command, args []string) error {
	tax, err := loadTaxonomy(cfg)
	if err != nil {
		return err
	}

	for _, s := range tax.Specialists() {
		fmt.Printf("%s\n", s.Category)
		fmt.Printf("  role:     %s\n", strings.TrimSpace(s.Role))
		if s.ExpectedOutput != "" {
			fmt.Printf("  expected: %s\n", strings.TrimSpace(s.ExpectedOutput))
		}
		if promptsVerbose {
			fmt.Println("  template:")
			for _, line := range strings.Split(strings.TrimRight(s.Template, "\n"), "\n") {
				fmt.Printf("    %s\n", line)
			}
		}
	}
	if missing := tax.Missing(); len(missing) > 0 {
		fmt.Printf("\nNot handled: %v\n", missing)
	}
	return nil
}
