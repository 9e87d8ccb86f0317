// Package main is the pathtutor command: an interactive tutoring assistant
// that classifies each question and answers it with a category specialist.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"pathtutor/internal/config"
	"pathtutor/internal/logging"
)

var (
	// Global flags
	verbose      bool
	configPath   string
	providerFlag string
	modelFlag    string
	historyTurns int
	dbPath       string
	metricsAddr  string
	promptsPath  string

	// Resolved configuration
	cfg *config.Config

	// Logger
	logger *zap.Logger
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "tutor",
	Short: "pathtutor - a conversational tutoring assistant",
	Long: `pathtutor answers study questions one turn at a time.

Each question is classified into one of eight categories (definitions,
concept explanations, problem solving, comparisons, process guides, doubt
clearing, Python code and Python debugging) and answered by the specialist
for that category. The last few turns are fed back as context so follow-up
questions make sense.

Run without arguments to start an interactive session.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		cfg, err = loadConfig(cmd)
		if err != nil {
			return err
		}

		if verbose {
			cfg.Logging.Enabled = true
			cfg.Logging.Level = "debug"
		}
		if err := logging.Initialize(cfg.Logging.ToLogging()); err != nil {
			return fmt.Errorf("failed to initialize logging: %w", err)
		}

		// Skip the console logger for interactive mode (it owns the terminal)
		if !cmd.HasParent() {
			logger = zap.NewNop()
			return nil
		}
		logger, err = newConsoleLogger(verbose)
		if err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Sync()
		}
		logging.CloseAll()
	},
	RunE: runInteractive,
}

// versionCmd prints the version
var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the pathtutor version",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("%s %s\n", cfg.Name, cfg.Version)
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose logging")
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "Config file (default: ~/.pathtutor/config.yaml)")
	rootCmd.PersistentFlags().StringVar(&providerFlag, "provider", "", "Completion provider (groq, openai, anthropic, gemini)")
	rootCmd.PersistentFlags().StringVar(&modelFlag, "model", "", "Model identifier (or set MODEL env)")
	rootCmd.PersistentFlags().IntVar(&historyTurns, "history-turns", 0, "Number of recent turns used as context")
	rootCmd.PersistentFlags().StringVar(&dbPath, "db", "", "SQLite database path (or set PATHTUTOR_DB env)")
	rootCmd.PersistentFlags().StringVar(&metricsAddr, "metrics-addr", "", "Serve Prometheus metrics on this address")
	rootCmd.PersistentFlags().StringVar(&promptsPath, "prompts", "", "Specialist prompts file overriding the built-in set")

	rootCmd.AddCommand(askCmd)
	rootCmd.AddCommand(classifyCmd)
	rootCmd.AddCommand(historyCmd)
	rootCmd.AddCommand(sessionsCmd)
	rootCmd.AddCommand(usageCmd)
	rootCmd.AddCommand(promptsCmd)
	rootCmd.AddCommand(versionCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// loadConfig reads the config file and applies flag overrides on top of the
// file and environment.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	path := configPath
	if path == "" {
		path = config.DefaultConfigPath()
	}
	c, err := config.Load(path)
	if err != nil {
		return nil, err
	}

	flags := cmd.Flags()
	if flags.Changed("provider") {
		if c.LLM.Provider != providerFlag && !flags.Changed("model") {
			c.LLM.Model = config.DefaultModels[providerFlag]
		}
		c.LLM.Provider = providerFlag
	}
	if flags.Changed("model") {
		c.LLM.Model = modelFlag
	}
	if flags.Changed("history-turns") {
		c.Tutor.HistoryTurns = historyTurns
	}
	if flags.Changed("db") {
		c.Store.DatabasePath = dbPath
	}
	if flags.Changed("metrics-addr") {
		c.Metrics.ListenAddr = metricsAddr
	}
	if flags.Changed("prompts") {
		c.Tutor.PromptsPath = promptsPath
	}
	return c, nil
}

func newConsoleLogger(debug bool) (*zap.Logger, error) {
	zc := zap.NewProductionConfig()
	zc.Encoding = "console"
	zc.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	if debug {
		zc.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
	} else {
		zc.Level = zap.NewAtomicLevelAt(zapcore.WarnLevel)
	}
	return zc.Build()
}
