package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/text/unicode/norm"

	"pathtutor/internal/articulation"
	"pathtutor/internal/memory"
	"pathtutor/internal/taxonomy"
	"pathtutor/internal/usage"
)

// askCmd answers a single question without entering the loop
var askCmd = &cobra.Command{
	Use:   "ask [question]",
	Short: "Classify and answer a single question",
	Long: `Runs one turn: the question is classified, dispatched to the matching
specialist and the answer is printed. The turn is saved as its own session.

Example:
  tutor ask "What is the difference between a list and a tuple?"`,
	Args: cobra.MinimumNArgs(1),
	RunE: runAsk,
}

// classifyCmd only classifies
var classifyCmd = &cobra.Command{
	Use:   "classify [question]",
	Short: "Print the category a question falls into",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runClassify,
}

func joinArgs(args []string) string {
	return norm.NFC.String(strings.TrimSpace(strings.Join(args, " ")))
}

func runAsk(cmd *cobra.Command, args []string) error {
	question := joinArgs(args)
	a, err := newApp(cmd.Context(), cfg)
	if err != nil {
		return err
	}
	defer a.close()

	sessionID := uuid.NewString()
	ctx := usage.WithTurn(a.withUsage(cmd.Context()), sessionID, "", "")
	logger.Debug("Asking", zap.String("session", sessionID), zap.Int("question_len", len(question)))

	res, err := a.classifier.ClassifyLabel(ctx, question, "")
	if err != nil {
		logger.Error("Classification failed", zap.String("session", sessionID), zap.Error(err))
		return fmt.Errorf("classification failed: %w", err)
	}
	a.metrics.RecordClassification(string(res.Category))
	logger.Debug("Classified", zap.String("session", sessionID), zap.String("category", string(res.Category)))

	renderer := articulation.NewRenderer(cmd.OutOrStdout())
	if !res.Category.IsKnown() {
		logger.Warn("Question not handled", zap.String("session", sessionID), zap.String("label", res.Label))
		renderer.Unhandled(res.Label)
		if a.cfg.Tutor.FailOnUnknown() {
			return fmt.Errorf("%w: %q", taxonomy.ErrUnhandledCategory, res.Label)
		}
		return nil
	}

	result := a.router.Dispatch(ctx, res.Category, question, "")
	if !result.Success {
		logger.Error("Dispatch failed", zap.String("session", sessionID),
			zap.String("category", string(res.Category)), zap.String("detail", result.Detail))
		if result.Err != nil {
			return fmt.Errorf("dispatch failed: %w", result.Err)
		}
		return fmt.Errorf("dispatch failed: %s", result.Detail)
	}
	renderer.Result(result.Category, result.Output)

	if a.store != nil {
		mem := memory.New()
		turn, err := mem.Append(res.Category, question, result.Output)
		if err != nil {
			return err
		}
		now := time.Now()
		if err := a.store.StartSession(sessionID, a.cfg.LLM.Provider, a.cfg.LLM.Model, now); err != nil {
			logger.Warn("Failed to register session", zap.String("session", sessionID), zap.Error(err))
		}
		if err := a.store.RecordTurn(sessionID, turn); err != nil {
			logger.Warn("Failed to record turn", zap.String("session", sessionID), zap.Error(err))
		}
		if err := a.store.EndSession(sessionID, now); err != nil {
			logger.Warn("Failed to close session", zap.String("session", sessionID), zap.Error(err))
		}
	}
	return nil
}

func runClassify(cmd *cobra.Command, args []string) error {
	question := joinArgs(args)
	a, err := newApp(cmd.Context(), cfg)
	if err != nil {
		return err
	}
	defer a.close()

	ctx := usage.WithTurn(a.withUsage(cmd.Context()), "classify-"+uuid.NewString(), "", "")
	res, err := a.classifier.ClassifyLabel(ctx, question, "")
	if err != nil {
		logger.Error("Classification failed", zap.Error(err))
		return fmt.Errorf("classification failed: %w", err)
	}
	logger.Debug("Classified", zap.String("category", string(res.Category)), zap.String("label", res.Label))

	if res.Category.IsKnown() {
		fmt.Fprintln(cmd.OutOrStdout(), res.Category)
		return nil
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%s (provider said %q)\n", taxonomy.Unknown, res.Label)
	return nil
}
