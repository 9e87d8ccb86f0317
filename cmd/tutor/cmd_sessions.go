package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

var (
	historyLimit  int
	sessionsLimit int
)

// historyCmd prints stored turns of a session
var historyCmd = &cobra.Command{
	Use:   "history [session-id]",
	Short: "Show the stored turns of a session (default: the latest)",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runHistory,
}

// sessionsCmd lists stored sessions
var sessionsCmd = &cobra.Command{
	Use:   "sessions",
	Short: "List stored tutoring sessions",
	RunE:  runSessionsList,
}

func init() {
	historyCmd.Flags().IntVarP(&historyLimit, "limit", "n", 20, "Maximum number of turns to show")
	sessionsCmd.Flags().IntVarP(&sessionsLimit, "limit", "n", 20, "Maximum number of sessions to show")
}

func runHistory(cmd *cobra.Command, args []string) error {
	st, err := openStore(cfg)
	if err != nil {
		return err
	}
	if st == nil {
		fmt.Println("Session storage is disabled (store.enabled: false).")
		return nil
	}
	defer st.Close()

	sessionID := ""
	if len(args) == 1 {
		sessionID = args[0]
	} else {
		sessionID, err = st.LatestSessionID()
		if err != nil {
			return err
		}
	}
	if sessionID == "" {
		fmt.Println("No saved sessions found.")
		return nil
	}

	turns, err := st.SessionHistory(sessionID, historyLimit)
	if err != nil {
		return fmt.Errorf("failed to load history: %w", err)
	}
	if len(turns) == 0 {
		fmt.Printf("Session %s has no turns.\n", sessionID)
		return nil
	}

	fmt.Printf("Session %s\n", sessionID)
	fmt.Println(strings.Repeat("─", 50))
	for _, t := range turns {
		fmt.Printf("#%d [%s] %s\n", t.Ordinal, t.Category, t.At.Local().Format("2006-01-02 15:04"))
		fmt.Println(t.Format())
		fmt.Println(strings.Repeat("─", 50))
	}
	return nil
}

func runSessionsList(cmd *cobra.Command, args []string) error {
	st, err := openStore(cfg)
	if err != nil {
		return err
	}
	if st == nil {
		fmt.Println("Session storage is disabled (store.enabled: false).")
		return nil
	}
	defer st.Close()

	sessions, err := st.ListSessions(sessionsLimit)
	if err != nil {
		return fmt.Errorf("failed to list sessions: %w", err)
	}
	if len(sessions) == 0 {
		fmt.Println("No saved sessions found.")
		return nil
	}

	fmt.Println("Saved Sessions")
	fmt.Println(strings.Repeat("─", 50))
	for i, s := range sessions {
		fmt.Printf("  %d. %s  %s  %s/%s  %d turns\n",
			i+1, s.ID, s.StartedAt.Local().Format("2006-01-02 15:04"), s.Provider, s.Model, s.Turns)
	}
	fmt.Println(strings.Repeat("─", 50))
	fmt.Printf("Total: %d sessions\n", len(sessions))
	fmt.Println("\nUse: tutor history <session-id>")
	return nil
}
