package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/casemill/interview-controller/internal/config"
	"github.com/casemill/interview-controller/internal/ledger"
)

var ledgerFlags struct {
	sessionID string
	limit     int
	events    bool
}

var ledgerCmd = &cobra.Command{
	Use:   "ledger",
	Short: "Inspect recorded sessions and score records",
	RunE:  runLedger,
}

func init() {
	f := ledgerCmd.Flags()
	f.StringVar(&ledgerFlags.sessionID, "session", "", "Session ID to dump (omit to list sessions)")
	f.IntVar(&ledgerFlags.limit, "limit", 20, "Max sessions to list")
	f.BoolVar(&ledgerFlags.events, "events", false, "Include operational events in the dump")
}

func runLedger(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	store, err := ledger.NewStore(cfg.DBPath)
	if err != nil {
		return fmt.Errorf("open ledger store: %w", err)
	}
	defer store.Close()

	out := cmd.OutOrStdout()
	if ledgerFlags.sessionID == "" {
		sessions, err := store.Sessions(ledgerFlags.limit)
		if err != nil {
			return err
		}
		if len(sessions) == 0 {
			fmt.Fprintln(out, "No sessions recorded.")
			return nil
		}
		for _, m := range sessions {
			status := "in progress"
			if m.Interrupted {
				status = "interrupted"
			} else if m.Completed {
				status = "completed"
			}
			score := "n/a"
			if m.FinalScore != nil {
				score = fmt.Sprintf("%.2f", *m.FinalScore)
			}
			fmt.Fprintf(out, "%s  case=%s  %s  score=%s  started=%s\n",
				m.SessionID, m.CaseID, status, score, m.StartedAt.Format("2006-01-02 15:04:05"))
		}
		return nil
	}

	meta, err := store.Session(ledgerFlags.sessionID)
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "Session:   %s\n", meta.SessionID)
	fmt.Fprintf(out, "Case:      %s\n", meta.CaseID)
	fmt.Fprintf(out, "Candidate: %s\n", meta.CandidateID)
	fmt.Fprintf(out, "Started:   %s\n", meta.StartedAt.Format("2006-01-02 15:04:05"))
	if meta.FinalScore != nil {
		fmt.Fprintf(out, "Score:     %.2f\n", *meta.FinalScore)
	}
	if meta.FinalSummary != "" {
		fmt.Fprintf(out, "Summary:   %s\n", meta.FinalSummary)
	}

	records, err := store.ScoreRecords(ledgerFlags.sessionID)
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "Score records: (%d)\n", len(records))
	for i, rec := range records {
		fmt.Fprintf(out, "  %d. unit=%s phase=%s score=%d difficulty=%d\n",
			i+1, rec.UnitID, rec.Phase, rec.Score, rec.DifficultyAtTime)
		if rec.Rationale != "" {
			fmt.Fprintf(out, "     %s\n", rec.Rationale)
		}
	}

	if ledgerFlags.events {
		events, err := store.Events(ledgerFlags.sessionID)
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "Events: (%d)\n", len(events))
		for _, ev := range events {
			fmt.Fprintf(out, "  %s  %s  %s\n", ev.CreatedAt.Format("15:04:05"), ev.Kind, ev.Detail)
		}
	}
	return nil
}
