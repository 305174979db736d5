package main

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/casemill/interview-controller/internal/config"
)

var runFlags struct {
	caseID      string
	candidateID string
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run an interactive interview session in the terminal",
	RunE:  runRun,
}

func init() {
	f := runCmd.Flags()
	f.StringVar(&runFlags.caseID, "case", "", "Case ID from the case directory (required)")
	f.StringVar(&runFlags.candidateID, "candidate", "local", "Candidate identifier for the session record")

	_ = runCmd.MarkFlagRequired("case")
}

func runRun(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	log, err := zap.NewDevelopment()
	if err != nil {
		return err
	}
	defer log.Sync()

	ctx := cmd.Context()
	r, store, err := buildRunner(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer store.Close()

	sessionID, err := r.Create(runFlags.caseID, runFlags.candidateID)
	if err != nil {
		return fmt.Errorf("create session: %w", err)
	}
	opening, err := r.Start(ctx, sessionID)
	if err != nil {
		return fmt.Errorf("start session: %w", err)
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Session %s (case %s, backend %s)\n", sessionID, runFlags.caseID, cfg.Backend)
	fmt.Fprintln(out, "Type your answers, or 'quit' to abandon the session.")
	fmt.Fprintf(out, "\n%s\n\n", opening)

	scanner := bufio.NewScanner(os.Stdin)
	for {
		done, err := r.IsComplete(sessionID)
		if err != nil {
			return err
		}
		if done {
			break
		}

		fmt.Fprint(out, "> ")
		if !scanner.Scan() {
			break
		}
		input := strings.TrimSpace(scanner.Text())
		if input == "" {
			continue
		}
		if input == "quit" || input == "exit" {
			fmt.Fprintln(out, "Session abandoned.")
			return nil
		}

		msg, err := r.Respond(ctx, sessionID, input)
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "\n%s\n\n", msg)
	}

	snap, err := r.Snapshot(sessionID)
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "--- session complete ---\n")
	if snap.FinalScore != nil {
		fmt.Fprintf(out, "Aggregate score: %.2f\n", *snap.FinalScore)
	} else {
		fmt.Fprintln(out, "Aggregate score: n/a (no scored units)")
	}
	fmt.Fprintf(out, "Units scored: %d | Turns: %d\n", len(snap.Ledger), len(snap.Transcript))
	if snap.FinalSummary != "" {
		fmt.Fprintln(out, snap.FinalSummary)
	}
	return nil
}
