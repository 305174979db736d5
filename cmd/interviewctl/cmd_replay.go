package main

import (
	"fmt"
	"sort"
	"sync"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/casemill/interview-controller/internal/replay"
)

var replayCmd = &cobra.Command{
	Use:   "replay <fixture.json>...",
	Short: "Replay scripted session fixtures and check expectations",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runReplay,
}

func runReplay(cmd *cobra.Command, args []string) error {
	type outcome struct {
		path    string
		summary *replay.Summary
	}

	var mu sync.Mutex
	var outcomes []outcome

	g, ctx := errgroup.WithContext(cmd.Context())
	for _, path := range args {
		g.Go(func() error {
			fixture, err := replay.LoadFixture(path)
			if err != nil {
				return fmt.Errorf("%s: %w", path, err)
			}
			summary, err := replay.Run(ctx, fixture)
			if err != nil {
				return fmt.Errorf("%s: %w", path, err)
			}
			mu.Lock()
			outcomes = append(outcomes, outcome{path: path, summary: summary})
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}
	sort.Slice(outcomes, func(i, j int) bool { return outcomes[i].path < outcomes[j].path })

	out := cmd.OutOrStdout()
	failed := 0
	for _, o := range outcomes {
		status := "PASS"
		if o.summary.Mismatches > 0 {
			status = "FAIL"
			failed++
		}
		fmt.Fprintf(out, "%s %s (%d turns, %d mismatches)\n",
			status, o.path, len(o.summary.Turns), o.summary.Mismatches)
		for _, tr := range o.summary.Turns {
			for _, m := range tr.Mismatches {
				fmt.Fprintf(out, "  turn %d: %s\n", tr.Index, m)
			}
		}
	}
	if failed > 0 {
		return fmt.Errorf("%d of %d fixtures failed", failed, len(outcomes))
	}
	fmt.Fprintf(out, "%d fixtures passed\n", len(outcomes))
	return nil
}
