package main

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/casemill/interview-controller/internal/casespec"
	"github.com/casemill/interview-controller/internal/config"
	"github.com/casemill/interview-controller/internal/controller"
	"github.com/casemill/interview-controller/internal/ledger"
	"github.com/casemill/interview-controller/internal/runner"
)

// buildRunner wires the full stack from config: case library, ledger
// store, backend agents, controller, runner. The caller owns the store.
func buildRunner(ctx context.Context, cfg *config.Config, log *zap.Logger) (*runner.Runner, *ledger.Store, error) {
	store, err := ledger.NewStore(cfg.DBPath)
	if err != nil {
		return nil, nil, fmt.Errorf("open ledger store: %w", err)
	}

	assessor, responder, err := cfg.Agents(ctx)
	if err != nil {
		store.Close()
		return nil, nil, err
	}

	ctrl, err := controller.New(controller.Config{
		Assessor:  assessor,
		Responder: responder,
		Limits:    cfg.Limits(),
		Recorder:  ledger.NewRecorder(store, log),
		Log:       log,
	})
	if err != nil {
		store.Close()
		return nil, nil, err
	}

	r, err := runner.New(runner.Config{
		Controller: ctrl,
		Library:    casespec.NewLibrary(cfg.CaseDir),
		Store:      store,
		Log:        log,
	})
	if err != nil {
		store.Close()
		return nil, nil, err
	}
	return r, store, nil
}
