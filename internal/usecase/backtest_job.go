package usecase

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/google/uuid"

	"BtcEdge/internal/domain/models"
	domrepo "BtcEdge/internal/domain/repository"
	"BtcEdge/internal/services/backtest"
	"BtcEdge/pkg/logger"
	"BtcEdge/pkg/queue"
)

const (
	backtestMsgType = "backtest.run"
	runLockTTL      = 10 * time.Minute
)

// BacktestRunPayload is the queued request for one asynchronous backtest.
type BacktestRunPayload struct {
	ID             string  `json:"id"`
	Symbol         string  `json:"symbol"`
	Limit          int     `json:"limit"`
	InitialBalance float64 `json:"initial_balance"`
}

// BacktestRunsUseCase enqueues backtests and reports their status.
type BacktestRunsUseCase struct {
	backtests *BacktestUseCase
	runs      domrepo.BacktestRunStore
	q         queue.QueueService
}

func NewBacktestRunsUseCase(backtests *BacktestUseCase, runs domrepo.BacktestRunStore, q queue.QueueService) *BacktestRunsUseCase {
	return &BacktestRunsUseCase{backtests: backtests, runs: runs, q: q}
}

// Enqueue registers a pending run and publishes it to the job queue.
func (uc *BacktestRunsUseCase) Enqueue(ctx context.Context, p RunBacktestParams) (*models.BacktestRun, error) {
	run := &models.BacktestRun{
		ID:     uuid.NewString(),
		Status: models.RunStatusPending,
	}
	if err := uc.runs.SaveRun(ctx, run); err != nil {
		return nil, err
	}
	payload := BacktestRunPayload{
		ID:             run.ID,
		Symbol:         p.Symbol,
		Limit:          p.Limit,
		InitialBalance: p.InitialBalance,
	}
	if err := uc.q.PublishMessage(ctx, backtestMsgType, payload); err != nil {
		return nil, fmt.Errorf("enqueue backtest: %w", err)
	}
	return run, nil
}

// Get resolves a run by id.
func (uc *BacktestRunsUseCase) Get(ctx context.Context, id string) (*models.BacktestRun, bool, error) {
	return uc.runs.GetRun(ctx, id)
}

// BacktestJob executes queued backtest runs. Completed runs render their
// console summary to out (stdout in production).
type BacktestJob struct {
	backtests *BacktestUseCase
	runs      domrepo.BacktestRunStore
	log       *logger.Logger
	out       io.Writer
}

func NewBacktestJob(backtests *BacktestUseCase, runs domrepo.BacktestRunStore, log *logger.Logger, out io.Writer) *BacktestJob {
	if out == nil {
		out = os.Stdout
	}
	return &BacktestJob{backtests: backtests, runs: runs, log: log, out: out}
}

func (j *BacktestJob) Name() string { return "backtest_run" }

func (j *BacktestJob) Type() string { return backtestMsgType }

func (j *BacktestJob) Handle(ctx context.Context, payload interface{}) error {
	p, err := queue.ParsePayload[BacktestRunPayload](payload)
	if err != nil {
		return fmt.Errorf("parse backtest payload: %w", err)
	}

	locked, err := j.runs.TryLockRun(ctx, p.ID, runLockTTL)
	if err != nil {
		j.log.Warn("run lock unavailable", logger.String("run_id", p.ID), logger.Error(err))
	} else if !locked {
		j.log.Warn("run already executing, skipping", logger.String("run_id", p.ID))
		return nil
	} else {
		defer func() {
			if err := j.runs.UnlockRun(context.Background(), p.ID); err != nil {
				j.log.Warn("run unlock", logger.String("run_id", p.ID), logger.Error(err))
			}
		}()
	}

	run := &models.BacktestRun{ID: p.ID, Status: models.RunStatusRunning}
	if err := j.runs.SaveRun(ctx, run); err != nil {
		j.log.Error("save running state", logger.String("run_id", p.ID), logger.Error(err))
	}

	result, err := j.backtests.Run(ctx, RunBacktestParams{
		Symbol:         p.Symbol,
		Limit:          p.Limit,
		InitialBalance: p.InitialBalance,
	})
	if err != nil {
		run.Status = models.RunStatusFailed
		run.Message = err.Error()
		if saveErr := j.runs.SaveRun(ctx, run); saveErr != nil {
			j.log.Error("save failed state", logger.String("run_id", p.ID), logger.Error(saveErr))
		}
		return err
	}

	run.Status = models.RunStatusDone
	run.Result = result
	if err := j.runs.SaveRun(ctx, run); err != nil {
		j.log.Error("save done state", logger.String("run_id", p.ID), logger.Error(err))
		return err
	}
	j.log.Info("backtest run done",
		logger.String("run_id", p.ID),
		logger.Int("trades", result.Stats.TotalTrades),
	)
	if _, err := io.WriteString(j.out, backtest.RenderSummary(result, 10)); err != nil {
		j.log.Warn("write run summary", logger.String("run_id", p.ID), logger.Error(err))
	}
	return nil
}

var _ queue.Job = (*BacktestJob)(nil)
