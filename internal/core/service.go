package core

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/wind-7274/seatlease-process/internal/config"
	"github.com/wind-7274/seatlease-process/internal/history"
	"github.com/wind-7274/seatlease-process/internal/logging"
	"github.com/wind-7274/seatlease-process/internal/metrics"
	"github.com/wind-7274/seatlease-process/internal/phone"
	"github.com/wind-7274/seatlease-process/internal/sheet"
	"github.com/wind-7274/seatlease-process/internal/unlock"
)

// Service runs split and unlock jobs and keeps their results.
type Service struct {
	cfg     *config.Config
	limiter *JobLimiter
	history history.Store
	metrics *metrics.Metrics

	splitRuns  *runCache[*SplitRun]
	unlockRuns *runCache[*UnlockRun]
}

// NewService wires a Service. A nil store falls back to an in-memory
// history; nil metrics disables instrumentation.
func NewService(cfg *config.Config, store history.Store, m *metrics.Metrics) (*Service, error) {
	if cfg == nil {
		return nil, fmt.Errorf("core: nil config")
	}
	if store == nil {
		store = history.NewMemoryStore(cfg.Database.HistorySize)
	}

	return &Service{
		cfg:        cfg,
		limiter:    NewJobLimiter(cfg.Upload.MaxConcurrent, cfg.Upload.MaxWaitTime),
		history:    store,
		metrics:    m,
		splitRuns:  newRunCache[*SplitRun](cfg.Results.TTL, cfg.Results.MaxRuns),
		unlockRuns: newRunCache[*UnlockRun](cfg.Results.TTL, cfg.Results.MaxRuns),
	}, nil
}

// DefaultSplitOptions returns the configured defaults that a request may
// override.
func (s *Service) DefaultSplitOptions() phone.Options {
	return phone.Options{
		Separator: s.cfg.Split.Separator,
		KeepEmpty: s.cfg.Split.KeepEmpty,
		E164:      s.cfg.Split.E164,
	}
}

// Split reads an uploaded table, runs every record through the phone
// pipeline and caches the result.
func (s *Service) Split(ctx context.Context, req SplitRequest) (*SplitRun, error) {
	if len(req.Options.Separator) > maxSeparatorLen {
		return nil, fmt.Errorf("%w: longer than %d characters", ErrInvalidSeparator, maxSeparatorLen)
	}

	release, err := s.begin(ctx)
	if err != nil {
		return nil, err
	}
	defer release()

	ctx, cancel := context.WithTimeout(ctx, s.cfg.Upload.Timeout)
	defer cancel()

	run := &SplitRun{
		ID:        uuid.NewString(),
		FileName:  req.FileName,
		CreatedAt: time.Now().UTC(),
		Options:   req.Options,
	}
	ip, _ := ClientFromContext(ctx)
	logger := logging.ForRun(ctx, string(history.KindSplit), run.ID).With("file", req.FileName, "ip", ip)

	tbl, err := sheet.Read(req.FileName, req.Body)
	if err != nil {
		s.metrics.ObserveFailure(string(history.KindSplit))
		logger.Warn("split rejected", "error", err)
		return nil, fmt.Errorf("read %s: %w", req.FileName, err)
	}

	records, idHeader, err := phone.RecordsFromTable(tbl)
	if err != nil {
		s.metrics.ObserveFailure(string(history.KindSplit))
		logger.Warn("split rejected", "error", err)
		return nil, err
	}

	workers := 1
	if len(records) > s.cfg.Split.ParallelThreshold {
		workers = s.cfg.Split.Workers
	}
	res, err := phone.ProcessParallel(ctx, records, req.Options, workers)
	if err != nil {
		s.metrics.ObserveFailure(string(history.KindSplit))
		logger.Error("split failed", "error", err)
		return nil, fmt.Errorf("split: %w", err)
	}
	res.IDHeader = idHeader

	run.Result = res
	run.Preview = tbl.Preview(s.cfg.Split.PreviewRows)
	run.Duration = time.Since(run.CreatedAt)
	s.splitRuns.put(run.ID, run)

	sum := run.Summary()
	s.record(ctx, history.Run{
		ID:        run.ID,
		Kind:      history.KindSplit,
		FileName:  run.FileName,
		Records:   sum.Records,
		Valid:     sum.ValidNumbers,
		Invalid:   sum.InvalidEntries,
		CreatedAt: run.CreatedAt,
	})
	s.metrics.ObserveSplit(sum.Records, sum.ValidNumbers, sum.InvalidEntries, run.Duration.Seconds())

	logger.Info("split completed",
		"records", sum.Records,
		"valid_ids", sum.ValidIDs,
		"valid_numbers", sum.ValidNumbers,
		"invalid_entries", sum.InvalidEntries,
		"workers", workers,
		"duration_ms", run.Duration.Milliseconds(),
	)
	return run, nil
}

// Unlock decrypts a batch of workbooks and caches the zip archive.
// Files that fail are reported in the run, not returned as an error.
func (s *Service) Unlock(ctx context.Context, req UnlockRequest) (*UnlockRun, error) {
	if req.Password == "" {
		return nil, unlock.ErrNoPassword
	}
	if len(req.Files) == 0 {
		return nil, unlock.ErrNoFiles
	}
	if limit := s.cfg.Upload.MaxFiles; len(req.Files) > limit {
		return nil, fmt.Errorf("%w: %d submitted, limit is %d", ErrTooManyFiles, len(req.Files), limit)
	}

	release, err := s.begin(ctx)
	if err != nil {
		return nil, err
	}
	defer release()

	ctx, cancel := context.WithTimeout(ctx, s.cfg.Upload.Timeout)
	defer cancel()

	run := &UnlockRun{
		ID:        uuid.NewString(),
		CreatedAt: time.Now().UTC(),
		Files:     len(req.Files),
	}
	ip, _ := ClientFromContext(ctx)
	logger := logging.ForRun(ctx, string(history.KindUnlock), run.ID).With("files", len(req.Files), "ip", ip)

	report, err := unlock.Batch(ctx, req.Password, req.Files)
	if err != nil {
		s.metrics.ObserveFailure(string(history.KindUnlock))
		logger.Error("unlock failed", "error", err)
		return nil, fmt.Errorf("unlock: %w", err)
	}

	run.Report = report
	run.Duration = time.Since(run.CreatedAt)
	s.unlockRuns.put(run.ID, run)

	s.record(ctx, history.Run{
		ID:        run.ID,
		Kind:      history.KindUnlock,
		FileName:  firstName(req.Files),
		Records:   len(req.Files),
		Valid:     len(report.Unlocked),
		Failed:    len(report.Failures),
		CreatedAt: run.CreatedAt,
	})
	s.metrics.ObserveUnlock(len(report.Unlocked), len(report.Failures), run.Duration.Seconds())

	for _, f := range report.Failures {
		logger.Warn("workbook not unlocked", "name", f.Name, "error", f.Error)
	}
	logger.Info("unlock completed",
		"unlocked", len(report.Unlocked),
		"failed", len(report.Failures),
		"duration_ms", run.Duration.Milliseconds(),
	)
	return run, nil
}

// SplitRun returns a cached split run.
func (s *Service) SplitRun(id string) (*SplitRun, error) {
	run, ok := s.splitRuns.get(id)
	if !ok {
		return nil, ErrRunNotFound
	}
	return run, nil
}

// UnlockRun returns a cached unlock run.
func (s *Service) UnlockRun(id string) (*UnlockRun, error) {
	run, ok := s.unlockRuns.get(id)
	if !ok {
		return nil, ErrRunNotFound
	}
	return run, nil
}

// History returns the most recent runs, newest first.
func (s *Service) History(ctx context.Context, limit int) ([]history.Run, error) {
	return s.history.Recent(ctx, limit)
}

// JobStatus reports limiter occupancy.
func (s *Service) JobStatus() JobLimiterStatus {
	return s.limiter.Status()
}

// WaitForJobs blocks until running jobs finish or ctx is done.
func (s *Service) WaitForJobs(ctx context.Context) error {
	return s.limiter.WaitForDrain(ctx)
}

// begin takes a job slot and returns the matching release func.
func (s *Service) begin(ctx context.Context) (func(), error) {
	if err := s.limiter.Acquire(ctx); err != nil {
		return nil, err
	}
	s.metrics.JobStarted()
	return func() {
		s.metrics.JobFinished()
		s.limiter.Release()
	}, nil
}

// record stores a run in history. A history failure never fails the run.
func (s *Service) record(ctx context.Context, run history.Run) {
	if err := s.history.Record(context.WithoutCancel(ctx), run); err != nil {
		logging.FromContext(ctx).Error("failed to record run history", "run_id", run.ID, "error", err)
	}
}

func firstName(files []unlock.File) string {
	if len(files) == 0 {
		return ""
	}
	if len(files) == 1 {
		return files[0].Name
	}
	return fmt.Sprintf("%s (+%d more)", files[0].Name, len(files)-1)
}
