package scheduler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/zeewaqar/stock-prediction-app/internal/actuals"
)

// Runner is the automatic actuals update the scheduler drives.
type Runner interface {
	RunAuto(ctx context.Context) (actuals.Result, error)
}

type ActualsSchedulerConfig struct {
	Interval   time.Duration // how often to run; e.g. 24*time.Hour
	RunTimeout time.Duration // hard cap per run
	OnComplete func(actuals.Result)
}

// ActualsScheduler periodically re-scores pending predictions in the
// background. The HTTP trigger stays available either way; this just keeps
// the dashboard current without an operator clicking refresh.
type ActualsScheduler struct {
	updater Runner
	cfg     ActualsSchedulerConfig
	logger  zerolog.Logger

	mu      sync.Mutex
	running bool
	stopCh  chan struct{}
}

func NewActualsScheduler(updater Runner, cfg ActualsSchedulerConfig) *ActualsScheduler {
	if cfg.Interval <= 0 {
		cfg.Interval = 24 * time.Hour
	}
	if cfg.RunTimeout <= 0 {
		cfg.RunTimeout = 5 * time.Minute
	}
	return &ActualsScheduler{
		updater: updater,
		cfg:     cfg,
		logger:  log.With().Str("component", "actuals_scheduler").Logger(),
	}
}

func (s *ActualsScheduler) Start() {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		s.logger.Warn().Msg("already running")
		return
	}
	s.running = true
	s.stopCh = make(chan struct{})
	s.mu.Unlock()

	// One run on startup, then the ticker takes over.
	go func() {
		if err := s.runOnce(); err != nil {
			s.logger.Error().Err(err).Msg("initial actuals run failed")
		}
	}()

	go func() {
		ticker := time.NewTicker(s.cfg.Interval)
		defer ticker.Stop()
		for {
			select {
			case <-s.stopCh:
				return
			case <-ticker.C:
				if err := s.runOnce(); err != nil {
					s.logger.Error().Err(err).Msg("scheduled actuals run failed")
				}
			}
		}
	}()

	s.logger.Info().Dur("interval", s.cfg.Interval).Msg("started")
}

func (s *ActualsScheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.running {
		return
	}
	close(s.stopCh)
	s.running = false
	s.logger.Info().Msg("stopped")
}

func (s *ActualsScheduler) Running() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.running
}

// RunNow triggers a run outside the normal schedule.
func (s *ActualsScheduler) RunNow(ctx context.Context) (actuals.Result, error) {
	s.logger.Info().Msg("manual run triggered")
	res, err := s.updater.RunAuto(ctx)
	if err != nil {
		return res, fmt.Errorf("actuals run: %w", err)
	}
	if s.cfg.OnComplete != nil {
		s.cfg.OnComplete(res)
	}
	return res, nil
}

func (s *ActualsScheduler) runOnce() error {
	ctx, cancel := context.WithTimeout(context.Background(), s.cfg.RunTimeout)
	defer cancel()
	_, err := s.RunNow(ctx)
	return err
}
