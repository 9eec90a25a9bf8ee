package workerpool

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/panjf2000/ants/v2"
	"go.uber.org/zap"
)

var ErrPoolClosed = errors.New("worker pool is closed")

// TaskResult carries the outcome of a submitted task
type TaskResult struct {
	Data  interface{}
	Error error
}

// Config holds worker pool settings
type Config struct {
	Workers int // number of workers
}

// DefaultConfig returns default pool settings
func DefaultConfig() *Config {
	return &Config{
		Workers: 32,
	}
}

// Statistics tracks task counters
type Statistics struct {
	mu sync.RWMutex

	Submitted int64
	Completed int64
	Failed    int64
	Running   int64
}

func (s *Statistics) incSubmitted() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Submitted++
}

func (s *Statistics) incRunning() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Running++
}

func (s *Statistics) decRunning(failed bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Running--
	if failed {
		s.Failed++
	} else {
		s.Completed++
	}
}

func (s *Statistics) Get() Statistics {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return Statistics{
		Submitted: s.Submitted,
		Completed: s.Completed,
		Failed:    s.Failed,
		Running:   s.Running,
	}
}

// Pool wraps an ants pool with stats and panic recovery
type Pool struct {
	pool   *ants.Pool
	config *Config
	stats  *Statistics

	ctx    context.Context
	cancel context.CancelFunc

	logger *zap.Logger
}

// New creates a worker pool
func New(config *Config, logger *zap.Logger) (*Pool, error) {
	if config == nil {
		config = DefaultConfig()
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	antsPool, err := ants.NewPool(config.Workers,
		ants.WithPanicHandler(func(err interface{}) {
			logger.Error("worker panic", zap.Any("error", err))
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create ants pool: %w", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	return &Pool{
		pool:   antsPool,
		config: config,
		stats:  &Statistics{},
		ctx:    ctx,
		cancel: cancel,
		logger: logger,
	}, nil
}

// Submit schedules a task for execution
func (p *Pool) Submit(task func() error) error {
	select {
	case <-p.ctx.Done():
		return ErrPoolClosed
	default:
	}

	p.stats.incSubmitted()
	return p.pool.Submit(func() {
		p.stats.incRunning()
		err := task()
		p.stats.decRunning(err != nil)
		if err != nil {
			p.logger.Warn("task failed", zap.Error(err))
		}
	})
}

// SubmitWithResult schedules a task and returns its result on a channel
func (p *Pool) SubmitWithResult(task func() (interface{}, error)) <-chan TaskResult {
	resultCh := make(chan TaskResult, 1)

	err := p.Submit(func() error {
		data, err := task()
		resultCh <- TaskResult{Data: data, Error: err}
		close(resultCh)
		return err
	})
	if err != nil {
		resultCh <- TaskResult{Error: err}
		close(resultCh)
	}
	return resultCh
}

// Running returns the number of busy workers
func (p *Pool) Running() int {
	return p.pool.Running()
}

// Free returns the number of idle workers
func (p *Pool) Free() int {
	return p.pool.Free()
}

// Stats returns a snapshot of the task counters
func (p *Pool) Stats() Statistics {
	return p.stats.Get()
}

// Shutdown stops accepting tasks and releases workers
func (p *Pool) Shutdown() {
	p.cancel()
	p.pool.Release()
}
