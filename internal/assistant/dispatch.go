package assistant

import (
	"context"
	"errors"
	"sync"
	"time"
)

// Job asks for one assistant reply to the message MessageID in GroupID.
type Job struct {
	GroupID   uint   `json:"group_id"`
	MessageID uint   `json:"message_id"`
	Content   string `json:"content"`
	RequestID string `json:"request_id,omitempty"`
}

// Handler produces and stores the reply for a job.
type Handler func(ctx context.Context, job Job) error

// Dispatcher runs reply jobs. Dispatch is called after the triggering
// message has been committed. Close stops accepting jobs and waits for
// in-flight ones until ctx expires.
type Dispatcher interface {
	Dispatch(ctx context.Context, job Job) error
	Close(ctx context.Context) error
}

// Dispatch modes accepted by configuration.
const (
	ModeInline = "inline"
	ModeAsync  = "async"
	ModeAMQP   = "amqp"
)

// DefaultJobTimeout bounds a single job run by a background dispatcher.
const DefaultJobTimeout = 30 * time.Second

// Inline runs the job in the caller's goroutine.
type Inline struct {
	handle Handler
}

// NewInline returns a dispatcher that runs h synchronously.
func NewInline(h Handler) *Inline { return &Inline{handle: h} }

func (d *Inline) Dispatch(ctx context.Context, job Job) error {
	err := d.handle(ctx, job)
	observeJob(ModeInline, err)
	return err
}

func (d *Inline) Close(context.Context) error { return nil }

// Pool runs jobs on a fixed set of worker goroutines fed by a bounded queue.
// Jobs run with a context detached from the request that queued them. When
// the queue is full, or the pool is closed, the job runs inline instead so
// no reply is dropped.
type Pool struct {
	handle  Handler
	jobs    chan Job
	timeout time.Duration

	mu     sync.RWMutex
	closed bool
	wg     sync.WaitGroup
}

// NewPool starts workers goroutines with a queue of size queue.
func NewPool(h Handler, workers, queue int, timeout time.Duration) *Pool {
	if workers <= 0 {
		workers = 1
	}
	if queue < 0 {
		queue = 0
	}
	if timeout <= 0 {
		timeout = DefaultJobTimeout
	}
	p := &Pool{handle: h, jobs: make(chan Job, queue), timeout: timeout}
	p.wg.Add(workers)
	for i := 0; i < workers; i++ {
		go p.worker()
	}
	return p
}

func (p *Pool) worker() {
	defer p.wg.Done()
	for job := range p.jobs {
		p.run(context.Background(), job)
	}
}

func (p *Pool) run(parent context.Context, job Job) error {
	ctx, cancel := context.WithTimeout(parent, p.timeout)
	defer cancel()
	err := p.handle(ctx, job)
	observeJob(ModeAsync, err)
	if err != nil {
		loggerFrom(parent).Error().Err(err).
			Uint("group_id", job.GroupID).
			Uint("message_id", job.MessageID).
			Str("request_id", job.RequestID).
			Msg("assistant job failed")
	}
	return err
}

func (p *Pool) Dispatch(ctx context.Context, job Job) error {
	p.mu.RLock()
	if !p.closed {
		select {
		case p.jobs <- job:
			p.mu.RUnlock()
			return nil
		default:
		}
	}
	p.mu.RUnlock()
	return p.run(context.WithoutCancel(ctx), job)
}

// Close stops intake and waits for queued jobs to finish.
func (p *Pool) Close(ctx context.Context) error {
	p.mu.Lock()
	if !p.closed {
		p.closed = true
		close(p.jobs)
	}
	p.mu.Unlock()

	done := make(chan struct{})
	go func() {
		p.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return errors.Join(errors.New("assistant pool: drain interrupted"), ctx.Err())
	}
}
