package rag

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"
)

// MaxConcurrentQueries bounds how many query tasks may run at once.
const MaxConcurrentQueries = 2

// ErrBusy reports that the session already has a query in flight. New
// queries are rejected rather than queued so answers cannot overwrite each
// other in the UI.
var ErrBusy = errors.New("a query is already in flight for this session")

// TaskResult carries one answered query back to its submitter, keyed by
// task identity rather than submission order.
type TaskResult struct {
	TaskID string
	Answer string
	Err    error
}

// Answerer is what the pool runs; the engine satisfies it.
type Answerer interface {
	Answer(ctx context.Context, query string) (string, error)
}

// Pool runs query tasks on a bounded set of workers. Retrieval and
// generation both run blocking inside the worker, never on the caller's
// goroutine.
type Pool struct {
	engine Answerer
	sem    chan struct{}
	wg     sync.WaitGroup
}

func NewPool(engine Answerer) *Pool {
	return &Pool{
		engine: engine,
		sem:    make(chan struct{}, MaxConcurrentQueries),
	}
}

// Session serializes queries for one logical conversation: at most one
// outstanding query per session.
type Session struct {
	busy atomic.Bool
}

func NewSession() *Session { return &Session{} }

// Submit schedules a query and returns the channel its result will arrive
// on. It fails fast with ErrBusy when the session already has an
// outstanding query. There is no cancellation of in-flight work beyond
// context propagation.
func (p *Pool) Submit(ctx context.Context, session *Session, query string) (<-chan TaskResult, error) {
	if session != nil && !session.busy.CompareAndSwap(false, true) {
		return nil, ErrBusy
	}

	taskID := uuid.NewString()
	out := make(chan TaskResult, 1)

	p.wg.Add(1)
	go func() {
		defer p.wg.Done()
		defer func() {
			if session != nil {
				session.busy.Store(false)
			}
		}()

		select {
		case p.sem <- struct{}{}:
		case <-ctx.Done():
			out <- TaskResult{TaskID: taskID, Err: ctx.Err()}
			return
		}
		defer func() { <-p.sem }()

		answer, err := p.engine.Answer(ctx, query)
		out <- TaskResult{TaskID: taskID, Answer: answer, Err: err}
	}()

	return out, nil
}

// Wait blocks until all submitted tasks have finished.
func (p *Pool) Wait() { p.wg.Wait() }
