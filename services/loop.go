package services

import (
	"context"
	"errors"
	"log"
	"time"

	"github.com/CrowderSoup/taskboard/board"
)

// DefaultTickInterval is how often countdowns are recomputed.
const DefaultTickInterval = 60 * time.Second

// intentTimeout bounds one intent, including its save.
const intentTimeout = 10 * time.Second

// ErrLoopStopped is returned by Do once Run has returned.
var ErrLoopStopped = errors.New("board loop stopped")

// Intent is a change applied to the board on the loop goroutine.
type Intent func(ctx context.Context, b *board.Board) error

type request struct {
	ctx    context.Context
	intent Intent
	reply  chan response
}

type response struct {
	view board.View
	err  error
}

// Loop owns a Board and serializes everything that touches it: intents
// submitted with Do and the countdown tick. Each runs to completion before
// the next starts, and every resulting view is broadcast through the hub.
type Loop struct {
	board    *board.Board
	hub      *Hub
	interval time.Duration
	now      func() time.Time
	requests chan request
	done     chan struct{}
}

// NewLoop creates a loop for b. hub may be nil. A non-positive interval
// means DefaultTickInterval.
func NewLoop(b *board.Board, hub *Hub, interval time.Duration) *Loop {
	if interval <= 0 {
		interval = DefaultTickInterval
	}
	return &Loop{
		board:    b,
		hub:      hub,
		interval: interval,
		now:      time.Now,
		requests: make(chan request),
		done:     make(chan struct{}),
	}
}

// SetClock replaces the time source used on ticks. Call before Run.
func (l *Loop) SetClock(now func() time.Time) {
	l.now = now
}

// Run processes intents and ticks until ctx is cancelled.
func (l *Loop) Run(ctx context.Context) error {
	ticker := time.NewTicker(l.interval)
	defer ticker.Stop()
	defer close(l.done)

	log.Printf("Board loop started, countdowns every %s", l.interval)
	for {
		select {
		case <-ctx.Done():
			log.Printf("Board loop stopped")
			return ctx.Err()
		case req := <-l.requests:
			var err error
			if req.intent != nil {
				err = l.apply(req)
			}
			view := l.board.View()
			req.reply <- response{view: view, err: err}
			if req.intent != nil {
				l.publish(view)
			}
		case <-ticker.C:
			l.board.RecomputeCountdowns(l.now())
			l.publish(l.board.View())
		}
	}
}

// apply runs an accepted intent. Cancelling the caller's context does not
// interrupt it, so the board and the store stay in step.
func (l *Loop) apply(req request) error {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(req.ctx), intentTimeout)
	defer cancel()
	return req.intent(ctx, l.board)
}

// Do runs intent on the loop goroutine and returns the board view after it.
// The view is returned even when intent fails. ctx only bounds the wait for
// the loop to accept the intent; once accepted it runs to completion.
func (l *Loop) Do(ctx context.Context, intent Intent) (board.View, error) {
	req := request{ctx: ctx, intent: intent, reply: make(chan response, 1)}
	select {
	case l.requests <- req:
	case <-l.done:
		return board.View{}, ErrLoopStopped
	case <-ctx.Done():
		return board.View{}, ctx.Err()
	}

	resp := <-req.reply
	return resp.view, resp.err
}

// Snapshot returns the current board view.
func (l *Loop) Snapshot(ctx context.Context) (board.View, error) {
	return l.Do(ctx, nil)
}

// Refresher adapts Snapshot for the hub.
func (l *Loop) Refresher() Refresher {
	return func(ctx context.Context) (any, error) {
		return l.Snapshot(ctx)
	}
}

func (l *Loop) publish(view board.View) {
	if l.hub == nil {
		return
	}
	l.hub.Broadcast(WebSocketMessage{Type: MessageBoard, Data: view})
}
