package notification

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"fanout/internal/common"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

// Dispatcher fans a message out to every eligible (recipient, channel) pair.
// It resolves subscribers from the directory, picks a strategy per channel,
// persists one log entry per attempt, and returns the entries' views.
type Dispatcher struct {
	directory Directory
	registry  *Registry
	store     AuditStore
	clock     Clock
	recorder  Recorder

	parallel       bool
	maxConcurrency int
}

// DispatcherOption configures a Dispatcher.
type DispatcherOption func(*Dispatcher)

// WithClock replaces the wall clock, typically with a frozen one in tests.
func WithClock(c Clock) DispatcherOption {
	return func(d *Dispatcher) {
		if c != nil {
			d.clock = c
		}
	}
}

// WithRecorder installs a metrics recorder.
func WithRecorder(r Recorder) DispatcherOption {
	return func(d *Dispatcher) {
		if r != nil {
			d.recorder = r
		}
	}
}

// WithParallel runs attempts concurrently, at most maxConcurrency at a time.
// Views are still returned in directory × preferred-channel order.
func WithParallel(maxConcurrency int) DispatcherOption {
	return func(d *Dispatcher) {
		d.parallel = true
		d.maxConcurrency = maxConcurrency
	}
}

// NewDispatcher creates a new dispatcher.
func NewDispatcher(directory Directory, registry *Registry, store AuditStore, opts ...DispatcherOption) *Dispatcher {
	d := &Dispatcher{
		directory: directory,
		registry:  registry,
		store:     store,
		clock:     SystemClock,
		recorder:  nopRecorder{},
	}
	for _, opt := range opts {
		opt(d)
	}
	if d.maxConcurrency <= 0 {
		d.maxConcurrency = 8
	}
	return d
}

// attempt is one planned (recipient, channel) delivery.
type attempt struct {
	recipient *Recipient
	channel   Channel
	entry     *LogEntry
}

// Dispatch sanitizes rawContent, builds a message and delivers it to every
// subscriber of category over each preferred channel. Sequentially, each
// attempt is logged and persisted before the next one starts.
//
// A failure on one pair never aborts the batch. Directory and audit-store
// failures do, and are returned as *common.DispatchError without partial
// results. If ctx is cancelled between attempts the views accumulated so far
// are returned with a nil error.
func (d *Dispatcher) Dispatch(ctx context.Context, category Category, rawContent string) ([]LogEntryView, error) {
	if d.directory == nil || d.registry == nil || d.store == nil {
		return nil, common.NewDispatchError("setup", errors.New("dispatcher is not fully configured"))
	}

	start := time.Now()
	msg := NewMessage(category, Sanitize(rawContent), d.clock.Now())

	recipients, err := d.directory.FindBySubscribedCategory(ctx, category)
	if err != nil {
		return nil, common.NewDispatchError("directory lookup", err)
	}

	slog.Info("dispatch started",
		"message_id", msg.ID,
		"category", category,
		"recipients", len(recipients),
	)

	plan := planAttempts(recipients, category)

	var cancelled bool
	if d.parallel {
		cancelled, err = d.runParallel(ctx, plan, msg)
	} else {
		cancelled, err = d.runSequential(ctx, plan, msg)
	}
	if err != nil {
		return nil, common.NewDispatchError("audit write", err)
	}

	views := make([]LogEntryView, 0, len(plan))
	for i := range plan {
		if plan[i].entry != nil {
			views = append(views, plan[i].entry.View())
		}
	}

	d.recorder.RecordDispatch(category, len(views), time.Since(start))

	if cancelled {
		slog.Warn("dispatch cancelled",
			"message_id", msg.ID,
			"completed", len(views),
			"planned", len(plan),
		)
		return views, nil
	}

	slog.Info("dispatch completed",
		"message_id", msg.ID,
		"category", category,
		"notifications", len(views),
		"duration", time.Since(start),
	)
	return views, nil
}

// planAttempts expands recipients into eligible pairs in deterministic order.
func planAttempts(recipients []Recipient, category Category) []attempt {
	var plan []attempt
	for i := range recipients {
		r := &recipients[i]
		for _, ch := range r.Channels {
			if !r.CanReceive(category, ch) {
				continue
			}
			plan = append(plan, attempt{recipient: r, channel: ch})
		}
	}
	return plan
}

func (d *Dispatcher) runSequential(ctx context.Context, plan []attempt, msg *Message) (bool, error) {
	st := &stamper{clock: d.clock}
	for i := range plan {
		if ctx.Err() != nil {
			return true, nil
		}
		if err := d.runAttempt(ctx, st, &plan[i], msg); err != nil {
			return false, err
		}
	}
	return false, nil
}

// runParallel runs attempts concurrently. Each one is stamped and persisted
// as it completes; a failed audit write stops new attempts from starting.
func (d *Dispatcher) runParallel(ctx context.Context, plan []attempt, msg *Message) (bool, error) {
	st := &stamper{clock: d.clock}
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(d.maxConcurrency)

	for i := range plan {
		if gctx.Err() != nil {
			break
		}
		a := &plan[i]
		g.Go(func() error {
			if gctx.Err() != nil {
				return nil
			}
			return d.runAttempt(ctx, st, a, msg)
		})
	}
	if err := g.Wait(); err != nil {
		return false, err
	}
	return ctx.Err() != nil && !allDone(plan), nil
}

func allDone(plan []attempt) bool {
	for i := range plan {
		if plan[i].entry == nil {
			return false
		}
	}
	return true
}

// runAttempt sends one pair, then logs and persists the result. Persistence
// outlives cancellation so completed attempts are never lost.
func (d *Dispatcher) runAttempt(ctx context.Context, st *stamper, a *attempt, msg *Message) error {
	out := d.send(ctx, a.recipient, msg, a.channel)
	entry := newLogEntry(a.recipient, msg, a.channel, out, st.next())
	if err := d.store.Save(context.WithoutCancel(ctx), entry); err != nil {
		return err
	}
	d.recorder.RecordAttempt(entry.Channel, entry.Status)
	a.entry = entry
	return nil
}

// send performs a single attempt, converting registry misses and strategy
// panics into Failed outcomes.
func (d *Dispatcher) send(ctx context.Context, r *Recipient, msg *Message, ch Channel) (out Outcome) {
	strategy, err := d.registry.Lookup(ch)
	if err != nil {
		slog.Error("no strategy for channel",
			"message_id", msg.ID,
			"recipient_id", r.ID,
			"channel", ch,
		)
		return Failed(err.Error(), d.clock.Now())
	}

	defer func() {
		if rec := recover(); rec != nil {
			slog.Error("strategy panicked",
				"message_id", msg.ID,
				"recipient_id", r.ID,
				"channel", ch,
				"panic", rec,
			)
			out = Failed(fmt.Sprintf("System error: %v", rec), d.clock.Now())
		}
	}()

	out = strategy.Send(ctx, r, msg)
	if out.Success {
		slog.Info("notification sent",
			"message_id", msg.ID,
			"recipient_id", r.ID,
			"channel", ch,
			"external_id", out.ExternalID,
		)
	} else {
		slog.Warn("notification failed",
			"message_id", msg.ID,
			"recipient_id", r.ID,
			"channel", ch,
			"error", out.Error,
		)
	}
	return out
}

// stamper hands out sent-at times truncated to microseconds, each strictly
// after the previous one.
type stamper struct {
	clock Clock

	mu   sync.Mutex
	last time.Time
}

func (s *stamper) next() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	t := s.clock.Now().Truncate(time.Microsecond)
	if !s.last.IsZero() && !t.After(s.last) {
		t = s.last.Add(time.Microsecond)
	}
	s.last = t
	return t
}

func newLogEntry(r *Recipient, msg *Message, ch Channel, out Outcome, sentAt time.Time) *LogEntry {
	entry := &LogEntry{
		ID:             uuid.New().String(),
		MessageID:      msg.ID,
		RecipientID:    r.ID,
		RecipientName:  r.Name,
		RecipientEmail: r.Email,
		RecipientPhone: r.Phone,
		Category:       msg.Category,
		Content:        msg.Content,
		Channel:        ch,
		Status:         out.Status,
		SentAt:         sentAt,
	}
	if out.Success {
		if entry.Status == "" {
			entry.Status = StatusSent
		}
		at := out.Timestamp
		entry.DeliveredAt = &at
		entry.ExternalMessageID = out.ExternalID
	} else {
		entry.Status = StatusFailed
		entry.ErrorMessage = out.Error
		if entry.ErrorMessage == "" {
			entry.ErrorMessage = "Unknown delivery failure"
		}
	}
	return entry
}

// History returns every persisted entry, newest first.
func (d *Dispatcher) History(ctx context.Context) ([]LogEntryView, error) {
	entries, err := d.store.FindAllOrderedBySentDesc(ctx)
	if err != nil {
		return nil, fmt.Errorf("loading notification history: %w", err)
	}
	return Views(entries), nil
}

// HistoryFor returns the entries of a single recipient, newest first.
func (d *Dispatcher) HistoryFor(ctx context.Context, recipientID string) ([]LogEntryView, error) {
	entries, err := d.store.FindByRecipient(ctx, recipientID)
	if err != nil {
		return nil, fmt.Errorf("loading history for recipient %s: %w", recipientID, err)
	}
	return Views(entries), nil
}
