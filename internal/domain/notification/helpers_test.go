package notification

import (
	"context"
	"slices"
	"sync"
	"time"
)

type fakeStrategy struct {
	channel  Channel
	validate func(*Recipient) bool
	send     func(ctx context.Context, r *Recipient, msg *Message) Outcome

	mu   sync.Mutex
	sent []string
}

func newFakeStrategy(ch Channel) *fakeStrategy {
	return &fakeStrategy{channel: ch}
}

func (s *fakeStrategy) Channel() Channel { return s.channel }

func (s *fakeStrategy) ValidateRecipient(r *Recipient) bool {
	if s.validate != nil {
		return s.validate(r)
	}
	return r != nil
}

func (s *fakeStrategy) Format(msg *Message, _ *Recipient) string { return msg.Content }

func (s *fakeStrategy) Send(ctx context.Context, r *Recipient, msg *Message) Outcome {
	s.mu.Lock()
	s.sent = append(s.sent, r.ID)
	s.mu.Unlock()

	if s.send != nil {
		return s.send(ctx, r, msg)
	}
	if !s.ValidateRecipient(r) {
		return Failed("invalid recipient", time.Now())
	}
	return Succeeded(string(s.channel)+"-"+r.ID, time.Now())
}

func (s *fakeStrategy) calls() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.sent)
}

type fakeDirectory struct {
	recipients []Recipient
	err        error
}

func (d *fakeDirectory) FindBySubscribedCategory(_ context.Context, c Category) ([]Recipient, error) {
	if d.err != nil {
		return nil, d.err
	}
	var out []Recipient
	for _, r := range d.recipients {
		if r.SubscribesTo(c) {
			out = append(out, r.Clone())
		}
	}
	return out, nil
}

type fakeStore struct {
	mu      sync.Mutex
	entries map[string]*LogEntry
	saved   []string
	saveErr error
	findErr error
}

func newFakeStore() *fakeStore {
	return &fakeStore{entries: make(map[string]*LogEntry)}
}

func (s *fakeStore) Save(_ context.Context, e *LogEntry) error {
	if s.saveErr != nil {
		return s.saveErr
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	c := *e
	s.entries[e.ID] = &c
	s.saved = append(s.saved, e.ID)
	return nil
}

func (s *fakeStore) FindAllOrderedBySentDesc(_ context.Context) ([]*LogEntry, error) {
	return s.find(func(*LogEntry) bool { return true })
}

func (s *fakeStore) FindByRecipient(_ context.Context, id string) ([]*LogEntry, error) {
	return s.find(func(e *LogEntry) bool { return e.RecipientID == id })
}

func (s *fakeStore) find(keep func(*LogEntry) bool) ([]*LogEntry, error) {
	if s.findErr != nil {
		return nil, s.findErr
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*LogEntry
	for _, e := range s.entries {
		if keep(e) {
			c := *e
			out = append(out, &c)
		}
	}
	SortBySentDesc(out)
	return out, nil
}

func (s *fakeStore) len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}

type fakeRecorder struct {
	mu         sync.Mutex
	attempts   map[Status]int
	dispatches int
	lastFanout int
}

func (r *fakeRecorder) RecordAttempt(_ Channel, st Status) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.attempts == nil {
		r.attempts = make(map[Status]int)
	}
	r.attempts[st]++
}

func (r *fakeRecorder) RecordDispatch(_ Category, n int, _ time.Duration) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.dispatches++
	r.lastFanout = n
}

// testRecipients mirrors the demo directory.
func testRecipients() []Recipient {
	rec := func(id, name string, cats []Category, chans []Channel) Recipient {
		return Recipient{
			ID:         id,
			Name:       name,
			Email:      id + "@email.com",
			Phone:      "+1-555-0100",
			Categories: cats,
			Channels:   chans,
		}
	}
	return []Recipient{
		rec("u1", "John Smith", []Category{CategorySports, CategoryFinance}, []Channel{ChannelEmail, ChannelSMS}),
		rec("u2", "Alice Johnson", []Category{CategoryMovies, CategorySports}, []Channel{ChannelEmail, ChannelPush}),
		rec("u3", "Bob Wilson", []Category{CategoryFinance}, []Channel{ChannelSMS}),
		rec("u4", "Carol Davis", []Category{CategoryMovies, CategoryFinance, CategorySports}, []Channel{ChannelEmail, ChannelSMS, ChannelPush}),
		rec("u5", "David Brown", []Category{CategorySports}, []Channel{ChannelPush}),
		rec("u6", "Emma Taylor", []Category{CategoryMovies}, []Channel{ChannelEmail}),
		rec("u7", "Frank Miller", []Category{CategoryFinance, CategorySports}, []Channel{ChannelSMS, ChannelPush}),
		rec("u8", "Grace Lee", []Category{CategoryMovies, CategoryFinance}, []Channel{ChannelEmail, ChannelPush}),
	}
}

func allFakeStrategies() []Strategy {
	return []Strategy{
		newFakeStrategy(ChannelSMS),
		newFakeStrategy(ChannelEmail),
		newFakeStrategy(ChannelPush),
	}
}

type pair struct {
	user    string
	channel Channel
}

func pairsOf(views []LogEntryView) []pair {
	out := make([]pair, len(views))
	for i, v := range views {
		out[i] = pair{v.UserID, v.Channel}
	}
	return out
}

func frozenClock(t time.Time) Clock {
	return ClockFunc(func() time.Time { return t })
}

// tickingClock advances by step on every reading.
func tickingClock(start time.Time, step time.Duration) Clock {
	var mu sync.Mutex
	now := start
	return ClockFunc(func() time.Time {
		mu.Lock()
		defer mu.Unlock()
		now = now.Add(step)
		return now
	})
}
