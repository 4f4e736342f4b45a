package notification

import (
	"errors"
	"fmt"
)

// ErrDuplicateChannel is returned when two strategies claim the same channel.
var ErrDuplicateChannel = errors.New("duplicate channel strategy")

// UnknownChannelError indicates a registry miss for a channel kind.
type UnknownChannelError struct {
	Channel Channel
}

func (e *UnknownChannelError) Error() string {
	return "No strategy found for channel: " + e.Channel.Label()
}

// Registry maps each channel to its delivery strategy. It is immutable once built.
type Registry struct {
	strategies map[Channel]Strategy
}

// NewRegistry builds a registry from the available strategies.
func NewRegistry(strategies ...Strategy) (*Registry, error) {
	sm := make(map[Channel]Strategy, len(strategies))
	for _, s := range strategies {
		if s == nil {
			continue
		}
		ch := s.Channel()
		if _, exists := sm[ch]; exists {
			return nil, fmt.Errorf("%w: %s", ErrDuplicateChannel, ch)
		}
		sm[ch] = s
	}
	return &Registry{strategies: sm}, nil
}

// Lookup returns the strategy for ch, or an *UnknownChannelError.
func (r *Registry) Lookup(ch Channel) (Strategy, error) {
	if r != nil {
		if s, ok := r.strategies[ch]; ok {
			return s, nil
		}
	}
	return nil, &UnknownChannelError{Channel: ch}
}

// Channels returns the registered channels in declaration order.
func (r *Registry) Channels() []Channel {
	out := make([]Channel, 0, len(r.strategies))
	for _, ch := range Channels {
		if _, ok := r.strategies[ch]; ok {
			out = append(out, ch)
		}
	}
	return out
}
