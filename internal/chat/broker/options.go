package broker

import (
	"errors"
	"fmt"
	"log/slog"
)

// Option - customizes a Broker.
type Option func(b *Broker) error

func setup(b *Broker, options ...Option) error {
	if b == nil {
		return nil
	}
	for _, option := range options {
		if option == nil {
			continue
		}
		if err := option(b); err != nil {
			return err
		}
	}
	return nil
}

// WithLogger - overwrites default logger (slog.Default).
func WithLogger(log *slog.Logger) Option {
	return func(b *Broker) error {
		if log == nil {
			return errors.New("broker.WithLogger: logger is nil")
		}
		b.log = log
		return nil
	}
}

// WithHistory - keeps relayed lines in history
// and pushes the latest `greets` lines to every newly connected peer.
func WithHistory(h MessageHistory, greets int) Option {
	return func(b *Broker) error {
		if b.history != nil {
			return errors.New("broker.WithHistory: history already set up")
		}
		if h == nil {
			return errors.New("broker.WithHistory: history is nil")
		}
		if greets < 0 {
			return fmt.Errorf("broker.WithHistory: invalid greets value (%d)", greets)
		}
		b.history = h
		b.greets = greets
		return nil
	}
}
