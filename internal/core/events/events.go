// Package events publishes lending facts after their transaction commits.
package events

import (
	"context"
	"sync"
	"time"
)

type Type string

const (
	BorrowCreated  Type = "borrow.created"
	BorrowReturned Type = "borrow.returned"
	BorrowDeleted  Type = "borrow.deleted"
	FineCreated    Type = "fine.created"
	FineUpdated    Type = "fine.updated"
	FineDeleted    Type = "fine.deleted"
	BookDeleted    Type = "book.deleted"
	UserDeleted    Type = "user.deleted"
)

type Event struct {
	Type     Type      `json:"type"`
	At       time.Time `json:"at"`
	UserID   string    `json:"userId,omitempty"`
	BookID   string    `json:"bookId,omitempty"`
	BorrowID string    `json:"borrowId,omitempty"`
	FineID   string    `json:"fineId,omitempty"`
	// Removed counts cascaded rows for deletion events, keyed by table.
	Removed map[string]int64 `json:"removed,omitempty"`
}

// Key groups events for partitioning: everything about one book lands on one partition.
func (e Event) Key() string {
	if e.BookID != "" {
		return e.BookID
	}
	return e.UserID
}

type Publisher interface {
	Publish(ctx context.Context, e Event) error
	Close() error
}

type Nop struct{}

func (Nop) Publish(context.Context, Event) error { return nil }
func (Nop) Close() error                         { return nil }

// Memory keeps published events in order. Used by tests and local runs.
type Memory struct {
	mu     sync.Mutex
	events []Event
}

func (m *Memory) Publish(_ context.Context, e Event) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events = append(m.events, e)
	return nil
}

func (m *Memory) Close() error { return nil }

func (m *Memory) Events() []Event {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]Event(nil), m.events...)
}

func (m *Memory) Types() []Type {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]Type, 0, len(m.events))
	for _, e := range m.events {
		out = append(out, e.Type)
	}
	return out
}
