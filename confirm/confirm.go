// Package confirm implements the optional human-in-the-loop gate in front
// of live order execution. Each pending order gets a correlation ID; the
// daemon polls its status a bounded number of times before giving up.
package confirm

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/rustyeddy/stratd/order"
	"github.com/rustyeddy/stratd/pkg/id"
)

type Status int

const (
	Pending Status = iota
	Approved
	Rejected
)

func (s Status) String() string {
	switch s {
	case Pending:
		return "pending"
	case Approved:
		return "approved"
	case Rejected:
		return "rejected"
	}
	return fmt.Sprintf("status(%d)", int(s))
}

// Request is one order awaiting a decision.
type Request struct {
	ID        string
	Order     order.Order
	CreatedAt time.Time
}

// Confirmer submits orders for approval and reports their status.
type Confirmer interface {
	Submit(ctx context.Context, o order.Order) (Request, error)
	Status(ctx context.Context, id string) (Status, error)
}

// Wait polls the confirmer up to maxPolls times, spaced by interval,
// until the request leaves Pending. An exhausted poll budget counts as a
// rejection: an unconfirmed live order must never execute.
func Wait(ctx context.Context, c Confirmer, req Request, interval time.Duration, maxPolls int) (bool, error) {
	for i := 0; i < maxPolls; i++ {
		st, err := c.Status(ctx, req.ID)
		if err != nil {
			return false, err
		}
		switch st {
		case Approved:
			return true, nil
		case Rejected:
			return false, nil
		}

		select {
		case <-ctx.Done():
			return false, ctx.Err()
		case <-time.After(interval):
		}
	}
	return false, nil
}

// Auto approves every order immediately. Used when confirmation is
// disabled and by the backtest path.
type Auto struct{}

func (Auto) Submit(ctx context.Context, o order.Order) (Request, error) {
	return Request{ID: id.New(), Order: o, CreatedAt: time.Now().UTC()}, nil
}

func (Auto) Status(ctx context.Context, id string) (Status, error) {
	return Approved, nil
}

// Manual holds pending requests in memory until an operator resolves them
// through Approve or Reject. Safe for concurrent use.
type Manual struct {
	mu      sync.Mutex
	pending map[string]*entry
}

type entry struct {
	req    Request
	status Status
}

func NewManual() *Manual {
	return &Manual{pending: make(map[string]*entry)}
}

func (m *Manual) Submit(ctx context.Context, o order.Order) (Request, error) {
	req := Request{ID: id.New(), Order: o, CreatedAt: time.Now().UTC()}

	m.mu.Lock()
	m.pending[req.ID] = &entry{req: req, status: Pending}
	m.mu.Unlock()
	return req, nil
}

func (m *Manual) Status(ctx context.Context, id string) (Status, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	e, ok := m.pending[id]
	if !ok {
		return Rejected, fmt.Errorf("confirm: unknown request %s", id)
	}
	return e.status, nil
}

// Pending lists requests still awaiting a decision, oldest first.
func (m *Manual) Pending() []Request {
	m.mu.Lock()
	defer m.mu.Unlock()

	var out []Request
	for _, e := range m.pending {
		if e.status == Pending {
			out = append(out, e.req)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out
}

func (m *Manual) Approve(id string) error { return m.resolve(id, Approved) }
func (m *Manual) Reject(id string) error  { return m.resolve(id, Rejected) }

func (m *Manual) resolve(id string, st Status) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	e, ok := m.pending[id]
	if !ok {
		return fmt.Errorf("confirm: unknown request %s", id)
	}
	if e.status != Pending {
		return fmt.Errorf("confirm: request %s already %s", id, e.status)
	}
	e.status = st
	return nil
}
