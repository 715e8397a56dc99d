package appointment

import (
	"context"
	"sort"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Field names an appointment attribute that FindBy can match on.
type Field string

const (
	FieldCustomerID Field = "customerId"
	FieldStaffID    Field = "staffId"
	FieldDate       Field = "date"
	FieldStatus     Field = "status"
)

// Patch is a partial update. Nil fields are left alone;
// ClearPendingChange removes the negotiation entirely.
type Patch struct {
	StaffID            *string
	StaffName          *string
	Date               *string
	Time               *string
	ServiceID          *string
	ServiceName        *string
	Status             *Status
	Notes              *string
	PendingChange      *PendingChange
	ClearPendingChange bool
	// RejectPendingChange marks the stored change rejected in place.
	RejectPendingChange bool
	// Expect is checked against the stored record inside the write.
	Expect *Expectation
}

// Expectation requires a pending change opened by By. When Date and Time
// are set the change must still target that slot.
type Expectation struct {
	By   Proposer
	Date string
	Time string
}

func (p Patch) check(a Appointment) error {
	if p.Expect == nil {
		return nil
	}
	pc := a.PendingChange
	if !pc.IsPendingFrom(p.Expect.By) {
		return ErrNoPendingChange
	}
	if p.Expect.Date != "" && (pc.NewDate != p.Expect.Date || pc.NewTime != p.Expect.Time) {
		return ErrProposalMismatch
	}
	return nil
}

func (p Patch) apply(a *Appointment, now time.Time) {
	if p.StaffID != nil {
		a.StaffID = *p.StaffID
	}
	if p.StaffName != nil {
		a.StaffName = *p.StaffName
	}
	if p.Date != nil {
		a.Date = *p.Date
	}
	if p.Time != nil {
		a.Time = *p.Time
	}
	if p.ServiceID != nil {
		a.ServiceID = *p.ServiceID
	}
	if p.ServiceName != nil {
		a.ServiceName = *p.ServiceName
	}
	if p.Status != nil {
		a.Status = *p.Status
	}
	if p.Notes != nil {
		a.Notes = *p.Notes
	}
	if p.ClearPendingChange {
		a.PendingChange = nil
	}
	if p.RejectPendingChange && a.PendingChange != nil {
		pc := *a.PendingChange
		pc.Status = ChangeRejected
		a.PendingChange = &pc
	}
	if p.PendingChange != nil {
		pc := *p.PendingChange
		a.PendingChange = &pc
	}
	a.UpdatedAt = now
}

// Store persists appointments and pushes the full set to subscribers
// after every write.
type Store interface {
	// Create writes unconditionally, even into an occupied slot.
	Create(ctx context.Context, a *Appointment) error
	// CreateIfFree fails with ErrSlotOccupied when another non-cancelled
	// appointment holds the slot. The check and the insert are atomic.
	CreateIfFree(ctx context.Context, a *Appointment) error
	Get(ctx context.Context, id string) (*Appointment, error)
	Update(ctx context.Context, id string, p Patch) (*Appointment, error)
	// Update and UpdateIfFree check p.Expect atomically with the write.
	// UpdateIfFree applies p only if the resulting slot is not held by
	// another non-cancelled appointment.
	UpdateIfFree(ctx context.Context, id string, p Patch) (*Appointment, error)
	Delete(ctx context.Context, id string) error
	FindBy(ctx context.Context, field Field, value string) ([]Appointment, error)
	List(ctx context.Context) ([]Appointment, error)
	// Subscribe delivers the current set right away and again after every
	// change until the returned func is called.
	Subscribe(ctx context.Context, fn func([]Appointment)) (func(), error)
	// Refresh re-reads the set and delivers it without firing write hooks.
	Refresh(ctx context.Context) error
	// OnWrite registers a hook run after each local write.
	OnWrite(fn func())
}

// notifier fans snapshots out to subscribers. Deliveries are serialized
// and each one is read after the write that triggered it, so the last
// delivered snapshot always reflects the last write.
type notifier struct {
	list func(context.Context) ([]Appointment, error)
	log  *zap.Logger

	deliverMu sync.Mutex

	mu    sync.Mutex
	next  int
	subs  map[int]func([]Appointment)
	hooks []func()
}

func newNotifier(list func(context.Context) ([]Appointment, error), log *zap.Logger) *notifier {
	if log == nil {
		log = zap.NewNop()
	}
	return &notifier{list: list, log: log, subs: make(map[int]func([]Appointment))}
}

func (n *notifier) Subscribe(ctx context.Context, fn func([]Appointment)) (func(), error) {
	n.deliverMu.Lock()
	defer n.deliverMu.Unlock()

	snapshot, err := n.list(ctx)
	if err != nil {
		return nil, err
	}

	n.mu.Lock()
	id := n.next
	n.next++
	n.subs[id] = fn
	n.mu.Unlock()

	fn(snapshot)

	return func() {
		n.mu.Lock()
		delete(n.subs, id)
		n.mu.Unlock()
	}, nil
}

func (n *notifier) OnWrite(fn func()) {
	n.mu.Lock()
	n.hooks = append(n.hooks, fn)
	n.mu.Unlock()
}

func (n *notifier) Refresh(ctx context.Context) error {
	return n.deliver(ctx)
}

// changed runs after a committed local write.
func (n *notifier) changed(ctx context.Context) {
	if err := n.deliver(context.WithoutCancel(ctx)); err != nil {
		n.log.Warn("appointment snapshot delivery failed", zap.Error(err))
	}

	n.mu.Lock()
	hooks := append([]func(){}, n.hooks...)
	n.mu.Unlock()
	for _, h := range hooks {
		h()
	}
}

func (n *notifier) deliver(ctx context.Context) error {
	n.deliverMu.Lock()
	defer n.deliverMu.Unlock()

	n.mu.Lock()
	subs := make([]func([]Appointment), 0, len(n.subs))
	for _, fn := range n.subs {
		subs = append(subs, fn)
	}
	n.mu.Unlock()

	if len(subs) == 0 {
		return nil
	}

	snapshot, err := n.list(ctx)
	if err != nil {
		return err
	}
	for _, fn := range subs {
		fn(cloneAll(snapshot))
	}
	return nil
}

func cloneAll(in []Appointment) []Appointment {
	out := make([]Appointment, len(in))
	for i, a := range in {
		out[i] = a.clone()
	}
	return out
}

// sortChronological orders by date, time, then creation.
func sortChronological(appts []Appointment) {
	sort.SliceStable(appts, func(i, j int) bool {
		a, b := appts[i], appts[j]
		if a.Date != b.Date {
			return a.Date < b.Date
		}
		if a.Time != b.Time {
			return a.Time < b.Time
		}
		return a.CreatedAt.Before(b.CreatedAt)
	})
}
