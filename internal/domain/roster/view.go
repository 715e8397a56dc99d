package roster

import (
	"sync"
	"time"

	"salonbooking/internal/domain/appointment"
	"salonbooking/internal/domain/availability"
)

// Source is the live appointment set with a change counter.
// realtime.Cache implements it.
type Source interface {
	Snapshot() []appointment.Appointment
	Version() uint64
}

const maxMemo = 64

type memoKey struct {
	filter Filter
	today  string
}

// View memoizes Build results until the source version moves, so
// repeated roster reads between changes do not re-derive anything.
type View struct {
	src Source
	now func() time.Time

	mu      sync.Mutex
	version uint64
	memo    map[memoKey][]Group
}

func NewView(src Source) *View {
	return &View{src: src, now: time.Now, memo: make(map[memoKey][]Group)}
}

func (v *View) Today() string {
	return availability.Today(v.now())
}

func (v *View) Groups(f Filter) []Group {
	key := memoKey{filter: f, today: v.Today()}

	v.mu.Lock()
	defer v.mu.Unlock()

	if ver := v.src.Version(); ver != v.version || len(v.memo) >= maxMemo {
		v.version = ver
		v.memo = make(map[memoKey][]Group)
	}
	if g, ok := v.memo[key]; ok {
		return g
	}
	g := Build(v.src.Snapshot(), f, key.today)
	v.memo[key] = g
	return g
}

func (v *View) Stats() Stats {
	return Summarize(v.src.Snapshot(), v.Today())
}
