package appointment

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	appointmentsCreated = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "salon_appointments_created_total",
		Help: "Appointments created, by source.",
	}, []string{"source"})

	negotiationActions = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "salon_negotiation_actions_total",
		Help: "Reschedule negotiation actions, by action.",
	}, []string{"action"})

	slotConflicts = promauto.NewCounter(prometheus.CounterOpts{
		Name: "salon_slot_conflicts_total",
		Help: "Writes rejected because the slot was already held.",
	})
)
