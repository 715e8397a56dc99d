package events

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecorder(t *testing.T) {
	r := &Recorder{}
	require.NoError(t, r.Publish(context.Background(), Event{Type: AppointmentCreated, AppointmentID: "a1"}))
	require.NoError(t, r.Publish(context.Background(), Event{Type: ChangeRequested, AppointmentID: "a1"}))

	assert.Equal(t, []string{AppointmentCreated, ChangeRequested}, r.Types())

	r.Err = assert.AnError
	assert.ErrorIs(t, r.Publish(context.Background(), Event{}), assert.AnError)
	assert.Len(t, r.Events(), 2)
}

func TestEvent_WireFormat(t *testing.T) {
	evt := Event{
		Type:          AppointmentRescheduled,
		AppointmentID: "a1",
		Date:          "2025-06-11",
		Time:          "10:00",
		OccurredAt:    time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC),
	}
	body, err := json.Marshal(evt)
	require.NoError(t, err)

	var got map[string]any
	require.NoError(t, json.Unmarshal(body, &got))
	assert.Equal(t, "appointment.rescheduled", got["type"])
	assert.Equal(t, "a1", got["appointment_id"])
	assert.NotContains(t, got, "customer_id")
}
