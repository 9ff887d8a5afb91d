package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCanTransition(t *testing.T) {
	tests := []struct {
		from, to AppointmentStatus
		ok       bool
	}{
		{StatusPending, StatusConfirmed, true},
		{StatusPending, StatusCancelled, true},
		{StatusPending, StatusCompleted, false},
		{StatusConfirmed, StatusCompleted, true},
		{StatusConfirmed, StatusCancelled, true},
		{StatusConfirmed, StatusPending, false},
		{StatusCompleted, StatusConfirmed, false},
		{StatusCompleted, StatusCancelled, false},
		{StatusCancelled, StatusPending, false},
		{StatusCancelled, StatusConfirmed, false},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.ok, CanTransition(tt.from, tt.to), "%s -> %s", tt.from, tt.to)
	}
}

func TestTerminal(t *testing.T) {
	assert.False(t, StatusPending.Terminal())
	assert.False(t, StatusConfirmed.Terminal())
	assert.True(t, StatusCompleted.Terminal())
	assert.True(t, StatusCancelled.Terminal())
}

func TestParseAppointmentStatus(t *testing.T) {
	s, err := ParseAppointmentStatus("confirmed")
	require.NoError(t, err)
	assert.Equal(t, StatusConfirmed, s)

	_, err = ParseAppointmentStatus("rescheduled")
	assert.Error(t, err)
}

func TestParsePaymentMethod(t *testing.T) {
	for _, valid := range []string{"credit_card", "debit_card", "net_banking", "upi"} {
		_, err := ParsePaymentMethod(valid)
		assert.NoError(t, err, valid)
	}
	_, err := ParsePaymentMethod("cash")
	assert.Error(t, err)

	assert.True(t, MethodCreditCard.Card())
	assert.True(t, MethodDebitCard.Card())
	assert.False(t, MethodNetBanking.Card())
	assert.False(t, MethodUPI.Card())
}

func TestParseRole(t *testing.T) {
	r, err := ParseRole("doctor")
	require.NoError(t, err)
	assert.Equal(t, RoleDoctor, r)

	_, err = ParseRole("nurse")
	assert.Error(t, err)
}

func TestAppointmentStartsAt(t *testing.T) {
	a := Appointment{
		Date:     "2026-03-15",
		TimeSlot: TimeSlot{StartTime: "10:30", EndTime: "11:00"},
	}
	start, err := a.StartsAt()
	require.NoError(t, err)
	assert.Equal(t, time.Date(2026, 3, 15, 10, 30, 0, 0, time.Local), start)

	a.TimeSlot.StartTime = "25:99"
	_, err = a.StartsAt()
	assert.Error(t, err)
}
