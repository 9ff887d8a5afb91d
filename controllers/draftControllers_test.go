package controllers_test

import (
	"net/http"
	"testing"

	"medibook/models"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// draftState mirrors the workflow's wire form.
type draftState struct {
	Step     int              `json:"step"`
	DoctorID uint             `json:"doctorId"`
	Date     string           `json:"date"`
	Slot     *models.TimeSlot `json:"slot"`
	Symptom  string           `json:"symptom"`
}

const (
	stepSelectingProvider = 1
	stepSelectingDate     = 2
	stepSelectingSlot     = 3
	stepConfirming        = 4
)

func TestDraftHappyPath(t *testing.T) {
	r := setup(t)
	doctor := seedDoctor(t, "Dr. Meera Nair", "meera@example.com", "Cardiology", 500)
	patient := seedPatient(t, "Ana Thomas", "ana@example.com")
	token := patientToken(t, patient)
	date := tomorrow()

	w := perform(t, r, "POST", "/bookings/draft", token, nil)
	require.Equal(t, http.StatusCreated, w.Code)
	var draft draftState
	decode(t, w, &draft)
	assert.Equal(t, stepSelectingProvider, draft.Step)

	w = perform(t, r, "PUT", "/bookings/draft/provider", token, gin.H{"doctorId": doctor.DoctorID})
	require.Equal(t, http.StatusOK, w.Code, "body: %s", w.Body.String())
	decode(t, w, &draft)
	assert.Equal(t, stepSelectingDate, draft.Step)

	w = perform(t, r, "PUT", "/bookings/draft/date", token, gin.H{"date": date})
	require.Equal(t, http.StatusOK, w.Code)
	decode(t, w, &draft)
	assert.Equal(t, stepSelectingSlot, draft.Step)

	w = perform(t, r, "PUT", "/bookings/draft/slot", token, gin.H{"startTime": "14:00"})
	require.Equal(t, http.StatusOK, w.Code, "body: %s", w.Body.String())
	decode(t, w, &draft)
	assert.Equal(t, stepConfirming, draft.Step)
	require.NotNil(t, draft.Slot)
	assert.Equal(t, "14:30", draft.Slot.EndTime)

	w = perform(t, r, "POST", "/bookings/draft/submit", token, gin.H{"symptom": "migraine"})
	require.Equal(t, http.StatusCreated, w.Code, "body: %s", w.Body.String())
	var appointment models.Appointment
	decode(t, w, &appointment)
	assert.Equal(t, models.StatusPending, appointment.Status)
	assert.Equal(t, doctor.DoctorID, appointment.DoctorID)
	assert.Equal(t, date, appointment.Date)
	assert.Equal(t, "14:00", appointment.TimeSlot.StartTime)
	assert.Equal(t, "migraine", appointment.Symptom)

	// Submission consumes the draft.
	w = perform(t, r, "GET", "/bookings/draft", token, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "NO_DRAFT", errorCode(t, w))
}

func TestDraftGuards(t *testing.T) {
	r := setup(t)
	seedDoctor(t, "Dr. Meera Nair", "meera@example.com", "Cardiology", 500)
	patient := seedPatient(t, "Ana Thomas", "ana@example.com")
	token := patientToken(t, patient)

	w := perform(t, r, "POST", "/bookings/draft", token, nil)
	require.Equal(t, http.StatusCreated, w.Code)

	// Skipping ahead is rejected and the draft does not move.
	w = perform(t, r, "PUT", "/bookings/draft/date", token, gin.H{"date": tomorrow()})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = perform(t, r, "POST", "/bookings/draft/submit", token, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "INCOMPLETE_BOOKING", errorCode(t, w))

	var draft draftState
	w = perform(t, r, "GET", "/bookings/draft", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	decode(t, w, &draft)
	assert.Equal(t, stepSelectingProvider, draft.Step)
}

func TestDraftUnknownProvider(t *testing.T) {
	r := setup(t)
	patient := seedPatient(t, "Ana Thomas", "ana@example.com")
	token := patientToken(t, patient)

	perform(t, r, "POST", "/bookings/draft", token, nil)
	w := perform(t, r, "PUT", "/bookings/draft/provider", token, gin.H{"doctorId": 9999})
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "DOCTOR_NOT_FOUND", errorCode(t, w))
}

func TestDraftBackKeepsEarlierSelections(t *testing.T) {
	r := setup(t)
	doctor := seedDoctor(t, "Dr. Meera Nair", "meera@example.com", "Cardiology", 500)
	patient := seedPatient(t, "Ana Thomas", "ana@example.com")
	token := patientToken(t, patient)
	date := tomorrow()

	perform(t, r, "POST", "/bookings/draft", token, nil)
	perform(t, r, "PUT", "/bookings/draft/provider", token, gin.H{"doctorId": doctor.DoctorID})
	perform(t, r, "PUT", "/bookings/draft/date", token, gin.H{"date": date})
	perform(t, r, "PUT", "/bookings/draft/slot", token, gin.H{"startTime": "14:00"})

	var draft draftState
	w := perform(t, r, "POST", "/bookings/draft/back", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	decode(t, w, &draft)
	assert.Equal(t, stepSelectingSlot, draft.Step)
	assert.Equal(t, doctor.DoctorID, draft.DoctorID)
	assert.Equal(t, date, draft.Date)

	w = perform(t, r, "POST", "/bookings/draft/back", token, nil)
	decode(t, w, &draft)
	assert.Equal(t, stepSelectingDate, draft.Step)
	assert.Equal(t, doctor.DoctorID, draft.DoctorID)

	// Re-picking the date discards the stale slot. Reset the decode target:
	// the response omits the cleared slot field (omitempty), so unmarshalling
	// into the reused struct would leave the stale pointer in place.
	w = perform(t, r, "PUT", "/bookings/draft/date", token, gin.H{"date": date})
	draft = draftState{}
	decode(t, w, &draft)
	assert.Equal(t, stepSelectingSlot, draft.Step)
	assert.Nil(t, draft.Slot)
}

func TestDraftSlotSelectionChecksLiveGrid(t *testing.T) {
	r := setup(t)
	doctor := seedDoctor(t, "Dr. Meera Nair", "meera@example.com", "Cardiology", 500)
	drafter := seedPatient(t, "Ana Thomas", "ana@example.com")
	rival := seedPatient(t, "Raj Patel", "raj@example.com")
	token := patientToken(t, drafter)
	date := tomorrow()

	bookSlot(t, r, patientToken(t, rival), doctor.DoctorID, date, "14:00", "14:30", "")

	perform(t, r, "POST", "/bookings/draft", token, nil)
	perform(t, r, "PUT", "/bookings/draft/provider", token, gin.H{"doctorId": doctor.DoctorID})
	perform(t, r, "PUT", "/bookings/draft/date", token, gin.H{"date": date})

	w := perform(t, r, "PUT", "/bookings/draft/slot", token, gin.H{"startTime": "14:00"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "SLOT_UNAVAILABLE", errorCode(t, w))

	w = perform(t, r, "PUT", "/bookings/draft/slot", token, gin.H{"startTime": "14:15"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "SLOT_OFF_GRID", errorCode(t, w))
}

func TestDraftSubmitLostRaceReturnsToSlotSelection(t *testing.T) {
	r := setup(t)
	doctor := seedDoctor(t, "Dr. Meera Nair", "meera@example.com", "Cardiology", 500)
	drafter := seedPatient(t, "Ana Thomas", "ana@example.com")
	rival := seedPatient(t, "Raj Patel", "raj@example.com")
	token := patientToken(t, drafter)
	date := tomorrow()

	perform(t, r, "POST", "/bookings/draft", token, nil)
	perform(t, r, "PUT", "/bookings/draft/provider", token, gin.H{"doctorId": doctor.DoctorID})
	perform(t, r, "PUT", "/bookings/draft/date", token, gin.H{"date": date})
	perform(t, r, "PUT", "/bookings/draft/slot", token, gin.H{"startTime": "14:00"})

	// Another patient takes the slot between confirmation and submit.
	bookSlot(t, r, patientToken(t, rival), doctor.DoctorID, date, "14:00", "14:30", "")

	w := perform(t, r, "POST", "/bookings/draft/submit", token, nil)
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, "SLOT_TAKEN", errorCode(t, w))

	// The draft survives, parked back at slot selection.
	var draft draftState
	w = perform(t, r, "GET", "/bookings/draft", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	decode(t, w, &draft)
	assert.Equal(t, stepSelectingSlot, draft.Step)
	assert.Nil(t, draft.Slot)
	assert.Equal(t, doctor.DoctorID, draft.DoctorID)

	// Picking a free slot completes the booking.
	perform(t, r, "PUT", "/bookings/draft/slot", token, gin.H{"startTime": "14:30"})
	w = perform(t, r, "POST", "/bookings/draft/submit", token, nil)
	assert.Equal(t, http.StatusCreated, w.Code, "body: %s", w.Body.String())
}

func TestGetDraftWithoutOne(t *testing.T) {
	r := setup(t)
	patient := seedPatient(t, "Ana Thomas", "ana@example.com")

	w := perform(t, r, "GET", "/bookings/draft", patientToken(t, patient), nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "NO_DRAFT", errorCode(t, w))
}
