package controllers

import (
	"encoding/json"
	"errors"
	"fmt"
	"medibook/apperrors"
	"medibook/authentication"
	"medibook/booking"
	"medibook/configuration"
	"medibook/models"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// Drafts are short-lived; an abandoned booking simply expires.
const (
	draftTTL      = 30 * time.Minute
	submitLockTTL = 30 * time.Second
)

func draftKey(patientID uint) string {
	return fmt.Sprintf("draft:%d", patientID)
}

func loadDraft(patientID uint) (*booking.Workflow, error) {
	raw, err := configuration.GetRedis(draftKey(patientID))
	if errors.Is(err, redis.Nil) {
		return nil, apperrors.NotFound("NO_DRAFT", "no booking in progress")
	}
	if err != nil {
		return nil, apperrors.Internal("failed to load booking draft", err)
	}
	var w booking.Workflow
	if err := json.Unmarshal([]byte(raw), &w); err != nil {
		return nil, apperrors.Internal("failed to decode booking draft", err)
	}
	return &w, nil
}

func saveDraft(w *booking.Workflow) error {
	raw, err := json.Marshal(w)
	if err != nil {
		return apperrors.Internal("failed to encode booking draft", err)
	}
	if err := configuration.SetRedis(draftKey(w.PatientID), raw, draftTTL); err != nil {
		return apperrors.Internal("failed to save booking draft", err)
	}
	return nil
}

// StartDraft begins a fresh booking workflow for the patient, replacing any
// abandoned one.
func StartDraft(c *gin.Context) {
	patientID, _ := authentication.CurrentUser(c)
	w := booking.New(patientID)
	if err := saveDraft(w); err != nil {
		apperrors.Respond(c, err)
		return
	}
	c.JSON(http.StatusCreated, w)
}

// GetDraft returns the current state of the patient's booking workflow.
func GetDraft(c *gin.Context) {
	patientID, _ := authentication.CurrentUser(c)
	w, err := loadDraft(patientID)
	if err != nil {
		apperrors.Respond(c, err)
		return
	}
	c.JSON(http.StatusOK, w)
}

// ChooseDraftProvider records the doctor selection.
func ChooseDraftProvider(c *gin.Context) {
	var req struct {
		DoctorID uint `json:"doctorId"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		apperrors.Respond(c, apperrors.Validation("INVALID_REQUEST", "doctorId is required"))
		return
	}

	patientID, _ := authentication.CurrentUser(c)
	w, err := loadDraft(patientID)
	if err != nil {
		apperrors.Respond(c, err)
		return
	}

	var doctor models.Doctor
	if err := configuration.DB.First(&doctor, req.DoctorID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			apperrors.Respond(c, apperrors.NotFound("DOCTOR_NOT_FOUND", "doctor not found"))
			return
		}
		apperrors.Respond(c, apperrors.Internal("failed to fetch doctor", err))
		return
	}
	if err := w.ChooseProvider(doctor.DoctorID); err != nil {
		apperrors.Respond(c, err)
		return
	}
	if err := saveDraft(w); err != nil {
		apperrors.Respond(c, err)
		return
	}
	c.JSON(http.StatusOK, w)
}

// ChooseDraftDate records the date selection. Changing the date discards a
// previously chosen slot.
func ChooseDraftDate(c *gin.Context) {
	var req struct {
		Date string `json:"date"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		apperrors.Respond(c, apperrors.Validation("INVALID_REQUEST", "date is required"))
		return
	}

	patientID, _ := authentication.CurrentUser(c)
	w, err := loadDraft(patientID)
	if err != nil {
		apperrors.Respond(c, err)
		return
	}
	if err := w.ChooseDate(req.Date, time.Now()); err != nil {
		apperrors.Respond(c, err)
		return
	}
	if err := saveDraft(w); err != nil {
		apperrors.Respond(c, err)
		return
	}
	c.JSON(http.StatusOK, w)
}

// ChooseDraftSlot records the slot selection after checking it against the
// live grid; the authoritative exclusivity check still happens at submit.
func ChooseDraftSlot(c *gin.Context) {
	var req struct {
		StartTime string `json:"startTime"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		apperrors.Respond(c, apperrors.Validation("INVALID_REQUEST", "startTime is required"))
		return
	}

	patientID, _ := authentication.CurrentUser(c)
	w, err := loadDraft(patientID)
	if err != nil {
		apperrors.Respond(c, err)
		return
	}

	slot, err := liveSlot(w.DoctorID, w.Date, req.StartTime)
	if err != nil {
		apperrors.Respond(c, err)
		return
	}
	if err := w.ChooseSlot(*slot); err != nil {
		apperrors.Respond(c, err)
		return
	}
	if err := saveDraft(w); err != nil {
		apperrors.Respond(c, err)
		return
	}
	c.JSON(http.StatusOK, w)
}

// liveSlot resolves a start time against the doctor's current grid for the
// date, with availability derived from non-cancelled appointments.
func liveSlot(doctorID uint, date, startTime string) (*models.TimeSlot, error) {
	var active []models.Appointment
	if err := configuration.DB.
		Where("doctor_id = ? AND date = ? AND status <> ?", doctorID, date, models.StatusCancelled).
		Find(&active).Error; err != nil {
		return nil, apperrors.Internal("failed to fetch bookings", err)
	}
	for _, slot := range MarkBooked(SlotGrid(doctorID, date), active) {
		if slot.StartTime == startTime {
			return &slot, nil
		}
	}
	return nil, apperrors.Validation("SLOT_OFF_GRID", "the selected time slot is not within working hours")
}

// DraftBack steps the workflow to the previous step without losing earlier
// selections.
func DraftBack(c *gin.Context) {
	patientID, _ := authentication.CurrentUser(c)
	w, err := loadDraft(patientID)
	if err != nil {
		apperrors.Respond(c, err)
		return
	}
	if err := w.Back(); err != nil {
		apperrors.Respond(c, err)
		return
	}
	if err := saveDraft(w); err != nil {
		apperrors.Respond(c, err)
		return
	}
	c.JSON(http.StatusOK, w)
}

// SubmitDraft turns a fully confirmed draft into a pending appointment. A
// Redis lock rejects a second concurrent submission of the same draft, and
// the conditional insert settles cross-session races over the slot.
func SubmitDraft(c *gin.Context) {
	var req struct {
		Symptom string `json:"symptom"`
	}
	_ = c.ShouldBindJSON(&req)

	patientID, _ := authentication.CurrentUser(c)

	lockKey := fmt.Sprintf("draft:submit:%d", patientID)
	acquired, err := configuration.AcquireLock(lockKey, submitLockTTL)
	if err != nil {
		apperrors.Respond(c, apperrors.Internal("failed to lock booking submission", err))
		return
	}
	if !acquired {
		apperrors.Respond(c, apperrors.Conflict("SUBMISSION_IN_PROGRESS", "a submission for this booking is already in progress"))
		return
	}
	defer func() {
		_ = configuration.DelRedis(lockKey)
	}()

	w, err := loadDraft(patientID)
	if err != nil {
		apperrors.Respond(c, err)
		return
	}
	if err := w.ReadyToSubmit(); err != nil {
		apperrors.Respond(c, err)
		return
	}
	if req.Symptom != "" {
		w.Symptom = req.Symptom
	}

	appointment, err := CreateAppointment(w.PatientID, w.DoctorID, w.Date, *w.Slot, w.Symptom)
	if err != nil {
		// A lost slot race sends the patient back to slot selection.
		if apperrors.Is(err, "SLOT_TAKEN") {
			w.Slot = nil
			w.Step = booking.StepSelectingSlot
			if saveErr := saveDraft(w); saveErr != nil {
				apperrors.Respond(c, saveErr)
				return
			}
		}
		apperrors.Respond(c, err)
		return
	}

	w.MarkSubmitted()
	if err := configuration.DelRedis(draftKey(patientID)); err != nil {
		apperrors.Respond(c, apperrors.Internal("failed to clear booking draft", err))
		return
	}
	c.JSON(http.StatusCreated, appointment)
}
