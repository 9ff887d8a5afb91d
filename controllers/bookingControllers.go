package controllers

import (
	"errors"
	"medibook/apperrors"
	"medibook/authentication"
	"medibook/booking"
	"medibook/configuration"
	"medibook/models"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

type bookAppointmentRequest struct {
	DoctorID uint            `json:"doctorId" binding:"required"`
	Date     string          `json:"date" binding:"required"`
	TimeSlot models.TimeSlot `json:"timeSlot" binding:"required"`
	Symptom  string          `json:"symptom"`
}

// BookAppointment creates a pending appointment for the authenticated
// patient. Client-side availability is advisory only: the slot is
// re-checked here inside the transaction, and a lost race answers 409.
func BookAppointment(c *gin.Context) {
	var req bookAppointmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apperrors.Respond(c, apperrors.Validation("INVALID_REQUEST", "doctorId, date and timeSlot are required"))
		return
	}

	patientID, _ := authentication.CurrentUser(c)
	appointment, err := CreateAppointment(patientID, req.DoctorID, req.Date, req.TimeSlot, req.Symptom)
	if err != nil {
		apperrors.Respond(c, err)
		return
	}
	c.JSON(http.StatusCreated, appointment)
}

// CreateAppointment validates a booking and performs the conditional
// insert. It is the single path every booking takes, whether it arrives
// through the draft workflow or the direct endpoint.
func CreateAppointment(patientID, doctorID uint, date string, slot models.TimeSlot, symptom string) (*models.Appointment, error) {
	if err := booking.ValidateDate(date, time.Now()); err != nil {
		return nil, err
	}
	gridSlot, ok := GridSlot(doctorID, date, slot.StartTime)
	if !ok {
		return nil, apperrors.Validation("SLOT_OFF_GRID", "the selected time slot is not within working hours")
	}

	var doctor models.Doctor
	if err := configuration.DB.First(&doctor, doctorID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.NotFound("DOCTOR_NOT_FOUND", "doctor not found")
		}
		return nil, apperrors.Internal("failed to fetch doctor", err)
	}
	var patient models.Patient
	if err := configuration.DB.First(&patient, patientID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.NotFound("PATIENT_NOT_FOUND", "patient not found")
		}
		return nil, apperrors.Internal("failed to fetch patient", err)
	}

	appointment := models.Appointment{
		PatientID: patientID,
		DoctorID:  doctorID,
		Date:      date,
		TimeSlot: models.TimeSlot{
			ID:          gridSlot.ID,
			StartTime:   gridSlot.StartTime,
			EndTime:     gridSlot.EndTime,
			IsAvailable: false,
		},
		Status:        models.StatusPending,
		Symptom:       symptom,
		PaymentStatus: models.PaymentPending,
	}
	if err := insertAppointmentExclusive(configuration.DB, &appointment); err != nil {
		return nil, err
	}
	return &appointment, nil
}

// insertAppointmentExclusive inserts the appointment only if no
// non-cancelled appointment already holds the (doctor, date, start time)
// triple. The in-transaction check gives the friendly error; the partial
// unique index is the authoritative backstop under concurrency.
func insertAppointmentExclusive(db *gorm.DB, appointment *models.Appointment) error {
	slotTaken := apperrors.Conflict("SLOT_TAKEN", "this time slot has just been booked by another patient")

	return db.Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&models.Appointment{}).
			Where("doctor_id = ? AND date = ? AND slot_start_time = ? AND status <> ?",
				appointment.DoctorID, appointment.Date, appointment.TimeSlot.StartTime, models.StatusCancelled).
			Count(&count).Error; err != nil {
			return apperrors.Internal("failed to check slot availability", err)
		}
		if count > 0 {
			return slotTaken
		}
		if err := tx.Create(appointment).Error; err != nil {
			if isUniqueViolation(err) {
				return slotTaken
			}
			return apperrors.Internal("failed to book appointment", err)
		}
		return nil
	})
}

// isUniqueViolation recognizes the duplicate-key error of both Postgres and
// the sqlite driver used in tests.
func isUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	return strings.Contains(msg, "duplicate key") || strings.Contains(msg, "UNIQUE constraint")
}
