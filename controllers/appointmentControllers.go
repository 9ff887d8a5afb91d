package controllers

import (
	"errors"
	"medibook/apperrors"
	"medibook/authentication"
	"medibook/configuration"
	"medibook/models"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// A patient may not cancel within this lead time of the slot start.
const cancellationCutoff = 6 * time.Hour

// UpdateAppointmentStatus advances an appointment through its lifecycle on
// behalf of a doctor or admin. Illegal transitions answer with the current
// and requested state; a doctor may only touch their own appointments.
func UpdateAppointmentStatus(c *gin.Context) {
	var req struct {
		Status string `json:"status" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		apperrors.Respond(c, apperrors.Validation("INVALID_REQUEST", "status is required"))
		return
	}
	target, err := models.ParseAppointmentStatus(req.Status)
	if err != nil {
		apperrors.Respond(c, apperrors.Validation("INVALID_STATUS", "unknown appointment status"))
		return
	}

	var appointment models.Appointment
	if err := configuration.DB.Where("appointment_id = ?", c.Param("id")).First(&appointment).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			apperrors.Respond(c, apperrors.NotFound("APPOINTMENT_NOT_FOUND", "appointment not found"))
			return
		}
		apperrors.Respond(c, apperrors.Internal("failed to fetch appointment", err))
		return
	}

	userID, role := authentication.CurrentUser(c)
	if role == models.RoleDoctor && appointment.DoctorID != userID {
		apperrors.Respond(c, apperrors.Auth("NOT_YOUR_APPOINTMENT", "this appointment belongs to another doctor"))
		return
	}

	if !models.CanTransition(appointment.Status, target) {
		apperrors.Respond(c, apperrors.InvalidTransition(string(appointment.Status), string(target)))
		return
	}

	if err := configuration.DB.Model(&appointment).Update("status", target).Error; err != nil {
		apperrors.Respond(c, apperrors.Internal("failed to update appointment status", err))
		return
	}
	appointment.Status = target
	c.JSON(http.StatusOK, appointment)
}

// CancelAppointment lets a patient cancel their own non-terminal
// appointment, subject to the cancellation cutoff before the slot start.
// Cancelling frees the slot for other patients immediately.
func CancelAppointment(c *gin.Context) {
	var appointment models.Appointment
	if err := configuration.DB.Where("appointment_id = ?", c.Param("id")).First(&appointment).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			apperrors.Respond(c, apperrors.NotFound("APPOINTMENT_NOT_FOUND", "appointment not found"))
			return
		}
		apperrors.Respond(c, apperrors.Internal("failed to fetch appointment", err))
		return
	}

	patientID, _ := authentication.CurrentUser(c)
	if appointment.PatientID != patientID {
		apperrors.Respond(c, apperrors.Auth("NOT_YOUR_APPOINTMENT", "this appointment belongs to another patient"))
		return
	}

	if appointment.Status.Terminal() {
		apperrors.Respond(c, apperrors.InvalidTransition(string(appointment.Status), string(models.StatusCancelled)))
		return
	}

	if err := CancellationAllowed(appointment, time.Now()); err != nil {
		apperrors.Respond(c, err)
		return
	}

	if err := configuration.DB.Model(&appointment).Update("status", models.StatusCancelled).Error; err != nil {
		apperrors.Respond(c, apperrors.Internal("failed to cancel appointment", err))
		return
	}
	appointment.Status = models.StatusCancelled
	c.JSON(http.StatusOK, appointment)
}

// CancellationAllowed enforces the patient-side cutoff: cancellation must
// happen more than the lead time before the scheduled slot start.
func CancellationAllowed(appointment models.Appointment, now time.Time) error {
	start, err := appointment.StartsAt()
	if err != nil {
		return apperrors.Internal("appointment has an invalid schedule", err)
	}
	if start.Sub(now) < cancellationCutoff {
		return apperrors.Validation("PAST_CANCELLATION_WINDOW",
			"appointments cannot be cancelled within 6 hours of the scheduled time")
	}
	return nil
}
