package controllers

import (
	"errors"
	"fmt"
	"medibook/apperrors"
	"medibook/booking"
	"medibook/configuration"
	"medibook/models"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// Working window and granularity of the daily slot grid.
const (
	workingDayStartHour = 9
	workingDayEndHour   = 17
	slotInterval        = 30 * time.Minute
)

// SearchDoctors returns the doctor directory filtered by the optional
// search and specialization query parameters. Free-text search matches
// name or specialization case-insensitively as a substring; the
// specialization filter is an exact match unless it is "All". Results keep
// the store's insertion order.
func SearchDoctors(c *gin.Context) {
	var doctors []models.Doctor
	if err := configuration.DB.Order("doctor_id").Find(&doctors).Error; err != nil {
		apperrors.Respond(c, apperrors.Internal("failed to fetch doctors", err))
		return
	}

	filtered := FilterDoctors(doctors, c.Query("search"), c.Query("specialization"))
	for i := range filtered {
		filtered[i].Password = ""
	}
	c.JSON(http.StatusOK, filtered)
}

// FilterDoctors applies the directory search predicates. Both predicates
// must hold for a doctor to be included.
func FilterDoctors(doctors []models.Doctor, search, specialization string) []models.Doctor {
	search = strings.ToLower(strings.TrimSpace(search))
	filtered := make([]models.Doctor, 0, len(doctors))
	for _, d := range doctors {
		if search != "" &&
			!strings.Contains(strings.ToLower(d.Name), search) &&
			!strings.Contains(strings.ToLower(d.Specialization), search) {
			continue
		}
		if specialization != "" && specialization != "All" && d.Specialization != specialization {
			continue
		}
		filtered = append(filtered, d)
	}
	return filtered
}

// GetDoctorByID returns a single doctor profile.
func GetDoctorByID(c *gin.Context) {
	var doctor models.Doctor
	if err := configuration.DB.First(&doctor, c.Param("id")).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			apperrors.Respond(c, apperrors.NotFound("DOCTOR_NOT_FOUND", "doctor not found"))
			return
		}
		apperrors.Respond(c, apperrors.Internal("failed to fetch doctor", err))
		return
	}
	doctor.Password = ""
	c.JSON(http.StatusOK, doctor)
}

// GetAvailableTimeSlots returns the full slot grid for a doctor and date.
// Slots occupied by a non-cancelled appointment are returned with
// isAvailable=false rather than omitted; callers filter for presentation.
func GetAvailableTimeSlots(c *gin.Context) {
	doctorID := c.Query("doctorId")
	date := c.Query("date")
	if doctorID == "" || date == "" {
		apperrors.Respond(c, apperrors.Validation("MISSING_PARAMS", "doctorId and date are required"))
		return
	}
	if err := booking.ValidateDate(date, time.Now()); err != nil {
		apperrors.Respond(c, err)
		return
	}

	var doctor models.Doctor
	if err := configuration.DB.First(&doctor, doctorID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			apperrors.Respond(c, apperrors.NotFound("DOCTOR_NOT_FOUND", "doctor not found"))
			return
		}
		apperrors.Respond(c, apperrors.Internal("failed to fetch doctor", err))
		return
	}

	var active []models.Appointment
	if err := configuration.DB.
		Where("doctor_id = ? AND date = ? AND status <> ?", doctor.DoctorID, date, models.StatusCancelled).
		Find(&active).Error; err != nil {
		apperrors.Respond(c, apperrors.Internal("failed to fetch bookings", err))
		return
	}

	grid := SlotGrid(doctor.DoctorID, date)
	c.JSON(http.StatusOK, MarkBooked(grid, active))
}

// SlotGrid deterministically generates the 30-minute slot grid over the
// 09:00-17:00 working window for one doctor and date. Slot identity is
// scoped to (doctor, date, start time).
func SlotGrid(doctorID uint, date string) []models.TimeSlot {
	var slots []models.TimeSlot
	day := time.Date(2000, 1, 1, workingDayStartHour, 0, 0, 0, time.UTC)
	end := time.Date(2000, 1, 1, workingDayEndHour, 0, 0, 0, time.UTC)
	for t := day; t.Before(end); t = t.Add(slotInterval) {
		start := t.Format("15:04")
		slots = append(slots, models.TimeSlot{
			ID:          fmt.Sprintf("slot-%d-%s-%s", doctorID, date, start),
			StartTime:   start,
			EndTime:     t.Add(slotInterval).Format("15:04"),
			IsAvailable: true,
		})
	}
	return slots
}

// MarkBooked derives availability: a slot is unavailable exactly when one of
// the given active appointments occupies its start time. The input grid is
// not modified.
func MarkBooked(grid []models.TimeSlot, active []models.Appointment) []models.TimeSlot {
	booked := make(map[string]bool, len(active))
	for _, a := range active {
		booked[a.TimeSlot.StartTime] = true
	}
	out := make([]models.TimeSlot, len(grid))
	for i, slot := range grid {
		slot.IsAvailable = !booked[slot.StartTime]
		out[i] = slot
	}
	return out
}

// GridSlot resolves a start time to its slot on the doctor's grid for the
// date. The grid is authoritative for the slot id and end time; client-sent
// values are never stored.
func GridSlot(doctorID uint, date, startTime string) (models.TimeSlot, bool) {
	for _, slot := range SlotGrid(doctorID, date) {
		if slot.StartTime == startTime {
			return slot, true
		}
	}
	return models.TimeSlot{}, false
}

// OnGrid reports whether a start time lands on the working-day grid.
func OnGrid(startTime string) bool {
	_, ok := GridSlot(0, "", startTime)
	return ok
}
