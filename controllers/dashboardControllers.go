package controllers

import (
	"medibook/apperrors"
	"medibook/authentication"
	"medibook/configuration"
	"medibook/models"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

// appointmentWithParties joins the counterpart identities onto an
// appointment for display. The appointment only holds the ids.
type appointmentWithParties struct {
	models.Appointment
	Doctor  *models.Doctor  `json:"doctor,omitempty"`
	Patient *models.Patient `json:"patient,omitempty"`
}

// GetPatientAppointments lists the caller's appointments with the doctor
// joined on.
func GetPatientAppointments(c *gin.Context) {
	patientID, _ := authentication.CurrentUser(c)

	var appointments []models.Appointment
	if err := configuration.DB.
		Where("patient_id = ?", patientID).
		Order("appointment_id").
		Find(&appointments).Error; err != nil {
		apperrors.Respond(c, apperrors.Internal("failed to fetch appointments", err))
		return
	}

	out := make([]appointmentWithParties, 0, len(appointments))
	for _, a := range appointments {
		entry := appointmentWithParties{Appointment: a}
		var doctor models.Doctor
		if err := configuration.DB.First(&doctor, a.DoctorID).Error; err == nil {
			doctor.Password = ""
			entry.Doctor = &doctor
		}
		out = append(out, entry)
	}
	c.JSON(http.StatusOK, out)
}

// GetDoctorAppointments lists the caller's appointments with the patient
// joined on.
func GetDoctorAppointments(c *gin.Context) {
	doctorID, _ := authentication.CurrentUser(c)

	var appointments []models.Appointment
	if err := configuration.DB.
		Where("doctor_id = ?", doctorID).
		Order("appointment_id").
		Find(&appointments).Error; err != nil {
		apperrors.Respond(c, apperrors.Internal("failed to fetch appointments", err))
		return
	}

	out := make([]appointmentWithParties, 0, len(appointments))
	for _, a := range appointments {
		entry := appointmentWithParties{Appointment: a}
		var patient models.Patient
		if err := configuration.DB.First(&patient, a.PatientID).Error; err == nil {
			patient.Password = ""
			entry.Patient = &patient
		}
		out = append(out, entry)
	}
	c.JSON(http.StatusOK, out)
}

// GetDoctorEarnings summarizes the caller's earnings from paid
// appointments: the doctor's fee times the paid bookings in each window.
func GetDoctorEarnings(c *gin.Context) {
	doctorID, _ := authentication.CurrentUser(c)

	var doctor models.Doctor
	if err := configuration.DB.First(&doctor, doctorID).Error; err != nil {
		apperrors.Respond(c, apperrors.Internal("failed to fetch doctor", err))
		return
	}

	var paid []models.Appointment
	if err := configuration.DB.
		Where("doctor_id = ? AND payment_status = ?", doctorID, models.PaymentPaid).
		Find(&paid).Error; err != nil {
		apperrors.Respond(c, apperrors.Internal("failed to fetch appointments", err))
		return
	}

	now := time.Now()
	today := now.Format("2006-01-02")
	weekStart := now.AddDate(0, 0, -int(now.Weekday()))
	weekStart = time.Date(weekStart.Year(), weekStart.Month(), weekStart.Day(), 0, 0, 0, 0, now.Location())
	monthStart := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())

	var todayCount, weekCount, monthCount int
	for _, a := range paid {
		if a.Date == today {
			todayCount++
		}
		d, err := time.ParseInLocation("2006-01-02", a.Date, now.Location())
		if err != nil {
			continue
		}
		if !d.Before(weekStart) {
			weekCount++
		}
		if !d.Before(monthStart) {
			monthCount++
		}
	}

	c.JSON(http.StatusOK, gin.H{
		"today":     float64(todayCount) * doctor.ConsultationFee,
		"thisWeek":  float64(weekCount) * doctor.ConsultationFee,
		"thisMonth": float64(monthCount) * doctor.ConsultationFee,
		"total":     float64(len(paid)) * doctor.ConsultationFee,
	})
}

// GetDashboardStats returns the admin overview counters and total revenue
// across all paid appointments.
func GetDashboardStats(c *gin.Context) {
	var totalDoctors, totalPatients, totalAppointments, pendingAppointments, todayAppointments int64

	if err := configuration.DB.Model(&models.Doctor{}).Count(&totalDoctors).Error; err != nil {
		apperrors.Respond(c, apperrors.Internal("failed to count doctors", err))
		return
	}
	if err := configuration.DB.Model(&models.Patient{}).Count(&totalPatients).Error; err != nil {
		apperrors.Respond(c, apperrors.Internal("failed to count patients", err))
		return
	}
	if err := configuration.DB.Model(&models.Appointment{}).Count(&totalAppointments).Error; err != nil {
		apperrors.Respond(c, apperrors.Internal("failed to count appointments", err))
		return
	}
	if err := configuration.DB.Model(&models.Appointment{}).
		Where("status = ?", models.StatusPending).
		Count(&pendingAppointments).Error; err != nil {
		apperrors.Respond(c, apperrors.Internal("failed to count pending appointments", err))
		return
	}
	today := time.Now().Format("2006-01-02")
	if err := configuration.DB.Model(&models.Appointment{}).
		Where("date = ?", today).
		Count(&todayAppointments).Error; err != nil {
		apperrors.Respond(c, apperrors.Internal("failed to count today's appointments", err))
		return
	}

	var totalRevenue float64
	if err := configuration.DB.Model(&models.Payment{}).
		Select("COALESCE(SUM(amount), 0)").
		Where("status = ?", "successful").
		Scan(&totalRevenue).Error; err != nil {
		apperrors.Respond(c, apperrors.Internal("failed to sum revenue", err))
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"totalDoctors":        totalDoctors,
		"totalPatients":       totalPatients,
		"totalAppointments":   totalAppointments,
		"pendingAppointments": pendingAppointments,
		"todayAppointments":   todayAppointments,
		"totalRevenue":        totalRevenue,
	})
}

// ListDoctors returns every doctor account for the admin console.
func ListDoctors(c *gin.Context) {
	var doctors []models.Doctor
	if err := configuration.DB.Order("doctor_id").Find(&doctors).Error; err != nil {
		apperrors.Respond(c, apperrors.Internal("failed to fetch doctors", err))
		return
	}
	for i := range doctors {
		doctors[i].Password = ""
	}
	c.JSON(http.StatusOK, doctors)
}

// ListPatients returns every patient account for the admin console.
func ListPatients(c *gin.Context) {
	var patients []models.Patient
	if err := configuration.DB.Order("patient_id").Find(&patients).Error; err != nil {
		apperrors.Respond(c, apperrors.Internal("failed to fetch patients", err))
		return
	}
	for i := range patients {
		patients[i].Password = ""
	}
	c.JSON(http.StatusOK, patients)
}
