package models

import (
	"fmt"
	"time"
)

type AppointmentStatus string

const (
	StatusPending   AppointmentStatus = "pending"
	StatusConfirmed AppointmentStatus = "confirmed"
	StatusCompleted AppointmentStatus = "completed"
	StatusCancelled AppointmentStatus = "cancelled"
)

// ParseAppointmentStatus maps a wire value onto the status enum.
func ParseAppointmentStatus(s string) (AppointmentStatus, error) {
	switch AppointmentStatus(s) {
	case StatusPending, StatusConfirmed, StatusCompleted, StatusCancelled:
		return AppointmentStatus(s), nil
	default:
		return "", fmt.Errorf("unknown appointment status %q", s)
	}
}

// Terminal reports whether no further transition is permitted.
func (s AppointmentStatus) Terminal() bool {
	return s == StatusCompleted || s == StatusCancelled
}

// CanTransition is the appointment status table. completed and cancelled
// are terminal; everything else moves strictly forward or out to cancelled.
func CanTransition(from, to AppointmentStatus) bool {
	switch from {
	case StatusPending:
		return to == StatusConfirmed || to == StatusCancelled
	case StatusConfirmed:
		return to == StatusCompleted || to == StatusCancelled
	case StatusCompleted, StatusCancelled:
		return false
	default:
		return false
	}
}

type PaymentStatus string

const (
	PaymentPending PaymentStatus = "pending"
	PaymentPaid    PaymentStatus = "paid"
)

// TimeSlot is one 30-minute window of a doctor's working day. Slots are
// derived per (doctor, date) and never stored on their own; the embedded
// copy on an appointment records which window the booking occupies.
type TimeSlot struct {
	ID          string `json:"id"`
	StartTime   string `json:"startTime" gorm:"index"`
	EndTime     string `json:"endTime"`
	IsAvailable bool   `json:"isAvailable"`
}

type Appointment struct {
	AppointmentID uint              `json:"id" gorm:"primaryKey"`
	PatientID     uint              `json:"patientId" gorm:"not null;index"`
	DoctorID      uint              `json:"doctorId" gorm:"not null;index"`
	Date          string            `json:"date" gorm:"not null;index"`
	TimeSlot      TimeSlot          `json:"timeSlot" gorm:"embedded;embeddedPrefix:slot_"`
	Status        AppointmentStatus `json:"status" gorm:"not null"`
	Symptom       string            `json:"symptom,omitempty"`
	Notes         string            `json:"notes,omitempty"`
	PaymentStatus PaymentStatus     `json:"paymentStatus" gorm:"not null"`
	PaymentID     string            `json:"paymentId,omitempty"`
	CreatedAt     time.Time         `json:"createdAt" gorm:"autoCreateTime"`
	UpdatedAt     time.Time         `json:"updatedAt" gorm:"autoUpdateTime"`
}

// StartsAt resolves the appointment's wall-clock start from its date and
// slot start time.
func (a Appointment) StartsAt() (time.Time, error) {
	return time.ParseInLocation("2006-01-02 15:04", a.Date+" "+a.TimeSlot.StartTime, time.Local)
}
