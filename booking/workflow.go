// Package booking holds the multi-step appointment booking workflow: a
// linear state machine from doctor selection through confirmation. Guards
// on every forward step keep the workflow from advancing with an incomplete
// selection; failed guards leave the state untouched.
package booking

import (
	"medibook/apperrors"
	"medibook/models"
	"time"
)

type Step int

const (
	StepSelectingProvider Step = iota + 1
	StepSelectingDate
	StepSelectingSlot
	StepConfirmingDetails
	StepSubmitted
)

func (s Step) String() string {
	switch s {
	case StepSelectingProvider:
		return "selecting_provider"
	case StepSelectingDate:
		return "selecting_date"
	case StepSelectingSlot:
		return "selecting_slot"
	case StepConfirmingDetails:
		return "confirming_details"
	case StepSubmitted:
		return "submitted"
	default:
		return "unknown"
	}
}

// BookingWindowDays bounds how far ahead a date may be chosen: today up to
// today+29 inclusive.
const BookingWindowDays = 30

const dateLayout = "2006-01-02"

// Workflow is one patient's in-progress booking. It serializes to JSON as a
// Redis-stashed draft between steps.
type Workflow struct {
	PatientID uint             `json:"patientId"`
	Step      Step             `json:"step"`
	DoctorID  uint             `json:"doctorId,omitempty"`
	Date      string           `json:"date,omitempty"`
	Slot      *models.TimeSlot `json:"slot,omitempty"`
	Symptom   string           `json:"symptom,omitempty"`
}

func New(patientID uint) *Workflow {
	return &Workflow{PatientID: patientID, Step: StepSelectingProvider}
}

// ChooseProvider records the selected doctor and advances to date selection.
func (w *Workflow) ChooseProvider(doctorID uint) error {
	if w.Step != StepSelectingProvider {
		return stepError(w.Step, StepSelectingProvider)
	}
	if doctorID == 0 {
		return apperrors.Validation("NO_PROVIDER_SELECTED", "select a doctor to continue")
	}
	w.DoctorID = doctorID
	w.Step = StepSelectingDate
	return nil
}

// ChooseDate records the selected date and advances to slot selection.
// Choosing a date always discards any previously chosen slot.
func (w *Workflow) ChooseDate(date string, now time.Time) error {
	if w.Step != StepSelectingDate {
		return stepError(w.Step, StepSelectingDate)
	}
	if err := ValidateDate(date, now); err != nil {
		return err
	}
	w.Date = date
	w.Slot = nil
	w.Step = StepSelectingSlot
	return nil
}

// ChooseSlot records the selected time slot and advances to confirmation.
// The slot must have been available when the caller fetched the grid; the
// authoritative recheck happens at submission.
func (w *Workflow) ChooseSlot(slot models.TimeSlot) error {
	if w.Step != StepSelectingSlot {
		return stepError(w.Step, StepSelectingSlot)
	}
	if slot.StartTime == "" {
		return apperrors.Validation("NO_SLOT_SELECTED", "select a time slot to continue")
	}
	if !slot.IsAvailable {
		return apperrors.Validation("SLOT_UNAVAILABLE", "the selected time slot is not available")
	}
	w.Slot = &slot
	w.Step = StepConfirmingDetails
	return nil
}

// Back steps the workflow to the previous state. Selections made at or
// before the state being returned to are preserved.
func (w *Workflow) Back() error {
	switch w.Step {
	case StepSelectingProvider:
		return apperrors.Validation("AT_FIRST_STEP", "already at the first step")
	case StepSubmitted:
		return apperrors.Validation("ALREADY_SUBMITTED", "the booking has already been submitted")
	}
	w.Step--
	return nil
}

// ReadyToSubmit guards the final transition: every selection must be in
// place before the booking may be submitted.
func (w *Workflow) ReadyToSubmit() error {
	switch w.Step {
	case StepSubmitted:
		return apperrors.Validation("ALREADY_SUBMITTED", "the booking has already been submitted")
	case StepConfirmingDetails:
		return nil
	}
	return apperrors.Validation("INCOMPLETE_BOOKING", "complete all booking steps before submitting")
}

// MarkSubmitted finalizes the workflow after the appointment was created.
func (w *Workflow) MarkSubmitted() {
	w.Step = StepSubmitted
}

// ValidateDate checks the YYYY-MM-DD format and the booking window: the
// date must fall between today and today+29 days inclusive.
func ValidateDate(date string, now time.Time) error {
	d, err := time.ParseInLocation(dateLayout, date, now.Location())
	if err != nil {
		return apperrors.Validation("INVALID_DATE", "date must be in YYYY-MM-DD format")
	}
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	if d.Before(today) {
		return apperrors.Validation("DATE_IN_PAST", "appointment date cannot be in the past")
	}
	if !d.Before(today.AddDate(0, 0, BookingWindowDays)) {
		return apperrors.Validation("DATE_OUT_OF_WINDOW", "appointments can only be booked up to 29 days ahead")
	}
	return nil
}

func stepError(current, wanted Step) *apperrors.Error {
	switch wanted {
	case StepSelectingProvider:
		return apperrors.Validation("NO_PROVIDER_SELECTED", "select a doctor before continuing (current step: "+current.String()+")")
	case StepSelectingDate:
		return apperrors.Validation("NO_DATE_SELECTED", "select a date before continuing (current step: "+current.String()+")")
	case StepSelectingSlot:
		return apperrors.Validation("NO_SLOT_SELECTED", "select a time slot before continuing (current step: "+current.String()+")")
	default:
		return apperrors.Validation("INVALID_STEP", "action not valid at step "+current.String())
	}
}
