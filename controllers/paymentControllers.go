package controllers

import (
	"encoding/json"
	"errors"
	"fmt"
	"medibook/apperrors"
	"medibook/authentication"
	"medibook/configuration"
	"medibook/models"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

const (
	intentTTL       = 15 * time.Minute
	confirmLockTTL  = 30 * time.Second
	paymentCurrency = "INR"
)

// paymentIntent is the Redis-stashed provisional authorization. Stashing
// the amount here locks the price at intent creation, so a later fee change
// cannot reprice an in-flight payment.
type paymentIntent struct {
	AppointmentID uint    `json:"appointmentId"`
	Amount        float64 `json:"amount"`
}

func intentKey(token string) string {
	return "intent:" + token
}

// CreatePaymentIntent starts the capture flow for a pending, unpaid
// appointment owned by the caller. The amount is read from the doctor's
// consultation fee at call time, never from a value cached at booking.
func CreatePaymentIntent(c *gin.Context) {
	var req struct {
		AppointmentID uint `json:"appointmentId" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		apperrors.Respond(c, apperrors.Validation("INVALID_REQUEST", "appointmentId is required"))
		return
	}

	patientID, _ := authentication.CurrentUser(c)

	var appointment models.Appointment
	if err := configuration.DB.First(&appointment, req.AppointmentID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			apperrors.Respond(c, apperrors.NotFound("APPOINTMENT_NOT_FOUND", "appointment not found"))
			return
		}
		apperrors.Respond(c, apperrors.Internal("failed to fetch appointment", err))
		return
	}
	if appointment.PatientID != patientID {
		apperrors.Respond(c, apperrors.Auth("NOT_YOUR_APPOINTMENT", "this appointment belongs to another patient"))
		return
	}
	if appointment.PaymentStatus == models.PaymentPaid {
		apperrors.Respond(c, apperrors.Conflict("ALREADY_PAID", "this appointment has already been paid"))
		return
	}

	var doctor models.Doctor
	if err := configuration.DB.First(&doctor, appointment.DoctorID).Error; err != nil {
		apperrors.Respond(c, apperrors.Internal("failed to fetch doctor", err))
		return
	}

	receipt := fmt.Sprintf("appt-%d", appointment.AppointmentID)
	token, err := Gateway.CreateIntent(doctor.ConsultationFee, paymentCurrency, receipt)
	if err != nil {
		apperrors.Respond(c, err)
		return
	}

	raw, err := json.Marshal(paymentIntent{
		AppointmentID: appointment.AppointmentID,
		Amount:        doctor.ConsultationFee,
	})
	if err != nil {
		apperrors.Respond(c, apperrors.Internal("failed to encode payment intent", err))
		return
	}
	if err := configuration.SetRedis(intentKey(token), raw, intentTTL); err != nil {
		apperrors.Respond(c, apperrors.Internal("failed to save payment intent", err))
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"intentToken": token,
		"amount":      doctor.ConsultationFee,
	})
}

type confirmPaymentRequest struct {
	IntentToken   string `json:"intentToken" binding:"required"`
	AppointmentID uint   `json:"appointmentId" binding:"required"`
	Method        string `json:"method" binding:"required"`
	CardNumber    string `json:"cardNumber"`
	CardName      string `json:"cardName"`
	ExpiryDate    string `json:"expiryDate"`
	CVV           string `json:"cvv"`
}

// ConfirmPayment captures a payment intent and marks the appointment paid.
// Card details are validated locally first, so malformed input never
// reaches the gateway. Confirming twice yields 409 and never a second
// Payment record; a decline leaves the appointment untouched for a
// user-initiated retry with a fresh intent.
func ConfirmPayment(c *gin.Context) {
	var req confirmPaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apperrors.Respond(c, apperrors.Validation("INVALID_REQUEST", "intentToken, appointmentId and method are required"))
		return
	}

	method, err := models.ParsePaymentMethod(req.Method)
	if err != nil {
		apperrors.Respond(c, apperrors.Validation("INVALID_METHOD", "select a valid payment method"))
		return
	}
	if method.Card() {
		if err := ValidateCardDetails(req.CardNumber, req.CardName, req.ExpiryDate, req.CVV); err != nil {
			apperrors.Respond(c, err)
			return
		}
	}

	patientID, _ := authentication.CurrentUser(c)

	// One confirm per appointment at a time. Two racing confirms would both
	// read the appointment as unpaid and both reach the gateway; the lock
	// fails the second one before it can capture.
	lockKey := fmt.Sprintf("payment:confirm:%d", req.AppointmentID)
	acquired, err := configuration.AcquireLock(lockKey, confirmLockTTL)
	if err != nil {
		apperrors.Respond(c, apperrors.Internal("failed to lock payment confirmation", err))
		return
	}
	if !acquired {
		apperrors.Respond(c, apperrors.Conflict("PAYMENT_IN_PROGRESS", "a payment for this appointment is already being processed"))
		return
	}
	defer func() {
		_ = configuration.DelRedis(lockKey)
	}()

	var appointment models.Appointment
	if err := configuration.DB.First(&appointment, req.AppointmentID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			apperrors.Respond(c, apperrors.NotFound("APPOINTMENT_NOT_FOUND", "appointment not found"))
			return
		}
		apperrors.Respond(c, apperrors.Internal("failed to fetch appointment", err))
		return
	}
	if appointment.PatientID != patientID {
		apperrors.Respond(c, apperrors.Auth("NOT_YOUR_APPOINTMENT", "this appointment belongs to another patient"))
		return
	}
	// Checked under the lock and before the intent is resolved, so a repeated
	// confirm after a successful capture answers AlreadyPaid, not an expired
	// intent.
	if appointment.PaymentStatus == models.PaymentPaid {
		apperrors.Respond(c, apperrors.Conflict("ALREADY_PAID", "this appointment has already been paid"))
		return
	}

	raw, err := configuration.GetRedis(intentKey(req.IntentToken))
	if errors.Is(err, redis.Nil) {
		apperrors.Respond(c, apperrors.Validation("INTENT_EXPIRED", "the payment intent is unknown or has expired"))
		return
	}
	if err != nil {
		apperrors.Respond(c, apperrors.Internal("failed to load payment intent", err))
		return
	}
	var intent paymentIntent
	if err := json.Unmarshal([]byte(raw), &intent); err != nil {
		apperrors.Respond(c, apperrors.Internal("failed to decode payment intent", err))
		return
	}
	if intent.AppointmentID != req.AppointmentID {
		apperrors.Respond(c, apperrors.Validation("INTENT_MISMATCH", "the payment intent does not match this appointment"))
		return
	}

	transactionID, err := Gateway.Capture(req.IntentToken, intent.Amount, req.CardNumber)
	if err != nil {
		apperrors.Respond(c, err)
		return
	}

	payment := models.Payment{
		PaymentID:     "pay_" + uuid.NewString(),
		AppointmentID: appointment.AppointmentID,
		Amount:        intent.Amount,
		Currency:      paymentCurrency,
		Method:        method,
		Status:        "successful",
		TransactionID: transactionID,
	}
	err = configuration.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&payment).Error; err != nil {
			if isUniqueViolation(err) {
				return apperrors.Conflict("ALREADY_PAID", "this appointment has already been paid")
			}
			return apperrors.Internal("failed to record payment", err)
		}
		return tx.Model(&models.Appointment{}).
			Where("appointment_id = ?", appointment.AppointmentID).
			Updates(map[string]interface{}{
				"payment_status": models.PaymentPaid,
				"payment_id":     payment.PaymentID,
			}).Error
	})
	if err != nil {
		apperrors.Respond(c, err)
		return
	}
	_ = configuration.DelRedis(intentKey(req.IntentToken))

	if err := configuration.DB.First(&appointment, appointment.AppointmentID).Error; err != nil {
		apperrors.Respond(c, apperrors.Internal("failed to fetch appointment", err))
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "appointment": appointment, "payment": payment})
}

// ValidateCardDetails applies the local card checks: at least 15 digits in
// the number (spaces are cosmetic), an expiry of exactly MM/YY, and a CVV
// of 3 or 4 digits.
func ValidateCardDetails(number, name, expiry, cvv string) error {
	if number == "" || name == "" || expiry == "" || cvv == "" {
		return apperrors.Validation("MISSING_CARD_DETAILS", "please fill in all card details")
	}
	if len(digitsOnly(number)) < 15 {
		return apperrors.Validation("INVALID_CARD_NUMBER", "invalid card number")
	}
	if len(expiry) != 5 || expiry[2] != '/' || !allDigits(expiry[:2]) || !allDigits(expiry[3:]) {
		return apperrors.Validation("INVALID_EXPIRY", "invalid expiry date (MM/YY)")
	}
	cvvDigits := digitsOnly(cvv)
	if len(cvvDigits) < 3 || len(cvvDigits) > 4 || len(cvvDigits) != len(cvv) {
		return apperrors.Validation("INVALID_CVV", "invalid CVV")
	}
	return nil
}

func digitsOnly(s string) string {
	out := make([]byte, 0, len(s))
	for i := 0; i < len(s); i++ {
		if s[i] >= '0' && s[i] <= '9' {
			out = append(out, s[i])
		}
	}
	return string(out)
}

func allDigits(s string) bool {
	return len(s) > 0 && len(digitsOnly(s)) == len(s)
}
