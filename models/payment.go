package models

import (
	"fmt"
	"time"
)

type PaymentMethod string

const (
	MethodCreditCard PaymentMethod = "credit_card"
	MethodDebitCard  PaymentMethod = "debit_card"
	MethodNetBanking PaymentMethod = "net_banking"
	MethodUPI        PaymentMethod = "upi"
)

// ParsePaymentMethod maps a wire value onto the method enum.
func ParsePaymentMethod(s string) (PaymentMethod, error) {
	switch PaymentMethod(s) {
	case MethodCreditCard, MethodDebitCard, MethodNetBanking, MethodUPI:
		return PaymentMethod(s), nil
	default:
		return "", fmt.Errorf("unknown payment method %q", s)
	}
}

// Card reports whether the method takes card details.
func (m PaymentMethod) Card() bool {
	return m == MethodCreditCard || m == MethodDebitCard
}

// Payment records a successful capture. Exactly one exists per paid
// appointment; the amount is the intent amount, locked at intent creation.
type Payment struct {
	PaymentID     string        `json:"id" gorm:"primaryKey"`
	AppointmentID uint          `json:"appointmentId" gorm:"not null;uniqueIndex"`
	Amount        float64       `json:"amount" gorm:"not null"`
	Currency      string        `json:"currency" gorm:"not null"`
	Method        PaymentMethod `json:"method" gorm:"not null"`
	Status        string        `json:"status" gorm:"not null"`
	TransactionID string        `json:"transactionId,omitempty"`
	CreatedAt     time.Time     `json:"createdAt" gorm:"autoCreateTime"`
}
