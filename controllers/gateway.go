package controllers

import (
	"medibook/apperrors"
	"os"
	"strings"

	"github.com/google/uuid"
	razorpay "github.com/razorpay/razorpay-go"
	"github.com/sirupsen/logrus"
)

// PaymentGateway creates payment intents and captures them. The mock
// gateway backs development and tests; Razorpay is used when credentials
// are configured.
type PaymentGateway interface {
	CreateIntent(amount float64, currency, receipt string) (string, error)
	Capture(intentToken string, amount float64, cardNumber string) (string, error)
}

// Gateway is the active payment gateway.
var Gateway PaymentGateway = mockGateway{}

// InitGateway switches to Razorpay when keys are present in the
// environment.
func InitGateway() {
	keyID := os.Getenv("RAZORPAY_KEY_ID")
	keySecret := os.Getenv("RAZORPAY_KEY_SECRET")
	if keyID == "" || keySecret == "" {
		logrus.Info("razorpay keys not configured, using mock payment gateway")
		return
	}
	Gateway = &razorpayGateway{client: razorpay.NewClient(keyID, keySecret)}
}

// mockGateway approves every capture except the well-known declined test
// card (number ending 0002).
type mockGateway struct{}

func (mockGateway) CreateIntent(amount float64, currency, receipt string) (string, error) {
	return "pi_" + uuid.NewString(), nil
}

func (mockGateway) Capture(intentToken string, amount float64, cardNumber string) (string, error) {
	if strings.HasSuffix(digitsOnly(cardNumber), "0002") {
		return "", apperrors.PaymentDeclined("the payment was declined by the card issuer")
	}
	return "txn_" + uuid.NewString(), nil
}

type razorpayGateway struct {
	client *razorpay.Client
}

func (g *razorpayGateway) CreateIntent(amount float64, currency, receipt string) (string, error) {
	// Razorpay amounts are in the smallest currency unit.
	order, err := g.client.Order.Create(map[string]interface{}{
		"amount":   int(amount * 100),
		"currency": currency,
		"receipt":  receipt,
	}, nil)
	if err != nil {
		return "", apperrors.Internal("failed to create razorpay order", err)
	}
	id, ok := order["id"].(string)
	if !ok {
		return "", apperrors.Internal("unexpected razorpay order response", nil)
	}
	return id, nil
}

func (g *razorpayGateway) Capture(intentToken string, amount float64, cardNumber string) (string, error) {
	body, err := g.client.Payment.Capture(intentToken, int(amount*100), nil, nil)
	if err != nil {
		return "", apperrors.PaymentDeclined("the payment was declined by the gateway")
	}
	id, ok := body["id"].(string)
	if !ok {
		return "", apperrors.Internal("unexpected razorpay capture response", nil)
	}
	return id, nil
}
