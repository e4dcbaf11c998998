package agents

import (
	"fmt"
	"math/rand/v2"
	"time"
)

const (
	MethodUPI        = "UPI"
	MethodCard       = "Card"
	MethodNetBanking = "NetBanking"
	MethodWallet     = "Wallet"
	MethodPOS        = "POS"
	MethodCash       = "Cash"
)

var validMethods = map[string]bool{
	MethodUPI: true, MethodCard: true, MethodNetBanking: true,
	MethodWallet: true, MethodPOS: true, MethodCash: true,
}

// ValidMethod reports whether method is an accepted payment method.
func ValidMethod(method string) bool {
	return validMethods[method]
}

// Roller yields values in [0,1).
type Roller interface {
	Float64() float64
}

type randRoller struct{}

func (randRoller) Float64() float64 { return rand.Float64() }

// FixedRoller always returns the same roll.
type FixedRoller float64

func (f FixedRoller) Float64() float64 { return float64(f) }

type PaymentOutcome struct {
	Success       bool      `json:"success"`
	TransactionID string    `json:"transaction_id,omitempty"`
	Amount        int       `json:"amount"`
	Method        string    `json:"method"`
	Timestamp     time.Time `json:"timestamp,omitempty"`
	Error         string    `json:"error,omitempty"`
	Retryable     bool      `json:"retryable"`
	Message       string    `json:"message"`
}

type PaymentConfig struct {
	FailureRate float64
	Roller      Roller
	IDs         IDSource
	Clock       Clock
}

type Payment struct {
	failureRate float64
	roll        Roller
	ids         IDSource
	now         Clock
}

func NewPayment(cfg PaymentConfig) *Payment {
	p := &Payment{
		failureRate: cfg.FailureRate,
		roll:        cfg.Roller,
		ids:         cfg.IDs,
		now:         orClock(cfg.Clock),
	}
	if p.roll == nil {
		p.roll = randRoller{}
	}
	if p.ids == nil {
		p.ids = &SequenceIDs{}
	}
	return p
}

func (a *Payment) Name() string { return NamePayment }

// Attempt simulates a gateway charge. Only the first attempt (retryCount 0) can
// fail; any retry clears the simulated timeout.
func (a *Payment) Attempt(amount int, method string, retryCount int) PaymentOutcome {
	if retryCount == 0 && a.roll.Float64() < a.failureRate {
		return PaymentOutcome{
			Success:   false,
			Amount:    amount,
			Method:    method,
			Error:     "Payment gateway timeout",
			Retryable: true,
			Message:   "Your payment could not be processed. Would you like to retry or try a different payment method?",
		}
	}
	return PaymentOutcome{
		Success:       true,
		TransactionID: a.ids.Next("TXN"),
		Amount:        amount,
		Method:        method,
		Timestamp:     a.now(),
		Message:       fmt.Sprintf("Payment of ₹%d successful via %s", amount, method),
	}
}
