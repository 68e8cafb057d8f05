package domain

import (
	"time"
)

// Canonical payment status vocabulary. All counting and summing happens over
// these values after normalization; see StatusValue.
const (
	PaymentStatusPending    = "pending"
	PaymentStatusProcessing = "processing"
	PaymentStatusCompleted  = "completed"
	PaymentStatusFailed     = "failed"
	PaymentStatusRefunded   = "refunded"
	PaymentStatusCancelled  = "cancelled"

	// Synonyms seen from the legacy billing service.
	PaymentStatusSuccess = "success"
	PaymentStatusError   = "error"
)

// Payment is a raw payment record as delivered by the payments listing.
// A payment with no SessionID is a wallet top-up, not a charging payment.
// Status and PaymentStatus arrive in whichever representation the upstream
// service serializes; PaymentStatus is the secondary field consulted when
// Status is absent.
type Payment struct {
	ID            string      `json:"id" gorm:"primaryKey"`
	UserID        string      `json:"user_id" gorm:"index"`
	SessionID     string      `json:"session_id,omitempty" gorm:"index"`
	Amount        float64     `json:"amount"`
	Status        StatusValue `json:"status" gorm:"type:varchar(32)"`
	PaymentStatus StatusValue `json:"payment_status,omitempty" gorm:"type:varchar(32)"`
	PaymentTime   *time.Time  `json:"payment_time,omitempty"`
	CreatedAt     time.Time   `json:"created_at"`
}

// IsTopUp reports whether the payment is a wallet top-up rather than a
// charging payment.
func (p *Payment) IsTopUp() bool {
	return p.SessionID == ""
}

// NormalizedStatus returns the canonical status of the payment. Status wins
// over PaymentStatus; a payment with neither defaults to pending.
func (p *Payment) NormalizedStatus() string {
	if s := p.Status.Normalize(); s != "" {
		return s
	}
	if s := p.PaymentStatus.Normalize(); s != "" {
		return s
	}
	return PaymentStatusPending
}

// EffectiveTime returns the instant used for time bucketing: PaymentTime when
// present, CreatedAt otherwise.
func (p *Payment) EffectiveTime() time.Time {
	if p.PaymentTime != nil {
		return *p.PaymentTime
	}
	return p.CreatedAt
}
