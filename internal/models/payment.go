package models

import (
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Payment statuses.
const (
	PaymentStatusPending           = "pending"
	PaymentStatusProcessing        = "processing"
	PaymentStatusCompleted         = "completed"
	PaymentStatusFailed            = "failed"
	PaymentStatusCancelled         = "cancelled"
	PaymentStatusRefunded          = "refunded"
	PaymentStatusPartiallyRefunded = "partially_refunded"
)

// PaymentStatuses lists all valid payment statuses.
var PaymentStatuses = []string{
	PaymentStatusPending, PaymentStatusProcessing, PaymentStatusCompleted,
	PaymentStatusFailed, PaymentStatusCancelled, PaymentStatusRefunded,
	PaymentStatusPartiallyRefunded,
}

// PaymentCategories lists all valid payment categories.
var PaymentCategories = []string{
	"accommodation", "transportation", "food", "activities",
	"shopping", "insurance", "visa", "miscellaneous",
}

// PaymentCurrencies lists the accepted currencies.
var PaymentCurrencies = []string{
	"USD", "EUR", "GBP", "INR", "CAD", "AUD", "JPY", "CHF", "CNY", "KRW",
}

// PaymentMethodTypes lists the accepted payment method types.
var PaymentMethodTypes = []string{
	"credit_card", "debit_card", "bank_transfer", "paypal",
	"cash", "crypto", "check", "other",
}

// RefundReasons lists the accepted refund reasons.
var RefundReasons = []string{
	"cancellation", "no_show", "service_issue", "duplicate_charge", "fraud", "other",
}

// RefundMethods lists the accepted refund methods.
var RefundMethods = []string{
	"original_payment_method", "bank_transfer", "check", "store_credit", "other",
}

var (
	ErrRefundNotCompleted = errors.New("cannot refund non-completed payment")
	ErrRefundTooLarge     = errors.New("refund amount exceeds refundable balance")
	ErrAmountImmutable    = errors.New("cannot modify amount of completed payment")
	ErrNotDeletable       = errors.New("cannot delete processed payments")
)

// PaymentMethod describes how a payment was made. Card details beyond the
// last four digits are never stored.
type PaymentMethod struct {
	Type           string `json:"type"`
	CardLastFour   string `json:"card_last_four,omitempty"`
	CardType       string `json:"card_type,omitempty"`
	BankName       string `json:"bank_name,omitempty"`
	WalletProvider string `json:"wallet_provider,omitempty"`
}

// Vendor identifies who was paid.
type Vendor struct {
	Name    string `json:"name"`
	Email   string `json:"email,omitempty"`
	Phone   string `json:"phone,omitempty"`
	Website string `json:"website,omitempty"`
	Type    string `json:"type,omitempty"`
}

// Payment is a financial transaction tied to a user and a trip.
type Payment struct {
	BaseModel
	UserID uuid.UUID `gorm:"type:uuid;index" json:"user_id"`
	User   *User     `json:"user,omitempty"`
	TripID uuid.UUID `gorm:"type:uuid;index" json:"trip_id"`
	Trip   *Trip     `json:"trip,omitempty"`

	Description   string        `json:"description"`
	Category      string        `gorm:"index" json:"category"`
	Amount        float64       `json:"amount"`
	Currency      string        `gorm:"default:USD" json:"currency"`
	PaymentMethod PaymentMethod `gorm:"embedded;embeddedPrefix:method_" json:"payment_method"`
	Vendor        Vendor        `gorm:"embedded;embeddedPrefix:vendor_" json:"vendor"`

	TransactionID string `gorm:"uniqueIndex" json:"transaction_id"`
	Gateway       string `gorm:"default:manual" json:"gateway"`
	Status        string `gorm:"default:pending;index" json:"status"`

	PaymentDate   time.Time  `gorm:"index" json:"payment_date"`
	DueDate       *time.Time `json:"due_date"`
	ProcessedDate *time.Time `json:"processed_date"`

	ConfirmationNumber string `json:"confirmation_number"`
	BookingReference   string `json:"booking_reference"`
	InvoiceNumber      string `json:"invoice_number"`
	Notes              string `json:"notes"`

	Taxes        []PaymentTax         `gorm:"constraint:OnDelete:CASCADE" json:"taxes,omitempty"`
	Fees         []PaymentFee         `gorm:"constraint:OnDelete:CASCADE" json:"fees,omitempty"`
	Refunds      []PaymentRefund      `gorm:"constraint:OnDelete:CASCADE" json:"refunds,omitempty"`
	Installments []PaymentInstallment `gorm:"constraint:OnDelete:CASCADE" json:"installments,omitempty"`
}

// PaymentTax is a tax line on a payment.
type PaymentTax struct {
	BaseModel
	PaymentID   uuid.UUID `gorm:"type:uuid;index" json:"payment_id"`
	Type        string    `json:"type"`
	Amount      float64   `json:"amount"`
	Rate        float64   `json:"rate"`
	Description string    `json:"description"`
}

// PaymentFee is a fee line on a payment.
type PaymentFee struct {
	BaseModel
	PaymentID   uuid.UUID `gorm:"type:uuid;index" json:"payment_id"`
	Type        string    `json:"type"`
	Amount      float64   `json:"amount"`
	Description string    `json:"description"`
}

// PaymentRefund is a refund issued against a payment.
type PaymentRefund struct {
	BaseModel
	PaymentID     uuid.UUID `gorm:"type:uuid;index" json:"payment_id"`
	Amount        float64   `json:"amount"`
	Reason        string    `json:"reason"`
	RefundDate    time.Time `json:"refund_date"`
	RefundMethod  string    `json:"refund_method"`
	TransactionID string    `json:"transaction_id"`
	ProcessedBy   string    `json:"processed_by"`
	Notes         string    `json:"notes"`
}

// PaymentInstallment is one scheduled part of a payment plan.
type PaymentInstallment struct {
	BaseModel
	PaymentID         uuid.UUID  `gorm:"type:uuid;index" json:"payment_id"`
	InstallmentNumber int        `json:"installment_number"`
	Amount            float64    `json:"amount"`
	DueDate           time.Time  `json:"due_date"`
	PaidDate          *time.Time `json:"paid_date"`
	Status            string     `gorm:"default:pending" json:"status"`
	TransactionID     string     `json:"transaction_id"`
}

// BeforeCreate assigns a transaction identifier when none was supplied.
func (p *Payment) BeforeCreate(tx *gorm.DB) error {
	if err := p.BaseModel.BeforeCreate(tx); err != nil {
		return err
	}
	if p.TransactionID == "" {
		p.TransactionID = NewTransactionID()
	}
	if p.PaymentDate.IsZero() {
		p.PaymentDate = time.Now()
	}
	return nil
}

// NewTransactionID generates a unique transaction reference.
func NewTransactionID() string {
	suffix := make([]byte, 5)
	const alphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
	for i := range suffix {
		n, err := rand.Int(rand.Reader, big.NewInt(int64(len(alphabet))))
		if err != nil {
			suffix[i] = 'X'
			continue
		}
		suffix[i] = alphabet[n.Int64()]
	}
	return fmt.Sprintf("TXN-%d-%s", time.Now().UnixMilli(), suffix)
}

// OwnerID identifies the owning user for ownership checks.
func (p *Payment) OwnerID() uuid.UUID {
	return p.UserID
}

// TotalAmount is the base amount plus all taxes and fees.
func (p *Payment) TotalAmount() float64 {
	total := p.Amount
	for _, t := range p.Taxes {
		total += t.Amount
	}
	for _, f := range p.Fees {
		total += f.Amount
	}
	return total
}

// TotalRefunded sums all refunds issued against the payment.
func (p *Payment) TotalRefunded() float64 {
	var total float64
	for _, r := range p.Refunds {
		total += r.Amount
	}
	return total
}

// NetAmount is the total amount minus cumulative refunds.
func (p *Payment) NetAmount() float64 {
	return p.TotalAmount() - p.TotalRefunded()
}

// MaxRefundable is how much can still be refunded.
func (p *Payment) MaxRefundable() float64 {
	return p.TotalAmount() - p.TotalRefunded()
}

// InstallmentProgress reports how many installments are paid. Returns ok
// false when the payment has no installment plan.
func (p *Payment) InstallmentProgress() (paid, total, percentage int, ok bool) {
	if len(p.Installments) == 0 {
		return 0, 0, 0, false
	}
	for _, inst := range p.Installments {
		if inst.Status == "paid" {
			paid++
		}
	}
	total = len(p.Installments)
	percentage = int(float64(paid)/float64(total)*100 + 0.5)
	return paid, total, percentage, true
}

// ApplyRefund validates and appends a refund, recomputing the payment
// status. The refund record is returned so callers can persist it.
func (p *Payment) ApplyRefund(amount float64, reason, method, notes, processedBy string, now time.Time) (PaymentRefund, error) {
	switch p.Status {
	case PaymentStatusCompleted, PaymentStatusPartiallyRefunded, PaymentStatusRefunded:
	default:
		return PaymentRefund{}, ErrRefundNotCompleted
	}

	max := p.MaxRefundable()
	if amount > max {
		return PaymentRefund{}, fmt.Errorf("%w: refund amount cannot exceed %g %s", ErrRefundTooLarge, max, p.Currency)
	}

	refund := PaymentRefund{
		PaymentID:    p.ID,
		Amount:       amount,
		Reason:       reason,
		RefundDate:   now,
		RefundMethod: method,
		ProcessedBy:  processedBy,
		Notes:        strings.TrimSpace(notes),
	}
	p.Refunds = append(p.Refunds, refund)

	if p.TotalRefunded() >= p.TotalAmount() {
		p.Status = PaymentStatusRefunded
	} else {
		p.Status = PaymentStatusPartiallyRefunded
	}

	return refund, nil
}

// MarkCompleted transitions the payment to completed, stamping the
// processed date once.
func (p *Payment) MarkCompleted(now time.Time) {
	p.Status = PaymentStatusCompleted
	if p.ProcessedDate == nil {
		p.ProcessedDate = &now
	}
}

// Deletable reports whether a payment may still be removed.
func (p *Payment) Deletable() bool {
	switch p.Status {
	case PaymentStatusPending, PaymentStatusFailed, PaymentStatusCancelled:
		return true
	}
	return false
}

// ValidPaymentStatus reports whether s is a known payment status.
func ValidPaymentStatus(s string) bool {
	return contains(PaymentStatuses, s)
}

// ValidPaymentCategory reports whether s is a known payment category.
func ValidPaymentCategory(s string) bool {
	return contains(PaymentCategories, s)
}

// ValidCurrency reports whether s is an accepted currency.
func ValidCurrency(s string) bool {
	return contains(PaymentCurrencies, s)
}

// ValidPaymentMethodType reports whether s is a known payment method type.
func ValidPaymentMethodType(s string) bool {
	return contains(PaymentMethodTypes, s)
}

// ValidRefundReason reports whether s is a known refund reason.
func ValidRefundReason(s string) bool {
	return contains(RefundReasons, s)
}

// ValidRefundMethod reports whether s is a known refund method.
func ValidRefundMethod(s string) bool {
	return contains(RefundMethods, s)
}
