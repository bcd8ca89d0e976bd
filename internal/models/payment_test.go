package models

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func completedPayment(amount float64) *Payment {
	p := &Payment{
		Amount:   amount,
		Currency: "USD",
	}
	p.MarkCompleted(time.Now())
	return p
}

func TestPaymentTotalAmount(t *testing.T) {
	p := &Payment{Amount: 100}
	p.Taxes = []PaymentTax{{Amount: 8.5}, {Amount: 1.5}}
	p.Fees = []PaymentFee{{Amount: 5}}

	assert.Equal(t, 115.0, p.TotalAmount())
	assert.Equal(t, 115.0, p.NetAmount())
	assert.Equal(t, 0.0, p.TotalRefunded())
}

func TestPaymentRefundLifecycle(t *testing.T) {
	now := time.Now()
	p := completedPayment(200)

	refund, err := p.ApplyRefund(50, "service_issue", "original_payment_method", "", "owner@example.com", now)
	require.NoError(t, err)
	assert.Equal(t, 50.0, refund.Amount)
	assert.Equal(t, PaymentStatusPartiallyRefunded, p.Status)
	assert.Equal(t, 150.0, p.NetAmount())

	_, err = p.ApplyRefund(150, "cancellation", "bank_transfer", "", "owner@example.com", now)
	require.NoError(t, err)
	assert.Equal(t, PaymentStatusRefunded, p.Status)
	assert.Equal(t, 0.0, p.NetAmount())

	// A fully refunded payment has nothing left to give back.
	_, err = p.ApplyRefund(1, "other", "other", "", "owner@example.com", now)
	assert.ErrorIs(t, err, ErrRefundTooLarge)
	assert.Equal(t, 0.0, p.NetAmount())
}

func TestPaymentRefundCapIncludesTaxesAndFees(t *testing.T) {
	p := completedPayment(100)
	p.Taxes = []PaymentTax{{Amount: 10}}
	p.Fees = []PaymentFee{{Amount: 5}}

	_, err := p.ApplyRefund(116, "cancellation", "check", "", "", time.Now())
	assert.ErrorIs(t, err, ErrRefundTooLarge)
	assert.Contains(t, err.Error(), "115 USD")

	_, err = p.ApplyRefund(115, "cancellation", "check", "", "", time.Now())
	require.NoError(t, err)
	assert.Equal(t, PaymentStatusRefunded, p.Status)
}

func TestPaymentRefundRequiresCompletion(t *testing.T) {
	for _, status := range []string{
		PaymentStatusPending, PaymentStatusProcessing,
		PaymentStatusFailed, PaymentStatusCancelled,
	} {
		p := &Payment{Amount: 100, Status: status}
		_, err := p.ApplyRefund(10, "other", "other", "", "", time.Now())
		assert.ErrorIs(t, err, ErrRefundNotCompleted, "status %s", status)
	}
}

func TestPaymentRefundTrimsNotes(t *testing.T) {
	p := completedPayment(100)
	refund, err := p.ApplyRefund(10, "other", "other", "  guest complaint  ", "", time.Now())
	require.NoError(t, err)
	assert.Equal(t, "guest complaint", refund.Notes)
}

func TestPaymentDeletable(t *testing.T) {
	deletable := []string{PaymentStatusPending, PaymentStatusFailed, PaymentStatusCancelled}
	for _, status := range deletable {
		p := &Payment{Status: status}
		assert.True(t, p.Deletable(), "status %s", status)
	}

	locked := []string{
		PaymentStatusProcessing, PaymentStatusCompleted,
		PaymentStatusRefunded, PaymentStatusPartiallyRefunded,
	}
	for _, status := range locked {
		p := &Payment{Status: status}
		assert.False(t, p.Deletable(), "status %s", status)
	}
}

func TestMarkCompletedStampsProcessedDateOnce(t *testing.T) {
	first := time.Date(2026, 1, 10, 12, 0, 0, 0, time.UTC)
	later := first.Add(48 * time.Hour)

	p := &Payment{Amount: 10}
	p.MarkCompleted(first)
	require.NotNil(t, p.ProcessedDate)
	assert.Equal(t, first, *p.ProcessedDate)

	p.MarkCompleted(later)
	assert.Equal(t, first, *p.ProcessedDate)
}

func TestInstallmentProgress(t *testing.T) {
	p := &Payment{}
	_, _, _, ok := p.InstallmentProgress()
	assert.False(t, ok)

	p.Installments = []PaymentInstallment{
		{InstallmentNumber: 1, Status: "paid"},
		{InstallmentNumber: 2, Status: "paid"},
		{InstallmentNumber: 3, Status: "pending"},
	}
	paid, total, percentage, ok := p.InstallmentProgress()
	require.True(t, ok)
	assert.Equal(t, 2, paid)
	assert.Equal(t, 3, total)
	assert.Equal(t, 67, percentage)
}

func TestNewTransactionIDFormat(t *testing.T) {
	id := NewTransactionID()
	parts := strings.SplitN(id, "-", 3)
	require.Len(t, parts, 3)
	assert.Equal(t, "TXN", parts[0])
	assert.Len(t, parts[2], 5)

	assert.NotEqual(t, id, NewTransactionID())
}

func TestRefundErrorsAreDistinct(t *testing.T) {
	assert.False(t, errors.Is(ErrRefundTooLarge, ErrRefundNotCompleted))
}
