package handlers

import (
	"errors"
	"fmt"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/example/travelbook/internal/middleware"
	"github.com/example/travelbook/internal/models"
	"github.com/example/travelbook/internal/stats"
	"github.com/example/travelbook/internal/utils"
)

// PaymentHandler manages payment endpoints.
type PaymentHandler struct {
	db *gorm.DB
}

// NewPaymentHandler constructs a PaymentHandler.
func NewPaymentHandler(db *gorm.DB) *PaymentHandler {
	return &PaymentHandler{db: db}
}

var paymentSortColumns = map[string]string{
	"paymentDate": "payment_date",
	"amount":      "amount",
	"createdAt":   "created_at",
}

// ListPayments returns the caller's payments with filters, sorting and
// pagination.
func (h *PaymentHandler) ListPayments(c *fiber.Ctx) error {
	userID, ok := middleware.CurrentUserID(c)
	if !ok {
		return fiber.NewError(fiber.StatusUnauthorized, "authentication required")
	}

	pg := utils.ParsePagination(c)
	query := h.db.Model(&models.Payment{}).Where("user_id = ?", userID)

	if status := c.Query("status"); status != "" {
		if !models.ValidPaymentStatus(status) {
			return utils.ValidationResponse(c, []utils.FieldError{{Field: "status", Message: "invalid status filter"}})
		}
		query = query.Where("status = ?", status)
	}

	if category := c.Query("category"); category != "" {
		if !models.ValidPaymentCategory(category) {
			return utils.ValidationResponse(c, []utils.FieldError{{Field: "category", Message: "invalid category filter"}})
		}
		query = query.Where("category = ?", category)
	}

	if tripID := c.Query("tripId"); tripID != "" {
		id, err := uuid.Parse(tripID)
		if err != nil {
			return utils.ValidationResponse(c, []utils.FieldError{{Field: "tripId", Message: "invalid trip id"}})
		}
		query = query.Where("trip_id = ?", id)
	}

	start, end, fieldErr := parseDateRange(c)
	if fieldErr != nil {
		return utils.ValidationResponse(c, []utils.FieldError{*fieldErr})
	}
	if start != nil {
		query = query.Where("payment_date >= ?", *start)
	}
	if end != nil {
		query = query.Where("payment_date <= ?", *end)
	}

	column, ok := paymentSortColumns[c.Query("sortBy", "paymentDate")]
	if !ok {
		column = "payment_date"
	}
	direction := "desc"
	if c.Query("sortOrder") == "asc" {
		direction = "asc"
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return err
	}

	var payments []models.Payment
	if err := query.Preload("Refunds").
		Order(column + " " + direction).
		Limit(pg.Limit).Offset(pg.Offset).
		Find(&payments).Error; err != nil {
		return err
	}

	return c.JSON(fiber.Map{
		"success":    true,
		"payments":   payments,
		"pagination": pg.Meta(total),
	})
}

// GetPayment returns the payment loaded by the ownership middleware with
// all sub-records and computed totals.
func (h *PaymentHandler) GetPayment(c *fiber.Ctx) error {
	payment, ok := middleware.Resource[*models.Payment](c)
	if !ok {
		return fiber.NewError(fiber.StatusInternalServerError, "payment not loaded")
	}

	if err := h.db.
		Preload("Taxes").
		Preload("Fees").
		Preload("Refunds").
		Preload("Installments").
		Preload("Trip").
		First(payment, "id = ?", payment.ID).Error; err != nil {
		return err
	}

	return c.JSON(fiber.Map{
		"success": true,
		"payment": payment,
		"totals":  paymentTotals(payment),
	})
}

type taxRequest struct {
	Type        string  `json:"type" validate:"required,oneof=vat sales_tax service_tax city_tax airport_tax other"`
	Amount      float64 `json:"amount" validate:"gte=0"`
	Rate        float64 `json:"rate" validate:"gte=0,lte=100"`
	Description string  `json:"description"`
}

type feeRequest struct {
	Type        string  `json:"type" validate:"required,oneof=processing_fee service_fee booking_fee cancellation_fee convenience_fee other"`
	Amount      float64 `json:"amount" validate:"gte=0"`
	Description string  `json:"description"`
}

type installmentRequest struct {
	InstallmentNumber int       `json:"installment_number" validate:"required,gte=1"`
	Amount            float64   `json:"amount" validate:"gte=0"`
	DueDate           time.Time `json:"due_date" validate:"required"`
}

type paymentMethodRequest struct {
	Type           string `json:"type" validate:"required,oneof=credit_card debit_card bank_transfer paypal cash crypto check other"`
	CardLastFour   string `json:"card_last_four" validate:"omitempty,len=4,numeric"`
	CardType       string `json:"card_type" validate:"omitempty,oneof=visa mastercard amex discover other"`
	BankName       string `json:"bank_name"`
	WalletProvider string `json:"wallet_provider"`
}

type vendorRequest struct {
	Name    string `json:"name" validate:"required,min=2"`
	Email   string `json:"email" validate:"omitempty,email"`
	Phone   string `json:"phone"`
	Website string `json:"website"`
	Type    string `json:"type" validate:"omitempty,oneof=hotel airline restaurant tour_operator transport retail service other"`
}

type createPaymentRequest struct {
	TripID        string               `json:"trip_id" validate:"required,uuid"`
	Description   string               `json:"description" validate:"required,min=3,max=200"`
	Category      string               `json:"category" validate:"required,oneof=accommodation transportation food activities shopping insurance visa miscellaneous"`
	Amount        float64              `json:"amount" validate:"gte=0"`
	Currency      string               `json:"currency" validate:"omitempty,oneof=USD EUR GBP INR CAD AUD JPY CHF CNY KRW"`
	PaymentMethod paymentMethodRequest `json:"payment_method" validate:"required"`
	Vendor        vendorRequest        `json:"vendor" validate:"required"`
	Status        string               `json:"status" validate:"omitempty,oneof=pending processing completed failed cancelled"`
	PaymentDate   *time.Time           `json:"payment_date"`
	DueDate       *time.Time           `json:"due_date"`
	Notes         string               `json:"notes" validate:"max=500"`
	Taxes         []taxRequest         `json:"taxes" validate:"dive"`
	Fees          []feeRequest         `json:"fees" validate:"dive"`
	Installments  []installmentRequest `json:"installments" validate:"dive"`
}

// CreatePayment records a payment against one of the caller's trips.
func (h *PaymentHandler) CreatePayment(c *fiber.Ctx) error {
	userID, ok := middleware.CurrentUserID(c)
	if !ok {
		return fiber.NewError(fiber.StatusUnauthorized, "authentication required")
	}

	var req createPaymentRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}

	if fieldErrors := utils.ValidateStruct(req); fieldErrors != nil {
		return utils.ValidationResponse(c, fieldErrors)
	}

	payment, err := h.buildPayment(c, userID, req)
	if err != nil {
		return err
	}

	if err := h.db.Create(payment).Error; err != nil {
		return err
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"success": true,
		"message": "payment created successfully",
		"payment": payment,
		"totals":  paymentTotals(payment),
	})
}

// buildPayment verifies trip ownership and assembles the payment record.
func (h *PaymentHandler) buildPayment(c *fiber.Ctx, userID uuid.UUID, req createPaymentRequest) (*models.Payment, error) {
	tripID, err := uuid.Parse(req.TripID)
	if err != nil {
		return nil, fiber.NewError(fiber.StatusBadRequest, "invalid trip id")
	}

	var trip models.Trip
	err = h.db.WithContext(c.Context()).
		First(&trip, "id = ? AND user_id = ?", tripID, userID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fiber.NewError(fiber.StatusNotFound, "trip not found or access denied")
		}
		return nil, err
	}

	payment := &models.Payment{
		UserID:      userID,
		TripID:      trip.ID,
		Description: req.Description,
		Category:    req.Category,
		Amount:      req.Amount,
		Currency:    req.Currency,
		PaymentMethod: models.PaymentMethod{
			Type:           req.PaymentMethod.Type,
			CardLastFour:   req.PaymentMethod.CardLastFour,
			CardType:       req.PaymentMethod.CardType,
			BankName:       req.PaymentMethod.BankName,
			WalletProvider: req.PaymentMethod.WalletProvider,
		},
		Vendor: models.Vendor{
			Name:    req.Vendor.Name,
			Email:   req.Vendor.Email,
			Phone:   req.Vendor.Phone,
			Website: req.Vendor.Website,
			Type:    req.Vendor.Type,
		},
		Status:  models.PaymentStatusPending,
		DueDate: req.DueDate,
		Notes:   req.Notes,
	}

	if payment.Currency == "" {
		payment.Currency = "USD"
	}
	if req.PaymentDate != nil {
		payment.PaymentDate = *req.PaymentDate
	}

	for _, t := range req.Taxes {
		payment.Taxes = append(payment.Taxes, models.PaymentTax{
			Type: t.Type, Amount: t.Amount, Rate: t.Rate, Description: t.Description,
		})
	}
	for _, f := range req.Fees {
		payment.Fees = append(payment.Fees, models.PaymentFee{
			Type: f.Type, Amount: f.Amount, Description: f.Description,
		})
	}
	for _, inst := range req.Installments {
		payment.Installments = append(payment.Installments, models.PaymentInstallment{
			InstallmentNumber: inst.InstallmentNumber,
			Amount:            inst.Amount,
			DueDate:           inst.DueDate,
			Status:            "pending",
		})
	}

	if req.Status == models.PaymentStatusCompleted {
		payment.MarkCompleted(time.Now())
	} else if req.Status != "" {
		payment.Status = req.Status
	}

	return payment, nil
}

type updatePaymentRequest struct {
	Description *string    `json:"description" validate:"omitempty,min=3,max=200"`
	Amount      *float64   `json:"amount" validate:"omitempty,gte=0"`
	Status      *string    `json:"status" validate:"omitempty,oneof=pending processing completed failed cancelled"`
	PaymentDate *time.Time `json:"payment_date"`
	DueDate     *time.Time `json:"due_date"`
	Notes       *string    `json:"notes" validate:"omitempty,max=500"`
}

// UpdatePayment applies changes to an owned payment. The amount becomes
// immutable once the payment is completed.
func (h *PaymentHandler) UpdatePayment(c *fiber.Ctx) error {
	payment, ok := middleware.Resource[*models.Payment](c)
	if !ok {
		return fiber.NewError(fiber.StatusInternalServerError, "payment not loaded")
	}

	var req updatePaymentRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}

	if fieldErrors := utils.ValidateStruct(req); fieldErrors != nil {
		return utils.ValidationResponse(c, fieldErrors)
	}

	if req.Amount != nil && payment.Status == models.PaymentStatusCompleted {
		return fiber.NewError(fiber.StatusBadRequest, models.ErrAmountImmutable.Error())
	}

	if req.Description != nil {
		payment.Description = *req.Description
	}
	if req.Amount != nil {
		payment.Amount = *req.Amount
	}
	if req.PaymentDate != nil {
		payment.PaymentDate = *req.PaymentDate
	}
	if req.DueDate != nil {
		payment.DueDate = req.DueDate
	}
	if req.Notes != nil {
		payment.Notes = *req.Notes
	}
	if req.Status != nil && *req.Status != payment.Status {
		if *req.Status == models.PaymentStatusCompleted {
			payment.MarkCompleted(time.Now())
		} else {
			payment.Status = *req.Status
		}
	}

	if err := h.db.Save(payment).Error; err != nil {
		return err
	}

	return c.JSON(fiber.Map{
		"success": true,
		"message": "payment updated successfully",
		"payment": payment,
		"totals":  paymentTotals(payment),
	})
}

// DeletePayment removes a payment that has not been processed.
func (h *PaymentHandler) DeletePayment(c *fiber.Ctx) error {
	payment, ok := middleware.Resource[*models.Payment](c)
	if !ok {
		return fiber.NewError(fiber.StatusInternalServerError, "payment not loaded")
	}

	if !payment.Deletable() {
		return fiber.NewError(fiber.StatusBadRequest, models.ErrNotDeletable.Error())
	}

	if err := h.db.Select("Taxes", "Fees", "Refunds", "Installments").
		Delete(payment).Error; err != nil {
		return err
	}

	return c.JSON(fiber.Map{"success": true, "message": "payment deleted successfully"})
}

type refundRequest struct {
	Amount       float64 `json:"amount" validate:"required,gt=0"`
	Reason       string  `json:"reason" validate:"required,oneof=cancellation no_show service_issue duplicate_charge fraud other"`
	RefundMethod string  `json:"refund_method" validate:"required,oneof=original_payment_method bank_transfer check store_credit other"`
	Notes        string  `json:"notes" validate:"max=500"`
}

// RefundPayment appends a refund to an owned payment. The payment row is
// locked for the duration of the transaction so concurrent refunds
// serialize and cannot overdraw the refundable balance.
func (h *PaymentHandler) RefundPayment(c *fiber.Ctx) error {
	resource, ok := middleware.Resource[*models.Payment](c)
	if !ok {
		return fiber.NewError(fiber.StatusInternalServerError, "payment not loaded")
	}

	user, _ := middleware.CurrentUser(c)

	var req refundRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}

	if fieldErrors := utils.ValidateStruct(req); fieldErrors != nil {
		return utils.ValidationResponse(c, fieldErrors)
	}

	processedBy := ""
	if user != nil {
		processedBy = user.Email
	}

	var payment models.Payment
	err := h.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			First(&payment, "id = ?", resource.ID).Error; err != nil {
			return err
		}

		if err := tx.Model(&payment).Association("Taxes").Find(&payment.Taxes); err != nil {
			return err
		}
		if err := tx.Model(&payment).Association("Fees").Find(&payment.Fees); err != nil {
			return err
		}
		if err := tx.Model(&payment).Association("Refunds").Find(&payment.Refunds); err != nil {
			return err
		}

		refund, err := payment.ApplyRefund(req.Amount, req.Reason, req.RefundMethod, req.Notes, processedBy, time.Now())
		if err != nil {
			return err
		}

		if err := tx.Create(&refund).Error; err != nil {
			return err
		}

		return tx.Model(&payment).Update("status", payment.Status).Error
	})
	if err != nil {
		if errors.Is(err, models.ErrRefundNotCompleted) {
			return fiber.NewError(fiber.StatusBadRequest, models.ErrRefundNotCompleted.Error())
		}
		if errors.Is(err, models.ErrRefundTooLarge) {
			return fiber.NewError(fiber.StatusBadRequest, refundCapMessage(err))
		}
		return err
	}

	return c.JSON(fiber.Map{
		"success": true,
		"message": "refund processed successfully",
		"payment": payment,
		"totals":  paymentTotals(&payment),
	})
}

// PaymentStatsOverview aggregates the caller's completed payments.
func (h *PaymentHandler) PaymentStatsOverview(c *fiber.Ctx) error {
	userID, ok := middleware.CurrentUserID(c)
	if !ok {
		return fiber.NewError(fiber.StatusUnauthorized, "authentication required")
	}

	start, end, fieldErr := parseDateRange(c)
	if fieldErr != nil {
		return utils.ValidationResponse(c, []utils.FieldError{*fieldErr})
	}

	var payments []models.Payment
	if err := h.db.Preload("Refunds").
		Where("user_id = ?", userID).
		Find(&payments).Error; err != nil {
		return err
	}

	filtered := stats.FilterByDateRange(payments, start, end)

	return c.JSON(fiber.Map{
		"success":              true,
		"overview":             stats.Overall(filtered),
		"payments_by_category": stats.ByCategory(filtered),
		"spending_trends":      stats.MonthlyTrend(payments, 6, time.Now()),
		"payment_methods":      stats.ByMethod(filtered),
	})
}

// TripPayments lists all payments of one owned trip plus its spending
// summary against the trip budget.
func (h *PaymentHandler) TripPayments(c *fiber.Ctx) error {
	userID, ok := middleware.CurrentUserID(c)
	if !ok {
		return fiber.NewError(fiber.StatusUnauthorized, "authentication required")
	}

	tripID, err := uuid.Parse(c.Params("tripId"))
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid trip id")
	}

	var trip models.Trip
	if err := h.db.First(&trip, "id = ? AND user_id = ?", tripID, userID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fiber.NewError(fiber.StatusNotFound, "trip not found or access denied")
		}
		return err
	}

	var payments []models.Payment
	if err := h.db.Preload("Refunds").Preload("Taxes").Preload("Fees").
		Where("trip_id = ? AND user_id = ?", tripID, userID).
		Order("payment_date desc").
		Find(&payments).Error; err != nil {
		return err
	}

	// Net spend counts completed payments minus their refunds.
	var totalSpent float64
	for i := range payments {
		if payments[i].Status == models.PaymentStatusCompleted ||
			payments[i].Status == models.PaymentStatusPartiallyRefunded ||
			payments[i].Status == models.PaymentStatusRefunded {
			totalSpent += payments[i].Amount - payments[i].TotalRefunded()
		}
	}

	return c.JSON(fiber.Map{
		"success":     true,
		"payments":    payments,
		"summary":     stats.ByCategory(payments),
		"total_spent": totalSpent,
		"trip": fiber.Map{
			"title":     trip.Title,
			"budget":    trip.Budget.TotalBudget,
			"remaining": trip.Budget.TotalBudget - totalSpent,
		},
	})
}

type bulkPaymentsRequest struct {
	Payments []createPaymentRequest `json:"payments" validate:"required,min=1,max=10"`
}

type bulkItemError struct {
	Index int    `json:"index"`
	Error string `json:"error"`
}

// BulkCreatePayments creates up to ten payments in one call, collecting
// per-item errors without aborting the batch.
func (h *PaymentHandler) BulkCreatePayments(c *fiber.Ctx) error {
	userID, ok := middleware.CurrentUserID(c)
	if !ok {
		return fiber.NewError(fiber.StatusUnauthorized, "authentication required")
	}

	var req bulkPaymentsRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}

	if fieldErrors := utils.ValidateStruct(req); fieldErrors != nil {
		return utils.ValidationResponse(c, fieldErrors)
	}

	created := make([]*models.Payment, 0, len(req.Payments))
	itemErrors := make([]bulkItemError, 0)

	for i, item := range req.Payments {
		if fieldErrors := utils.ValidateStruct(item); fieldErrors != nil {
			itemErrors = append(itemErrors, bulkItemError{
				Index: i,
				Error: fmt.Sprintf("%s %s", fieldErrors[0].Field, fieldErrors[0].Message),
			})
			continue
		}

		payment, err := h.buildPayment(c, userID, item)
		if err != nil {
			var fiberErr *fiber.Error
			if errors.As(err, &fiberErr) {
				itemErrors = append(itemErrors, bulkItemError{Index: i, Error: fiberErr.Message})
				continue
			}
			return err
		}

		if err := h.db.Create(payment).Error; err != nil {
			itemErrors = append(itemErrors, bulkItemError{Index: i, Error: "failed to create payment"})
			continue
		}
		created = append(created, payment)
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"success":  true,
		"message":  fmt.Sprintf("%d payments created successfully", len(created)),
		"payments": created,
		"errors":   itemErrors,
	})
}

// paymentTotals exposes the computed financial fields alongside the raw
// record.
func paymentTotals(p *models.Payment) fiber.Map {
	return fiber.Map{
		"total_amount":   p.TotalAmount(),
		"total_refunded": p.TotalRefunded(),
		"net_amount":     p.NetAmount(),
	}
}

// refundCapMessage strips the sentinel prefix, leaving the caller-facing
// message with the exact refundable maximum.
func refundCapMessage(err error) string {
	msg := err.Error()
	prefix := models.ErrRefundTooLarge.Error() + ": "
	if len(msg) > len(prefix) {
		return msg[len(prefix):]
	}
	return msg
}

// parseDateRange reads optional startDate/endDate query params in
// RFC 3339 or YYYY-MM-DD form.
func parseDateRange(c *fiber.Ctx) (*time.Time, *time.Time, *utils.FieldError) {
	parse := func(field, value string) (*time.Time, *utils.FieldError) {
		if value == "" {
			return nil, nil
		}
		for _, layout := range []string{time.RFC3339, "2006-01-02"} {
			if t, err := time.Parse(layout, value); err == nil {
				return &t, nil
			}
		}
		return nil, &utils.FieldError{Field: field, Message: "invalid date format"}
	}

	start, fieldErr := parse("startDate", c.Query("startDate"))
	if fieldErr != nil {
		return nil, nil, fieldErr
	}
	end, fieldErr := parse("endDate", c.Query("endDate"))
	if fieldErr != nil {
		return nil, nil, fieldErr
	}
	return start, end, nil
}
