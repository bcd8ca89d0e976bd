package handlers

import (
	"encoding/json"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/example/travelbook/internal/middleware"
	"github.com/example/travelbook/internal/models"
	"github.com/example/travelbook/internal/stats"
	"github.com/example/travelbook/internal/utils"
)

// TripHandler manages trip endpoints.
type TripHandler struct {
	db *gorm.DB
}

// NewTripHandler constructs a TripHandler.
func NewTripHandler(db *gorm.DB) *TripHandler {
	return &TripHandler{db: db}
}

var tripSortColumns = map[string]string{
	"startDate": "start_date",
	"endDate":   "end_date",
	"createdAt": "created_at",
	"title":     "title",
}

// ListTrips returns the caller's trips with filters, sorting and
// pagination.
func (h *TripHandler) ListTrips(c *fiber.Ctx) error {
	userID, ok := middleware.CurrentUserID(c)
	if !ok {
		return fiber.NewError(fiber.StatusUnauthorized, "authentication required")
	}

	pg := utils.ParsePagination(c)
	query := h.db.Model(&models.Trip{}).Where("user_id = ?", userID)

	if status := c.Query("status"); status != "" {
		if !models.ValidTripStatus(status) {
			return utils.ValidationResponse(c, []utils.FieldError{{Field: "status", Message: "invalid status filter"}})
		}
		query = query.Where("status = ?", status)
	}

	if tripType := c.Query("tripType"); tripType != "" {
		if !models.ValidTripType(tripType) {
			return utils.ValidationResponse(c, []utils.FieldError{{Field: "tripType", Message: "invalid trip type filter"}})
		}
		query = query.Where("trip_type = ?", tripType)
	}

	column, ok := tripSortColumns[c.Query("sortBy", "startDate")]
	if !ok {
		column = "start_date"
	}
	direction := "desc"
	if c.Query("sortOrder") == "asc" {
		direction = "asc"
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return err
	}

	var trips []models.Trip
	if err := query.Order(column + " " + direction).
		Limit(pg.Limit).Offset(pg.Offset).
		Find(&trips).Error; err != nil {
		return err
	}

	return c.JSON(fiber.Map{
		"success":    true,
		"trips":      trips,
		"pagination": pg.Meta(total),
	})
}

// GetTrip returns the trip loaded by the ownership middleware, with all
// sub-resources attached.
func (h *TripHandler) GetTrip(c *fiber.Ctx) error {
	trip, ok := middleware.Resource[*models.Trip](c)
	if !ok {
		return fiber.NewError(fiber.StatusInternalServerError, "trip not loaded")
	}

	if err := h.db.
		Preload("Travelers").
		Preload("Itinerary").
		Preload("Accommodations").
		Preload("Transportation").
		First(trip, "id = ?", trip.ID).Error; err != nil {
		return err
	}

	return c.JSON(fiber.Map{"success": true, "trip": trip})
}

type budgetRequest struct {
	TotalBudget float64 `json:"total_budget" validate:"gte=0"`
	Currency    string  `json:"currency"`

	AllocatedAccommodation  float64 `json:"allocated_accommodation" validate:"gte=0"`
	AllocatedTransportation float64 `json:"allocated_transportation" validate:"gte=0"`
	AllocatedFood           float64 `json:"allocated_food" validate:"gte=0"`
	AllocatedActivities     float64 `json:"allocated_activities" validate:"gte=0"`
	AllocatedShopping       float64 `json:"allocated_shopping" validate:"gte=0"`
	AllocatedMiscellaneous  float64 `json:"allocated_miscellaneous" validate:"gte=0"`
}

type createTripRequest struct {
	Title       string        `json:"title" validate:"required,min=3,max=100"`
	Description string        `json:"description" validate:"max=1000"`
	Country     string        `json:"country" validate:"required,min=2"`
	City        string        `json:"city" validate:"required,min=2"`
	Region      string        `json:"region"`
	StartDate   time.Time     `json:"start_date" validate:"required"`
	EndDate     time.Time     `json:"end_date" validate:"required"`
	TripType    string        `json:"trip_type" validate:"required,oneof=leisure business adventure family romantic solo group"`
	Budget      budgetRequest `json:"budget"`
	Notes       string        `json:"notes"`
}

// CreateTrip creates a new trip for the caller.
func (h *TripHandler) CreateTrip(c *fiber.Ctx) error {
	userID, ok := middleware.CurrentUserID(c)
	if !ok {
		return fiber.NewError(fiber.StatusUnauthorized, "authentication required")
	}

	var req createTripRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}

	if fieldErrors := utils.ValidateStruct(req); fieldErrors != nil {
		return utils.ValidationResponse(c, fieldErrors)
	}

	trip := models.Trip{
		UserID:      userID,
		Title:       req.Title,
		Description: req.Description,
		Destination: models.Destination{
			Country: req.Country,
			City:    req.City,
			Region:  req.Region,
		},
		StartDate: req.StartDate,
		EndDate:   req.EndDate,
		Status:    models.TripStatusDraft,
		TripType:  req.TripType,
		Notes:     req.Notes,
		Budget: models.Budget{
			TotalBudget:             req.Budget.TotalBudget,
			Currency:                req.Budget.Currency,
			AllocatedAccommodation:  req.Budget.AllocatedAccommodation,
			AllocatedTransportation: req.Budget.AllocatedTransportation,
			AllocatedFood:           req.Budget.AllocatedFood,
			AllocatedActivities:     req.Budget.AllocatedActivities,
			AllocatedShopping:       req.Budget.AllocatedShopping,
			AllocatedMiscellaneous:  req.Budget.AllocatedMiscellaneous,
		},
	}

	if trip.Budget.Currency == "" {
		trip.Budget.Currency = "USD"
	}

	if err := trip.ValidateDates(time.Now()); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	}

	if err := h.db.Create(&trip).Error; err != nil {
		return err
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"success": true,
		"message": "trip created successfully",
		"trip":    trip,
	})
}

type updateTripRequest struct {
	Title       *string        `json:"title" validate:"omitempty,min=3,max=100"`
	Description *string        `json:"description" validate:"omitempty,max=1000"`
	StartDate   *time.Time     `json:"start_date"`
	EndDate     *time.Time     `json:"end_date"`
	Status      *string        `json:"status" validate:"omitempty,oneof=draft planned booked in_progress completed cancelled"`
	TripType    *string        `json:"trip_type" validate:"omitempty,oneof=leisure business adventure family romantic solo group"`
	Budget      *budgetRequest `json:"budget"`
	Notes       *string        `json:"notes"`
}

// UpdateTrip applies changes to an owned trip, rechecking date
// invariants against the stored values.
func (h *TripHandler) UpdateTrip(c *fiber.Ctx) error {
	trip, ok := middleware.Resource[*models.Trip](c)
	if !ok {
		return fiber.NewError(fiber.StatusInternalServerError, "trip not loaded")
	}

	var req updateTripRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}

	if fieldErrors := utils.ValidateStruct(req); fieldErrors != nil {
		return utils.ValidationResponse(c, fieldErrors)
	}

	if req.StartDate != nil || req.EndDate != nil {
		start := trip.StartDate
		end := trip.EndDate
		if req.StartDate != nil {
			start = *req.StartDate
		}
		if req.EndDate != nil {
			end = *req.EndDate
		}
		if !end.After(start) {
			return fiber.NewError(fiber.StatusBadRequest, models.ErrEndBeforeStart.Error())
		}
		trip.StartDate = start
		trip.EndDate = end
	}

	if req.Title != nil {
		trip.Title = *req.Title
	}
	if req.Description != nil {
		trip.Description = *req.Description
	}
	if req.Status != nil {
		trip.Status = *req.Status
	}
	if req.TripType != nil {
		trip.TripType = *req.TripType
	}
	if req.Notes != nil {
		trip.Notes = *req.Notes
	}
	if req.Budget != nil {
		currency := req.Budget.Currency
		if currency == "" {
			currency = trip.Budget.Currency
		}
		trip.Budget = models.Budget{
			TotalBudget:             req.Budget.TotalBudget,
			Currency:                currency,
			AllocatedAccommodation:  req.Budget.AllocatedAccommodation,
			AllocatedTransportation: req.Budget.AllocatedTransportation,
			AllocatedFood:           req.Budget.AllocatedFood,
			AllocatedActivities:     req.Budget.AllocatedActivities,
			AllocatedShopping:       req.Budget.AllocatedShopping,
			AllocatedMiscellaneous:  req.Budget.AllocatedMiscellaneous,
			SpentAccommodation:      trip.Budget.SpentAccommodation,
			SpentTransportation:     trip.Budget.SpentTransportation,
			SpentFood:               trip.Budget.SpentFood,
			SpentActivities:         trip.Budget.SpentActivities,
			SpentShopping:           trip.Budget.SpentShopping,
			SpentMiscellaneous:      trip.Budget.SpentMiscellaneous,
		}
	}

	if err := h.db.Save(trip).Error; err != nil {
		return err
	}

	return c.JSON(fiber.Map{
		"success": true,
		"message": "trip updated successfully",
		"trip":    trip,
	})
}

// DeleteTrip removes an owned trip and its sub-resources.
func (h *TripHandler) DeleteTrip(c *fiber.Ctx) error {
	trip, ok := middleware.Resource[*models.Trip](c)
	if !ok {
		return fiber.NewError(fiber.StatusInternalServerError, "trip not loaded")
	}

	if err := h.db.Select("Travelers", "Itinerary", "Accommodations", "Transportation").
		Delete(trip).Error; err != nil {
		return err
	}

	return c.JSON(fiber.Map{"success": true, "message": "trip deleted successfully"})
}

type travelerRequest struct {
	FirstName    string     `json:"first_name" validate:"required,min=2"`
	LastName     string     `json:"last_name" validate:"required,min=2"`
	DateOfBirth  *time.Time `json:"date_of_birth"`
	Gender       string     `json:"gender" validate:"required,oneof=male female other prefer_not_to_say"`
	Nationality  string     `json:"nationality" validate:"required,min=2"`
	Relationship string     `json:"relationship" validate:"omitempty,oneof=self spouse child parent sibling friend colleague"`
}

type addTravelersRequest struct {
	Travelers []travelerRequest `json:"travelers" validate:"required,min=1,dive"`
}

// AddTravelers appends travelers to an owned trip.
func (h *TripHandler) AddTravelers(c *fiber.Ctx) error {
	trip, ok := middleware.Resource[*models.Trip](c)
	if !ok {
		return fiber.NewError(fiber.StatusInternalServerError, "trip not loaded")
	}

	var req addTravelersRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}

	if fieldErrors := utils.ValidateStruct(req); fieldErrors != nil {
		return utils.ValidationResponse(c, fieldErrors)
	}

	travelers := make([]models.TripTraveler, 0, len(req.Travelers))
	for _, t := range req.Travelers {
		relationship := t.Relationship
		if relationship == "" {
			relationship = "self"
		}
		travelers = append(travelers, models.TripTraveler{
			TripID:       trip.ID,
			FirstName:    t.FirstName,
			LastName:     t.LastName,
			DateOfBirth:  t.DateOfBirth,
			Gender:       t.Gender,
			Nationality:  t.Nationality,
			Relationship: relationship,
		})
	}

	if err := h.db.Create(&travelers).Error; err != nil {
		return err
	}

	trip.Travelers = append(trip.Travelers, travelers...)

	return c.JSON(fiber.Map{
		"success": true,
		"message": "travelers added successfully",
		"trip":    trip,
	})
}

type accommodationRequest struct {
	Name               string    `json:"name" validate:"required,min=2"`
	Type               string    `json:"type" validate:"required,oneof=hotel hostel apartment resort bed_and_breakfast vacation_rental camping"`
	Address            string    `json:"address"`
	CheckIn            time.Time `json:"check_in" validate:"required"`
	CheckOut           time.Time `json:"check_out" validate:"required"`
	RoomType           string    `json:"room_type"`
	NumberOfRooms      int       `json:"number_of_rooms" validate:"omitempty,gte=1"`
	Guests             int       `json:"guests" validate:"gte=1"`
	CostAmount         float64   `json:"cost_amount" validate:"gte=0"`
	CostCurrency       string    `json:"cost_currency"`
	BookingStatus      string    `json:"booking_status" validate:"omitempty,oneof=not_booked pending confirmed cancelled"`
	ConfirmationNumber string    `json:"confirmation_number"`
	Notes              string    `json:"notes"`
}

type updateAccommodationsRequest struct {
	Accommodations []accommodationRequest `json:"accommodations" validate:"required,dive"`
}

// UpdateAccommodations replaces the trip's accommodation list after
// checking every entry against the trip date range.
func (h *TripHandler) UpdateAccommodations(c *fiber.Ctx) error {
	trip, ok := middleware.Resource[*models.Trip](c)
	if !ok {
		return fiber.NewError(fiber.StatusInternalServerError, "trip not loaded")
	}

	var req updateAccommodationsRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}

	if fieldErrors := utils.ValidateStruct(req); fieldErrors != nil {
		return utils.ValidationResponse(c, fieldErrors)
	}

	accommodations := make([]models.Accommodation, 0, len(req.Accommodations))
	for _, a := range req.Accommodations {
		accommodation := models.Accommodation{
			TripID:             trip.ID,
			Name:               a.Name,
			Type:               a.Type,
			Address:            a.Address,
			CheckIn:            a.CheckIn,
			CheckOut:           a.CheckOut,
			RoomType:           a.RoomType,
			NumberOfRooms:      a.NumberOfRooms,
			Guests:             a.Guests,
			CostAmount:         a.CostAmount,
			CostCurrency:       a.CostCurrency,
			BookingStatus:      a.BookingStatus,
			ConfirmationNumber: a.ConfirmationNumber,
			Notes:              a.Notes,
		}
		if accommodation.NumberOfRooms == 0 {
			accommodation.NumberOfRooms = 1
		}
		if accommodation.CostCurrency == "" {
			accommodation.CostCurrency = "USD"
		}
		if accommodation.BookingStatus == "" {
			accommodation.BookingStatus = "not_booked"
		}

		if err := trip.ValidateAccommodation(accommodation); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}
		accommodations = append(accommodations, accommodation)
	}

	err := h.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("trip_id = ?", trip.ID).Delete(&models.Accommodation{}).Error; err != nil {
			return err
		}
		if len(accommodations) == 0 {
			return nil
		}
		return tx.Create(&accommodations).Error
	})
	if err != nil {
		return err
	}

	trip.Accommodations = accommodations

	return c.JSON(fiber.Map{
		"success": true,
		"message": "accommodations updated successfully",
		"trip":    trip,
	})
}

type itineraryDayRequest struct {
	Day        int             `json:"day" validate:"required,gte=1"`
	Date       time.Time       `json:"date" validate:"required"`
	Activities json.RawMessage `json:"activities"`
	Notes      string          `json:"notes"`
}

type updateItineraryRequest struct {
	Itinerary []itineraryDayRequest `json:"itinerary" validate:"required,dive"`
}

// UpdateItinerary replaces the trip's day-by-day plan after checking
// every day's date against the trip range.
func (h *TripHandler) UpdateItinerary(c *fiber.Ctx) error {
	trip, ok := middleware.Resource[*models.Trip](c)
	if !ok {
		return fiber.NewError(fiber.StatusInternalServerError, "trip not loaded")
	}

	var req updateItineraryRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}

	if fieldErrors := utils.ValidateStruct(req); fieldErrors != nil {
		return utils.ValidationResponse(c, fieldErrors)
	}

	days := make([]models.ItineraryDay, 0, len(req.Itinerary))
	for _, d := range req.Itinerary {
		day := models.ItineraryDay{
			TripID:     trip.ID,
			Day:        d.Day,
			Date:       d.Date,
			Activities: []byte(d.Activities),
			Notes:      d.Notes,
		}
		if err := trip.ValidateItineraryDay(day); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}
		days = append(days, day)
	}

	err := h.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("trip_id = ?", trip.ID).Delete(&models.ItineraryDay{}).Error; err != nil {
			return err
		}
		if len(days) == 0 {
			return nil
		}
		return tx.Create(&days).Error
	})
	if err != nil {
		return err
	}

	trip.Itinerary = days

	return c.JSON(fiber.Map{
		"success": true,
		"message": "itinerary updated successfully",
		"trip":    trip,
	})
}

// TripStatsOverview aggregates the caller's trips.
func (h *TripHandler) TripStatsOverview(c *fiber.Ctx) error {
	userID, ok := middleware.CurrentUserID(c)
	if !ok {
		return fiber.NewError(fiber.StatusUnauthorized, "authentication required")
	}

	var trips []models.Trip
	if err := h.db.Where("user_id = ?", userID).Find(&trips).Error; err != nil {
		return err
	}

	overview, byStatus, byType := stats.TripStats(trips, time.Now())

	return c.JSON(fiber.Map{
		"success":         true,
		"stats":           overview,
		"trips_by_status": byStatus,
		"trips_by_type":   byType,
	})
}

// CustomerTrips lists all trips of one customer. Role gating happens at
// the route.
func (h *TripHandler) CustomerTrips(c *fiber.Ctx) error {
	customerID, err := uuid.Parse(c.Params("customerId"))
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid customer id")
	}

	var trips []models.Trip
	if err := h.db.Where("user_id = ?", customerID).
		Order("created_at desc").
		Find(&trips).Error; err != nil {
		return err
	}

	return c.JSON(fiber.Map{"success": true, "trips": trips})
}
