package models

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Trip statuses.
const (
	TripStatusDraft      = "draft"
	TripStatusPlanned    = "planned"
	TripStatusBooked     = "booked"
	TripStatusInProgress = "in_progress"
	TripStatusCompleted  = "completed"
	TripStatusCancelled  = "cancelled"
)

// TripStatuses lists all valid trip statuses.
var TripStatuses = []string{
	TripStatusDraft, TripStatusPlanned, TripStatusBooked,
	TripStatusInProgress, TripStatusCompleted, TripStatusCancelled,
}

// TripTypes lists all valid trip types.
var TripTypes = []string{
	"leisure", "business", "adventure", "family", "romantic", "solo", "group",
}

var (
	ErrEndBeforeStart  = errors.New("end date must be after start date")
	ErrStartInPast     = errors.New("start date cannot be in the past")
	ErrOutsideTripDate = errors.New("dates must be within trip dates")
)

// Destination describes where a trip goes.
type Destination struct {
	Country string `json:"country"`
	City    string `json:"city"`
	Region  string `json:"region"`
}

// Budget tracks the planned and actual spending of a trip per category.
type Budget struct {
	TotalBudget float64 `json:"total_budget"`
	Currency    string  `gorm:"default:USD" json:"currency"`

	AllocatedAccommodation  float64 `json:"allocated_accommodation"`
	AllocatedTransportation float64 `json:"allocated_transportation"`
	AllocatedFood           float64 `json:"allocated_food"`
	AllocatedActivities     float64 `json:"allocated_activities"`
	AllocatedShopping       float64 `json:"allocated_shopping"`
	AllocatedMiscellaneous  float64 `json:"allocated_miscellaneous"`

	SpentAccommodation  float64 `json:"spent_accommodation"`
	SpentTransportation float64 `json:"spent_transportation"`
	SpentFood           float64 `json:"spent_food"`
	SpentActivities     float64 `json:"spent_activities"`
	SpentShopping       float64 `json:"spent_shopping"`
	SpentMiscellaneous  float64 `json:"spent_miscellaneous"`
}

// TotalSpent sums the actual spending across all categories.
func (b Budget) TotalSpent() float64 {
	return b.SpentAccommodation + b.SpentTransportation + b.SpentFood +
		b.SpentActivities + b.SpentShopping + b.SpentMiscellaneous
}

// Trip is a user-owned itinerary with accommodations, transport and budget.
type Trip struct {
	BaseModel
	UserID      uuid.UUID   `gorm:"type:uuid;index" json:"user_id"`
	User        *User       `json:"user,omitempty"`
	Title       string      `json:"title"`
	Description string      `json:"description"`
	Destination Destination `gorm:"embedded;embeddedPrefix:destination_" json:"destination"`
	StartDate   time.Time   `gorm:"index" json:"start_date"`
	EndDate     time.Time   `json:"end_date"`
	Status      string      `gorm:"default:draft;index" json:"status"`
	TripType    string      `json:"trip_type"`
	Notes       string      `json:"notes"`

	Travelers      []TripTraveler  `gorm:"constraint:OnDelete:CASCADE" json:"travelers,omitempty"`
	Itinerary      []ItineraryDay  `gorm:"constraint:OnDelete:CASCADE" json:"itinerary,omitempty"`
	Accommodations []Accommodation `gorm:"constraint:OnDelete:CASCADE" json:"accommodations,omitempty"`
	Transportation []TransportLeg  `gorm:"constraint:OnDelete:CASCADE" json:"transportation,omitempty"`

	Budget Budget `gorm:"embedded;embeddedPrefix:budget_" json:"budget"`
}

// TripTraveler is a person travelling on a trip.
type TripTraveler struct {
	BaseModel
	TripID       uuid.UUID  `gorm:"type:uuid;index" json:"trip_id"`
	FirstName    string     `json:"first_name"`
	LastName     string     `json:"last_name"`
	DateOfBirth  *time.Time `json:"date_of_birth"`
	Gender       string     `json:"gender"`
	Nationality  string     `json:"nationality"`
	Relationship string     `gorm:"default:self" json:"relationship"`
}

// ItineraryDay holds one day of the trip plan. Activities are kept as a
// free-form JSON document, the client owns their shape.
type ItineraryDay struct {
	BaseModel
	TripID     uuid.UUID `gorm:"type:uuid;index" json:"trip_id"`
	Day        int       `json:"day"`
	Date       time.Time `json:"date"`
	Activities []byte    `gorm:"type:jsonb" json:"activities,omitempty"`
	Notes      string    `json:"notes"`
}

// Accommodation is a lodging booking attached to a trip.
type Accommodation struct {
	BaseModel
	TripID             uuid.UUID `gorm:"type:uuid;index" json:"trip_id"`
	Name               string    `json:"name"`
	Type               string    `json:"type"`
	Address            string    `json:"address"`
	CheckIn            time.Time `json:"check_in"`
	CheckOut           time.Time `json:"check_out"`
	RoomType           string    `json:"room_type"`
	NumberOfRooms      int       `gorm:"default:1" json:"number_of_rooms"`
	Guests             int       `json:"guests"`
	CostAmount         float64   `json:"cost_amount"`
	CostCurrency       string    `gorm:"default:USD" json:"cost_currency"`
	BookingStatus      string    `gorm:"default:not_booked" json:"booking_status"`
	ConfirmationNumber string    `json:"confirmation_number"`
	Notes              string    `json:"notes"`
}

// TransportLeg is one leg of travel within a trip.
type TransportLeg struct {
	BaseModel
	TripID             uuid.UUID `gorm:"type:uuid;index" json:"trip_id"`
	Type               string    `json:"type"`
	DepartureLocation  string    `json:"departure_location"`
	DepartureCode      string    `json:"departure_code"`
	ArrivalLocation    string    `json:"arrival_location"`
	ArrivalCode        string    `json:"arrival_code"`
	DepartureDateTime  time.Time `json:"departure_datetime"`
	ArrivalDateTime    time.Time `json:"arrival_datetime"`
	Carrier            string    `json:"carrier"`
	FlightNumber       string    `json:"flight_number"`
	Seat               string    `json:"seat"`
	Class              string    `gorm:"default:economy" json:"class"`
	CostAmount         float64   `json:"cost_amount"`
	CostCurrency       string    `gorm:"default:USD" json:"cost_currency"`
	BookingStatus      string    `gorm:"default:not_booked" json:"booking_status"`
	ConfirmationNumber string    `json:"confirmation_number"`
	Notes              string    `json:"notes"`
}

// OwnerID identifies the owning user for ownership checks.
func (t *Trip) OwnerID() uuid.UUID {
	return t.UserID
}

// Duration returns the trip length in days, rounded up.
func (t *Trip) Duration() int {
	diff := t.EndDate.Sub(t.StartDate)
	if diff < 0 {
		diff = -diff
	}
	days := int(diff / (24 * time.Hour))
	if diff%(24*time.Hour) != 0 {
		days++
	}
	return days
}

// TotalSpent sums the actual spending recorded on the budget.
func (t *Trip) TotalSpent() float64 {
	return t.Budget.TotalSpent()
}

// BudgetRemaining is the total budget minus actual spending.
func (t *Trip) BudgetRemaining() float64 {
	return t.Budget.TotalBudget - t.TotalSpent()
}

// ValidateDates enforces the date invariants for a new trip.
func (t *Trip) ValidateDates(now time.Time) error {
	if !t.EndDate.After(t.StartDate) {
		return ErrEndBeforeStart
	}
	if t.StartDate.Before(now) {
		return ErrStartInPast
	}
	return nil
}

// ValidateAccommodation checks an accommodation's dates against the trip.
func (t *Trip) ValidateAccommodation(a Accommodation) error {
	if !a.CheckOut.After(a.CheckIn) {
		return errors.New("check-out date must be after check-in date")
	}
	if a.CheckIn.Before(t.StartDate) || a.CheckOut.After(t.EndDate) {
		return ErrOutsideTripDate
	}
	return nil
}

// ValidateItineraryDay checks an itinerary day's date against the trip.
func (t *Trip) ValidateItineraryDay(d ItineraryDay) error {
	if d.Date.Before(t.StartDate) || d.Date.After(t.EndDate) {
		return fmt.Errorf("itinerary day %d: %w", d.Day, ErrOutsideTripDate)
	}
	return nil
}

// ValidTripStatus reports whether s is one of the known trip statuses.
func ValidTripStatus(s string) bool {
	return contains(TripStatuses, s)
}

// ValidTripType reports whether s is one of the known trip types.
func ValidTripType(s string) bool {
	return contains(TripTypes, s)
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
