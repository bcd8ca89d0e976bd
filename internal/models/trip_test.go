package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func testTrip(start, end time.Time) *Trip {
	return &Trip{
		Title:     "Tokyo Spring",
		StartDate: start,
		EndDate:   end,
	}
}

func TestTripValidateDates(t *testing.T) {
	now := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)

	trip := testTrip(now.AddDate(0, 0, 7), now.AddDate(0, 0, 14))
	assert.NoError(t, trip.ValidateDates(now))

	trip = testTrip(now.AddDate(0, 0, 14), now.AddDate(0, 0, 7))
	assert.ErrorIs(t, trip.ValidateDates(now), ErrEndBeforeStart)

	trip = testTrip(now.AddDate(0, 0, 7), now.AddDate(0, 0, 7))
	assert.ErrorIs(t, trip.ValidateDates(now), ErrEndBeforeStart)

	trip = testTrip(now.AddDate(0, 0, -1), now.AddDate(0, 0, 7))
	assert.ErrorIs(t, trip.ValidateDates(now), ErrStartInPast)
}

func TestTripDuration(t *testing.T) {
	start := time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC)

	trip := testTrip(start, start.AddDate(0, 0, 7))
	assert.Equal(t, 7, trip.Duration())

	// Partial days round up.
	trip = testTrip(start, start.Add(36*time.Hour))
	assert.Equal(t, 2, trip.Duration())
}

func TestTripBudget(t *testing.T) {
	trip := testTrip(time.Now(), time.Now().AddDate(0, 0, 5))
	trip.Budget = Budget{
		TotalBudget:         3000,
		SpentAccommodation:  800,
		SpentTransportation: 450,
		SpentFood:           120.5,
	}

	assert.Equal(t, 1370.5, trip.TotalSpent())
	assert.Equal(t, 1629.5, trip.BudgetRemaining())
}

func TestTripValidateAccommodation(t *testing.T) {
	start := time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC)
	trip := testTrip(start, start.AddDate(0, 0, 10))

	ok := Accommodation{CheckIn: start.AddDate(0, 0, 1), CheckOut: start.AddDate(0, 0, 4)}
	assert.NoError(t, trip.ValidateAccommodation(ok))

	inverted := Accommodation{CheckIn: start.AddDate(0, 0, 4), CheckOut: start.AddDate(0, 0, 1)}
	assert.Error(t, trip.ValidateAccommodation(inverted))

	early := Accommodation{CheckIn: start.AddDate(0, 0, -1), CheckOut: start.AddDate(0, 0, 2)}
	assert.ErrorIs(t, trip.ValidateAccommodation(early), ErrOutsideTripDate)

	late := Accommodation{CheckIn: start.AddDate(0, 0, 8), CheckOut: start.AddDate(0, 0, 12)}
	assert.ErrorIs(t, trip.ValidateAccommodation(late), ErrOutsideTripDate)
}

func TestTripValidateItineraryDay(t *testing.T) {
	start := time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC)
	trip := testTrip(start, start.AddDate(0, 0, 5))

	assert.NoError(t, trip.ValidateItineraryDay(ItineraryDay{Day: 2, Date: start.AddDate(0, 0, 1)}))
	assert.ErrorIs(t, trip.ValidateItineraryDay(ItineraryDay{Day: 9, Date: start.AddDate(0, 0, 8)}), ErrOutsideTripDate)
}

func TestTripEnumValidation(t *testing.T) {
	assert.True(t, ValidTripStatus(TripStatusPlanned))
	assert.False(t, ValidTripStatus("archived"))

	assert.True(t, ValidTripType("leisure"))
	assert.False(t, ValidTripType("pilgrimage"))
}
