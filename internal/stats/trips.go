package stats

import (
	"time"

	"github.com/example/travelbook/internal/models"
)

// TripOverview is the overall trip aggregate for one user.
type TripOverview struct {
	TotalTrips      int     `json:"total_trips"`
	CompletedTrips  int     `json:"completed_trips"`
	UpcomingTrips   int     `json:"upcoming_trips"`
	TotalBudget     float64 `json:"total_budget"`
	TotalSpent      float64 `json:"total_spent"`
	AvgTripDuration float64 `json:"avg_trip_duration"`
}

// StatusCount counts trips grouped by an enum value.
type StatusCount struct {
	Value string `json:"value"`
	Count int    `json:"count"`
}

// TripStats computes the trip overview plus by-status and by-type
// groupings.
func TripStats(trips []models.Trip, now time.Time) (TripOverview, []StatusCount, []StatusCount) {
	var o TripOverview
	var durationDays float64

	byStatus := make(map[string]int)
	byType := make(map[string]int)

	for i := range trips {
		t := &trips[i]
		o.TotalTrips++
		byStatus[t.Status]++
		byType[t.TripType]++

		if t.Status == models.TripStatusCompleted {
			o.CompletedTrips++
		}
		if (t.Status == models.TripStatusPlanned || t.Status == models.TripStatusBooked) &&
			!t.StartDate.Before(now) {
			o.UpcomingTrips++
		}

		o.TotalBudget += t.Budget.TotalBudget
		o.TotalSpent += t.TotalSpent()
		durationDays += t.EndDate.Sub(t.StartDate).Hours() / 24
	}

	if o.TotalTrips > 0 {
		o.AvgTripDuration = durationDays / float64(o.TotalTrips)
	}

	return o, countList(byStatus, models.TripStatuses), countList(byType, models.TripTypes)
}

// countList renders grouped counts in the enum's declared order, skipping
// empty groups.
func countList(counts map[string]int, order []string) []StatusCount {
	list := make([]StatusCount, 0, len(counts))
	for _, value := range order {
		if counts[value] > 0 {
			list = append(list, StatusCount{Value: value, Count: counts[value]})
		}
	}
	return list
}
