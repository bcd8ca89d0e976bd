// Package stats aggregates payment and trip collections into spending
// summaries. All functions operate on loaded records, keeping the
// aggregation rules independent of the persistence layer.
package stats

import (
	"sort"
	"time"

	"github.com/example/travelbook/internal/models"
)

// CategorySummary is the spending aggregate for one payment category.
type CategorySummary struct {
	Category    string  `json:"category"`
	TotalAmount float64 `json:"total_amount"`
	Count       int     `json:"count"`
	AvgAmount   float64 `json:"avg_amount"`
}

// MonthBucket is one month of spending inside a trend window.
type MonthBucket struct {
	Year             int     `json:"year"`
	Month            int     `json:"month"`
	TotalSpent       float64 `json:"total_spent"`
	TransactionCount int     `json:"transaction_count"`
}

// Overview is the overall totals record for a set of payments.
type Overview struct {
	TotalAmount   float64 `json:"total_amount"`
	TotalPayments int     `json:"total_payments"`
	AvgPayment    float64 `json:"avg_payment"`
	TotalRefunded float64 `json:"total_refunded"`
}

// MethodSummary is the spending aggregate for one payment method type.
type MethodSummary struct {
	Method      string  `json:"method"`
	Count       int     `json:"count"`
	TotalAmount float64 `json:"total_amount"`
}

// Refunds are reported separately and deliberately not netted out of the
// category and trend sums.

// ByCategory groups completed payments by category, sorted by total
// amount descending.
func ByCategory(payments []models.Payment) []CategorySummary {
	totals := make(map[string]*CategorySummary)
	for _, p := range payments {
		if p.Status != models.PaymentStatusCompleted {
			continue
		}
		s, ok := totals[p.Category]
		if !ok {
			s = &CategorySummary{Category: p.Category}
			totals[p.Category] = s
		}
		s.TotalAmount += p.Amount
		s.Count++
	}

	summaries := make([]CategorySummary, 0, len(totals))
	for _, s := range totals {
		s.AvgAmount = s.TotalAmount / float64(s.Count)
		summaries = append(summaries, *s)
	}

	sort.Slice(summaries, func(i, j int) bool {
		if summaries[i].TotalAmount != summaries[j].TotalAmount {
			return summaries[i].TotalAmount > summaries[j].TotalAmount
		}
		return summaries[i].Category < summaries[j].Category
	})
	return summaries
}

// MonthlyTrend buckets completed payments of the trailing months window
// by calendar month, ascending.
func MonthlyTrend(payments []models.Payment, months int, now time.Time) []MonthBucket {
	cutoff := now.AddDate(0, -months, 0)

	type key struct{ year, month int }
	buckets := make(map[key]*MonthBucket)
	for _, p := range payments {
		if p.Status != models.PaymentStatusCompleted || p.PaymentDate.Before(cutoff) {
			continue
		}
		k := key{p.PaymentDate.Year(), int(p.PaymentDate.Month())}
		b, ok := buckets[k]
		if !ok {
			b = &MonthBucket{Year: k.year, Month: k.month}
			buckets[k] = b
		}
		b.TotalSpent += p.Amount
		b.TransactionCount++
	}

	trend := make([]MonthBucket, 0, len(buckets))
	for _, b := range buckets {
		trend = append(trend, *b)
	}

	sort.Slice(trend, func(i, j int) bool {
		if trend[i].Year != trend[j].Year {
			return trend[i].Year < trend[j].Year
		}
		return trend[i].Month < trend[j].Month
	})
	return trend
}

// Overall computes the totals record across completed payments, including
// total refunded via the nested refund records.
func Overall(payments []models.Payment) Overview {
	var o Overview
	for _, p := range payments {
		if p.Status != models.PaymentStatusCompleted {
			continue
		}
		o.TotalAmount += p.Amount
		o.TotalPayments++
		for _, r := range p.Refunds {
			o.TotalRefunded += r.Amount
		}
	}
	if o.TotalPayments > 0 {
		o.AvgPayment = o.TotalAmount / float64(o.TotalPayments)
	}
	return o
}

// ByMethod groups completed payments by payment method type, sorted by
// total amount descending.
func ByMethod(payments []models.Payment) []MethodSummary {
	totals := make(map[string]*MethodSummary)
	for _, p := range payments {
		if p.Status != models.PaymentStatusCompleted {
			continue
		}
		s, ok := totals[p.PaymentMethod.Type]
		if !ok {
			s = &MethodSummary{Method: p.PaymentMethod.Type}
			totals[p.PaymentMethod.Type] = s
		}
		s.Count++
		s.TotalAmount += p.Amount
	}

	summaries := make([]MethodSummary, 0, len(totals))
	for _, s := range totals {
		summaries = append(summaries, *s)
	}

	sort.Slice(summaries, func(i, j int) bool {
		if summaries[i].TotalAmount != summaries[j].TotalAmount {
			return summaries[i].TotalAmount > summaries[j].TotalAmount
		}
		return summaries[i].Method < summaries[j].Method
	})
	return summaries
}

// FilterByDateRange keeps payments whose payment date falls inside the
// optional [start, end] range.
func FilterByDateRange(payments []models.Payment, start, end *time.Time) []models.Payment {
	if start == nil && end == nil {
		return payments
	}
	filtered := make([]models.Payment, 0, len(payments))
	for _, p := range payments {
		if start != nil && p.PaymentDate.Before(*start) {
			continue
		}
		if end != nil && p.PaymentDate.After(*end) {
			continue
		}
		filtered = append(filtered, p)
	}
	return filtered
}
