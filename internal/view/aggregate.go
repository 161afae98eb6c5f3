package view

import (
	"sort"
	"time"

	"github.com/kmenon/spendlens-go/internal/domain"
)

// weekOrder fixes the day-of-week presentation order.
var weekOrder = []string{
	"Monday", "Tuesday", "Wednesday", "Thursday", "Friday", "Saturday", "Sunday",
}

const monthLabel = "Jan 2006"

// topCategoryCount caps the category breakdown bars.
const topCategoryCount = 8

// Summarize derives every aggregate the dashboard shows from one set.
// Total over its input: an empty or nil set yields zeroed values, never
// an error.
func Summarize(set *domain.TransactionSet) domain.Summary {
	s := domain.Summary{
		CategoryTotals: map[string]float64{},
		TypeTotals:     map[domain.TxKind]float64{},
		TopCategories:  []domain.CategoryShare{},
		MonthlySeries:  []domain.MonthPoint{},
		DayOfWeek:      []domain.DayTotal{},
	}
	if set == nil || len(set.Records) == 0 {
		for _, d := range weekOrder {
			s.DayOfWeek = append(s.DayOfWeek, domain.DayTotal{Day: d})
		}
		s.Insights.DayOfWeekPattern = weekPattern(nil)
		return s
	}

	// The chart series and the weekday pattern sum every row; only the
	// category breakdown and the trend metrics are debit-scoped.
	monthly := map[time.Time]float64{}
	debitMonthly := map[time.Time]float64{}
	days := map[string]float64{}

	for _, t := range set.Records {
		s.TypeTotals[t.Kind] += t.Amount
		monthly[monthStart(t.OccurredAt)] += t.Amount
		days[t.OccurredAt.Weekday().String()] += t.Amount
		if t.Kind == domain.KindCredit {
			s.CreditTotal += t.Amount
			continue
		}
		s.DebitTotal += t.Amount
		s.CategoryTotals[t.DisplayCategory()] += t.Amount
		debitMonthly[monthStart(t.OccurredAt)] += t.Amount
	}

	s.TotalRecords = len(set.Records)
	s.NetBalance = s.CreditTotal - s.DebitTotal
	s.TopCategories = topCategories(s.CategoryTotals, s.DebitTotal, topCategoryCount)
	s.MonthlySeries = monthlySeries(set.Range, monthly)
	for _, d := range weekOrder {
		s.DayOfWeek = append(s.DayOfWeek, domain.DayTotal{Day: d, Total: days[d]})
	}
	s.Insights = computeInsights(set.Range, s, debitMonthly, days)
	return s
}

// monthStart normalizes to UTC so map keys compare by instant, not by
// location pointer.
func monthStart(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, time.UTC)
}

// monthlySeries zero-fills every calendar month the range touches, in
// chronological order, then appends months carrying records outside it.
func monthlySeries(rng domain.DateRange, monthly map[time.Time]float64) []domain.MonthPoint {
	seen := map[time.Time]bool{}
	var months []time.Time

	if !rng.Start.IsZero() && !rng.End.Before(rng.Start) {
		for m := monthStart(rng.Start); !m.After(monthStart(rng.End)); m = m.AddDate(0, 1, 0) {
			months = append(months, m)
			seen[m] = true
		}
	}
	for m := range monthly {
		if !seen[m] {
			months = append(months, m)
			seen[m] = true
		}
	}
	sort.Slice(months, func(i, j int) bool { return months[i].Before(months[j]) })

	points := make([]domain.MonthPoint, 0, len(months))
	for _, m := range months {
		points = append(points, domain.MonthPoint{Label: m.Format(monthLabel), Total: monthly[m]})
	}
	return points
}

func topCategories(totals map[string]float64, debitTotal float64, n int) []domain.CategoryShare {
	shares := make([]domain.CategoryShare, 0, len(totals))
	for cat, total := range totals {
		share := domain.CategoryShare{Category: cat, Total: total}
		if debitTotal > 0 {
			share.Pct = total / debitTotal * 100
		}
		shares = append(shares, share)
	}
	sort.Slice(shares, func(i, j int) bool {
		if shares[i].Total != shares[j].Total {
			return shares[i].Total > shares[j].Total
		}
		return shares[i].Category < shares[j].Category
	})
	if len(shares) > n {
		shares = shares[:n]
	}
	return shares
}

func computeInsights(rng domain.DateRange, s domain.Summary, debitMonthly map[time.Time]float64, days map[string]float64) domain.Insights {
	ins := domain.Insights{DaysTracked: rng.Days()}

	if d := float64(rng.Days()); d > 0 {
		ins.DailyAvg = s.DebitTotal / d
		ins.WeeklyAvg = ins.DailyAvg * 7
		ins.MonthlyAvg = ins.DailyAvg * 30
	}
	if len(s.TopCategories) > 0 {
		top := s.TopCategories[0]
		ins.TopCategory = top.Category
		ins.TopCategoryAmount = top.Total
		ins.TopCategoryPct = top.Pct
	}
	if s.TotalRecords > 0 {
		ins.AvgTransaction = s.DebitTotal / float64(s.TotalRecords)
	}
	if s.CreditTotal > 0 {
		ins.SavingsRate = s.NetBalance / s.CreditTotal * 100
	}
	ins.MoMChangePct = momChange(debitMonthly)
	ins.SpendingVelocity = velocity(debitMonthly)
	ins.DayOfWeekPattern = weekPattern(days)
	return ins
}

// weekPattern zero-fills every weekday so consumers always see all seven.
func weekPattern(days map[string]float64) map[string]float64 {
	pattern := make(map[string]float64, len(weekOrder))
	for _, d := range weekOrder {
		pattern[d] = days[d]
	}
	return pattern
}

func sortedMonths(monthly map[time.Time]float64) []time.Time {
	months := make([]time.Time, 0, len(monthly))
	for m := range monthly {
		months = append(months, m)
	}
	sort.Slice(months, func(i, j int) bool { return months[i].Before(months[j]) })
	return months
}

// momChange is the percent change of the latest month's debit total
// against the month before it, within the fetched window.
func momChange(monthly map[time.Time]float64) float64 {
	if len(monthly) < 2 {
		return 0
	}
	months := sortedMonths(monthly)
	cur := monthly[months[len(months)-1]]
	prev := monthly[months[len(months)-2]]
	if prev <= 0 {
		return 0
	}
	return (cur - prev) / prev * 100
}

// velocity compares the average of the most recent months against the
// ones before them.
func velocity(monthly map[time.Time]float64) string {
	months := sortedMonths(monthly)
	if len(months) < 2 {
		return "steady"
	}

	split := len(months) - 3
	if split < 1 {
		split = len(months) / 2
		if split < 1 {
			split = 1
		}
	}
	older, recent := months[:split], months[split:]

	avg := func(ms []time.Time) float64 {
		var sum float64
		for _, m := range ms {
			sum += monthly[m]
		}
		return sum / float64(len(ms))
	}

	prev := avg(older)
	if prev <= 0 {
		return "steady"
	}
	switch ratio := avg(recent) / prev; {
	case ratio > 1.15:
		return "accelerating"
	case ratio < 0.85:
		return "slowing"
	default:
		return "steady"
	}
}
