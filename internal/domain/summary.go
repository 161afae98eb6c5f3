package domain

// CategoryShare is one bar of the category breakdown.
type CategoryShare struct {
	Category string  `json:"category"`
	Total    float64 `json:"total"`
	Pct      float64 `json:"pct"`
}

// MonthPoint is one point of the monthly spend series.
type MonthPoint struct {
	Label string  `json:"label"`
	Total float64 `json:"total"`
}

// DayTotal is spend for one weekday, emitted in fixed Monday..Sunday order.
type DayTotal struct {
	Day   string  `json:"day"`
	Total float64 `json:"total"`
}

// Insights are the scalar metrics of the insights panel. All of them can
// be computed from the fetched window; a server-side insights block may
// overlay the fields that depend on history outside the window
// (month-over-month change, spending velocity).
type Insights struct {
	DailyAvg          float64 `json:"daily_avg"`
	WeeklyAvg         float64 `json:"weekly_avg"`
	MonthlyAvg        float64 `json:"monthly_avg"`
	MoMChangePct      float64 `json:"mom_change_pct"`
	TopCategory       string  `json:"top_category"`
	TopCategoryAmount float64 `json:"top_category_amount"`
	TopCategoryPct    float64 `json:"top_category_pct"`
	AvgTransaction    float64 `json:"avg_transaction"`
	SavingsRate       float64 `json:"savings_rate"`
	DaysTracked       int     `json:"days_tracked"`
	SpendingVelocity  string  `json:"spending_velocity"`

	DayOfWeekPattern map[string]float64 `json:"day_of_week_pattern"`
}

// Summary carries every aggregate the dashboard shows for one set.
type Summary struct {
	DebitTotal   float64 `json:"debit_total"`
	CreditTotal  float64 `json:"credit_total"`
	NetBalance   float64 `json:"net_balance"`
	TotalRecords int     `json:"total_records"`

	CategoryTotals map[string]float64 `json:"category_totals"`
	TopCategories  []CategoryShare    `json:"top_categories"`
	TypeTotals     map[TxKind]float64 `json:"type_totals"`
	MonthlySeries  []MonthPoint       `json:"monthly_series"`
	DayOfWeek      []DayTotal         `json:"day_of_week"`

	Insights Insights `json:"insights"`
}

// DashboardData is the one-shot payload consumed by the original UI.
type DashboardData struct {
	UserID         string             `json:"user_id"`
	Range          DateRange          `json:"range"`
	Expenses       []Transaction      `json:"expenses"`
	TotalRecords   int                `json:"total_records"`
	DebitTotal     float64            `json:"debit_total"`
	CreditTotal    float64            `json:"credit_total"`
	NetBalance     float64            `json:"net_balance"`
	CategoryTotals map[string]float64 `json:"category_totals"`
	TypeTotals     map[TxKind]float64 `json:"type_totals"`
	MonthlyLabels  []string           `json:"monthly_labels"`
	MonthlyValues  []float64          `json:"monthly_values"`
	Insights       Insights           `json:"insights"`
}

// MetricsSnapshot is the JSON view served by GET /v1/metrics/snapshot.
type MetricsSnapshot struct {
	TotalRequests   int64   `json:"total_requests"`
	ErrorRate       float64 `json:"error_rate"`
	CacheHitRate    float64 `json:"cache_hit_rate"`
	StaleFetchDrops int64   `json:"stale_fetch_drops"`
	ExternalErrors  int64   `json:"external_errors"`
	EditsSaved      int64   `json:"edits_saved"`
	Deletes         int64   `json:"deletes"`
	Period          string  `json:"period"`
}
