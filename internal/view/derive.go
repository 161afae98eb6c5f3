package view

import (
	"sort"
	"strconv"
	"strings"

	"github.com/kmenon/spendlens-go/internal/domain"
)

// Page is one derived view of the working set: the visible slice plus the
// pagination totals the table needs.
type Page struct {
	Records       []domain.Transaction `json:"records"`
	TotalFiltered int                  `json:"total_filtered"`
	TotalPages    int                  `json:"total_pages"`
	Page          int                  `json:"page"`
	PageSize      int                  `json:"page_size"`
}

// Derive computes the visible page from a set and view state.
// Pure: no caching, no mutation of its inputs; safe to call on every read.
func Derive(set *domain.TransactionSet, st State) Page {
	if st.PageSize < 1 {
		st.PageSize = 10
	}
	if set == nil {
		return Page{Records: []domain.Transaction{}, TotalPages: 1, Page: 1, PageSize: st.PageSize}
	}

	filtered := filterRecords(set.Records, st.Query)
	sortRecords(filtered, st.Sort)

	totalPages := (len(filtered) + st.PageSize - 1) / st.PageSize
	if totalPages < 1 {
		totalPages = 1
	}

	page := st.Page
	if page < 1 {
		page = 1
	}
	if page > totalPages {
		page = totalPages
	}

	lo := (page - 1) * st.PageSize
	hi := lo + st.PageSize
	if lo > len(filtered) {
		lo = len(filtered)
	}
	if hi > len(filtered) {
		hi = len(filtered)
	}

	return Page{
		Records:       filtered[lo:hi],
		TotalFiltered: len(filtered),
		TotalPages:    totalPages,
		Page:          page,
		PageSize:      st.PageSize,
	}
}

// filterRecords keeps rows where the trimmed, case-insensitive query is a
// substring of the display category, the description, or the decimal
// rendering of the amount. An empty query matches all. Always returns a
// fresh slice so sorting never reorders the working set.
func filterRecords(records []domain.Transaction, query string) []domain.Transaction {
	q := strings.ToLower(strings.TrimSpace(query))
	out := make([]domain.Transaction, 0, len(records))
	if q == "" {
		return append(out, records...)
	}

	for _, t := range records {
		if strings.Contains(strings.ToLower(t.DisplayCategory()), q) ||
			strings.Contains(strings.ToLower(t.Description), q) ||
			strings.Contains(formatAmount(t.Amount), q) {
			out = append(out, t)
		}
	}
	return out
}

// formatAmount renders the shortest decimal form, so a query of "80"
// matches 80, 80.5 and 180.
func formatAmount(a float64) string {
	return strconv.FormatFloat(a, 'f', -1, 64)
}

// sortRecords orders in place, stable, so ties keep original fetch order.
func sortRecords(records []domain.Transaction, spec domain.SortSpec) {
	less := lessFunc(spec.Key)
	if spec.Direction == domain.SortDesc {
		asc := less
		less = func(a, b domain.Transaction) bool { return asc(b, a) }
	}
	sort.SliceStable(records, func(i, j int) bool {
		return less(records[i], records[j])
	})
}

func lessFunc(key domain.SortKey) func(a, b domain.Transaction) bool {
	switch key {
	case domain.SortByAmount:
		// Signed magnitude: the largest debit sorts first ascending.
		return func(a, b domain.Transaction) bool {
			return a.SignedAmount() < b.SignedAmount()
		}
	case domain.SortByCategory:
		// Raw stored value: an empty category sorts before any label.
		return func(a, b domain.Transaction) bool {
			return strings.ToLower(a.Category) < strings.ToLower(b.Category)
		}
	case domain.SortByMerchant:
		return func(a, b domain.Transaction) bool {
			return strings.ToLower(a.Description) < strings.ToLower(b.Description)
		}
	default: // date
		return func(a, b domain.Transaction) bool {
			return a.OccurredAt.Before(b.OccurredAt)
		}
	}
}
