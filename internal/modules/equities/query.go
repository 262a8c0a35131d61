package equities

import (
	"sort"
	"strings"
)

// DefaultPageSize matches the stock list table page size
const DefaultPageSize = 20

// Query selects, orders and pages equity records
type Query struct {
	Filter   string // case-insensitive substring, or "column:value"
	SortBy   string // column name; empty keeps the loader order
	Desc     bool
	Page     int // 1-based
	PageSize int
}

// Page is one page of query results
type Page struct {
	Records  []Record `json:"records"`
	Total    int      `json:"total"`
	Page     int      `json:"page"`
	Pages    int      `json:"pages"`
	PageSize int      `json:"page_size"`
}

// Apply filters, sorts and pages records. The input slice is not modified.
func (q Query) Apply(records []Record) Page {
	filtered := make([]Record, 0, len(records))
	for _, r := range records {
		if q.matches(r) {
			filtered = append(filtered, r)
		}
	}

	if idx := columnIndex(q.SortBy); idx >= 0 {
		sortRecords(filtered, idx, q.Desc)
	}

	size := q.PageSize
	if size <= 0 {
		size = DefaultPageSize
	}
	pages := (len(filtered) + size - 1) / size
	page := q.Page
	if page < 1 {
		page = 1
	}
	if pages > 0 && page > pages {
		page = pages
	}

	start := (page - 1) * size
	end := start + size
	if start > len(filtered) {
		start = len(filtered)
	}
	if end > len(filtered) {
		end = len(filtered)
	}

	return Page{
		Records:  filtered[start:end],
		Total:    len(filtered),
		Page:     page,
		Pages:    pages,
		PageSize: size,
	}
}

func (q Query) matches(r Record) bool {
	filter := strings.TrimSpace(q.Filter)
	if filter == "" {
		return true
	}

	values := r.Values()
	if col, val, ok := strings.Cut(filter, ":"); ok {
		if idx := columnIndex(strings.TrimSpace(col)); idx >= 0 {
			return containsFold(values[idx], strings.TrimSpace(val))
		}
	}

	for _, v := range values {
		if containsFold(v, filter) {
			return true
		}
	}
	return false
}

func sortRecords(records []Record, idx int, desc bool) {
	numeric := Columns[idx] == ColForwardPE

	sort.SliceStable(records, func(i, j int) bool {
		if numeric {
			a, b := records[i].ForwardPE, records[j].ForwardPE
			if a == nil || b == nil {
				return a != nil && b == nil
			}
			if desc {
				return *a > *b
			}
			return *a < *b
		}

		a, b := records[i].Values()[idx], records[j].Values()[idx]
		if a == "" || b == "" {
			return a != "" && b == ""
		}
		if desc {
			return strings.ToLower(a) > strings.ToLower(b)
		}
		return strings.ToLower(a) < strings.ToLower(b)
	})
}

func columnIndex(col string) int {
	for i, c := range Columns {
		if strings.EqualFold(c, col) {
			return i
		}
	}
	return -1
}

func containsFold(s, sub string) bool {
	return strings.Contains(strings.ToLower(s), strings.ToLower(sub))
}
