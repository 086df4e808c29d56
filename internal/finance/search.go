package finance

import (
	"regexp"
	"sort"
	"strconv"
)

var orderNoQuery = regexp.MustCompile(`^#?(\d+)$`)

// ParseOrderNoQuery reports whether query is an order-number lookup (optional
// leading '#' followed by digits) and returns the captured number.
func ParseOrderNoQuery(query string) (int64, bool) {
	m := orderNoQuery.FindStringSubmatch(query)
	if m == nil {
		return 0, false
	}
	n, err := strconv.ParseInt(m[1], 10, 64)
	if err != nil {
		return 0, false
	}
	return n, true
}

// RankOrderSearchResults orders candidates for an order-number query. An order
// is promoted to the front only when its number stringifies identically to the
// captured digits; a query with leading zeros ("#034") therefore promotes
// nothing and the ascending numeric fallback applies. Non-numeric queries
// leave the candidate order untouched; free-text ranking is delegated to the
// storage layer. The output is deterministic for identical inputs.
func RankOrderSearchResults(query string, candidates []Order) []Order {
	ranked := make([]Order, len(candidates))
	copy(ranked, candidates)

	m := orderNoQuery.FindStringSubmatch(query)
	if m == nil {
		return ranked
	}
	captured := m[1]
	exact := func(o Order) bool {
		return strconv.FormatInt(o.OrderNo, 10) == captured
	}

	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].OrderNo < ranked[j].OrderNo
	})
	sort.SliceStable(ranked, func(i, j int) bool {
		return exact(ranked[i]) && !exact(ranked[j])
	})
	return ranked
}
