package persistence

import "strings"

// sortColumns whitelists the columns a list query may be ordered by. Only
// whitelisted names ever reach ORDER BY, so user input is never spliced in.
type sortColumns map[string]bool

// sortable builds a whitelist; id and the audit timestamps are always included
func sortable(columns ...string) sortColumns {
	s := sortColumns{"id": true, "created_at": true, "updated_at": true}
	for _, c := range columns {
		s[c] = true
	}
	return s
}

var (
	accountSort     = sortable("code", "name", "lifecycle")
	autoRuleSort    = sortable("priority", "product_id", "analytical_account_id")
	budgetSort      = sortable("year", "month", "allocated_amount", "used_amount")
	contactSort     = sortable("name", "type", "email", "city")
	productSort     = sortable("name", "category_id", "purchase_price", "sales_price", "gst_rate")
	transactionSort = sortable("number", "type", "status", "payment_status", "transaction_date",
		"due_date", "total_amount", "paid_amount")
	paymentSort = sortable("number", "type", "status", "payment_date", "amount", "method")
)

// orderBy returns "<column> ASC|DESC" for a whitelisted column, or "" when
// the requested column is empty or not sortable
func (s sortColumns) orderBy(column, direction string) string {
	column = strings.TrimSpace(column)
	if !s[column] {
		return ""
	}
	return column + " " + sortDirection(direction)
}

// sortDirection accepts asc in any case and falls back to DESC for anything else
func sortDirection(direction string) string {
	if strings.EqualFold(strings.TrimSpace(direction), "asc") {
		return "ASC"
	}
	return "DESC"
}
