// Package filter builds query filter expressions in the e-conomic API's
// filter mini-language (`field$op:value`, joined with `$and:`).
//
// Expressions are opaque to the rest of the module: the HTTP client only
// ever forwards them as the `filter` query parameter, never parses them.
package filter

import "fmt"

// andToken joins two expressions. The API expects the `$` before the
// operator, e.g. voucherNumber$eq:70492$and:accountingYear$eq:2024.
const andToken = "$and:"

// Expr is a composed filter expression. The empty string means "no filter".
type Expr string

// Eq builds an equality comparison for a field.
func Eq(field string, value any) Expr {
	return Expr(fmt.Sprintf("%s$eq:%v", field, value))
}

// Gte builds a greater-than-or-equal comparison for a field.
func Gte(field string, value any) Expr {
	return Expr(fmt.Sprintf("%s$gte:%v", field, value))
}

// Lte builds a less-than-or-equal comparison for a field.
func Lte(field string, value any) Expr {
	return Expr(fmt.Sprintf("%s$lte:%v", field, value))
}

// Range builds an inclusive range comparison (low <= field <= high).
func Range(field string, low, high any) Expr {
	return And(Gte(field, low), Lte(field, high))
}

// And joins two expressions with the AND token. An empty expression is the
// absorbing identity: And(e, "") == e and And("", e) == e, so an absent
// secondary filter never produces a dangling join token.
func And(a, b Expr) Expr {
	if a == "" {
		return b
	}
	if b == "" {
		return a
	}
	return a + andToken + b
}

// DateRange builds an inclusive calendar-date range on the `date` field.
// Dates are passed through verbatim in the API's YYYY-MM-DD form.
func DateRange(startDate, endDate string) Expr {
	return Range("date", startDate, endDate)
}

// String returns the expression in wire form.
func (e Expr) String() string {
	return string(e)
}
