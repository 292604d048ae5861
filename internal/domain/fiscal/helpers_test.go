package fiscal

import "github.com/shopspring/decimal"

func dec(v string) decimal.Decimal {
	return decimal.RequireFromString(v)
}
