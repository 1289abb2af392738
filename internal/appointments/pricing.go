package appointments

import "github.com/shopspring/decimal"

// Types lists the bookable appointment types. The appointment record stores
// an index into this slice; the last entry ("Other") requires a custom
// description.
var Types = []string{
	"Routine Cleaning",
	"Checkup",
	"Filling",
	"Root Canal",
	"Extraction",
	"Whitening",
	"Other",
}

var prices = map[string]decimal.Decimal{
	"Routine Cleaning": decimal.NewFromInt(1500),
	"Checkup":          decimal.NewFromInt(500),
	"Filling":          decimal.NewFromInt(1200),
	"Root Canal":       decimal.NewFromInt(5000),
	"Extraction":       decimal.NewFromInt(1500),
	"Whitening":        decimal.NewFromInt(3000),
	"Other":            decimal.Zero,
}

// TypeName resolves a type index to its display name. The "Other" index
// resolves to the custom description when one was captured.
func TypeName(typeIndex int, customType string) string {
	if typeIndex == len(Types)-1 {
		if customType != "" {
			return customType
		}
		return "Other"
	}
	if typeIndex < 0 || typeIndex >= len(Types) {
		return "Unknown"
	}
	return Types[typeIndex]
}

// PriceFor returns the base price of a type index, zero for unknown types.
func PriceFor(typeIndex int) decimal.Decimal {
	if typeIndex < 0 || typeIndex >= len(Types) {
		return decimal.Zero
	}
	return prices[Types[typeIndex]]
}

// IsOtherType reports whether the index refers to the free-text type.
func IsOtherType(typeIndex int) bool {
	return typeIndex == len(Types)-1
}
