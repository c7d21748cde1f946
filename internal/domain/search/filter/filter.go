// Package filter defines the structured constraints applied to item queries.
package filter

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/rolodex-hq/rolodex/internal/domain"
	"github.com/rolodex-hq/rolodex/internal/domain/item"
)

var hexRegex = regexp.MustCompile(`^#?[0-9a-fA-F]{3,8}$`)

// Filters is a validated conjunctive (AND) constraint set.
// Zero value matches everything.
type Filters struct {
	category  string
	vendor    string
	colourHex string
	priceMax  float64
	hasPrice  bool
}

// New validates filter values. A malformed value fails fast with
// ErrInvalidFilter before any storage or network call.
func New(category, vendor, colourHex string, priceMax *float64) (Filters, error) {
	if colourHex != "" && !hexRegex.MatchString(colourHex) {
		return Filters{}, fmt.Errorf("colour_hex %q is not a hex color: %w", colourHex, domain.ErrInvalidFilter)
	}
	f := Filters{
		category:  category,
		vendor:    vendor,
		colourHex: strings.TrimPrefix(strings.ToLower(colourHex), "#"),
	}
	if priceMax != nil {
		if *priceMax < 0 {
			return Filters{}, fmt.Errorf("price_max must be non-negative: %w", domain.ErrInvalidFilter)
		}
		f.priceMax = *priceMax
		f.hasPrice = true
	}
	return f, nil
}

// IsEmpty reports whether no constraint is set.
func (f Filters) IsEmpty() bool {
	return f.category == "" && f.vendor == "" && f.colourHex == "" && !f.hasPrice
}

// Category returns the category constraint ("" = unset).
func (f Filters) Category() string { return f.category }

// Vendor returns the vendor constraint ("" = unset).
func (f Filters) Vendor() string { return f.vendor }

// ColourHex returns the normalized color constraint ("" = unset).
func (f Filters) ColourHex() string { return f.colourHex }

// PriceMax returns the price ceiling and whether it is set.
func (f Filters) PriceMax() (float64, bool) { return f.priceMax, f.hasPrice }

// Match reports whether the item satisfies every set constraint.
// Filters are a hard AND: they are never relaxed on any search path.
func (f Filters) Match(it *item.Item) bool {
	if f.category != "" && !strings.EqualFold(it.Category(), f.category) {
		return false
	}
	if f.vendor != "" && !strings.EqualFold(it.Vendor(), f.vendor) {
		return false
	}
	if f.colourHex != "" {
		got := strings.TrimPrefix(strings.ToLower(it.ColourHex()), "#")
		if !strings.Contains(got, f.colourHex) {
			return false
		}
	}
	if f.hasPrice && it.Price() > f.priceMax {
		return false
	}
	return true
}
