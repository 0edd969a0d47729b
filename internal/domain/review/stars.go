package review

import (
	"strings"

	"github.com/shopspring/decimal"
)

const (
	starFilled = "★"
	starEmpty  = "☆"
)

// StarDisplay is the rendered form of a rating
type StarDisplay struct {
	Filled int
	Empty  int
	Text   string
}

// Stars renders rating as filled and empty stars plus a one-decimal label.
// A nil or zero rating means "not rated yet": five empty stars and "-".
func Stars(rating *float64) StarDisplay {
	if rating == nil || *rating <= 0 {
		return StarDisplay{Filled: 0, Empty: MaxRating, Text: "-"}
	}

	d := decimal.NewFromFloat(*rating)
	if d.GreaterThan(decimal.NewFromInt(MaxRating)) {
		d = decimal.NewFromInt(MaxRating)
	}
	filled := int(d.Floor().IntPart())

	return StarDisplay{
		Filled: filled,
		Empty:  MaxRating - filled,
		Text:   d.StringFixed(1),
	}
}

// StarsInt renders an integer review rating
func StarsInt(rating int) StarDisplay {
	r := float64(rating)
	return Stars(&r)
}

// String returns e.g. "★★★☆☆ 3.5"
func (s StarDisplay) String() string {
	return strings.Repeat(starFilled, s.Filled) + strings.Repeat(starEmpty, s.Empty) + " " + s.Text
}
