// Package odds converts betting odds into implied probabilities.
package odds

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// ErrInvalidOdds is returned for odds that cannot be converted
var ErrInvalidOdds = errors.New("invalid odds")

// Format is the notation odds are quoted in
type Format int

const (
	American Format = iota
	Decimal
	Fractional
)

func (f Format) String() string {
	switch f {
	case American:
		return "american"
	case Decimal:
		return "decimal"
	case Fractional:
		return "fractional"
	default:
		return fmt.Sprintf("Format(%d)", int(f))
	}
}

// ParseFormat parses a format name case-insensitively; the empty string means American
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "american":
		return American, nil
	case "decimal":
		return Decimal, nil
	case "fractional":
		return Fractional, nil
	default:
		return 0, fmt.Errorf("unknown odds format %q", s)
	}
}

// ImpliedProbability converts quoted odds into the probability they imply.
//
//	American:   -150 -> 150/250, +150 -> 100/250
//	Decimal:    2.5  -> 1/2.5
//	Fractional: 3/2  -> 2/5
func ImpliedProbability(quote string, format Format) (float64, error) {
	quote = strings.TrimSpace(quote)

	switch format {
	case American:
		v, err := parseNumber(strings.TrimPrefix(quote, "+"))
		if err != nil {
			return 0, err
		}
		if v < 0 {
			return -v / (-v + 100), nil
		}
		return 100 / (v + 100), nil

	case Decimal:
		v, err := parseNumber(quote)
		if err != nil {
			return 0, err
		}
		if v <= 0 {
			return 0, fmt.Errorf("%w: decimal odds must be positive", ErrInvalidOdds)
		}
		return 1 / v, nil

	case Fractional:
		num, denom, ok := strings.Cut(quote, "/")
		if !ok {
			return 0, fmt.Errorf("%w: %q is not of the form n/d", ErrInvalidOdds, quote)
		}
		n, errN := strconv.Atoi(strings.TrimSpace(num))
		d, errD := strconv.Atoi(strings.TrimSpace(denom))
		if errN != nil || errD != nil || n < 0 || d <= 0 {
			return 0, fmt.Errorf("%w: %q is not of the form n/d", ErrInvalidOdds, quote)
		}
		return float64(d) / float64(n+d), nil

	default:
		return 0, fmt.Errorf("unknown odds format %s", format)
	}
}

// parseNumber parses a finite number; NaN and infinities are invalid odds
func parseNumber(s string) (float64, error) {
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, fmt.Errorf("%w: %q is not a number", ErrInvalidOdds, s)
	}
	return v, nil
}
