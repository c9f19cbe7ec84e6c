// Package money implements currency amounts held as integer minor units.
//
// The canonical text form is "<ISO-4217 code> <decimal amount>", e.g.
// "USD 12.34". No other layout is accepted.
package money

import (
	"fmt"
	"math/big"
	"strconv"
	"strings"

	"golang.org/x/text/currency"
)

const codeLength = 3

// Money is an immutable amount in a single currency.
type Money struct {
	unit  currency.Unit
	minor int64
	scale int
	valid bool
}

// Parse reads the canonical "<CODE> <amount>" form. The amount may carry a
// sign and at most as many fraction digits as the currency's minor unit.
func Parse(s string) (Money, error) {
	s = strings.TrimSpace(s)
	if len(s) <= codeLength || s[codeLength] != ' ' {
		return Money{}, fmt.Errorf("%w: %q", ErrInvalidFormat, s)
	}
	code := s[:codeLength]
	amount := strings.TrimLeft(s[codeLength:], " ")

	unit, scale, err := lookup(code)
	if err != nil {
		return Money{}, err
	}
	minor, err := parseAmount(amount, scale)
	if err != nil {
		return Money{}, fmt.Errorf("%q: %w", s, err)
	}
	return Money{unit: unit, minor: minor, scale: scale, valid: true}, nil
}

// MustParse is like Parse but panics on error. Intended for constants and tests.
func MustParse(s string) Money {
	m, err := Parse(s)
	if err != nil {
		panic(err)
	}
	return m
}

// OfMinor builds an amount from a currency code and a count of minor units.
func OfMinor(code string, minor int64) (Money, error) {
	unit, scale, err := lookup(code)
	if err != nil {
		return Money{}, err
	}
	return Money{unit: unit, minor: minor, scale: scale, valid: true}, nil
}

func lookup(code string) (currency.Unit, int, error) {
	for i := 0; i < len(code); i++ {
		if code[i] < 'A' || code[i] > 'Z' {
			return currency.Unit{}, 0, fmt.Errorf("%w: currency code %q", ErrInvalidFormat, code)
		}
	}
	unit, err := currency.ParseISO(code)
	if err != nil {
		return currency.Unit{}, 0, fmt.Errorf("%w: %s", ErrUnknownCurrency, code)
	}
	scale, _ := currency.Standard.Rounding(unit)
	return unit, scale, nil
}

func parseAmount(s string, scale int) (int64, error) {
	neg := false
	switch {
	case strings.HasPrefix(s, "-"):
		neg = true
		s = s[1:]
	case strings.HasPrefix(s, "+"):
		s = s[1:]
	}
	whole, frac, hasFrac := strings.Cut(s, ".")
	if !isDigits(whole) || (hasFrac && !isDigits(frac)) {
		return 0, ErrInvalidFormat
	}
	frac = strings.TrimRight(frac, "0")
	if len(frac) > scale {
		return 0, ErrPrecision
	}
	digits := whole + frac + strings.Repeat("0", scale-len(frac))
	v, err := strconv.ParseInt(digits, 10, 64)
	if err != nil {
		return 0, ErrOverflow
	}
	if neg {
		v = -v
	}
	return v, nil
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}

// Currency returns the ISO-4217 code.
func (m Money) Currency() string { return m.unit.String() }

// MinorUnits returns the amount in the currency's smallest unit.
func (m Money) MinorUnits() int64 { return m.minor }

// Scale returns the number of fraction digits of the currency.
func (m Money) Scale() int { return m.scale }

// IsZero reports whether m is the zero value (no currency).
func (m Money) IsZero() bool { return !m.valid }

// Rat returns the exact decimal amount.
func (m Money) Rat() *big.Rat {
	return new(big.Rat).SetFrac(big.NewInt(m.minor), pow10(m.scale))
}

// String formats m in canonical form.
func (m Money) String() string {
	if m.IsZero() {
		return ""
	}
	sign := ""
	abs := uint64(m.minor)
	if m.minor < 0 {
		sign = "-"
		abs = ^uint64(m.minor) + 1
	}
	digits := strconv.FormatUint(abs, 10)
	if m.scale == 0 {
		return m.Currency() + " " + sign + digits
	}
	if len(digits) <= m.scale {
		digits = strings.Repeat("0", m.scale-len(digits)+1) + digits
	}
	cut := len(digits) - m.scale
	return m.Currency() + " " + sign + digits[:cut] + "." + digits[cut:]
}

// MarshalJSON encodes m as its canonical string.
func (m Money) MarshalJSON() ([]byte, error) {
	return []byte(strconv.Quote(m.String())), nil
}

// Plus adds o to m. Both must share a currency.
func (m Money) Plus(o Money) (Money, error) {
	if m.unit != o.unit || m.valid != o.valid {
		return Money{}, fmt.Errorf("%w: %s and %s", ErrCurrencyMismatch, m.Currency(), o.Currency())
	}
	sum := m.minor + o.minor
	if (o.minor > 0 && sum < m.minor) || (o.minor < 0 && sum > m.minor) {
		return Money{}, fmt.Errorf("%w: %s + %s", ErrOverflow, m, o)
	}
	return Money{unit: m.unit, minor: sum, scale: m.scale, valid: true}, nil
}

// Times multiplies m by an integer factor.
func (m Money) Times(n int64) (Money, error) {
	return m.MultipliedBy(new(big.Rat).SetInt64(n))
}

// DividedBy divides m by n, rounding half-up to the minor unit.
func (m Money) DividedBy(n int64) (Money, error) {
	if n == 0 {
		return Money{}, ErrDivideByZero
	}
	return m.MultipliedBy(new(big.Rat).SetFrac64(1, n))
}

// MultipliedBy multiplies m by an exact rational factor, rounding half-up
// (away from zero on ties) to the minor unit.
func (m Money) MultipliedBy(r *big.Rat) (Money, error) {
	product := new(big.Rat).Mul(new(big.Rat).SetInt64(m.minor), r)
	rounded := roundHalfUp(product)
	if !rounded.IsInt64() {
		return Money{}, fmt.Errorf("%w: %s * %s", ErrOverflow, m, r.RatString())
	}
	return Money{unit: m.unit, minor: rounded.Int64(), scale: m.scale, valid: true}, nil
}

// Cmp compares the decimal magnitudes of m and o, ignoring currency.
func (m Money) Cmp(o Money) int {
	if m.scale == o.scale {
		switch {
		case m.minor < o.minor:
			return -1
		case m.minor > o.minor:
			return 1
		}
		return 0
	}
	return m.Rat().Cmp(o.Rat())
}

func roundHalfUp(r *big.Rat) *big.Int {
	num := new(big.Int).Set(r.Num())
	den := r.Denom()
	neg := num.Sign() < 0
	num.Abs(num)
	q, rem := new(big.Int).QuoRem(num, den, new(big.Int))
	if rem.Lsh(rem, 1).Cmp(den) >= 0 {
		q.Add(q, big.NewInt(1))
	}
	if neg {
		q.Neg(q)
	}
	return q
}

func pow10(n int) *big.Int {
	return new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(n)), nil)
}
