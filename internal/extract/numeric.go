package extract

import (
	"errors"
	"regexp"
	"strconv"
	"strings"
)

var (
	errNoDigits         = errors.New("no leading digits")
	errNonPositive      = errors.New("quantity must be at least 1")
	errNotPlainDecimal  = errors.New("not a plain decimal")
	plainDecimalPattern = regexp.MustCompile(`^[+-]?(?:[0-9]+(?:\.[0-9]*)?|\.[0-9]+)$`)
)

// parseQuantity reads "<int>x" cells. The trailing multiplication marker is dropped and the
// leading integer is parsed base-10, ignoring anything after it ("2.5" reads as 2). A line
// always buys at least one unit.
func parseQuantity(s string) (int, error) {
	t := strings.TrimSpace(s)
	t = strings.TrimRight(t, "xX×")
	t = strings.TrimSpace(t)

	end := 0
	if end < len(t) && (t[end] == '-' || t[end] == '+') {
		end++
	}
	digits := end
	for end < len(t) && t[end] >= '0' && t[end] <= '9' {
		end++
	}
	if end == digits {
		return 0, errNoDigits
	}
	n, err := strconv.Atoi(t[:end])
	if err != nil {
		return 0, err
	}
	if n < 1 {
		return 0, errNonPositive
	}
	return n, nil
}

// parseAmount reads "$<decimal>" cells. Only the first "$" is removed, so "-$2.00" reads
// as -2. The rest must be a plain base-10 decimal: no exponents, hex, NaN, infinities or
// thousands separators.
func parseAmount(s string) (float64, error) {
	t := strings.TrimSpace(strings.Replace(strings.TrimSpace(s), "$", "", 1))
	if !plainDecimalPattern.MatchString(t) {
		return 0, errNotPlainDecimal
	}
	return strconv.ParseFloat(t, 64)
}
