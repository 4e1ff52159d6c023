package calculator

import (
	"math"
	"strconv"
	"strings"
)

// FormatNumber renders v the way JavaScript's String(number) does: shortest
// round-trip digits, plain notation for magnitudes in [1e-6, 1e21) and
// exponent notation ("1e+21", "1.5e-7") outside it.
func FormatNumber(v float64) string {
	switch {
	case math.IsNaN(v):
		return "NaN"
	case math.IsInf(v, 1):
		return "Infinity"
	case math.IsInf(v, -1):
		return "-Infinity"
	case v == 0:
		// Covers -0 as well
		return "0"
	case v < 0:
		return "-" + FormatNumber(-v)
	}

	// Shortest digits d1.d2...dk with exponent e, value = 0.d1...dk * 10^n
	sci := strconv.FormatFloat(v, 'e', -1, 64)
	mantissa, expPart, _ := strings.Cut(sci, "e")
	digits := strings.Replace(mantissa, ".", "", 1)
	exp, _ := strconv.Atoi(expPart)
	k := len(digits)
	n := exp + 1

	switch {
	case k <= n && n <= 21:
		return digits + strings.Repeat("0", n-k)
	case 0 < n && n <= 21:
		return digits[:n] + "." + digits[n:]
	case -6 < n && n <= 0:
		return "0." + strings.Repeat("0", -n) + digits
	}

	sign := "+"
	if n-1 < 0 {
		sign = "-"
	}
	e := strconv.Itoa(abs(n - 1))
	if k == 1 {
		return digits + "e" + sign + e
	}
	return digits[:1] + "." + digits[1:] + "e" + sign + e
}

func abs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}
