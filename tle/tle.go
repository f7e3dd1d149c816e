package tle

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
)

// TLE is a two-line element set: a named object's NORAD catalog number
// plus the two 69-column data lines.
type TLE struct {
	Name     string
	NoradID  int
	Line1    string
	Line2    string
}

// Epoch parses the TLE epoch (line 1 columns 19-32: two-digit year plus
// fractional day-of-year) into a UTC time.Time.
func (t TLE) Epoch() (time.Time, error) {
	if len(t.Line1) < 32 {
		return time.Time{}, fmt.Errorf("tle: line 1 too short for epoch field")
	}
	yy, err := strconv.Atoi(strings.TrimSpace(t.Line1[18:20]))
	if err != nil {
		return time.Time{}, fmt.Errorf("tle: bad epoch year: %w", err)
	}
	dayFrac, err := strconv.ParseFloat(strings.TrimSpace(t.Line1[20:32]), 64)
	if err != nil {
		return time.Time{}, fmt.Errorf("tle: bad epoch day: %w", err)
	}
	year := 2000 + yy
	if yy >= 57 {
		year = 1900 + yy
	}
	day := int(dayFrac)
	frac := dayFrac - float64(day)
	base := time.Date(year, 1, 1, 0, 0, 0, 0, time.UTC).AddDate(0, 0, day-1)
	return base.Add(time.Duration(frac * 24 * float64(time.Hour))), nil
}

// ToMEOE parses the TLE's classical elements (line 2) and BSTAR (line 1)
// into MEOEParams, and returns its epoch.
func (t TLE) ToMEOE(mu float64) (MEOEParams, time.Time, error) {
	epoch, err := t.Epoch()
	if err != nil {
		return MEOEParams{}, time.Time{}, err
	}
	if len(t.Line1) < 61 || len(t.Line2) < 63 {
		return MEOEParams{}, time.Time{}, fmt.Errorf("tle: lines too short")
	}
	bstar, err := parseAssumedDecimal(t.Line1[53:61])
	if err != nil {
		return MEOEParams{}, time.Time{}, fmt.Errorf("tle: bad bstar: %w", err)
	}
	incDeg, err := strconv.ParseFloat(strings.TrimSpace(t.Line2[8:16]), 64)
	if err != nil {
		return MEOEParams{}, time.Time{}, fmt.Errorf("tle: bad inclination: %w", err)
	}
	raanDeg, err := strconv.ParseFloat(strings.TrimSpace(t.Line2[17:25]), 64)
	if err != nil {
		return MEOEParams{}, time.Time{}, fmt.Errorf("tle: bad raan: %w", err)
	}
	ecc, err := parseAssumedDecimal(t.Line2[26:33])
	if err != nil {
		return MEOEParams{}, time.Time{}, fmt.Errorf("tle: bad eccentricity: %w", err)
	}
	argpDeg, err := strconv.ParseFloat(strings.TrimSpace(t.Line2[34:42]), 64)
	if err != nil {
		return MEOEParams{}, time.Time{}, fmt.Errorf("tle: bad argp: %w", err)
	}
	maDeg, err := strconv.ParseFloat(strings.TrimSpace(t.Line2[43:51]), 64)
	if err != nil {
		return MEOEParams{}, time.Time{}, fmt.Errorf("tle: bad mean anomaly: %w", err)
	}
	nRevDay, err := strconv.ParseFloat(strings.TrimSpace(t.Line2[52:63]), 64)
	if err != nil {
		return MEOEParams{}, time.Time{}, fmt.Errorf("tle: bad mean motion: %w", err)
	}

	n := nRevDay * 2 * math.Pi / 86400 // rad/s
	sma := math.Cbrt(mu / (n * n))
	nu := meanAnomalyToTrueAnomaly(maDeg*math.Pi/180, ecc)

	meoe := FromClassical(sma, ecc, incDeg*math.Pi/180, raanDeg*math.Pi/180, argpDeg*math.Pi/180, nu)
	meoe.BStar = bstar
	return meoe, epoch, nil
}

// Format builds a TLE (name, catalog number, epoch, elements) from a
// MEOEParams, mean motion (rad/s) and revolution number, producing
// checksummed 69-column lines in the standard format.
func Format(name string, noradID int, epoch time.Time, meoe MEOEParams, meanMotionRadPerS float64, revNumber int, elementNumber int) TLE {
	sma, ecc, inc, raan, argp, nu := meoe.ToClassical()
	_ = sma
	ma := trueAnomalyToMeanAnomaly(nu, ecc)

	year := epoch.Year() % 100
	startOfYear := time.Date(epoch.Year(), 1, 1, 0, 0, 0, 0, time.UTC)
	dayFrac := epoch.Sub(startOfYear).Hours()/24 + 1

	line1Body := fmt.Sprintf("1 %05dU 00000A   %02d%012.8f  .00000000  00000-0 %s 0  %04d",
		noradID, year, dayFrac, formatAssumedDecimal(meoe.BStar), elementNumber%10000)
	line1 := line1Body + strconv.Itoa(checksum(line1Body))

	nRevDay := meanMotionRadPerS * 86400 / (2 * math.Pi)
	line2Body := fmt.Sprintf("2 %05d %8.4f %8.4f %07d %8.4f %8.4f %11.8f%5d",
		noradID,
		degrees(inc), degrees(raan), int(math.Round(ecc*1e7)), degrees(argp), degrees(ma), nRevDay, revNumber%100000)
	line2 := line2Body + strconv.Itoa(checksum(line2Body))

	return TLE{Name: name, NoradID: noradID, Line1: line1, Line2: line2}
}

func degrees(rad float64) float64 { return math.Mod(rad*180/math.Pi+360, 360) }

// checksum is the TLE mod-10 checksum: sum of all digits, with '-' counted
// as 1 and every other character counted as 0.
func checksum(line string) int {
	sum := 0
	for _, c := range line {
		switch {
		case c >= '0' && c <= '9':
			sum += int(c - '0')
		case c == '-':
			sum++
		}
	}
	return sum % 10
}

// parseAssumedDecimal parses a TLE field with an implied leading decimal
// point (e.g. "12345-3" means 0.12345e-3).
func parseAssumedDecimal(field string) (float64, error) {
	f := strings.TrimSpace(field)
	if f == "" {
		return 0, nil
	}
	neg := false
	if f[0] == '-' {
		neg = true
		f = f[1:]
	} else if f[0] == '+' {
		f = f[1:]
	}
	mantissa := f
	exp := 0
	if idx := strings.IndexAny(f, "+-"); idx > 0 {
		mantissa = f[:idx]
		e, err := strconv.Atoi(f[idx:])
		if err != nil {
			return 0, err
		}
		exp = e
	}
	digits, err := strconv.ParseFloat(mantissa, 64)
	if err != nil {
		return 0, err
	}
	v := digits / math.Pow(10, float64(len(mantissa))) * math.Pow(10, float64(exp))
	if neg {
		v = -v
	}
	return v, nil
}

func formatAssumedDecimal(v float64) string {
	if v == 0 {
		return " 00000-0"
	}
	sign := "+"
	if v < 0 {
		sign = "-"
		v = -v
	}
	exp := 0
	for v < 0.1 && v > 0 {
		v *= 10
		exp--
	}
	for v >= 1 {
		v /= 10
		exp++
	}
	mantissa := int(math.Round(v * 1e5))
	return fmt.Sprintf("%s%05d%+d", sign, mantissa, exp)
}

func meanAnomalyToTrueAnomaly(ma, ecc float64) float64 {
	e := keplerSolve(ma, ecc)
	beta := ecc / (1 + math.Sqrt(1-ecc*ecc))
	return e + 2*math.Atan(beta*math.Sin(e)/(1-beta*math.Cos(e)))
}

func trueAnomalyToMeanAnomaly(nu, ecc float64) float64 {
	E := 2 * math.Atan2(math.Sqrt(1-ecc)*math.Sin(nu/2), math.Sqrt(1+ecc)*math.Cos(nu/2))
	m := E - ecc*math.Sin(E)
	return wrapTwoPi(m)
}

// keplerSolve solves Kepler's equation M = E - e*sin(E) for E by
// Newton-Raphson, reused by the MEOE<->mean-anomaly round trip.
func keplerSolve(ma, ecc float64) float64 {
	e := ma
	for i := 0; i < 50; i++ {
		delta := (e - ecc*math.Sin(e) - ma) / (1 - ecc*math.Cos(e))
		e -= delta
		if math.Abs(delta) < 1e-12 {
			break
		}
	}
	return e
}
