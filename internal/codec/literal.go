package codec

import (
	"fmt"
	"math"
	"math/bits"
	"strconv"
	"strings"
	"time"

	"github.com/hengadev/exprjson/internal/document"
)

// MaxSafeInteger is the largest integer a float64 holds exactly. Integers
// beyond it are written as decimal strings.
const MaxSafeInteger = 1<<53 - 1

// Tokens written for floats JSON has no literal for.
const (
	TokenNaN    = "NaN"
	TokenPosInf = "INF"
	TokenNegInf = "-INF"
)

func intNode(label string, v int64) *document.Node {
	if v > MaxSafeInteger || v < -MaxSafeInteger {
		return document.String(label, strconv.FormatInt(v, 10))
	}
	return document.Int(label, v)
}

func uintNode(label string, v uint64) *document.Node {
	if v > MaxSafeInteger {
		return document.String(label, strconv.FormatUint(v, 10))
	}
	return document.Uint(label, v)
}

func floatNode(label string, v float64, bitSize int) *document.Node {
	switch {
	case math.IsNaN(v):
		return document.String(label, TokenNaN)
	case math.IsInf(v, 1):
		return document.String(label, TokenPosInf)
	case math.IsInf(v, -1):
		return document.String(label, TokenNegInf)
	}
	return document.Float(label, v, bitSize)
}

// parseFloatLiteral reads a number literal or one of the special tokens.
func parseFloatLiteral(n *document.Node, bitSize int) (float64, error) {
	if n.Kind() == document.KindString {
		switch n.Literal() {
		case TokenNaN:
			return math.NaN(), nil
		case TokenPosInf:
			return math.Inf(1), nil
		case TokenNegInf:
			return math.Inf(-1), nil
		}
		return 0, fmt.Errorf("'%s' is not a float token", n.Literal())
	}
	if n.Kind() != document.KindNumber {
		return 0, fmt.Errorf("expected number, got %s", n.Kind())
	}
	return strconv.ParseFloat(n.Literal(), bitSize)
}

const day = 24 * time.Hour

// formatDuration writes d as [-]P[nD]T[nH][nM][n[.f]S]. The day segment is left
// out when zero and a zero duration is PT0S.
func formatDuration(d time.Duration) string {
	var b strings.Builder
	mag := uint64(d)
	if d < 0 {
		b.WriteByte('-')
		mag = -mag
	}
	b.WriteByte('P')
	if days := mag / uint64(day); days > 0 {
		b.WriteString(strconv.FormatUint(days, 10))
		b.WriteByte('D')
		mag %= uint64(day)
	}
	if mag == 0 {
		if d == 0 {
			b.WriteString("T0S")
		}
		return b.String()
	}
	b.WriteByte('T')
	if h := mag / uint64(time.Hour); h > 0 {
		b.WriteString(strconv.FormatUint(h, 10))
		b.WriteByte('H')
		mag %= uint64(time.Hour)
	}
	if m := mag / uint64(time.Minute); m > 0 {
		b.WriteString(strconv.FormatUint(m, 10))
		b.WriteByte('M')
		mag %= uint64(time.Minute)
	}
	if mag > 0 {
		b.WriteString(strconv.FormatUint(mag/uint64(time.Second), 10))
		if frac := mag % uint64(time.Second); frac > 0 {
			b.WriteByte('.')
			b.WriteString(strings.TrimRight(fmt.Sprintf("%09d", frac), "0"))
		}
		b.WriteByte('S')
	}
	return b.String()
}

// parseDuration is the inverse of formatDuration. It also accepts a T with an
// empty time part.
func parseDuration(s string) (time.Duration, error) {
	in := s
	neg := strings.HasPrefix(s, "-")
	if neg {
		s = s[1:]
	}
	if !strings.HasPrefix(s, "P") || len(s) < 2 {
		return 0, fmt.Errorf("duration '%s' must start with P", in)
	}
	s = s[1:]

	var total uint64
	var ok bool
	inTime := false
	units := "D"
	for s != "" {
		if s[0] == 'T' {
			if inTime {
				return 0, fmt.Errorf("duration '%s' has two T separators", in)
			}
			inTime, units, s = true, "HMS", s[1:]
			continue
		}
		i := 0
		for i < len(s) && (s[i] >= '0' && s[i] <= '9' || s[i] == '.') {
			i++
		}
		if i == 0 || i == len(s) {
			return 0, fmt.Errorf("duration '%s' is malformed", in)
		}
		number, unit := s[:i], s[i]
		pos := strings.IndexByte(units, unit)
		if pos < 0 {
			return 0, fmt.Errorf("duration '%s' has unexpected unit %c", in, unit)
		}
		// units must appear in order and at most once
		units = units[pos+1:]
		s = s[i+1:]

		var scale uint64
		switch unit {
		case 'D':
			scale = uint64(day)
		case 'H':
			scale = uint64(time.Hour)
		case 'M':
			scale = uint64(time.Minute)
		case 'S':
			scale = uint64(time.Second)
		}
		whole, frac, hasFrac := strings.Cut(number, ".")
		if hasFrac && unit != 'S' {
			return 0, fmt.Errorf("duration '%s' has a fraction outside seconds", in)
		}
		n, err := strconv.ParseUint(whole, 10, 64)
		if err != nil {
			return 0, fmt.Errorf("duration '%s': %w", in, err)
		}
		if total, ok = mulAdd(total, n, scale); !ok {
			return 0, fmt.Errorf("duration '%s' overflows", in)
		}
		if hasFrac {
			if len(frac) == 0 || len(frac) > 9 {
				return 0, fmt.Errorf("duration '%s' has an invalid fraction", in)
			}
			nanos, err := strconv.ParseUint(frac+strings.Repeat("0", 9-len(frac)), 10, 64)
			if err != nil {
				return 0, fmt.Errorf("duration '%s': %w", in, err)
			}
			if total, ok = mulAdd(total, nanos, 1); !ok {
				return 0, fmt.Errorf("duration '%s' overflows", in)
			}
		}
	}

	if neg {
		if total > 1<<63 {
			return 0, fmt.Errorf("duration '%s' overflows", in)
		}
		return time.Duration(-total), nil
	}
	if total > math.MaxInt64 {
		return 0, fmt.Errorf("duration '%s' overflows", in)
	}
	return time.Duration(total), nil
}

// mulAdd returns total + n*scale and whether it fits in a uint64.
func mulAdd(total, n, scale uint64) (uint64, bool) {
	hi, lo := bits.Mul64(n, scale)
	if hi != 0 {
		return 0, false
	}
	sum, carry := bits.Add64(total, lo, 0)
	return sum, carry == 0
}
