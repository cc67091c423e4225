package funcs

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// formatDate renders t with a SimpleDateFormat-style layout. Letters a-z and
// A-Z are pattern fields, text between single quotes is literal, '' is a
// quote, everything else is copied as is.
func formatDate(t time.Time, layout string, sym *dateSymbols) (string, error) {
	var b strings.Builder
	rs := []rune(layout)
	for i := 0; i < len(rs); {
		r := rs[i]
		switch {
		case r == '\'':
			n, err := quoted(rs[i:], &b)
			if err != nil {
				return "", fmt.Errorf("%w: %q", err, layout)
			}
			i += n
		case isPatternLetter(r):
			n := 1
			for i+n < len(rs) && rs[i+n] == r {
				n++
			}
			if err := field(&b, t, r, n, sym); err != nil {
				return "", fmt.Errorf("%w: %q", err, layout)
			}
			i += n
		default:
			b.WriteRune(r)
			i++
		}
	}
	return b.String(), nil
}

// quoted copies the quoted literal at the start of rs and returns how many
// runes it consumed.
func quoted(rs []rune, b *strings.Builder) (int, error) {
	if len(rs) > 1 && rs[1] == '\'' {
		b.WriteRune('\'')
		return 2, nil
	}
	for i := 1; i < len(rs); i++ {
		if rs[i] != '\'' {
			b.WriteRune(rs[i])
			continue
		}
		if i+1 < len(rs) && rs[i+1] == '\'' {
			b.WriteRune('\'')
			i++
			continue
		}
		return i + 1, nil
	}
	return 0, fmt.Errorf("%w: unterminated quote", ErrInvalidFormat)
}

func isPatternLetter(r rune) bool {
	return (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z')
}

func field(b *strings.Builder, t time.Time, letter rune, n int, sym *dateSymbols) error {
	switch letter {
	case 'G':
		if t.Year() > 0 {
			b.WriteString(sym.eras[1])
		} else {
			b.WriteString(sym.eras[0])
		}
	case 'y':
		writeYear(b, eraYear(t.Year()), n)
	case 'Y':
		y, _ := t.ISOWeek()
		writeYear(b, eraYear(y), n)
	case 'M', 'L':
		switch {
		case n >= 4:
			b.WriteString(sym.months[t.Month()-1])
		case n == 3:
			b.WriteString(sym.shortMonths[t.Month()-1])
		default:
			pad(b, int(t.Month()), n)
		}
	case 'w':
		_, w := t.ISOWeek()
		pad(b, w, n)
	case 'W':
		pad(b, weekOfMonth(t), n)
	case 'D':
		pad(b, t.YearDay(), n)
	case 'd':
		pad(b, t.Day(), n)
	case 'F':
		pad(b, (t.Day()-1)/7+1, n)
	case 'E':
		if n >= 4 {
			b.WriteString(sym.weekdays[t.Weekday()])
		} else {
			b.WriteString(sym.shortWeekdays[t.Weekday()])
		}
	case 'u':
		d := int(t.Weekday())
		if d == 0 {
			d = 7
		}
		pad(b, d, n)
	case 'a':
		if t.Hour() < 12 {
			b.WriteString(sym.ampm[0])
		} else {
			b.WriteString(sym.ampm[1])
		}
	case 'H':
		pad(b, t.Hour(), n)
	case 'k':
		h := t.Hour()
		if h == 0 {
			h = 24
		}
		pad(b, h, n)
	case 'K':
		pad(b, t.Hour()%12, n)
	case 'h':
		h := t.Hour() % 12
		if h == 0 {
			h = 12
		}
		pad(b, h, n)
	case 'm':
		pad(b, t.Minute(), n)
	case 's':
		pad(b, t.Second(), n)
	case 'S':
		pad(b, t.Nanosecond()/int(time.Millisecond), n)
	case 'z':
		if n >= 4 {
			b.WriteString(longZoneName(t))
		} else {
			b.WriteString(t.Format("MST"))
		}
	case 'Z':
		b.WriteString(t.Format("-0700"))
	case 'X':
		switch n {
		case 1:
			b.WriteString(t.Format("Z07"))
		case 2:
			b.WriteString(t.Format("Z0700"))
		case 3:
			b.WriteString(t.Format("Z07:00"))
		default:
			return fmt.Errorf("%w: too many pattern letters: X", ErrInvalidFormat)
		}
	default:
		return fmt.Errorf("%w: illegal pattern character '%c'", ErrInvalidFormat, letter)
	}
	return nil
}

type zoneName struct {
	name   string
	offset int // seconds east of UTC
}

// longZoneNames maps zone abbreviations to their English long names. An
// abbreviation only counts when the offset matches, since several are
// reused around the world.
var longZoneNames = map[string]zoneName{
	"UTC":  {"Coordinated Universal Time", 0},
	"GMT":  {"Greenwich Mean Time", 0},
	"BST":  {"British Summer Time", 3600},
	"WET":  {"Western European Time", 0},
	"WEST": {"Western European Summer Time", 3600},
	"CET":  {"Central European Time", 3600},
	"CEST": {"Central European Summer Time", 2 * 3600},
	"EET":  {"Eastern European Time", 2 * 3600},
	"EEST": {"Eastern European Summer Time", 3 * 3600},
	"MSK":  {"Moscow Standard Time", 3 * 3600},
	"EST":  {"Eastern Standard Time", -5 * 3600},
	"EDT":  {"Eastern Daylight Time", -4 * 3600},
	"CST":  {"Central Standard Time", -6 * 3600},
	"CDT":  {"Central Daylight Time", -5 * 3600},
	"MST":  {"Mountain Standard Time", -7 * 3600},
	"MDT":  {"Mountain Daylight Time", -6 * 3600},
	"PST":  {"Pacific Standard Time", -8 * 3600},
	"PDT":  {"Pacific Daylight Time", -7 * 3600},
	"AKST": {"Alaska Standard Time", -9 * 3600},
	"AKDT": {"Alaska Daylight Time", -8 * 3600},
	"HST":  {"Hawaii-Aleutian Standard Time", -10 * 3600},
	"JST":  {"Japan Standard Time", 9 * 3600},
	"KST":  {"Korean Standard Time", 9 * 3600},
	"IST":  {"India Standard Time", 5*3600 + 1800},
	"AEST": {"Australian Eastern Standard Time", 10 * 3600},
	"AEDT": {"Australian Eastern Daylight Time", 11 * 3600},
	"NZST": {"New Zealand Standard Time", 12 * 3600},
	"NZDT": {"New Zealand Daylight Time", 13 * 3600},
}

// longZoneName returns the name written for zzzz. Zones without a known
// name render as GMT+hh:mm.
func longZoneName(t time.Time) string {
	abbr, offset := t.Zone()
	if z, ok := longZoneNames[abbr]; ok && z.offset == offset {
		return z.name
	}
	sign := '+'
	if offset < 0 {
		sign = '-'
		offset = -offset
	}
	return fmt.Sprintf("GMT%c%02d:%02d", sign, offset/3600, offset%3600/60)
}

// eraYear converts an astronomical year to a year of era (1 BC is year 0).
func eraYear(y int) int {
	if y <= 0 {
		return 1 - y
	}
	return y
}

func writeYear(b *strings.Builder, y, n int) {
	if n == 2 {
		pad(b, y%100, 2)
		return
	}
	pad(b, y, n)
}

// weekOfMonth counts weeks starting on Monday; days before the first Monday
// fall in week 1 when the month starts mid-week.
func weekOfMonth(t time.Time) int {
	first := time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, t.Location())
	offset := (int(first.Weekday()) + 6) % 7
	return (t.Day()-1+offset)/7 + 1
}

func pad(b *strings.Builder, v, width int) {
	s := strconv.Itoa(v)
	for i := len(s); i < width; i++ {
		b.WriteByte('0')
	}
	b.WriteString(s)
}
