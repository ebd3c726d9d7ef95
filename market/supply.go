package market

import (
	"errors"
	"strconv"
)

// Supply levels as reported by station telemetry. Unknown is used both
// for the bare "?" reading and for a "?" level suffix.
const (
	LevelUnknown int32 = -1
	LevelLow     int32 = 1
	LevelMedium  int32 = 2
	LevelHigh    int32 = 3
)

// Parse failures for supply readings. Callers match with errors.Is.
var (
	ErrEmptyReading     = errors.New("empty supply reading")
	ErrInvalidReading   = errors.New("invalid supply reading")
	ErrMalformedReading = errors.New("malformed supply reading")
	ErrInvalidNumber    = errors.New("invalid number in supply reading")
	ErrMissingLevel     = errors.New("missing level-suffix in supply reading")
	ErrInvalidLevel     = errors.New("invalid unit in supply reading")
)

// ParseSupplyLevel parses a station supply reading into a unit count and
// a level. Accepted forms:
//
//	?               unknown, reported as (-1, -1)
//	- or 0          zero stock, reported as (0, 0)
//	<units><level>  units are decimal digits, level one of l, m, h or ?
//
// The level suffix is case-insensitive. Units must fit in an unsigned
// 32-bit integer.
func ParseSupplyLevel(reading string) (units, level int32, err error) {
	if len(reading) > 1 {
		if reading[0] < '0' || reading[0] > '9' {
			return 0, 0, ErrMalformedReading
		}
		digits, suffix := reading[:len(reading)-1], reading[len(reading)-1]
		n, perr := strconv.ParseUint(digits, 10, 32)
		if perr != nil {
			return 0, 0, ErrInvalidNumber
		}
		switch {
		case suffix >= '0' && suffix <= '9':
			return 0, 0, ErrMissingLevel
		case suffix == 'l' || suffix == 'L':
			level = LevelLow
		case suffix == 'm' || suffix == 'M':
			level = LevelMedium
		case suffix == 'h' || suffix == 'H':
			level = LevelHigh
		case suffix == '?':
			level = LevelUnknown
		default:
			return 0, 0, ErrInvalidLevel
		}
		return int32(uint32(n)), level, nil
	}

	switch reading {
	case "?":
		return -1, -1, nil
	case "-", "0":
		return 0, 0, nil
	case "":
		return 0, 0, ErrEmptyReading
	default:
		return 0, 0, ErrInvalidReading
	}
}
