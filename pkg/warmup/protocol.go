package warmup

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
)

// Constants defined by the Warmup mobile app API.
const (
	DefaultBaseURL = "https://api.warmup.com/apps/app/v1"

	appToken   = `M=;He<Xtg"$}4N%5k{$:PD+WA"]D<;#PriteY|VTuA>_iyhs+vA"4lic{6-LqNM:`
	appVersion = "1.8.1"
	appID      = "WARMUP-APP-V001"
	userAgent  = "WARMUP_APP"

	// RPC methods
	MethodUserLogin    = "userLogin"
	MethodGetLocations = "getLocations"
	MethodGetRooms     = "getRooms"
	MethodSetModes     = "setModes"
	MethodSetProgramme = "setProgramme"
	MethodSetOverride  = "setOverride"

	// Location modes
	LocModeOff    = "off"
	LocModeFrost  = "frost"
	LocModeNormal = "normal"

	// Room run modes
	RunModeOff       = "off"
	RunModeSchedule  = "schedule"
	RunModeOverride  = "override"
	RunModeFixed     = "fixed"
	RunModeAntiFrost = "anti_frost"

	// Room modes as reported by getRooms
	RoomModeProgram = "program"
	RoomModeFixed   = "fixed"

	// roomModeProg is what setProgramme expects for "follow schedule".
	roomModeProg = "prog"

	// overrideType is the only override kind the app sends.
	overrideType = 3

	// placeholder sent for every holiday field of setModes
	holidayUnset = "-"

	// maxWireTenths is the largest magnitude the three-digit wire format holds.
	maxWireTenths = 999
)

// EncodeTemperature converts degrees Celsius to the wire format: tenths of
// a degree, truncated toward zero and zero padded to three digits.
//
//	EncodeTemperature(21.57) // "215"
//	EncodeTemperature(3)     // "030"
//
// Values that do not fit in three digits return ErrRange.
func EncodeTemperature(celsius float64) (string, error) {
	tenths, err := tenthsOf(celsius)
	if err != nil {
		return "", err
	}
	if tenths > maxWireTenths || tenths < -maxWireTenths {
		return "", fmt.Errorf("%w: %v exceeds the wire format", ErrRange, celsius)
	}
	if tenths < 0 {
		return fmt.Sprintf("-%03d", -tenths), nil
	}
	return fmt.Sprintf("%03d", tenths), nil
}

// DecodeTemperature parses a tenths-of-degree wire value back to Celsius.
func DecodeTemperature(value string) (float64, error) {
	n, err := strconv.Atoi(strings.TrimSpace(value))
	if err != nil {
		return 0, fmt.Errorf("%w: temperature %q: %v", ErrParse, value, err)
	}
	return float64(n) / 10, nil
}

// OverrideUntil returns the 24-hour "HH:mm" expiry of an override of
// length d starting at now. The vendor receives UTC wall-clock time.
func OverrideUntil(now time.Time, d time.Duration) string {
	return now.UTC().Add(d).Format("15:04")
}

// tenthsOf truncates celsius*10 using the shortest decimal representation
// of the value, so 2.3 yields 23 rather than 22.999...
func tenthsOf(celsius float64) (int, error) {
	if math.IsNaN(celsius) || math.IsInf(celsius, 0) {
		return 0, fmt.Errorf("%w: %v", ErrRange, celsius)
	}

	s := strconv.FormatFloat(celsius, 'f', -1, 64)
	negative := strings.HasPrefix(s, "-")
	s = strings.TrimPrefix(s, "-")

	whole, frac, _ := strings.Cut(s, ".")
	n, err := strconv.Atoi(whole)
	if err != nil {
		return 0, fmt.Errorf("%w: %v: %v", ErrRange, celsius, err)
	}
	if n > (math.MaxInt-9)/10 {
		return 0, fmt.Errorf("%w: %v overflows", ErrRange, celsius)
	}
	n *= 10
	if frac != "" {
		n += int(frac[0] - '0')
	}
	if negative {
		return -n, nil
	}
	return n, nil
}

// displayTemp converts a tenths-of-degree field to Celsius.
func displayTemp(tenths int) float64 {
	return float64(tenths) / 10
}
