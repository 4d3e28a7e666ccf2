package warmup

import (
	"fmt"
	"strings"
)

// Mode is the canonical thermostat mode exposed to consumers.
type Mode int

const (
	ModeOff Mode = iota
	ModeHeat
	ModeAuto
)

func (m Mode) String() string {
	switch m {
	case ModeOff:
		return "off"
	case ModeHeat:
		return "heat"
	case ModeAuto:
		return "auto"
	default:
		return "unknown"
	}
}

// MarshalText implements encoding.TextMarshaler.
func (m Mode) MarshalText() ([]byte, error) {
	return []byte(m.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (m *Mode) UnmarshalText(text []byte) error {
	parsed, err := ParseMode(string(text))
	if err != nil {
		return err
	}
	*m = parsed
	return nil
}

// ParseMode accepts "off", "heat" or "auto" (case-insensitive).
func ParseMode(s string) (Mode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "off":
		return ModeOff, nil
	case "heat":
		return ModeHeat, nil
	case "auto":
		return ModeAuto, nil
	default:
		return ModeOff, fmt.Errorf("unknown mode %q (want off, heat or auto)", s)
	}
}

// MapMode reduces a vendor mode triple to a canonical mode. Rules apply in
// order and the first match wins; any unrecognized combination is Heat.
func MapMode(locMode, runMode, roomMode string) Mode {
	if locMode == LocModeOff || runMode == RunModeAntiFrost {
		return ModeOff
	}
	if roomMode == RoomModeProgram && (runMode == RunModeSchedule || runMode == RunModeOverride) {
		return ModeAuto
	}
	if roomMode == RoomModeFixed && runMode == RunModeFixed {
		return ModeHeat
	}
	return ModeHeat
}

// Status is the display view of a room.
type Status struct {
	RoomID   int    `json:"room_id" yaml:"room_id"`
	RoomName string `json:"room_name" yaml:"room_name"`
	Mode     Mode   `json:"mode" yaml:"mode"`

	// Valid is false when the record lacks runMode or roomMode. Such rooms
	// report Off and carry no temperatures.
	Valid         bool `json:"valid" yaml:"valid"`
	HeatingActive bool `json:"heating_active" yaml:"heating_active"`

	CurrentTemp float64 `json:"current_temp" yaml:"current_temp"`
	TargetTemp  float64 `json:"target_temp" yaml:"target_temp"`
	AirTemp     float64 `json:"air_temp" yaml:"air_temp"`
	MinTemp     float64 `json:"min_temp" yaml:"min_temp"`
	MaxTemp     float64 `json:"max_temp" yaml:"max_temp"`

	LocMode  string `json:"loc_mode" yaml:"loc_mode"`
	RunMode  string `json:"run_mode" yaml:"run_mode"`
	RoomMode string `json:"room_mode" yaml:"room_mode"`
}

// StatusOf derives the display view of a room record.
func StatusOf(r Room) Status {
	s := Status{
		RoomID:   r.RoomID,
		RoomName: r.RoomName,
		LocMode:  r.LocMode,
		RunMode:  r.RunMode,
		RoomMode: r.RoomMode,
	}
	if r.RunMode == "" || r.RoomMode == "" {
		s.Mode = ModeOff
		return s
	}

	s.Valid = true
	s.Mode = MapMode(r.LocMode, r.RunMode, r.RoomMode)
	s.HeatingActive = s.Mode != ModeOff
	s.CurrentTemp = displayTemp(r.CurrentTemp)
	s.TargetTemp = DisplayTarget(r)
	s.AirTemp = displayTemp(r.AirTemp)
	s.MinTemp = displayTemp(r.MinTemp)
	s.MaxTemp = displayTemp(r.MaxTemp)
	return s
}

// DisplayTarget is the override setpoint while an override runs, and the
// regular target otherwise.
func DisplayTarget(r Room) float64 {
	if r.RunMode == RunModeOverride {
		return displayTemp(r.OverrideTemp)
	}
	return displayTemp(r.TargetTemp)
}
