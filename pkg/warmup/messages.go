package warmup

import (
	"encoding/json"
	"fmt"
)

// Session is the authenticated context of one client. It is created once
// by Start and never renewed.
type Session struct {
	Token      string
	LocationID int
}

// Location is an entry of the getLocations reply.
type Location struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}

// Room is the vendor record for one thermostat. All temperatures are
// tenths of a degree Celsius.
type Room struct {
	RoomID   int    `json:"roomId"`
	RoomName string `json:"roomName"`

	// LocMode is the location-level field of getRooms when present,
	// otherwise the room's own value.
	LocMode  string `json:"locMode,omitempty"`
	RunMode  string `json:"runMode"`
	RoomMode string `json:"roomMode"`

	TargetTemp   int `json:"targetTemp"`
	CurrentTemp  int `json:"currentTemp"`
	AirTemp      int `json:"airTemp"`
	OverrideTemp int `json:"overrideTemp"`
	OverrideDur  int `json:"overrideDur"`
	MinTemp      int `json:"minTemp"`
	MaxTemp      int `json:"maxTemp"`
}

// Response is the raw "response" object of a successful command.
type Response struct {
	Method string
	Raw    json.RawMessage
}

type account struct {
	Email string `json:"email"`
	Token string `json:"token"`
}

// envelope is the body of every POST.
type envelope struct {
	Account *account `json:"account,omitempty"`
	Request any      `json:"request"`
}

type apiStatus struct {
	Result string `json:"result"`
}

type reply struct {
	Status   *apiStatus      `json:"status,omitempty"`
	Response json.RawMessage `json:"response"`
}

type loginRequest struct {
	Method   string `json:"method"`
	Email    string `json:"email"`
	Password string `json:"password"`
	AppID    string `json:"appId"`
}

type loginResponse struct {
	Token string `json:"token"`
}

type getLocationsRequest struct {
	Method string `json:"method"`
}

type locationsResponse struct {
	Locations []Location `json:"locations"`
}

type getRoomsRequest struct {
	Method string `json:"method"`
	LocID  int    `json:"locId"`
}

type roomsResponse struct {
	LocMode string `json:"locMode"`
	Rooms   []Room `json:"rooms"`
}

type setModesRequest struct {
	Method string     `json:"method"`
	Values modeValues `json:"values"`
}

type modeValues struct {
	LocID    int    `json:"locId"`
	LocMode  string `json:"locMode"`
	HolEnd   string `json:"holEnd"`
	HolStart string `json:"holStart"`
	HolTemp  string `json:"holTemp"`
	GeoMode  string `json:"geoMode"`
	// required (empty) when switching the location off
	FixedTemp *string `json:"fixedTemp,omitempty"`
}

type setProgrammeRequest struct {
	Method   string         `json:"method"`
	RoomID   int            `json:"roomId"`
	RoomMode string         `json:"roomMode"`
	Fixed    *fixedSetpoint `json:"fixed,omitempty"`
}

type fixedSetpoint struct {
	FixedTemp string `json:"fixedTemp"`
}

type setOverrideRequest struct {
	Method string `json:"method"`
	Rooms  []int  `json:"rooms"`
	Type   int    `json:"type"`
	Temp   string `json:"temp"`
	Until  string `json:"until"`
}

// newSetModesRequest builds the setModes payload for a location.
func newSetModesRequest(locID int, locMode string) setModesRequest {
	values := modeValues{
		LocID:    locID,
		LocMode:  locMode,
		HolEnd:   holidayUnset,
		HolStart: holidayUnset,
		HolTemp:  holidayUnset,
		GeoMode:  "0",
	}
	if locMode == LocModeOff {
		empty := ""
		values.FixedTemp = &empty
	}
	return setModesRequest{Method: MethodSetModes, Values: values}
}

func newSetProgrammeRequest(roomID int, roomMode string, celsius *float64) (setProgrammeRequest, error) {
	req := setProgrammeRequest{
		Method:   MethodSetProgramme,
		RoomID:   roomID,
		RoomMode: roomMode,
	}
	if celsius != nil {
		temp, err := EncodeTemperature(*celsius)
		if err != nil {
			return setProgrammeRequest{}, err
		}
		req.Fixed = &fixedSetpoint{FixedTemp: temp}
	}
	return req, nil
}

func newSetOverrideRequest(roomID int, celsius float64, until string) (setOverrideRequest, error) {
	temp, err := EncodeTemperature(celsius)
	if err != nil {
		return setOverrideRequest{}, err
	}
	return setOverrideRequest{
		Method: MethodSetOverride,
		Rooms:  []int{roomID},
		Type:   overrideType,
		Temp:   temp,
		Until:  until,
	}, nil
}

// UnmarshalRooms decodes a getRooms response object. Each room receives
// the location-level mode when the response carries one, and when the
// location is off every room's run mode is forced to off: room fields lag
// behind a location-wide off.
func UnmarshalRooms(data []byte) ([]Room, error) {
	var resp roomsResponse
	if err := json.Unmarshal(data, &resp); err != nil {
		return nil, fmt.Errorf("%w: rooms: %v", ErrParse, err)
	}

	rooms := make([]Room, 0, len(resp.Rooms))
	for _, room := range resp.Rooms {
		if resp.LocMode != "" {
			room.LocMode = resp.LocMode
		}
		if room.LocMode == LocModeOff {
			room.RunMode = RunModeOff
		}
		rooms = append(rooms, room)
	}
	return rooms, nil
}
