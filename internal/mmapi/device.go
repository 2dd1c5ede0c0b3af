package mmapi

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
)

// Device is one entry of the endpoint's device list.
//
// Only the position is interpreted. Every other attribute is kept as raw
// JSON in Fields so that it can be displayed or re-encoded unchanged.
type Device struct {
	// Position is the device's slot in the chain. Nil when the endpoint
	// omits it or sends null.
	Position *int

	// Fields holds all remaining attributes keyed by JSON name
	Fields map[string]json.RawMessage
}

// UnmarshalJSON decodes a device object. A missing or null position is
// valid; a position that is not an integer is not.
func (d *Device) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	d.Position = nil
	if value, ok := raw["position"]; ok {
		delete(raw, "position")
		if !bytes.Equal(bytes.TrimSpace(value), []byte("null")) {
			var position int
			if err := json.Unmarshal(value, &position); err != nil {
				return fmt.Errorf("invalid position %s: %w", string(value), err)
			}
			d.Position = &position
		}
	}

	d.Fields = raw
	return nil
}

// MarshalJSON re-encodes the device with its position and all other fields
func (d Device) MarshalJSON() ([]byte, error) {
	out := make(map[string]json.RawMessage, len(d.Fields)+1)
	for key, value := range d.Fields {
		out[key] = value
	}
	if d.Position != nil {
		out["position"] = json.RawMessage(strconv.Itoa(*d.Position))
	} else {
		out["position"] = json.RawMessage("null")
	}
	return json.Marshal(out)
}

// HasPosition reports whether the endpoint supplied a position
func (d Device) HasPosition() bool {
	return d.Position != nil
}

// Label returns the position as text, or "?" when it is absent
func (d Device) Label() string {
	if d.Position == nil {
		return "?"
	}
	return strconv.Itoa(*d.Position)
}

// Field returns a string attribute, or "" if it is missing or not a string
func (d Device) Field(name string) string {
	raw, ok := d.Fields[name]
	if !ok {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return ""
	}
	return s
}

// FieldNames returns the extra attribute names in sorted order
func (d Device) FieldNames() []string {
	names := make([]string, 0, len(d.Fields))
	for name := range d.Fields {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// String returns a human-readable description of the device
func (d Device) String() string {
	if serial := d.Field("serialNumber"); serial != "" {
		return fmt.Sprintf("device %s (%s)", d.Label(), serial)
	}
	return "device " + d.Label()
}

// NewDevice builds a device at the given position with no extra fields
func NewDevice(position int) Device {
	return Device{Position: &position, Fields: map[string]json.RawMessage{}}
}
