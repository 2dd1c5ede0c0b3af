package mmapi

import (
	"encoding/json"
	"testing"
)

func TestDevice_UnmarshalJSON(t *testing.T) {
	tests := []struct {
		name         string
		input        string
		wantPosition *int
		wantErr      bool
		wantFields   int
	}{
		{name: "integer position", input: `{"position": 3, "name": "drive"}`, wantPosition: intPtr(3), wantFields: 1},
		{name: "zero position", input: `{"position": 0}`, wantPosition: intPtr(0)},
		{name: "null position", input: `{"position": null, "a": 1}`, wantFields: 1},
		{name: "missing position", input: `{"a": 1, "b": "x"}`, wantFields: 2},
		{name: "float position", input: `{"position": 1.5}`, wantErr: true},
		{name: "string position", input: `{"position": "1"}`, wantErr: true},
		{name: "not an object", input: `[1]`, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var d Device
			err := json.Unmarshal([]byte(tt.input), &d)

			if (err != nil) != tt.wantErr {
				t.Fatalf("Unmarshal() error = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.wantErr {
				return
			}

			switch {
			case tt.wantPosition == nil && d.Position != nil:
				t.Errorf("Position = %d, want nil", *d.Position)
			case tt.wantPosition != nil && (d.Position == nil || *d.Position != *tt.wantPosition):
				t.Errorf("Position = %v, want %d", d.Position, *tt.wantPosition)
			}
			if len(d.Fields) != tt.wantFields {
				t.Errorf("len(Fields) = %d, want %d", len(d.Fields), tt.wantFields)
			}
			if _, ok := d.Fields["position"]; ok {
				t.Error("position should not be duplicated in Fields")
			}
		})
	}
}

func TestDevice_MarshalKeepsFields(t *testing.T) {
	var d Device
	if err := json.Unmarshal([]byte(`{"position": 7, "serialNumber": "8504-03", "hardwareDescription": {"id": 4}}`), &d); err != nil {
		t.Fatalf("Unmarshal() error = %v", err)
	}

	data, err := json.Marshal(d)
	if err != nil {
		t.Fatalf("Marshal() error = %v", err)
	}

	var back map[string]any
	if err := json.Unmarshal(data, &back); err != nil {
		t.Fatalf("Unmarshal(back) error = %v", err)
	}
	if back["position"] != float64(7) {
		t.Errorf("position = %v, want 7", back["position"])
	}
	if back["serialNumber"] != "8504-03" {
		t.Errorf("serialNumber = %v", back["serialNumber"])
	}
	if _, ok := back["hardwareDescription"].(map[string]any); !ok {
		t.Errorf("hardwareDescription should survive as an object, got %T", back["hardwareDescription"])
	}
}

func TestDevice_Helpers(t *testing.T) {
	d := NewDevice(4)
	if d.Label() != "4" {
		t.Errorf("Label() = %s, want 4", d.Label())
	}
	if d.String() != "device 4" {
		t.Errorf("String() = %s", d.String())
	}

	d.Fields["serialNumber"] = json.RawMessage(`"ABC"`)
	d.Fields["deviceAddress"] = json.RawMessage(`2045`)
	if d.String() != "device 4 (ABC)" {
		t.Errorf("String() = %s", d.String())
	}
	if d.Field("deviceAddress") != "" {
		t.Error("Field() should return empty string for non-string values")
	}
	names := d.FieldNames()
	if len(names) != 2 || names[0] != "deviceAddress" || names[1] != "serialNumber" {
		t.Errorf("FieldNames() = %v", names)
	}

	var none Device
	if none.HasPosition() || none.Label() != "?" {
		t.Errorf("zero Device should have no position, Label() = %s", none.Label())
	}
}

func intPtr(v int) *int { return &v }
