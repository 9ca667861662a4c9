package preferences

import (
	"strings"
	"testing"
)

func TestSnapshotEncoding(t *testing.T) {
	snap := Snapshot{
		DefaultDepartures:   map[string]DepartureRecord{"b": {StopID: 101, LeadMinutes: 0}, "a": {StopID: 104, LeadMinutes: 10}},
		DefaultDestinations: map[string]int{"a": 109},
	}

	data, err := snap.Encode()
	if err != nil {
		t.Fatalf("Encode failed: %v", err)
	}

	want := `{"default_departures":{"a":[104,10],"b":[101,0]},"default_destinations":{"a":109}}`
	if string(data) != want {
		t.Errorf("unexpected encoding\n got %s\nwant %s", data, want)
	}

	again, _ := snap.Encode()
	if string(again) != string(data) {
		t.Error("encoding is not deterministic")
	}
}

func TestEmptySnapshotEncoding(t *testing.T) {
	data, err := Snapshot{}.Encode()
	if err != nil {
		t.Fatalf("Encode failed: %v", err)
	}
	if string(data) != `{"default_departures":{},"default_destinations":{}}` {
		t.Errorf("unexpected encoding %s", data)
	}

	snap, err := DecodeSnapshot([]byte(`{}`))
	if err != nil {
		t.Fatalf("DecodeSnapshot failed: %v", err)
	}
	if snap.DefaultDepartures == nil || snap.DefaultDestinations == nil {
		t.Error("decoded maps must never be nil")
	}
}

func TestDecodeSnapshotErrors(t *testing.T) {
	tests := []struct {
		name      string
		input     string
		expectErr string
	}{
		{"not json", `not json`, "failed to decode"},
		{"record too short", `{"default_departures":{"a":[104]}}`, "expected [stop_id, lead_minutes]"},
		{"record is an object", `{"default_departures":{"a":{"stop":104}}}`, "departure record"},
		{"negative lead", `{"default_departures":{"a":[104,-5]}}`, "negative"},
		{"destination not a number", `{"default_destinations":{"a":"Boulingrin"}}`, "failed to decode"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := DecodeSnapshot([]byte(tt.input))
			if err == nil || !strings.Contains(err.Error(), tt.expectErr) {
				t.Errorf("expected error containing %q, got %v", tt.expectErr, err)
			}
		})
	}
}
