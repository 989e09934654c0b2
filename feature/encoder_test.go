package feature

import (
	"testing"
)

func TestOneHotEncoderWidth(t *testing.T) {
	e := NewOneHotEncoder(map[string][]string{
		"sector": {"Delivery", "Tech", "Writer"},
		"flag":   {"No", "Yes"},
		"single": {"Only"},
	})

	tests := []struct {
		name string
		key  string
		want int
	}{
		{name: "three categories", key: "sector", want: 2},
		{name: "two categories", key: "flag", want: 1},
		{name: "single category", key: "single", want: 0},
		{name: "unknown column", key: "missing", want: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := e.Width(tt.key); got != tt.want {
				t.Errorf("Width(%q) = %d, want %d", tt.key, got, tt.want)
			}
		})
	}
}

func TestOneHotEncoderEncode(t *testing.T) {
	e := NewOneHotEncoder(map[string][]string{
		"sector": {"Delivery", "Tech", "Writer"},
	})

	tests := []struct {
		name  string
		value string
		want  []float64
	}{
		{name: "first category drops to zeros", value: "Delivery", want: []float64{0, 0}},
		{name: "second category", value: "Tech", want: []float64{1, 0}},
		{name: "third category", value: "Writer", want: []float64{0, 1}},
		{name: "unknown value ignored", value: "Farming", want: []float64{0, 0}},
		{name: "empty value ignored", value: "", want: []float64{0, 0}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := e.Encode("sector", tt.value)
			if len(got) != len(tt.want) {
				t.Fatalf("Encode() width = %d, want %d", len(got), len(tt.want))
			}
			for i, v := range tt.want {
				if got[i] != v {
					t.Errorf("Encode()[%d] = %v, want %v", i, got[i], v)
				}
			}
		})
	}
}

func TestOneHotEncoderEncodeUnknownColumn(t *testing.T) {
	e := NewOneHotEncoder(map[string][]string{"sector": {"Delivery", "Tech"}})

	if got := e.Encode("missing", "anything"); got != nil {
		t.Errorf("Encode(missing column) = %v, want nil", got)
	}
}

func TestLabelEncoderDecode(t *testing.T) {
	e := NewLabelEncoder([]string{"High", "Low", "Moderate"})

	tests := []struct {
		name   string
		index  int
		want   string
		wantOK bool
	}{
		{name: "first class", index: 0, want: "High", wantOK: true},
		{name: "second class", index: 1, want: "Low", wantOK: true},
		{name: "third class", index: 2, want: "Moderate", wantOK: true},
		{name: "negative index", index: -1, wantOK: false},
		{name: "index past end", index: 3, wantOK: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := e.Decode(tt.index)
			if ok != tt.wantOK {
				t.Fatalf("Decode(%d) ok = %v, want %v", tt.index, ok, tt.wantOK)
			}
			if got != tt.want {
				t.Errorf("Decode(%d) = %q, want %q", tt.index, got, tt.want)
			}
		})
	}
}

func TestLabelEncoderEncode(t *testing.T) {
	e := NewLabelEncoder([]string{"High", "Low", "Moderate"})

	if idx, ok := e.Encode("Moderate"); !ok || idx != 2 {
		t.Errorf("Encode(Moderate) = %d, %v, want 2, true", idx, ok)
	}
	if idx, ok := e.Encode("Severe"); ok || idx != -1 {
		t.Errorf("Encode(Severe) = %d, %v, want -1, false", idx, ok)
	}
}

func TestMonitorSnapshot(t *testing.T) {
	m := NewMonitor()

	m.recordImputed("worker_age")
	m.recordImputed("worker_age")
	m.recordClamped("num_savings_accounts")
	m.recordOutOfRange("worker_age")
	m.recordMalformed("credit_age_months")

	snapshot := m.Snapshot()
	if len(snapshot) != 3 {
		t.Fatalf("Snapshot() has %d columns, want 3", len(snapshot))
	}
	// Snapshot is sorted by column name.
	wantOrder := []string{"credit_age_months", "num_savings_accounts", "worker_age"}
	for i, col := range wantOrder {
		if snapshot[i].Column != col {
			t.Errorf("Snapshot()[%d].Column = %q, want %q", i, snapshot[i].Column, col)
		}
	}

	age := m.ColumnSnapshot("worker_age")
	if age.Imputed != 2 || age.OutOfRange != 1 {
		t.Errorf("worker_age stats = %+v, want Imputed 2 OutOfRange 1", age)
	}
	if cs := m.ColumnSnapshot("untouched"); cs.Imputed != 0 || cs.Column != "untouched" {
		t.Errorf("ColumnSnapshot(untouched) = %+v, want zero counts", cs)
	}
}

func TestMonitorNilSafe(t *testing.T) {
	var m *Monitor

	// A nil monitor is a no-op sink; normalization must not require one.
	m.recordImputed("worker_age")
	m.recordClamped("worker_age")
	m.recordOutOfRange("worker_age")
	m.recordMalformed("worker_age")

	if got := m.Snapshot(); got != nil {
		t.Errorf("nil monitor Snapshot() = %v, want nil", got)
	}
}
