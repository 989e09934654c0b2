package feature

import (
	"math"
	"testing"

	"github.com/rushteam/stresskit/core"
)

func TestParseCreditAge(t *testing.T) {
	tests := []struct {
		name    string
		in      string
		want    float64
		wantErr bool
	}{
		{name: "twenty years seven months", in: "20 y. 7 m.", want: 247},
		{name: "two years three months", in: "2 y. 3 m.", want: 27},
		{name: "zero years zero months", in: "0 y. 0 m.", want: 0},
		{name: "single year", in: "1 y. 0 m.", want: 12},
		{name: "months only", in: "0 y. 11 m.", want: 11},
		{name: "empty string", in: "", wantErr: true},
		{name: "free text", in: "unknown", wantErr: true},
		{name: "missing month part", in: "20 y.", wantErr: true},
		{name: "non-numeric year", in: "x y. 7 m.", wantErr: true},
		{name: "non-numeric month", in: "20 y. z m.", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseCreditAge(tt.in)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("ParseCreditAge(%q) = %v, want error", tt.in, got)
				}
				if !core.IsMalformedInput(err) {
					t.Errorf("ParseCreditAge(%q) error = %v, want MALFORMED_INPUT", tt.in, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseCreditAge(%q) error = %v", tt.in, err)
			}
			if got != tt.want {
				t.Errorf("ParseCreditAge(%q) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}

func testNormalizerParams() NormalizerParams {
	return NormalizerParams{
		Medians: map[string]float64{
			core.FieldWorkerAge:              30,
			core.FieldMonthlyGigIncome:       2000,
			core.FieldNumSavingsAccounts:     2,
			core.FieldAvgLoanDelayDays:       4,
			core.FieldCreditAgeMonthsNumeric: 120,
		},
		Means: map[string]float64{
			core.FieldWorkerAge:              36,
			core.FieldMonthlyGigIncome:       2600,
			core.FieldNumSavingsAccounts:     2.4,
			core.FieldAvgLoanDelayDays:       5.5,
			core.FieldCreditAgeMonthsNumeric: 132,
		},
		OutlierColumns: []string{core.FieldMonthlyGigIncome, core.FieldAvgLoanDelayDays},
		NumericFeatures: []string{
			core.FieldWorkerAge,
			core.FieldMonthlyGigIncome,
			core.FieldNumSavingsAccounts,
			core.FieldAvgLoanDelayDays,
			core.FieldCreditAgeMonthsNumeric,
		},
		CategoricalFeatures: []string{core.FieldJobSector, core.FieldSpendingBehavior},
		FeatureOrder: []string{
			core.FieldWorkerAge,
			core.FieldMonthlyGigIncome,
			core.FieldNumSavingsAccounts,
			core.FieldAvgLoanDelayDays,
			core.FieldCreditAgeMonthsNumeric,
			core.FieldJobSector,
			core.FieldSpendingBehavior,
		},
	}
}

func newTestNormalizer(t *testing.T) *Normalizer {
	t.Helper()
	n, err := NewNormalizer(testNormalizerParams())
	if err != nil {
		t.Fatalf("NewNormalizer() error = %v", err)
	}
	return n
}

func fptr(v float64) *float64 { return &v }
func sptr(s string) *string   { return &s }

func TestNewNormalizerValidatesParams(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*NormalizerParams)
	}{
		{
			name:   "empty feature order",
			mutate: func(p *NormalizerParams) { p.FeatureOrder = nil },
		},
		{
			name:   "order length mismatch",
			mutate: func(p *NormalizerParams) { p.FeatureOrder = p.FeatureOrder[:3] },
		},
		{
			name:   "missing median",
			mutate: func(p *NormalizerParams) { delete(p.Medians, core.FieldWorkerAge) },
		},
		{
			name:   "missing mean",
			mutate: func(p *NormalizerParams) { delete(p.Means, core.FieldMonthlyGigIncome) },
		},
		{
			name:   "unclassified column in order",
			mutate: func(p *NormalizerParams) { p.FeatureOrder[6] = "mystery_column" },
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := testNormalizerParams()
			tt.mutate(&p)
			_, err := NewNormalizer(p)
			if err == nil {
				t.Fatal("NewNormalizer() = nil error, want SCHEMA_MISMATCH")
			}
			if !core.IsSchemaMismatch(err) {
				t.Errorf("NewNormalizer() error = %v, want SCHEMA_MISMATCH", err)
			}
		})
	}
}

func TestNormalizeCreditAgeConversion(t *testing.T) {
	n := newTestNormalizer(t)

	rec := &core.WorkerRecord{
		WorkerAge:          fptr(28),
		MonthlyGigIncome:   fptr(5000),
		NumSavingsAccounts: fptr(1),
		AvgLoanDelayDays:   fptr(2),
		CreditAgeMonths:    sptr("20 y. 7 m."),
		JobSector:          sptr("Writer"),
		SpendingBehavior:   sptr("Medium"),
	}

	got, err := n.Normalize(rec)
	if err != nil {
		t.Fatalf("Normalize() error = %v", err)
	}
	if v := got.Numeric[core.FieldCreditAgeMonthsNumeric]; v != 247 {
		t.Errorf("credit_age_months_numeric = %v, want 247", v)
	}
	if _, ok := got.Numeric[core.FieldCreditAgeMonths]; ok {
		t.Error("raw credit_age_months survived normalization")
	}
}

func TestNormalizeUnparsableCreditAgeIsImputedNotZero(t *testing.T) {
	n := newTestNormalizer(t)

	rec := &core.WorkerRecord{
		WorkerAge:          fptr(28),
		MonthlyGigIncome:   fptr(5000),
		NumSavingsAccounts: fptr(1),
		AvgLoanDelayDays:   fptr(2),
		CreditAgeMonths:    sptr("garbled"),
		JobSector:          sptr("Writer"),
		SpendingBehavior:   sptr("Medium"),
	}

	got, err := n.Normalize(rec)
	if err != nil {
		t.Fatalf("Normalize() error = %v", err)
	}
	// credit_age_months_numeric is not an outlier column: mean fill, never zero.
	if v := got.Numeric[core.FieldCreditAgeMonthsNumeric]; v != 132 {
		t.Errorf("credit_age_months_numeric = %v, want mean 132", v)
	}
}

func TestNormalizeClampsNegativeCounts(t *testing.T) {
	n := newTestNormalizer(t)

	tests := []struct {
		name   string
		rec    *core.WorkerRecord
		column string
		want   float64
	}{
		{
			name: "negative savings accounts clamped",
			rec: &core.WorkerRecord{
				NumSavingsAccounts: fptr(-3),
			},
			column: core.FieldNumSavingsAccounts,
			want:   0,
		},
		{
			name: "negative loan delay clamped",
			rec: &core.WorkerRecord{
				AvgLoanDelayDays: fptr(-1.5),
			},
			column: core.FieldAvgLoanDelayDays,
			want:   0,
		},
		{
			name: "positive savings accounts untouched",
			rec: &core.WorkerRecord{
				NumSavingsAccounts: fptr(3),
			},
			column: core.FieldNumSavingsAccounts,
			want:   3,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := n.Normalize(tt.rec)
			if err != nil {
				t.Fatalf("Normalize() error = %v", err)
			}
			if v := got.Numeric[tt.column]; v != tt.want {
				t.Errorf("%s = %v, want %v", tt.column, v, tt.want)
			}
		})
	}
}

func TestNormalizeImputationPolicy(t *testing.T) {
	n := newTestNormalizer(t)

	// Everything missing: outlier columns take the median, the rest the mean,
	// categoricals become Unknown.
	got, err := n.Normalize(&core.WorkerRecord{})
	if err != nil {
		t.Fatalf("Normalize() error = %v", err)
	}

	tests := []struct {
		column string
		want   float64
	}{
		{column: core.FieldWorkerAge, want: 36},               // mean
		{column: core.FieldMonthlyGigIncome, want: 2000},      // median (outlier column)
		{column: core.FieldNumSavingsAccounts, want: 2.4},     // mean
		{column: core.FieldAvgLoanDelayDays, want: 4},         // median (outlier column)
		{column: core.FieldCreditAgeMonthsNumeric, want: 132}, // mean
	}
	for _, tt := range tests {
		if v := got.Numeric[tt.column]; v != tt.want {
			t.Errorf("%s = %v, want %v", tt.column, v, tt.want)
		}
	}

	if v := got.Categorical[core.FieldJobSector]; v != UnknownCategory {
		t.Errorf("job_sector = %q, want %q", v, UnknownCategory)
	}
	if v := got.Categorical[core.FieldSpendingBehavior]; v != UnknownCategory {
		t.Errorf("spending_behavior = %q, want %q", v, UnknownCategory)
	}
}

func TestNormalizeOutOfRangeTreatedAsMissing(t *testing.T) {
	n := newTestNormalizer(t)

	// Age 7 is outside the legal range and must be imputed, not passed through.
	got, err := n.Normalize(&core.WorkerRecord{WorkerAge: fptr(7)})
	if err != nil {
		t.Fatalf("Normalize() error = %v", err)
	}
	if v := got.Numeric[core.FieldWorkerAge]; v != 36 {
		t.Errorf("worker_age = %v, want mean 36", v)
	}
}

func TestNormalizeIsIdempotentOnCompleteRecord(t *testing.T) {
	n := newTestNormalizer(t).WithMonitor(NewMonitor())

	rec := &core.WorkerRecord{
		WorkerAge:          fptr(28),
		MonthlyGigIncome:   fptr(5865.98),
		NumSavingsAccounts: fptr(2),
		AvgLoanDelayDays:   fptr(3.2),
		CreditAgeMonths:    sptr("10 y. 0 m."),
		JobSector:          sptr("Writer"),
		SpendingBehavior:   sptr("Medium"),
	}

	got, err := n.Normalize(rec)
	if err != nil {
		t.Fatalf("Normalize() error = %v", err)
	}

	want := map[string]float64{
		core.FieldWorkerAge:              28,
		core.FieldMonthlyGigIncome:       5865.98,
		core.FieldNumSavingsAccounts:     2,
		core.FieldAvgLoanDelayDays:       3.2,
		core.FieldCreditAgeMonthsNumeric: 120,
	}
	for col, v := range want {
		if math.Abs(got.Numeric[col]-v) > 1e-12 {
			t.Errorf("%s = %v, want %v unchanged", col, got.Numeric[col], v)
		}
	}
	if got.Categorical[core.FieldJobSector] != "Writer" {
		t.Errorf("job_sector = %q, want Writer unchanged", got.Categorical[core.FieldJobSector])
	}
	if got.Categorical[core.FieldSpendingBehavior] != "Medium" {
		t.Errorf("spending_behavior = %q, want Medium unchanged", got.Categorical[core.FieldSpendingBehavior])
	}
}

func TestNormalizeColumnLayout(t *testing.T) {
	n := newTestNormalizer(t)

	got, err := n.Normalize(&core.WorkerRecord{})
	if err != nil {
		t.Fatalf("Normalize() error = %v", err)
	}

	order := testNormalizerParams().FeatureOrder
	if len(got.Columns) != len(order) {
		t.Fatalf("Columns has %d entries, want %d", len(got.Columns), len(order))
	}
	for i, col := range order {
		if got.Columns[i] != col {
			t.Errorf("Columns[%d] = %q, want %q", i, got.Columns[i], col)
		}
	}
	for _, col := range order {
		if !got.Has(col) {
			t.Errorf("normalized record is missing column %q", col)
		}
	}
}

func TestNormalizeNilRecord(t *testing.T) {
	n := newTestNormalizer(t)

	if _, err := n.Normalize(nil); !core.IsInvalidInput(err) {
		t.Errorf("Normalize(nil) error = %v, want INVALID_INPUT", err)
	}
}

func TestNormalizeAllReportsRowIndex(t *testing.T) {
	n := newTestNormalizer(t)

	records := []*core.WorkerRecord{
		{WorkerAge: fptr(30)},
		nil,
	}

	_, err := n.NormalizeAll(records)
	if err == nil {
		t.Fatal("NormalizeAll() = nil error, want failure on nil row")
	}
	if !core.IsInvalidInput(err) {
		t.Errorf("NormalizeAll() error = %v, want INVALID_INPUT", err)
	}
}

func TestNormalizeAllPreservesOrder(t *testing.T) {
	n := newTestNormalizer(t)

	records := []*core.WorkerRecord{
		{WorkerAge: fptr(20)},
		{WorkerAge: fptr(40)},
		{WorkerAge: fptr(60)},
	}

	out, err := n.NormalizeAll(records)
	if err != nil {
		t.Fatalf("NormalizeAll() error = %v", err)
	}
	if len(out) != 3 {
		t.Fatalf("NormalizeAll() returned %d rows, want 3", len(out))
	}
	for i, wantAge := range []float64{20, 40, 60} {
		if v := out[i].Numeric[core.FieldWorkerAge]; v != wantAge {
			t.Errorf("row %d worker_age = %v, want %v", i, v, wantAge)
		}
	}
}

func TestNormalizeRecordsMonitorCounts(t *testing.T) {
	m := NewMonitor()
	n := newTestNormalizer(t).WithMonitor(m)

	rec := &core.WorkerRecord{
		NumSavingsAccounts: fptr(-2),        // clamped
		WorkerAge:          fptr(150),       // out of range, then imputed
		CreditAgeMonths:    sptr("garbled"), // malformed, then imputed
	}
	if _, err := n.Normalize(rec); err != nil {
		t.Fatalf("Normalize() error = %v", err)
	}

	if cs := m.ColumnSnapshot(core.FieldNumSavingsAccounts); cs.Clamped != 1 {
		t.Errorf("num_savings_accounts clamped = %d, want 1", cs.Clamped)
	}
	if cs := m.ColumnSnapshot(core.FieldWorkerAge); cs.OutOfRange != 1 || cs.Imputed != 1 {
		t.Errorf("worker_age out_of_range = %d imputed = %d, want 1 and 1", cs.OutOfRange, cs.Imputed)
	}
	if cs := m.ColumnSnapshot(core.FieldCreditAgeMonths); cs.Malformed != 1 {
		t.Errorf("credit_age_months malformed = %d, want 1", cs.Malformed)
	}
	if cs := m.ColumnSnapshot(core.FieldCreditAgeMonthsNumeric); cs.Imputed != 1 {
		t.Errorf("credit_age_months_numeric imputed = %d, want 1", cs.Imputed)
	}
}
