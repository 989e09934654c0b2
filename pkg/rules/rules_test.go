package rules

import (
	"strings"
	"testing"

	"github.com/rushteam/stresskit/core"
)

func fptr(v float64) *float64 { return &v }
func sptr(s string) *string   { return &s }

func TestValidateRecordRanges(t *testing.T) {
	e, err := NewEngine()
	if err != nil {
		t.Fatalf("NewEngine() error = %v", err)
	}

	tests := []struct {
		name     string
		record   *core.WorkerRecord
		wantErr  bool
		wantText string
	}{
		{
			name:   "all fields within range",
			record: &core.WorkerRecord{WorkerAge: fptr(28), CreditUtilizationRate: fptr(32.11)},
		},
		{
			name:   "empty record passes (missing fields are imputed later)",
			record: &core.WorkerRecord{},
		},
		{
			name:     "age below minimum",
			record:   &core.WorkerRecord{WorkerAge: fptr(10)},
			wantErr:  true,
			wantText: "worker_age",
		},
		{
			name:     "age above maximum",
			record:   &core.WorkerRecord{WorkerAge: fptr(150)},
			wantErr:  true,
			wantText: "worker_age",
		},
		{
			name:     "utilization above 100",
			record:   &core.WorkerRecord{CreditUtilizationRate: fptr(140)},
			wantErr:  true,
			wantText: "credit_utilization_rate",
		},
		{
			name:     "negative income",
			record:   &core.WorkerRecord{MonthlyGigIncome: fptr(-50)},
			wantErr:  true,
			wantText: "monthly_gig_income",
		},
		{
			name:   "negative balance is legal",
			record: &core.WorkerRecord{EndOfMonthBalance: fptr(-812.5)},
		},
		{
			name:   "boundary values pass",
			record: &core.WorkerRecord{WorkerAge: fptr(14), AvgCreditInterest: fptr(100)},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := e.ValidateRecord(tt.record)
			if !tt.wantErr {
				if err != nil {
					t.Fatalf("ValidateRecord() error = %v, want nil", err)
				}
				return
			}
			if err == nil {
				t.Fatal("ValidateRecord() = nil, want INVALID_INPUT")
			}
			if !core.IsInvalidInput(err) {
				t.Errorf("ValidateRecord() error = %v, want INVALID_INPUT", err)
			}
			if !strings.Contains(err.Error(), tt.wantText) {
				t.Errorf("ValidateRecord() error = %q, want mention of %q", err, tt.wantText)
			}
		})
	}
}

func TestValidateRecordCollectsAllViolations(t *testing.T) {
	e, err := NewEngine()
	if err != nil {
		t.Fatalf("NewEngine() error = %v", err)
	}

	rec := &core.WorkerRecord{
		WorkerAge:             fptr(7),
		CreditUtilizationRate: fptr(200),
	}
	verr := e.ValidateRecord(rec)
	if verr == nil {
		t.Fatal("ValidateRecord() = nil, want violations")
	}
	for _, field := range []string{"worker_age", "credit_utilization_rate"} {
		if !strings.Contains(verr.Error(), field) {
			t.Errorf("ValidateRecord() error = %q, want mention of %q", verr, field)
		}
	}
}

func TestValidateRecordNil(t *testing.T) {
	e, err := NewEngine()
	if err != nil {
		t.Fatalf("NewEngine() error = %v", err)
	}
	if verr := e.ValidateRecord(nil); !core.IsInvalidInput(verr) {
		t.Errorf("ValidateRecord(nil) error = %v, want INVALID_INPUT", verr)
	}
}

func TestValidateBatchSize(t *testing.T) {
	e, err := NewEngine()
	if err != nil {
		t.Fatalf("NewEngine() error = %v", err)
	}

	tests := []struct {
		name    string
		size    int
		wantErr bool
	}{
		{name: "single row", size: 1},
		{name: "upper bound", size: 1000},
		{name: "empty batch", size: 0, wantErr: true},
		{name: "over limit", size: 1001, wantErr: true},
		{name: "negative", size: -5, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := e.ValidateBatchSize(tt.size)
			if tt.wantErr && !core.IsInvalidInput(err) {
				t.Errorf("ValidateBatchSize(%d) error = %v, want INVALID_INPUT", tt.size, err)
			}
			if !tt.wantErr && err != nil {
				t.Errorf("ValidateBatchSize(%d) error = %v, want nil", tt.size, err)
			}
		})
	}
}

func TestNewEngineWithExtraRules(t *testing.T) {
	e, err := NewEngine(Rule{
		Name:    "sector_allowlist",
		Expr:    `!has(record.job_sector) || record.job_sector != "Forbidden"`,
		Message: "job_sector is not allowed",
	})
	if err != nil {
		t.Fatalf("NewEngine() error = %v", err)
	}

	if verr := e.ValidateRecord(&core.WorkerRecord{JobSector: sptr("Writer")}); verr != nil {
		t.Errorf("ValidateRecord(allowed sector) error = %v, want nil", verr)
	}
	verr := e.ValidateRecord(&core.WorkerRecord{JobSector: sptr("Forbidden")})
	if !core.IsInvalidInput(verr) {
		t.Fatalf("ValidateRecord(forbidden sector) error = %v, want INVALID_INPUT", verr)
	}
	if !strings.Contains(verr.Error(), "job_sector is not allowed") {
		t.Errorf("ValidateRecord() error = %q, want custom message", verr)
	}
}

func TestNewEngineRejectsBadExpression(t *testing.T) {
	_, err := NewEngine(Rule{Name: "broken", Expr: "record.worker_age >=<"})
	if err == nil {
		t.Error("NewEngine(broken expr) = nil error, want compile failure")
	}
}

func TestDefaultRecordRulesCoverDeclaredRanges(t *testing.T) {
	rulesList := DefaultRecordRules()
	if len(rulesList) != len(core.NumericFieldRanges) {
		t.Fatalf("DefaultRecordRules() has %d rules, want %d", len(rulesList), len(core.NumericFieldRanges))
	}
	for _, r := range rulesList {
		field := strings.TrimSuffix(r.Name, "_range")
		if _, ok := core.NumericFieldRanges[field]; !ok {
			t.Errorf("rule %q does not match a declared field range", r.Name)
		}
		if r.Expr == "" || r.Message == "" {
			t.Errorf("rule %q has empty expr or message", r.Name)
		}
	}
}
