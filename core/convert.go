package core

import (
	"fmt"

	"github.com/rushteam/stresskit/pkg/conv"
)

// numericSetters 数值字段的赋值表（按列名）。
var numericSetters = map[string]func(*WorkerRecord, float64){
	FieldWorkerAge:             func(r *WorkerRecord, v float64) { r.WorkerAge = &v },
	FieldEstimatedAnnualIncome: func(r *WorkerRecord, v float64) { r.EstimatedAnnualIncome = &v },
	FieldMonthlyGigIncome:      func(r *WorkerRecord, v float64) { r.MonthlyGigIncome = &v },
	FieldNumSavingsAccounts:    func(r *WorkerRecord, v float64) { r.NumSavingsAccounts = &v },
	FieldNumCreditCards:        func(r *WorkerRecord, v float64) { r.NumCreditCards = &v },
	FieldAvgCreditInterest:     func(r *WorkerRecord, v float64) { r.AvgCreditInterest = &v },
	FieldNumActiveLoans:        func(r *WorkerRecord, v float64) { r.NumActiveLoans = &v },
	FieldAvgLoanDelayDays:      func(r *WorkerRecord, v float64) { r.AvgLoanDelayDays = &v },
	FieldMissedPaymentEvents:   func(r *WorkerRecord, v float64) { r.MissedPaymentEvents = &v },
	FieldRecentCreditChecks:    func(r *WorkerRecord, v float64) { r.RecentCreditChecks = &v },
	FieldCurrentTotalLiability: func(r *WorkerRecord, v float64) { r.CurrentTotalLiability = &v },
	FieldCreditUtilizationRate: func(r *WorkerRecord, v float64) { r.CreditUtilizationRate = &v },
	FieldMonthlyInvestments:    func(r *WorkerRecord, v float64) { r.MonthlyInvestments = &v },
	FieldEndOfMonthBalance:     func(r *WorkerRecord, v float64) { r.EndOfMonthBalance = &v },
}

// stringSetters 字符串字段的赋值表（按列名）。
var stringSetters = map[string]func(*WorkerRecord, string){
	FieldWorkerID:         func(r *WorkerRecord, v string) { r.WorkerID = &v },
	FieldSurveyMonth:      func(r *WorkerRecord, v string) { r.SurveyMonth = &v },
	FieldJobSector:        func(r *WorkerRecord, v string) { r.JobSector = &v },
	FieldCreditAgeMonths:  func(r *WorkerRecord, v string) { r.CreditAgeMonths = &v },
	FieldMinPaymentFlag:   func(r *WorkerRecord, v string) { r.MinPaymentFlag = &v },
	FieldSpendingBehavior: func(r *WorkerRecord, v string) { r.SpendingBehavior = &v },
}

// RecordFromMap 把弱类型的字段表收敛为强类型记录。
// 未知键忽略；已知键取值类型不符返回 MALFORMED_INPUT（不做静默丢弃）。
// 用于从 JSON 行文件、CSV 解析结果等半结构化来源构造记录。
func RecordFromMap(fields map[string]any) (*WorkerRecord, error) {
	record := &WorkerRecord{}
	for key, raw := range fields {
		if set, ok := numericSetters[key]; ok {
			v, ok := conv.ToFloat64(raw)
			if !ok {
				return nil, NewMalformedInputError(ModuleCore,
					fmt.Sprintf("core: field %s has non-numeric value %v", key, raw))
			}
			set(record, v)
			continue
		}
		if set, ok := stringSetters[key]; ok {
			v, ok := conv.ToString(raw)
			if !ok {
				return nil, NewMalformedInputError(ModuleCore,
					fmt.Sprintf("core: field %s has non-string value %v", key, raw))
			}
			set(record, v)
		}
	}
	return record, nil
}
