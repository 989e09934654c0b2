package core

import "math"

// 特征列名常量（与训练数据列名一致）
const (
	FieldWorkerID              = "worker_id"
	FieldSurveyMonth           = "survey_month"
	FieldWorkerAge             = "worker_age"
	FieldJobSector             = "job_sector"
	FieldEstimatedAnnualIncome = "estimated_annual_income"
	FieldMonthlyGigIncome      = "monthly_gig_income"
	FieldNumSavingsAccounts    = "num_savings_accounts"
	FieldNumCreditCards        = "num_credit_cards"
	FieldAvgCreditInterest     = "avg_credit_interest"
	FieldNumActiveLoans        = "num_active_loans"
	FieldAvgLoanDelayDays      = "avg_loan_delay_days"
	FieldMissedPaymentEvents   = "missed_payment_events"
	FieldRecentCreditChecks    = "recent_credit_checks"
	FieldCurrentTotalLiability = "current_total_liability"
	FieldCreditUtilizationRate = "credit_utilization_rate"
	FieldCreditAgeMonths       = "credit_age_months"
	FieldMinPaymentFlag        = "min_payment_flag"
	FieldMonthlyInvestments    = "monthly_investments"
	FieldSpendingBehavior      = "spending_behavior"
	FieldEndOfMonthBalance     = "end_of_month_balance"

	// FieldCreditAgeMonthsNumeric 是由 credit_age_months 字符串派生的数值列。
	// 训练时先派生此列再丢弃原始字符串列，推理时必须做同样的转换。
	FieldCreditAgeMonthsNumeric = "credit_age_months_numeric"
)

// WorkerRecord 是一条零工从业者的原始特征记录，推理链路的统一输入。
//
// 设计原则：
//   - 所有字段均可缺失（指针语义），缺失值由归一化器按训练期统计量填充
//   - 字段名与训练数据列名一一对应（JSON tag）
//   - WorkerID 仅用于响应关联，不进入模型输入
//
// 使用场景：
//   - HTTP 请求体绑定（单条与批量）
//   - 库调用方直接构造
type WorkerRecord struct {
	WorkerID              *string  `json:"worker_id,omitempty"`
	SurveyMonth           *string  `json:"survey_month,omitempty"`
	WorkerAge             *float64 `json:"worker_age,omitempty"`
	JobSector             *string  `json:"job_sector,omitempty"`
	EstimatedAnnualIncome *float64 `json:"estimated_annual_income,omitempty"`
	MonthlyGigIncome      *float64 `json:"monthly_gig_income,omitempty"`
	NumSavingsAccounts    *float64 `json:"num_savings_accounts,omitempty"`
	NumCreditCards        *float64 `json:"num_credit_cards,omitempty"`
	AvgCreditInterest     *float64 `json:"avg_credit_interest,omitempty"`
	NumActiveLoans        *float64 `json:"num_active_loans,omitempty"`
	AvgLoanDelayDays      *float64 `json:"avg_loan_delay_days,omitempty"`
	MissedPaymentEvents   *float64 `json:"missed_payment_events,omitempty"`
	RecentCreditChecks    *float64 `json:"recent_credit_checks,omitempty"`
	CurrentTotalLiability *float64 `json:"current_total_liability,omitempty"`
	CreditUtilizationRate *float64 `json:"credit_utilization_rate,omitempty"`
	CreditAgeMonths       *string  `json:"credit_age_months,omitempty"`
	MinPaymentFlag        *string  `json:"min_payment_flag,omitempty"`
	MonthlyInvestments    *float64 `json:"monthly_investments,omitempty"`
	SpendingBehavior      *string  `json:"spending_behavior,omitempty"`
	EndOfMonthBalance     *float64 `json:"end_of_month_balance,omitempty"`
}

// FieldRange 是数值字段的合法闭区间。
// 边界校验（HTTP 层）据此拒绝请求；归一化器据此把越界值按缺失处理。
type FieldRange struct {
	Min float64
	Max float64
}

// Contains 判断值是否落在区间内。
func (r FieldRange) Contains(v float64) bool {
	return v >= r.Min && v <= r.Max
}

// NumericFieldRanges 声明各数值字段的合法区间，与请求模型的约束一致。
// end_of_month_balance 不在表中：月末余额允许合法负值，不设区间。
var NumericFieldRanges = map[string]FieldRange{
	FieldWorkerAge:             {Min: 14, Max: 120},
	FieldEstimatedAnnualIncome: {Min: 0, Max: math.Inf(1)},
	FieldMonthlyGigIncome:      {Min: 0, Max: math.Inf(1)},
	FieldNumSavingsAccounts:    {Min: 0, Max: math.Inf(1)},
	FieldNumCreditCards:        {Min: 0, Max: math.Inf(1)},
	FieldAvgCreditInterest:     {Min: 0, Max: 100},
	FieldNumActiveLoans:        {Min: 0, Max: math.Inf(1)},
	FieldAvgLoanDelayDays:      {Min: 0, Max: math.Inf(1)},
	FieldMissedPaymentEvents:   {Min: 0, Max: math.Inf(1)},
	FieldRecentCreditChecks:    {Min: 0, Max: math.Inf(1)},
	FieldCurrentTotalLiability: {Min: 0, Max: math.Inf(1)},
	FieldCreditUtilizationRate: {Min: 0, Max: 100},
	FieldMonthlyInvestments:    {Min: 0, Max: math.Inf(1)},
}

// ID 返回 WorkerID，缺失时返回空串。
func (r *WorkerRecord) ID() string {
	if r == nil || r.WorkerID == nil {
		return ""
	}
	return *r.WorkerID
}

// NumericValues 返回已提供的数值特征（按列名），缺失字段不出现在结果中。
// credit_age_months 为字符串字段，不在此列；其派生列由归一化器生成。
func (r *WorkerRecord) NumericValues() map[string]float64 {
	out := make(map[string]float64, 15)
	put := func(name string, v *float64) {
		if v != nil {
			out[name] = *v
		}
	}
	put(FieldWorkerAge, r.WorkerAge)
	put(FieldEstimatedAnnualIncome, r.EstimatedAnnualIncome)
	put(FieldMonthlyGigIncome, r.MonthlyGigIncome)
	put(FieldNumSavingsAccounts, r.NumSavingsAccounts)
	put(FieldNumCreditCards, r.NumCreditCards)
	put(FieldAvgCreditInterest, r.AvgCreditInterest)
	put(FieldNumActiveLoans, r.NumActiveLoans)
	put(FieldAvgLoanDelayDays, r.AvgLoanDelayDays)
	put(FieldMissedPaymentEvents, r.MissedPaymentEvents)
	put(FieldRecentCreditChecks, r.RecentCreditChecks)
	put(FieldCurrentTotalLiability, r.CurrentTotalLiability)
	put(FieldCreditUtilizationRate, r.CreditUtilizationRate)
	put(FieldMonthlyInvestments, r.MonthlyInvestments)
	put(FieldEndOfMonthBalance, r.EndOfMonthBalance)
	return out
}

// CategoricalValues 返回已提供的类别特征（按列名），缺失字段不出现在结果中。
func (r *WorkerRecord) CategoricalValues() map[string]string {
	out := make(map[string]string, 4)
	put := func(name string, v *string) {
		if v != nil {
			out[name] = *v
		}
	}
	put(FieldSurveyMonth, r.SurveyMonth)
	put(FieldJobSector, r.JobSector)
	put(FieldMinPaymentFlag, r.MinPaymentFlag)
	put(FieldSpendingBehavior, r.SpendingBehavior)
	return out
}

// CreditAge 返回原始信用历史时长字符串（如 "20 y. 7 m."），第二个返回值表示是否提供。
func (r *WorkerRecord) CreditAge() (string, bool) {
	if r.CreditAgeMonths == nil {
		return "", false
	}
	return *r.CreditAgeMonths, true
}

// NormalizedRecord 是归一化后的记录：所有声明特征列齐备、无缺失值、
// 列顺序与制品的 final_feature_order 完全一致。
//
// 不变式：Columns 与拟合变换器期望的列集合及顺序严格相等，
// 任何列缺失或错序都是 SCHEMA_MISMATCH 级的前置条件违反。
type NormalizedRecord struct {
	// Columns 是列顺序（等于制品的 final_feature_order）
	Columns []string
	// Numeric 是数值特征值（含派生列 credit_age_months_numeric）
	Numeric map[string]float64
	// Categorical 是类别特征值（缺失已填充为 "Unknown"）
	Categorical map[string]string
}

// Has 判断列是否存在（数值或类别）。
func (n *NormalizedRecord) Has(column string) bool {
	if _, ok := n.Numeric[column]; ok {
		return true
	}
	_, ok := n.Categorical[column]
	return ok
}

// Value 返回列的值（float64 或 string），不存在时第二个返回值为 false。
func (n *NormalizedRecord) Value(column string) (any, bool) {
	if v, ok := n.Numeric[column]; ok {
		return v, true
	}
	if v, ok := n.Categorical[column]; ok {
		return v, true
	}
	return nil, false
}
