// Package rules 用 CEL 表达式实现请求边界校验。
//
// 设计原则：
//   - 表达式在构造期编译一次，求值线程安全，可跨请求复用
//   - 规则只在 HTTP 边界拒绝请求（INVALID_INPUT → 400），
//     不影响归一化器对越界值按缺失处理的策略
//   - 内置规则由字段合法区间生成，配置可追加自定义表达式
//
// 表达式语法（CEL 标准语法）：
//   - 区间：record.worker_age >= 14.0 && record.worker_age <= 120.0
//   - 存在性：has(record.worker_age)（缺失字段不触发区间规则）
//   - 组合：record.num_credit_cards >= 0.0 || record.min_payment_flag == "No"
package rules

import (
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"

	"github.com/google/cel-go/cel"

	"github.com/rushteam/stresskit/core"
)

// 批量请求的行数边界
const (
	MinBatchSize = 1
	MaxBatchSize = 1000
)

// Rule 是一条命名校验规则：Expr 对输入求值为 true 时放行。
type Rule struct {
	// Name 规则名（日志与错误定位用）
	Name string `yaml:"name"`
	// Expr CEL 表达式，变量 record 是请求记录的字段表
	Expr string `yaml:"expr"`
	// Message 违反规则时返回给调用方的消息
	Message string `yaml:"message"`
}

type compiledRule struct {
	name    string
	message string
	prg     cel.Program
}

// Engine 是编译好的规则集。
type Engine struct {
	record []compiledRule
	batch  cel.Program
}

// DefaultRecordRules 由数值字段的合法区间生成内置规则集。
// 缺失字段不触发规则（缺失交给归一化器填充）。
func DefaultRecordRules() []Rule {
	fields := make([]string, 0, len(core.NumericFieldRanges))
	for name := range core.NumericFieldRanges {
		fields = append(fields, name)
	}
	sort.Strings(fields)

	out := make([]Rule, 0, len(fields))
	for _, name := range fields {
		r := core.NumericFieldRanges[name]
		if math.IsInf(r.Max, 1) {
			out = append(out, Rule{
				Name:    name + "_range",
				Expr:    fmt.Sprintf("!has(record.%s) || record.%s >= %s", name, name, bound(r.Min)),
				Message: fmt.Sprintf("%s must be >= %g", name, r.Min),
			})
			continue
		}
		out = append(out, Rule{
			Name: name + "_range",
			Expr: fmt.Sprintf("!has(record.%s) || (record.%s >= %s && record.%s <= %s)",
				name, name, bound(r.Min), name, bound(r.Max)),
			Message: fmt.Sprintf("%s must be between %g and %g", name, r.Min, r.Max),
		})
	}
	return out
}

// bound 把区间端点格式化为 CEL 浮点字面量（保留小数点，避免被解析为整型）。
func bound(v float64) string {
	s := strconv.FormatFloat(v, 'f', -1, 64)
	if !strings.Contains(s, ".") {
		s += ".0"
	}
	return s
}

// NewEngine 编译内置规则与附加规则。
// extra 来自配置文件，编译失败立即报错（启动期暴露，不留到请求期）。
func NewEngine(extra ...Rule) (*Engine, error) {
	env, err := cel.NewEnv(
		cel.Variable("record", cel.DynType),
		cel.Variable("batch_size", cel.IntType),
	)
	if err != nil {
		return nil, fmt.Errorf("rules: build cel env: %w", err)
	}

	all := append(DefaultRecordRules(), extra...)
	compiled := make([]compiledRule, 0, len(all))
	for _, r := range all {
		prg, err := compile(env, r.Expr)
		if err != nil {
			return nil, fmt.Errorf("rules: compile %s: %w", r.Name, err)
		}
		msg := r.Message
		if msg == "" {
			msg = fmt.Sprintf("rule %s violated", r.Name)
		}
		compiled = append(compiled, compiledRule{name: r.Name, message: msg, prg: prg})
	}

	batch, err := compile(env, fmt.Sprintf(
		"batch_size >= %d && batch_size <= %d", MinBatchSize, MaxBatchSize))
	if err != nil {
		return nil, fmt.Errorf("rules: compile batch size rule: %w", err)
	}

	return &Engine{record: compiled, batch: batch}, nil
}

func compile(env *cel.Env, expr string) (cel.Program, error) {
	ast, issues := env.Compile(expr)
	if issues != nil && issues.Err() != nil {
		return nil, issues.Err()
	}
	return env.Program(ast)
}

// ValidateRecord 对单条记录求值所有规则，返回聚合后的违规信息。
func (e *Engine) ValidateRecord(record *core.WorkerRecord) error {
	if record == nil {
		return core.NewInvalidInputError(core.ModuleRules, "rules: record is null")
	}

	input := map[string]any{"record": recordInput(record)}
	var violations []string
	for _, r := range e.record {
		ok, err := evalBool(r.prg, input)
		if err != nil {
			return fmt.Errorf("rules: evaluate %s: %w", r.name, err)
		}
		if !ok {
			violations = append(violations, r.message)
		}
	}
	if len(violations) > 0 {
		return core.NewInvalidInputError(core.ModuleRules,
			fmt.Sprintf("rules: %s", strings.Join(violations, "; ")))
	}
	return nil
}

// ValidateBatchSize 校验批量请求的行数边界。
func (e *Engine) ValidateBatchSize(n int) error {
	ok, err := evalBool(e.batch, map[string]any{"batch_size": int64(n)})
	if err != nil {
		return fmt.Errorf("rules: evaluate batch size: %w", err)
	}
	if !ok {
		return core.NewInvalidInputError(core.ModuleRules,
			fmt.Sprintf("rules: batch size must be between %d and %d, got %d", MinBatchSize, MaxBatchSize, n))
	}
	return nil
}

func evalBool(prg cel.Program, input map[string]any) (bool, error) {
	out, _, err := prg.Eval(input)
	if err != nil {
		return false, err
	}
	result, ok := out.Value().(bool)
	if !ok {
		return false, fmt.Errorf("expression returned %T, want bool", out.Value())
	}
	return result, nil
}

// recordInput 把记录已提供的字段铺成 CEL 输入表，缺失字段不出现。
func recordInput(record *core.WorkerRecord) map[string]any {
	input := make(map[string]any, 20)
	for k, v := range record.NumericValues() {
		input[k] = v
	}
	for k, v := range record.CategoricalValues() {
		input[k] = v
	}
	if id := record.ID(); id != "" {
		input[core.FieldWorkerID] = id
	}
	if raw, ok := record.CreditAge(); ok {
		input[core.FieldCreditAgeMonths] = raw
	}
	return input
}
