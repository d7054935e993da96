package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// ScheduleRule 单条费率规则。优先级唯一且定义全序，规则严格按升序求值。
type ScheduleRule struct {
	Component   Component
	Rate        decimal.Decimal // IsPercent 时生效，如 0.04 表示 4%
	FixedAmount decimal.Decimal // 非百分比时的固定金额
	IsPercent   bool
	Basis       Basis
	Precedence  int
	EffectiveAt time.Time
}

// CheckPrecedence 校验规则列表优先级严格递增（含唯一性）
func CheckPrecedence(rules []ScheduleRule) error {
	for i := 1; i < len(rules); i++ {
		if rules[i].Precedence <= rules[i-1].Precedence {
			return ErrPrecedenceConflict
		}
	}
	return nil
}

// NewEquationFromSchedule 由旧费率规则表构造方程（未迁移交易的兼容路径）
func NewEquationFromSchedule(name string, rules []ScheduleRule) *DealEquation {
	eq := &DealEquation{Name: name, Rules: make([]EquationRule, 0, len(rules))}
	for _, r := range rules {
		rule := EquationRule{
			Component:  r.Component,
			Basis:      r.Basis,
			Precedence: r.Precedence,
		}
		if r.IsPercent {
			rule.Kind = KindPercentOfBasis
			rule.Rate = r.Rate
		} else {
			rule.Kind = KindFixedAmount
			rule.FixedAmount = r.FixedAmount
		}
		eq.Rules = append(eq.Rules, rule)
	}
	return eq
}

// DiscountInput 折扣输入，作用于已计算出的同组件基础费用行
type DiscountInput struct {
	Component   Component
	Percent     decimal.Decimal // 相对基础费用金额的比例，如 0.5 表示 50%
	FixedAmount decimal.Decimal
	IsPercent   bool
	Basis       Basis // 可选；零值时沿用基础行的基数
}
