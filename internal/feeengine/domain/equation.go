package domain

import (
	"fmt"
	"sort"
	"time"

	"github.com/shopspring/decimal"
)

// RuleKind 方程规则种类。新增费用形态扩展一个 case，
// 而不是在多处函数里穿插字段判断。
type RuleKind int8

const (
	KindPercentOfBasis RuleKind = 1 // 按基数比例
	KindFixedAmount    RuleKind = 2 // 固定金额
)

func (k RuleKind) String() string {
	switch k {
	case KindPercentOfBasis:
		return "PERCENT_OF_BASIS"
	case KindFixedAmount:
		return "FIXED_AMOUNT"
	default:
		return "UNKNOWN"
	}
}

// DiscountCondition 条件折扣：认缴额达到阈值时按比例折减该组件费用
type DiscountCondition struct {
	MinCapital decimal.Decimal
	Percent    decimal.Decimal
}

// EquationRule 方程内单条费用规则（带标签的变体，由统一解释循环处理）
type EquationRule struct {
	Component   Component
	Kind        RuleKind
	Basis       Basis
	Rate        decimal.Decimal // KindPercentOfBasis
	FixedAmount decimal.Decimal // KindFixedAmount
	Precedence  int
	Annual      bool
	Discount    *DiscountCondition
}

// PerformanceRule 业绩报酬规则：利润超过门槛部分按 carry 比例计提
type PerformanceRule struct {
	Basis      Basis
	HurdleRate *decimal.Decimal
	CarryRate  decimal.Decimal
	Precedence int
}

// Fee 计算业绩报酬。hurdle 存在时：max(0, profit − returned − gross×hurdle) × carry；
// 否则 profit × carry。结果非正时不产生账本行，由调用方跳过。
func (p *PerformanceRule) Fee(gross, profit, returnedCapital decimal.Decimal) decimal.Decimal {
	if p.HurdleRate != nil {
		hurdle := gross.Mul(*p.HurdleRate)
		excess := profit.Sub(returnedCapital).Sub(hurdle)
		if excess.IsNegative() {
			return decimal.Zero
		}
		return round2(excess.Mul(p.CarryRate))
	}
	return round2(profit.Mul(p.CarryRate))
}

// DealEquation 交易方程：一笔交易的具名费用规则集，
// 可选条件折扣与业绩报酬公式。加载后只读。
type DealEquation struct {
	Name        string
	Rules       []EquationRule
	Performance *PerformanceRule
	CreatedAt   time.Time
}

// Validate 校验方程内部一致性
func (e *DealEquation) Validate() error {
	if e.Name == "" {
		return fmt.Errorf("equation name is required")
	}
	seen := make(map[int]bool, len(e.Rules))
	for _, r := range e.Rules {
		if seen[r.Precedence] {
			return fmt.Errorf("%w: duplicate precedence %d in equation %s", ErrPrecedenceConflict, r.Precedence, e.Name)
		}
		seen[r.Precedence] = true

		switch r.Kind {
		case KindPercentOfBasis, KindFixedAmount:
		default:
			return fmt.Errorf("equation %s: unknown rule kind %d", e.Name, r.Kind)
		}
	}
	if e.Performance != nil && seen[e.Performance.Precedence] {
		return fmt.Errorf("%w: performance precedence %d collides in equation %s", ErrPrecedenceConflict, e.Performance.Precedence, e.Name)
	}
	return nil
}

// Schedule 将方程解释为优先级升序的费率规则表
func (e *DealEquation) Schedule() ([]ScheduleRule, error) {
	rules := make([]ScheduleRule, 0, len(e.Rules))
	for _, r := range e.Rules {
		sr := ScheduleRule{
			Component:  r.Component,
			Basis:      r.Basis,
			Precedence: r.Precedence,
		}
		switch r.Kind {
		case KindPercentOfBasis:
			sr.IsPercent = true
			sr.Rate = r.Rate
		case KindFixedAmount:
			sr.FixedAmount = r.FixedAmount
		default:
			return nil, fmt.Errorf("equation %s: unknown rule kind %d", e.Name, r.Kind)
		}
		rules = append(rules, sr)
	}

	sort.Slice(rules, func(i, j int) bool { return rules[i].Precedence < rules[j].Precedence })
	if err := CheckPrecedence(rules); err != nil {
		return nil, fmt.Errorf("equation %s: %w", e.Name, err)
	}
	return rules, nil
}

// TriggeredDiscounts 求值条件折扣，返回满足阈值的折扣输入
func (e *DealEquation) TriggeredDiscounts(grossCapital decimal.Decimal) []DiscountInput {
	var discounts []DiscountInput
	for _, r := range e.Rules {
		if r.Discount == nil {
			continue
		}
		if grossCapital.GreaterThanOrEqual(r.Discount.MinCapital) {
			discounts = append(discounts, DiscountInput{
				Component: r.Component,
				Percent:   r.Discount.Percent,
				IsPercent: true,
			})
		}
	}
	return discounts
}

// AnnualComponents 返回需要年化展开的组件
func (e *DealEquation) AnnualComponents() []Component {
	var components []Component
	for _, r := range e.Rules {
		if r.Annual {
			components = append(components, r.Component)
		}
	}
	return components
}
