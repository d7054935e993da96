package domain

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// round2 金额统一保留两位小数（四舍五入）
func round2(d decimal.Decimal) decimal.Decimal {
	return d.Round(2)
}

// Calculator 优先级费用计算器。纯计算领域服务，不做任何 I/O；
// NET_AFTER_PREMIUM 语义由构造时注入的模式决定。
type Calculator struct {
	mode NetAfterPremiumMode
}

// NewCalculator 创建计算器
func NewCalculator(mode NetAfterPremiumMode) *Calculator {
	if mode == 0 {
		mode = NetMinusPremium
	}
	return &Calculator{mode: mode}
}

// Mode 返回 NET_AFTER_PREMIUM 语义模式
func (c *Calculator) Mode() NetAfterPremiumMode {
	return c.mode
}

// ResolveBasis 将规则基数映射为当前状态下的具体金额
func (c *Calculator) ResolveBasis(state *FeeCalculationState, b Basis) decimal.Decimal {
	switch b {
	case BasisGross:
		return state.GrossAmount
	case BasisNet:
		return state.NetAmount
	case BasisNetAfterPremium:
		if c.mode == SameAsNet {
			return state.NetAmount
		}
		return state.NetAmount.Sub(state.PremiumAmount)
	default:
		return state.GrossAmount
	}
}

// Calculate 按优先级升序遍历规则并累计费用行。
// PREMIUM 行写入后立即重算净额，后续规则在新净额上求值。
func (c *Calculator) Calculate(rules []ScheduleRule, gross decimal.Decimal) (*FeeCalculationState, error) {
	if err := CheckPrecedence(rules); err != nil {
		return nil, err
	}

	state := NewFeeCalculationState(gross)

	for _, rule := range rules {
		base := c.ResolveBasis(state, rule.Basis)

		var amount decimal.Decimal
		var percent *decimal.Decimal
		var notes string
		if rule.IsPercent {
			amount = round2(base.Mul(rule.Rate))
			rate := rule.Rate
			percent = &rate
			notes = fmt.Sprintf("precedence %d, basis %s, rate %s", rule.Precedence, rule.Basis, rule.Rate)
		} else {
			amount = round2(rule.FixedAmount)
			// 零认缴额不收取任何费用，固定金额费用一并归零
			if gross.IsZero() {
				amount = decimal.Zero
			}
			notes = fmt.Sprintf("precedence %d, basis %s, fixed amount", rule.Precedence, rule.Basis)
		}

		if rule.Component == ComponentPremium {
			state.PremiumAmount = amount
			state.NetAmount = state.GrossAmount.Sub(state.PremiumAmount)
		}

		state.Applications = append(state.Applications, FeeApplication{
			Component: rule.Component,
			Amount:    amount,
			Percent:   percent,
			Basis:     rule.Basis,
			Applied:   true,
			Notes:     notes,
		})
		state.RunningAmount = state.RunningAmount.Sub(amount)
	}

	return state, nil
}

// AppliedDiscount 审计用折扣明细（幅度为正数）
type AppliedDiscount struct {
	Component Component
	Amount    decimal.Decimal
	Percent   *decimal.Decimal
}

// ApplyDiscounts 在已有基础费用行上叠加负的折扣行。
// 找不到对应基础行的输入跳过并归入第二个返回值，由上层记日志；
// 折扣幅度不超过基础费用金额，幅度为零时不追加行，且从不修改基础行本身。
func (c *Calculator) ApplyDiscounts(state *FeeCalculationState, discounts []DiscountInput) ([]AppliedDiscount, []Component) {
	var applied []AppliedDiscount
	var skipped []Component

	for _, d := range discounts {
		idx := state.FindApplication(d.Component)
		if idx < 0 {
			skipped = append(skipped, d.Component)
			continue
		}
		base := state.Applications[idx]

		var amount decimal.Decimal
		var percent *decimal.Decimal
		var notes string
		if d.IsPercent {
			amount = round2(base.Amount.Mul(d.Percent))
			pct := d.Percent
			percent = &pct
			notes = fmt.Sprintf("discount %s of %s", d.Percent, base.Label())
		} else {
			amount = round2(d.FixedAmount)
			notes = fmt.Sprintf("fixed discount on %s", base.Label())
		}
		// 输入符号只表达幅度，先归一再封顶
		amount = amount.Abs()
		if amount.GreaterThan(base.Amount) {
			amount = base.Amount
		}
		// 零幅度折扣不产生账本行
		if amount.IsZero() {
			continue
		}

		basis := d.Basis
		if basis == 0 {
			basis = base.Basis
		}

		state.Applications = append(state.Applications, FeeApplication{
			Component: d.Component,
			Discount:  true,
			Amount:    amount.Neg(),
			Percent:   percent,
			Basis:     basis,
			Applied:   true,
			Notes:     notes,
		})
		// 折扣减少应付费用，留存资金增加
		state.RunningAmount = state.RunningAmount.Add(amount)

		applied = append(applied, AppliedDiscount{Component: d.Component, Amount: amount, Percent: percent})
	}

	return applied, skipped
}

// ApplyAnnual 将经常性费用展开为多年总额。在折扣之前执行，
// 使折扣比例以多年总额为基数。
func (c *Calculator) ApplyAnnual(state *FeeCalculationState, component Component, years int) bool {
	if years <= 1 {
		return false
	}
	idx := state.FindApplication(component)
	if idx < 0 {
		return false
	}

	row := &state.Applications[idx]
	multiplied := round2(row.Amount.Mul(decimal.NewFromInt(int64(years))))
	delta := multiplied.Sub(row.Amount)
	row.Amount = multiplied
	row.Notes = fmt.Sprintf("%s, annual x %d years", row.Notes, years)
	state.RunningAmount = state.RunningAmount.Sub(delta)
	return true
}

// FinalAmounts 聚合结果：折前转账额、折扣总额、折后转账额与可购单位数
type FinalAmounts struct {
	TransferPreDiscount  decimal.Decimal
	TotalDiscounts       decimal.Decimal
	TransferPostDiscount decimal.Decimal
	Units                int64
}

// Finalize 聚合账本行为最终金额；单位数为净额按单价向下取整，恒为非负整数
func (c *Calculator) Finalize(state *FeeCalculationState, unitPrice decimal.Decimal) FinalAmounts {
	pre := decimal.Zero
	disc := decimal.Zero
	for _, app := range state.Applications {
		if app.Amount.IsPositive() {
			pre = pre.Add(app.Amount)
		} else if app.Amount.IsNegative() {
			disc = disc.Add(app.Amount)
		}
	}

	final := FinalAmounts{
		TransferPreDiscount:  round2(pre),
		TotalDiscounts:       round2(disc.Abs()),
		TransferPostDiscount: round2(pre.Sub(disc.Abs())),
	}

	if unitPrice.IsPositive() {
		units := state.NetAmount.Div(unitPrice).Floor().IntPart()
		if units > 0 {
			final.Units = units
		}
	}
	return final
}
