package domain

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// tolerance 金额对账允许的容差
var tolerance = decimal.NewFromFloat(0.01)

// ValidationIssue 单条校验结论
type ValidationIssue struct {
	Check   string `json:"check"`
	Message string `json:"message"`
}

// ValidationResult 校验结果。计算层面的问题以数据形式返回，不抛错，
// 便于 preview/dry-run 调用方检视失败的计算。
type ValidationResult struct {
	Valid    bool              `json:"valid"`
	Errors   []ValidationIssue `json:"errors,omitempty"`
	Warnings []ValidationIssue `json:"warnings,omitempty"`
}

// Validator 账本不变量校验器
type Validator struct{}

// NewValidator 创建校验器
func NewValidator() *Validator {
	return &Validator{}
}

func (r *ValidationResult) addError(check, msg string) {
	r.Errors = append(r.Errors, ValidationIssue{Check: check, Message: msg})
	r.Valid = false
}

func (r *ValidationResult) addWarning(check, msg string) {
	r.Warnings = append(r.Warnings, ValidationIssue{Check: check, Message: msg})
}

// Validate 执行全部检查并汇总结果；从不 panic
func (v *Validator) Validate(state *FeeCalculationState, final FinalAmounts, unitPrice decimal.Decimal) ValidationResult {
	result := ValidationResult{Valid: true}

	// 净额 = 总额 − 溢价费
	expectedNet := state.GrossAmount.Sub(state.PremiumAmount)
	if state.NetAmount.Sub(expectedNet).Abs().GreaterThan(tolerance) {
		result.addError("net_reconciliation",
			fmt.Sprintf("net_amount %s != gross_amount %s - premium_amount %s",
				state.NetAmount, state.GrossAmount, state.PremiumAmount))
	}

	// 折扣行恒为负，基础行恒为非负
	for _, app := range state.Applications {
		if app.Discount && !app.Amount.IsNegative() {
			result.addError("discount_sign",
				fmt.Sprintf("discount row %s has non-negative amount %s", app.Label(), app.Amount))
		}
		if !app.Discount && app.Amount.IsNegative() {
			result.addError("discount_sign",
				fmt.Sprintf("base fee row %s has negative amount %s", app.Label(), app.Amount))
		}
	}

	// 折扣幅度不超过其基础费用金额
	for _, app := range state.Applications {
		if !app.Discount {
			continue
		}
		idx := state.FindApplication(app.Component)
		if idx < 0 {
			result.addError("discount_cap",
				fmt.Sprintf("discount row %s has no base fee row", app.Label()))
			continue
		}
		if app.Amount.Abs().GreaterThan(state.Applications[idx].Amount) {
			result.addError("discount_cap",
				fmt.Sprintf("discount row %s amount %s exceeds base fee %s",
					app.Label(), app.Amount, state.Applications[idx].Amount))
		}
	}

	// 折前 − 折扣 = 折后
	diff := final.TransferPreDiscount.Sub(final.TotalDiscounts).Sub(final.TransferPostDiscount)
	if diff.Abs().GreaterThan(tolerance) {
		result.addError("transfer_reconciliation",
			fmt.Sprintf("pre %s - discounts %s != post %s",
				final.TransferPreDiscount, final.TotalDiscounts, final.TransferPostDiscount))
	}

	// 单位数为非负整数且可由净额/单价复算
	if final.Units < 0 {
		result.addError("units_integer", fmt.Sprintf("units %d is negative", final.Units))
	} else if unitPrice.IsPositive() {
		expected := state.NetAmount.Div(unitPrice).Floor().IntPart()
		if expected < 0 {
			expected = 0
		}
		if final.Units != expected {
			result.addError("units_integer",
				fmt.Sprintf("units %d != floor(net %s / unit_price %s)", final.Units, state.NetAmount, unitPrice))
		}
	}

	// 不带溢价规则的费率表合法，仅提示
	for _, app := range state.Applications {
		if !app.Amount.IsPositive() {
			continue
		}
		if app.Component != ComponentPremium {
			result.addWarning("premium_first",
				fmt.Sprintf("first charged component is %s, not PREMIUM", app.Label()))
		}
		break
	}

	return result
}
