package domain

import (
	"testing"

	"github.com/shopspring/decimal"
)

func hasIssue(issues []ValidationIssue, check string) bool {
	for _, issue := range issues {
		if issue.Check == check {
			return true
		}
	}
	return false
}

func validState(t *testing.T) (*FeeCalculationState, FinalAmounts) {
	t.Helper()
	calc := NewCalculator(NetMinusPremium)
	state, err := calc.Calculate(standardSchedule(t), decimal.NewFromInt(100000))
	if err != nil {
		t.Fatalf("calculate: %v", err)
	}
	return state, calc.Finalize(state, decimal.NewFromInt(1000))
}

func TestValidatePasses(t *testing.T) {
	state, final := validState(t)
	result := NewValidator().Validate(state, final, decimal.NewFromInt(1000))
	if !result.Valid {
		t.Fatalf("valid state rejected: %+v", result.Errors)
	}
	if len(result.Warnings) != 0 {
		t.Fatalf("unexpected warnings: %+v", result.Warnings)
	}
}

func TestValidateNetReconciliation(t *testing.T) {
	state, final := validState(t)
	state.NetAmount = state.NetAmount.Add(decimal.NewFromInt(5))

	result := NewValidator().Validate(state, final, decimal.NewFromInt(1000))
	if result.Valid {
		t.Fatalf("broken net amount accepted")
	}
	if !hasIssue(result.Errors, "net_reconciliation") {
		t.Fatalf("missing net_reconciliation error: %+v", result.Errors)
	}
}

func TestValidateNetWithinTolerance(t *testing.T) {
	state, final := validState(t)
	state.NetAmount = state.NetAmount.Add(decimal.RequireFromString("0.01"))

	result := NewValidator().Validate(state, final, decimal.Zero)
	if hasIssue(result.Errors, "net_reconciliation") {
		t.Fatalf("0.01 drift must stay within tolerance: %+v", result.Errors)
	}
}

func TestValidateDiscountSign(t *testing.T) {
	state, final := validState(t)
	state.Applications = append(state.Applications, FeeApplication{
		Component: ComponentStructuring,
		Discount:  true,
		Amount:    decimal.NewFromInt(100), // 折扣行必须为负
		Basis:     BasisGross,
	})

	result := NewValidator().Validate(state, final, decimal.Zero)
	if !hasIssue(result.Errors, "discount_sign") {
		t.Fatalf("positive discount row accepted: %+v", result.Errors)
	}
}

func TestValidateDiscountCap(t *testing.T) {
	state, final := validState(t)
	state.Applications = append(state.Applications, FeeApplication{
		Component: ComponentStructuring,
		Discount:  true,
		Amount:    decimal.NewFromInt(-99999), // 幅度超过结构费基础行
		Basis:     BasisGross,
	})

	result := NewValidator().Validate(state, final, decimal.Zero)
	if !hasIssue(result.Errors, "discount_cap") {
		t.Fatalf("oversized discount accepted: %+v", result.Errors)
	}
}

func TestValidateDiscountWithoutBaseRow(t *testing.T) {
	state, final := validState(t)
	state.Applications = append(state.Applications, FeeApplication{
		Component: ComponentPerformance,
		Discount:  true,
		Amount:    decimal.NewFromInt(-10),
		Basis:     BasisGross,
	})

	result := NewValidator().Validate(state, final, decimal.Zero)
	if !hasIssue(result.Errors, "discount_cap") {
		t.Fatalf("orphan discount accepted: %+v", result.Errors)
	}
}

func TestValidateTransferReconciliation(t *testing.T) {
	state, final := validState(t)
	final.TransferPostDiscount = final.TransferPostDiscount.Add(decimal.NewFromInt(1))

	result := NewValidator().Validate(state, final, decimal.Zero)
	if !hasIssue(result.Errors, "transfer_reconciliation") {
		t.Fatalf("broken transfer reconciliation accepted: %+v", result.Errors)
	}
}

func TestValidateUnitsRecomputation(t *testing.T) {
	state, final := validState(t)
	final.Units = final.Units + 1

	result := NewValidator().Validate(state, final, decimal.NewFromInt(1000))
	if !hasIssue(result.Errors, "units_integer") {
		t.Fatalf("wrong unit count accepted: %+v", result.Errors)
	}
}

func TestValidateMissingPremiumIsWarningOnly(t *testing.T) {
	rules := []ScheduleRule{
		{Component: ComponentManagement, IsPercent: true, Rate: decimal.RequireFromString("0.02"), Basis: BasisGross, Precedence: 1},
	}
	calc := NewCalculator(NetMinusPremium)
	state, err := calc.Calculate(rules, decimal.NewFromInt(100000))
	if err != nil {
		t.Fatalf("calculate: %v", err)
	}
	final := calc.Finalize(state, decimal.NewFromInt(1000))

	result := NewValidator().Validate(state, final, decimal.NewFromInt(1000))
	if !result.Valid {
		t.Fatalf("premium-less schedule must stay valid: %+v", result.Errors)
	}
	if !hasIssue(result.Warnings, "premium_first") {
		t.Fatalf("missing premium_first warning: %+v", result.Warnings)
	}
}
