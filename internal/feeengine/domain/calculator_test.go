package domain

import (
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/shopspring/decimal"
)

func standardSchedule(t *testing.T) []ScheduleRule {
	t.Helper()
	return []ScheduleRule{
		{Component: ComponentPremium, IsPercent: true, Rate: decimal.RequireFromString("0.0377358"), Basis: BasisGross, Precedence: 1},
		{Component: ComponentStructuring, IsPercent: true, Rate: decimal.RequireFromString("0.04"), Basis: BasisGross, Precedence: 2},
		{Component: ComponentManagement, IsPercent: true, Rate: decimal.RequireFromString("0.02"), Basis: BasisGross, Precedence: 3},
		{Component: ComponentAdmin, FixedAmount: decimal.NewFromInt(450), Basis: BasisGross, Precedence: 4},
	}
}

func mustEqual(t *testing.T, got decimal.Decimal, want string, label string) {
	t.Helper()
	if !got.Equal(decimal.RequireFromString(want)) {
		t.Fatalf("%s=%s want=%s", label, got, want)
	}
}

func TestCalculateStandardSchedule(t *testing.T) {
	calc := NewCalculator(NetMinusPremium)
	state, err := calc.Calculate(standardSchedule(t), decimal.NewFromInt(100000))
	if err != nil {
		t.Fatalf("calculate: %v", err)
	}

	mustEqual(t, state.PremiumAmount, "3773.58", "premium")
	mustEqual(t, state.NetAmount, "96226.42", "net")
	if len(state.Applications) != 4 {
		t.Fatalf("applications=%d want=4", len(state.Applications))
	}
	mustEqual(t, state.Applications[1].Amount, "4000", "structuring")
	mustEqual(t, state.Applications[2].Amount, "2000", "management")
	mustEqual(t, state.Applications[3].Amount, "450", "admin")
	mustEqual(t, state.RunningAmount, "89776.42", "running")

	for i, app := range state.Applications {
		if app.Discount {
			t.Fatalf("application %d unexpectedly marked as discount", i)
		}
		if !app.Applied {
			t.Fatalf("application %d not marked applied", i)
		}
	}
}

func TestCalculatePremiumRecomputesNetBeforeLaterRules(t *testing.T) {
	rules := []ScheduleRule{
		{Component: ComponentPremium, IsPercent: true, Rate: decimal.RequireFromString("0.10"), Basis: BasisGross, Precedence: 1},
		{Component: ComponentStructuring, IsPercent: true, Rate: decimal.RequireFromString("0.10"), Basis: BasisNet, Precedence: 2},
	}

	calc := NewCalculator(NetMinusPremium)
	state, err := calc.Calculate(rules, decimal.NewFromInt(1000))
	if err != nil {
		t.Fatalf("calculate: %v", err)
	}

	mustEqual(t, state.PremiumAmount, "100", "premium")
	mustEqual(t, state.NetAmount, "900", "net")
	// 结构费基数必须是扣除溢价后的净额
	mustEqual(t, state.Applications[1].Amount, "90", "structuring on net")
}

func TestCalculateRejectsPrecedenceConflict(t *testing.T) {
	rules := []ScheduleRule{
		{Component: ComponentPremium, IsPercent: true, Rate: decimal.RequireFromString("0.02"), Basis: BasisGross, Precedence: 1},
		{Component: ComponentAdmin, FixedAmount: decimal.NewFromInt(450), Basis: BasisGross, Precedence: 1},
	}

	calc := NewCalculator(NetMinusPremium)
	if _, err := calc.Calculate(rules, decimal.NewFromInt(1000)); !errors.Is(err, ErrPrecedenceConflict) {
		t.Fatalf("err=%v want ErrPrecedenceConflict", err)
	}
}

func TestCalculateZeroGross(t *testing.T) {
	calc := NewCalculator(NetMinusPremium)
	state, err := calc.Calculate(standardSchedule(t), decimal.Zero)
	if err != nil {
		t.Fatalf("calculate: %v", err)
	}

	mustEqual(t, state.PremiumAmount, "0", "premium")
	mustEqual(t, state.NetAmount, "0", "net")
	// 零认缴额时全部金额为零，固定金额费用也不例外
	for i, app := range state.Applications {
		if !app.Amount.IsZero() {
			t.Fatalf("application %d amount=%s want=0", i, app.Amount)
		}
	}

	final := calc.Finalize(state, decimal.NewFromInt(1000))
	if final.Units != 0 {
		t.Fatalf("units=%d want=0", final.Units)
	}
	validation := NewValidator().Validate(state, final, decimal.NewFromInt(1000))
	if !validation.Valid {
		t.Fatalf("validation failed: %+v", validation.Errors)
	}
}

func TestResolveBasisModes(t *testing.T) {
	state := &FeeCalculationState{
		GrossAmount:   decimal.NewFromInt(1000),
		NetAmount:     decimal.NewFromInt(900),
		PremiumAmount: decimal.NewFromInt(100),
	}

	minus := NewCalculator(NetMinusPremium)
	mustEqual(t, minus.ResolveBasis(state, BasisGross), "1000", "gross")
	mustEqual(t, minus.ResolveBasis(state, BasisNet), "900", "net")
	mustEqual(t, minus.ResolveBasis(state, BasisNetAfterPremium), "800", "net_after_premium minus mode")

	same := NewCalculator(SameAsNet)
	mustEqual(t, same.ResolveBasis(state, BasisNetAfterPremium), "900", "net_after_premium same mode")
}

func TestApplyDiscounts(t *testing.T) {
	calc := NewCalculator(NetMinusPremium)
	state, err := calc.Calculate(standardSchedule(t), decimal.NewFromInt(100000))
	if err != nil {
		t.Fatalf("calculate: %v", err)
	}
	runningBefore := state.RunningAmount

	applied, skipped := calc.ApplyDiscounts(state, []DiscountInput{
		{Component: ComponentStructuring, IsPercent: true, Percent: decimal.RequireFromString("0.5")},
		{Component: ComponentAdmin, IsPercent: true, Percent: decimal.RequireFromString("1.0")},
	})
	if len(skipped) != 0 {
		t.Fatalf("skipped=%v want none", skipped)
	}
	if len(applied) != 2 {
		t.Fatalf("applied=%d want=2", len(applied))
	}

	if len(state.Applications) != 6 {
		t.Fatalf("applications=%d want=6", len(state.Applications))
	}
	structuringDiscount := state.Applications[4]
	if !structuringDiscount.Discount {
		t.Fatalf("row 4 not marked as discount")
	}
	if structuringDiscount.Label() != "STRUCTURING_DISCOUNT" {
		t.Fatalf("label=%s want=STRUCTURING_DISCOUNT", structuringDiscount.Label())
	}
	mustEqual(t, structuringDiscount.Amount, "-2000", "structuring discount")
	mustEqual(t, state.Applications[5].Amount, "-450", "admin discount")

	// 基础行不被修改
	mustEqual(t, state.Applications[1].Amount, "4000", "structuring base after discount")
	// 折扣增加留存资金
	mustEqual(t, state.RunningAmount.Sub(runningBefore), "2450", "running delta")
}

func TestApplyDiscountsSkipsMissingBase(t *testing.T) {
	calc := NewCalculator(NetMinusPremium)
	state, err := calc.Calculate(standardSchedule(t), decimal.NewFromInt(100000))
	if err != nil {
		t.Fatalf("calculate: %v", err)
	}

	applied, skipped := calc.ApplyDiscounts(state, []DiscountInput{
		{Component: ComponentPerformance, IsPercent: true, Percent: decimal.RequireFromString("0.5")},
	})
	if len(applied) != 0 {
		t.Fatalf("applied=%d want=0", len(applied))
	}
	if len(skipped) != 1 || skipped[0] != ComponentPerformance {
		t.Fatalf("skipped=%v want=[PERFORMANCE]", skipped)
	}
	if len(state.Applications) != 4 {
		t.Fatalf("applications=%d want=4 (no discount row appended)", len(state.Applications))
	}
}

func TestApplyDiscountsCappedAtBaseAmount(t *testing.T) {
	calc := NewCalculator(NetMinusPremium)
	state, err := calc.Calculate(standardSchedule(t), decimal.NewFromInt(100000))
	if err != nil {
		t.Fatalf("calculate: %v", err)
	}

	applied, _ := calc.ApplyDiscounts(state, []DiscountInput{
		{Component: ComponentAdmin, FixedAmount: decimal.NewFromInt(10000)},
	})
	mustEqual(t, applied[0].Amount, "450", "capped discount")
	mustEqual(t, state.Applications[4].Amount, "-450", "capped discount row")
}

func TestApplyDiscountsNegativeInputsStillCapped(t *testing.T) {
	calc := NewCalculator(NetMinusPremium)
	state, err := calc.Calculate(standardSchedule(t), decimal.NewFromInt(100000))
	if err != nil {
		t.Fatalf("calculate: %v", err)
	}

	// 负号输入只表达幅度，封顶仍以基础费用为界
	applied, skipped := calc.ApplyDiscounts(state, []DiscountInput{
		{Component: ComponentAdmin, FixedAmount: decimal.NewFromInt(-5000)},
		{Component: ComponentStructuring, Percent: decimal.RequireFromString("-0.5"), IsPercent: true},
	})
	if len(skipped) != 0 {
		t.Fatalf("skipped=%+v want none", skipped)
	}
	if len(applied) != 2 {
		t.Fatalf("applied=%d want=2", len(applied))
	}
	mustEqual(t, applied[0].Amount, "450", "admin discount capped at base")
	mustEqual(t, applied[1].Amount, "2000", "structuring discount magnitude")
	mustEqual(t, state.Applications[4].Amount, "-450", "admin discount row")
	mustEqual(t, state.Applications[5].Amount, "-2000", "structuring discount row")

	final := calc.Finalize(state, decimal.NewFromInt(1000))
	result := NewValidator().Validate(state, final, decimal.NewFromInt(1000))
	if !result.Valid {
		t.Fatalf("capped discounts rejected: %+v", result.Errors)
	}
}

func TestApplyDiscountsZeroBaseProducesNoRow(t *testing.T) {
	calc := NewCalculator(NetMinusPremium)
	state, err := calc.Calculate(standardSchedule(t), decimal.Zero)
	if err != nil {
		t.Fatalf("calculate: %v", err)
	}
	rowsBefore := len(state.Applications)

	applied, skipped := calc.ApplyDiscounts(state, []DiscountInput{
		{Component: ComponentAdmin, FixedAmount: decimal.NewFromInt(100)},
		{Component: ComponentStructuring, Percent: decimal.RequireFromString("0.5"), IsPercent: true},
	})
	if len(applied) != 0 || len(skipped) != 0 {
		t.Fatalf("applied=%+v skipped=%+v want none", applied, skipped)
	}
	if len(state.Applications) != rowsBefore {
		t.Fatalf("applications=%d want=%d", len(state.Applications), rowsBefore)
	}

	final := calc.Finalize(state, decimal.NewFromInt(1000))
	result := NewValidator().Validate(state, final, decimal.NewFromInt(1000))
	if !result.Valid {
		t.Fatalf("zero-capital ledger rejected: %+v", result.Errors)
	}
}

func TestApplyAnnualMultipliesBeforeDiscounts(t *testing.T) {
	calc := NewCalculator(NetMinusPremium)
	state, err := calc.Calculate(standardSchedule(t), decimal.NewFromInt(100000))
	if err != nil {
		t.Fatalf("calculate: %v", err)
	}
	runningBefore := state.RunningAmount

	if !calc.ApplyAnnual(state, ComponentManagement, 3) {
		t.Fatalf("annual expansion not applied")
	}

	idx := state.FindApplication(ComponentManagement)
	mustEqual(t, state.Applications[idx].Amount, "6000", "management x3")
	if !strings.Contains(state.Applications[idx].Notes, "annual x 3 years") {
		t.Fatalf("notes=%q missing annual marker", state.Applications[idx].Notes)
	}
	mustEqual(t, runningBefore.Sub(state.RunningAmount), "4000", "running delta")

	// 年化之后的折扣以多年总额为基数
	applied, _ := calc.ApplyDiscounts(state, []DiscountInput{
		{Component: ComponentManagement, IsPercent: true, Percent: decimal.RequireFromString("0.5")},
	})
	mustEqual(t, applied[0].Amount, "3000", "discount on multi-year base")
}

func TestApplyAnnualOneYearIsNoop(t *testing.T) {
	calc := NewCalculator(NetMinusPremium)
	state, err := calc.Calculate(standardSchedule(t), decimal.NewFromInt(100000))
	if err != nil {
		t.Fatalf("calculate: %v", err)
	}
	if calc.ApplyAnnual(state, ComponentManagement, 1) {
		t.Fatalf("years=1 must not modify the row")
	}
}

func TestFinalize(t *testing.T) {
	calc := NewCalculator(NetMinusPremium)
	state, err := calc.Calculate(standardSchedule(t), decimal.NewFromInt(100000))
	if err != nil {
		t.Fatalf("calculate: %v", err)
	}
	calc.ApplyDiscounts(state, []DiscountInput{
		{Component: ComponentStructuring, IsPercent: true, Percent: decimal.RequireFromString("0.5")},
		{Component: ComponentAdmin, IsPercent: true, Percent: decimal.RequireFromString("1.0")},
	})

	final := calc.Finalize(state, decimal.NewFromInt(1000))
	mustEqual(t, final.TransferPreDiscount, "10223.58", "pre discount")
	mustEqual(t, final.TotalDiscounts, "2450", "total discounts")
	mustEqual(t, final.TransferPostDiscount, "7773.58", "post discount")
	if final.Units != 96 {
		t.Fatalf("units=%d want=96", final.Units)
	}
}

func TestFinalizeNonPositiveUnitPrice(t *testing.T) {
	calc := NewCalculator(NetMinusPremium)
	state, err := calc.Calculate(standardSchedule(t), decimal.NewFromInt(100000))
	if err != nil {
		t.Fatalf("calculate: %v", err)
	}
	final := calc.Finalize(state, decimal.Zero)
	if final.Units != 0 {
		t.Fatalf("units=%d want=0 for zero unit price", final.Units)
	}
}

func TestCalculateIsIdempotent(t *testing.T) {
	calc := NewCalculator(NetMinusPremium)
	rules := standardSchedule(t)

	first, err := calc.Calculate(rules, decimal.NewFromInt(100000))
	if err != nil {
		t.Fatalf("calculate: %v", err)
	}
	second, err := calc.Calculate(rules, decimal.NewFromInt(100000))
	if err != nil {
		t.Fatalf("calculate: %v", err)
	}

	a, _ := json.Marshal(first)
	b, _ := json.Marshal(second)
	if string(a) != string(b) {
		t.Fatalf("identical inputs produced different states:\n%s\n%s", a, b)
	}
}
