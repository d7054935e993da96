package domain

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// 模板库：建新交易时可直接套用的规范方程。
// 模板本身不落库，合成方程引用模板构造。
const (
	TemplateStandardPrimary = "STANDARD_PRIMARY_V1"
	TemplateCarryFund       = "CARRY_FUND_V1"
	TemplateSecondaryMarket = "SECONDARY_MARKET_V1"
	TemplateAdvisory        = "ADVISORY_V1"
)

// TemplateNames 模板名列表（展示顺序固定）
func TemplateNames() []string {
	return []string{
		TemplateStandardPrimary,
		TemplateCarryFund,
		TemplateSecondaryMarket,
		TemplateAdvisory,
	}
}

// NewTemplateEquation 按模板名构造方程
func NewTemplateEquation(name string) (*DealEquation, error) {
	switch name {
	case TemplateStandardPrimary:
		return standardPrimaryV1(), nil
	case TemplateCarryFund:
		return carryFundV1(), nil
	case TemplateSecondaryMarket:
		return secondaryMarketV1(), nil
	case TemplateAdvisory:
		return advisoryV1(), nil
	default:
		return nil, fmt.Errorf("unknown equation template: %q", name)
	}
}

// standardPrimaryV1 一级市场标准方程：溢价 + 结构费（大额折扣）+ 年化管理费 + 固定行政费
func standardPrimaryV1() *DealEquation {
	return &DealEquation{
		Name: TemplateStandardPrimary,
		Rules: []EquationRule{
			{
				Component:  ComponentPremium,
				Kind:       KindPercentOfBasis,
				Basis:      BasisGross,
				Rate:       decimal.RequireFromString("0.0377358"),
				Precedence: 1,
			},
			{
				Component:  ComponentStructuring,
				Kind:       KindPercentOfBasis,
				Basis:      BasisGross,
				Rate:       decimal.RequireFromString("0.04"),
				Precedence: 2,
				Discount: &DiscountCondition{
					MinCapital: decimal.NewFromInt(100000),
					Percent:    decimal.RequireFromString("0.5"),
				},
			},
			{
				Component:  ComponentManagement,
				Kind:       KindPercentOfBasis,
				Basis:      BasisGross,
				Rate:       decimal.RequireFromString("0.02"),
				Precedence: 3,
				Annual:     true,
			},
			{
				Component:   ComponentAdmin,
				Kind:        KindFixedAmount,
				Basis:       BasisGross,
				FixedAmount: decimal.NewFromInt(450),
				Precedence:  4,
			},
		},
	}
}

// carryFundV1 基金方程：年化管理费 + 8% 门槛 20% carry
func carryFundV1() *DealEquation {
	hurdle := decimal.RequireFromString("0.08")
	return &DealEquation{
		Name: TemplateCarryFund,
		Rules: []EquationRule{
			{
				Component:  ComponentManagement,
				Kind:       KindPercentOfBasis,
				Basis:      BasisGross,
				Rate:       decimal.RequireFromString("0.02"),
				Precedence: 1,
				Annual:     true,
			},
		},
		Performance: &PerformanceRule{
			Basis:      BasisGross,
			HurdleRate: &hurdle,
			CarryRate:  decimal.RequireFromString("0.20"),
			Precedence: 10,
		},
	}
}

// secondaryMarketV1 二级市场方程：低溢价 + 结构费 + 固定行政费
func secondaryMarketV1() *DealEquation {
	return &DealEquation{
		Name: TemplateSecondaryMarket,
		Rules: []EquationRule{
			{
				Component:  ComponentPremium,
				Kind:       KindPercentOfBasis,
				Basis:      BasisGross,
				Rate:       decimal.RequireFromString("0.02"),
				Precedence: 1,
			},
			{
				Component:  ComponentStructuring,
				Kind:       KindPercentOfBasis,
				Basis:      BasisGross,
				Rate:       decimal.RequireFromString("0.015"),
				Precedence: 2,
			},
			{
				Component:   ComponentAdmin,
				Kind:        KindFixedAmount,
				Basis:       BasisGross,
				FixedAmount: decimal.NewFromInt(350),
				Precedence:  3,
			},
		},
	}
}

// advisoryV1 顾问方程：仅年化管理费
func advisoryV1() *DealEquation {
	return &DealEquation{
		Name: TemplateAdvisory,
		Rules: []EquationRule{
			{
				Component:  ComponentManagement,
				Kind:       KindPercentOfBasis,
				Basis:      BasisGross,
				Rate:       decimal.RequireFromString("0.01"),
				Precedence: 1,
				Annual:     true,
			},
		},
	}
}
