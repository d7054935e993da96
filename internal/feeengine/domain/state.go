package domain

import (
	"github.com/shopspring/decimal"
)

// FeeApplication 账本行。符号编码方向：基础费用行非负，折扣行恒为负。
// 折扣不修改基础行，只追加负行，保持账本 append-only 可审计。
type FeeApplication struct {
	Component Component
	Discount  bool
	Amount    decimal.Decimal
	Percent   *decimal.Decimal // 百分比费用/折扣的原始比例，固定金额时为空
	Basis     Basis
	Applied   bool
	Notes     string
}

// Label 账本行标签（折扣行带 _DISCOUNT 后缀）
func (fa FeeApplication) Label() string {
	return fa.Component.Label(fa.Discount)
}

// FeeCalculationState 单次计算的累加器。每次计算独立分配，返回后不再修改，
// 不得跨计算共享。
type FeeCalculationState struct {
	GrossAmount   decimal.Decimal
	NetAmount     decimal.Decimal
	PremiumAmount decimal.Decimal
	RunningAmount decimal.Decimal
	Applications  []FeeApplication
}

// NewFeeCalculationState 以总认缴额初始化状态；未扣溢价费前净额等于总额
func NewFeeCalculationState(gross decimal.Decimal) *FeeCalculationState {
	return &FeeCalculationState{
		GrossAmount:   gross,
		NetAmount:     gross,
		PremiumAmount: decimal.Zero,
		RunningAmount: gross,
	}
}

// FindApplication 按组件定位基础费用行（非折扣），返回索引；未找到返回 -1
func (s *FeeCalculationState) FindApplication(c Component) int {
	for i := range s.Applications {
		if s.Applications[i].Component == c && !s.Applications[i].Discount {
			return i
		}
	}
	return -1
}
