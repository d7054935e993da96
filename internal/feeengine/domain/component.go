// Package domain 费用计算引擎领域模型：优先级费用计算、折扣、年化、校验与交易方程
package domain

import (
	"fmt"
	"strings"
)

// Component 费用组件，封闭枚举。
// 账本序列化仍使用历史标签（PREMIUM、STRUCTURING_DISCOUNT 等）以兼容审计侧，
// 但业务逻辑只在枚举上做分支，不解析字符串后缀。
type Component int8

const (
	ComponentUnknown     Component = 0
	ComponentPremium     Component = 1 // 溢价费，首先从总额扣除，定义净额
	ComponentStructuring Component = 2 // 结构费
	ComponentManagement  Component = 3 // 管理费，可年化
	ComponentAdmin       Component = 4 // 行政费
	ComponentPerformance Component = 5 // 业绩报酬（carry）
	ComponentOther       Component = 6
)

func (c Component) String() string {
	switch c {
	case ComponentPremium:
		return "PREMIUM"
	case ComponentStructuring:
		return "STRUCTURING"
	case ComponentManagement:
		return "MANAGEMENT"
	case ComponentAdmin:
		return "ADMIN"
	case ComponentPerformance:
		return "PERFORMANCE"
	case ComponentOther:
		return "OTHER"
	default:
		return "UNKNOWN"
	}
}

// discountSuffix 历史账本中折扣行的组件标签后缀
const discountSuffix = "_DISCOUNT"

// Label 返回账本行标签；折扣行带 _DISCOUNT 后缀
func (c Component) Label(discount bool) string {
	if discount {
		return c.String() + discountSuffix
	}
	return c.String()
}

// ParseComponentLabel 解析账本标签为组件与折扣标记
func ParseComponentLabel(label string) (Component, bool, error) {
	name := label
	discount := strings.HasSuffix(label, discountSuffix)
	if discount {
		name = strings.TrimSuffix(label, discountSuffix)
	}

	c, err := ParseComponent(name)
	if err != nil {
		return ComponentUnknown, false, err
	}
	return c, discount, nil
}

// ParseComponent 解析基础组件名
func ParseComponent(name string) (Component, error) {
	switch strings.ToUpper(strings.TrimSpace(name)) {
	case "PREMIUM":
		return ComponentPremium, nil
	case "STRUCTURING":
		return ComponentStructuring, nil
	case "MANAGEMENT":
		return ComponentManagement, nil
	case "ADMIN":
		return ComponentAdmin, nil
	case "PERFORMANCE":
		return ComponentPerformance, nil
	case "OTHER":
		return ComponentOther, nil
	default:
		return ComponentUnknown, fmt.Errorf("%w: %q", ErrUnknownComponent, name)
	}
}
