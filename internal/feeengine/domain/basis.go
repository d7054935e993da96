package domain

import (
	"fmt"
	"strings"
)

// Basis 费率计算基数
type Basis int8

const (
	BasisGross           Basis = 1 // 总认缴额
	BasisNet             Basis = 2 // 净额（总额减溢价费）
	BasisNetAfterPremium Basis = 3 // 见 NetAfterPremiumMode
)

func (b Basis) String() string {
	switch b {
	case BasisGross:
		return "GROSS"
	case BasisNet:
		return "NET"
	case BasisNetAfterPremium:
		return "NET_AFTER_PREMIUM"
	default:
		return "UNKNOWN"
	}
}

// ParseBasis 解析基数名
func ParseBasis(name string) (Basis, error) {
	switch strings.ToUpper(strings.TrimSpace(name)) {
	case "GROSS":
		return BasisGross, nil
	case "NET":
		return BasisNet, nil
	case "NET_AFTER_PREMIUM":
		return BasisNetAfterPremium, nil
	default:
		return 0, fmt.Errorf("%w: %q", ErrUnknownBasis, name)
	}
}

// NetAfterPremiumMode 决定 NET_AFTER_PREMIUM 的取值语义。
// 原系统中解析器实现为 net − premium，而净额定义本身已剔除溢价费，
// 两种读法在历史数据中并存。此处作为显式配置，不做静默取舍；
// 默认 NetMinusPremium 对齐历史解析器行为，切换需产品确认。
type NetAfterPremiumMode int8

const (
	// NetMinusPremium 再次扣除溢价费：base = net − premium
	NetMinusPremium NetAfterPremiumMode = 1
	// SameAsNet 视同净额：base = net
	SameAsNet NetAfterPremiumMode = 2
)

func (m NetAfterPremiumMode) String() string {
	switch m {
	case NetMinusPremium:
		return "net_minus_premium"
	case SameAsNet:
		return "same_as_net"
	default:
		return "unknown"
	}
}

// ParseNetAfterPremiumMode 解析配置值
func ParseNetAfterPremiumMode(name string) (NetAfterPremiumMode, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "net_minus_premium", "":
		return NetMinusPremium, nil
	case "same_as_net":
		return SameAsNet, nil
	default:
		return 0, fmt.Errorf("invalid net_after_premium mode: %q", name)
	}
}
