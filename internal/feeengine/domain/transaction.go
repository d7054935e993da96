package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// TransactionContext 单笔交易的计算输入
type TransactionContext struct {
	DealID          string
	InvestorID      string
	GrossCapital    decimal.Decimal
	Units           int64
	UnitPrice       decimal.Decimal
	Years           int
	Profit          *decimal.Decimal
	ReturnedCapital *decimal.Decimal
}

// FeeMethodNone 费用计算失败时交易记录的兜底方法标记
const FeeMethodNone = "none"

// Transaction 交易聚合根。费用引擎失败不阻断交易落库：
// 此时 NetCapital 回退为 GrossCapital，FeeMethod 记为 none，等待人工对账。
type Transaction struct {
	TransactionID string
	DealID        string
	InvestorID    string
	Units         int64
	UnitPrice     decimal.Decimal
	GrossCapital  decimal.Decimal
	NetCapital    decimal.Decimal
	FeeMethod     string
	CreatedAt     time.Time
}

// DiscountBreakdownEntry 审计负载中的单条折扣明细
type DiscountBreakdownEntry struct {
	Component string          `json:"component"`
	Amount    decimal.Decimal `json:"amount"`
	Percent   string          `json:"percent,omitempty"`
}

// AuditPayload 账本行的结构化审计负载
type AuditPayload struct {
	AuditID           string                   `json:"audit_id"`
	EquationName      string                   `json:"equation_name"`
	ScheduleVersion   string                   `json:"schedule_version"`
	PrecedenceOrder   []string                 `json:"precedence_order"`
	BasisContext      map[string]string        `json:"basis_context"`
	DiscountBreakdown []DiscountBreakdownEntry `json:"discount_breakdown,omitempty"`
	CalculationDate   time.Time                `json:"calculation_date"`
}

// FeeLedgerRecord 持久化账本记录：每个基础组件一条，
// 汇总该组件的折扣比例/金额并携带审计负载。
type FeeLedgerRecord struct {
	LedgerID        string
	TransactionID   string
	DealID          string
	InvestorID      string
	Component       Component
	Amount          decimal.Decimal
	Percent         *decimal.Decimal
	Basis           Basis
	DiscountPercent *decimal.Decimal
	DiscountAmount  decimal.Decimal
	Notes           string
	Audit           AuditPayload
	CreatedAt       time.Time
}
