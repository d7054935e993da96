// Package mysql 费用引擎 GORM 持久化
package mysql

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// DealEquationModel 交易方程，规则集序列化为 JSON
type DealEquationModel struct {
	gorm.Model
	DealID          string         `gorm:"column:deal_id;uniqueIndex;type:varchar(64);not null"`
	Name            string         `gorm:"column:name;type:varchar(128);not null"`
	RulesJSON       datatypes.JSON `gorm:"column:rules_json;not null"`
	PerformanceJSON datatypes.JSON `gorm:"column:performance_json"`
}

func (DealEquationModel) TableName() string { return "deal_equations" }

// ScheduleRuleModel 费率规则行
type ScheduleRuleModel struct {
	gorm.Model
	DealID      string          `gorm:"column:deal_id;index:idx_deal_precedence;type:varchar(64);not null"`
	Component   string          `gorm:"column:component;type:varchar(32);not null"`
	Rate        decimal.Decimal `gorm:"column:rate;type:decimal(18,8)"`
	FixedAmount decimal.Decimal `gorm:"column:fixed_amount;type:decimal(20,2)"`
	IsPercent   bool            `gorm:"column:is_percent;not null"`
	Basis       string          `gorm:"column:basis;type:varchar(32);not null"`
	Precedence  int             `gorm:"column:precedence;index:idx_deal_precedence;not null"`
	EffectiveAt time.Time       `gorm:"column:effective_at"`
}

func (ScheduleRuleModel) TableName() string { return "fee_schedule_rules" }

// ledgerColumns 账本记录公共列（正式表与暂存表共用）
type ledgerColumns struct {
	LedgerID        string           `gorm:"column:ledger_id;uniqueIndex;type:varchar(64);not null"`
	TransactionID   string           `gorm:"column:transaction_id;index;type:varchar(64)"`
	DealID          string           `gorm:"column:deal_id;index;type:varchar(64);not null"`
	InvestorID      string           `gorm:"column:investor_id;index;type:varchar(64)"`
	Component       string           `gorm:"column:component;type:varchar(32);not null"`
	Amount          decimal.Decimal  `gorm:"column:amount;type:decimal(20,2);not null"`
	Percent         *decimal.Decimal `gorm:"column:percent;type:decimal(18,8)"`
	Basis           string           `gorm:"column:basis;type:varchar(32);not null"`
	DiscountPercent *decimal.Decimal `gorm:"column:discount_percent;type:decimal(18,8)"`
	DiscountAmount  decimal.Decimal  `gorm:"column:discount_amount;type:decimal(20,2)"`
	Notes           string           `gorm:"column:notes;type:varchar(512)"`
	AuditJSON       datatypes.JSON   `gorm:"column:audit_json"`
	CalculatedAt    time.Time        `gorm:"column:calculated_at"`
}

// FeeApplicationModel 正式费用账本：每个基础组件一行
type FeeApplicationModel struct {
	gorm.Model
	ledgerColumns `gorm:"embedded"`
}

func (FeeApplicationModel) TableName() string { return "fee_applications" }

// StagedFeeApplicationModel 导入暂存账本，等待交易关联
type StagedFeeApplicationModel struct {
	gorm.Model
	BatchID       string `gorm:"column:batch_id;index;type:varchar(64);not null"`
	ledgerColumns `gorm:"embedded"`
}

func (StagedFeeApplicationModel) TableName() string { return "fee_import_staging" }

// TransactionModel 投资交易记录
type TransactionModel struct {
	gorm.Model
	TransactionID string          `gorm:"column:transaction_id;uniqueIndex;type:varchar(64);not null"`
	DealID        string          `gorm:"column:deal_id;index;type:varchar(64);not null"`
	InvestorID    string          `gorm:"column:investor_id;index;type:varchar(64);not null"`
	Units         int64           `gorm:"column:units;not null"`
	UnitPrice     decimal.Decimal `gorm:"column:unit_price;type:decimal(18,8);not null"`
	GrossCapital  decimal.Decimal `gorm:"column:gross_capital;type:decimal(20,2);not null"`
	NetCapital    decimal.Decimal `gorm:"column:net_capital;type:decimal(20,2);not null"`
	FeeMethod     string          `gorm:"column:fee_method;type:varchar(64);not null"`
}

func (TransactionModel) TableName() string { return "investor_transactions" }
