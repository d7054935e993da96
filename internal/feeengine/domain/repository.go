package domain

import "context"

// ScheduleRepository 费率规则来源，按优先级升序返回
type ScheduleRepository interface {
	ListByDeal(ctx context.Context, dealID string) ([]ScheduleRule, error)
}

// EquationRepository 交易方程仓储。引擎只读使用，快照不可变；
// 未配置时返回 ErrEquationNotFound，由执行器合成默认方程。
type EquationRepository interface {
	GetByDeal(ctx context.Context, dealID string) (*DealEquation, error)
	Save(ctx context.Context, dealID string, eq *DealEquation) error
}

// LedgerRepository 费用账本落库。一笔交易的全部记录必须原子写入，
// 部分写入的账本对审计对账是正确性事故。
type LedgerRepository interface {
	SaveAll(ctx context.Context, records []*FeeLedgerRecord) error
	// StageAll 暂存无交易关联的导入记录，等待后续关联
	StageAll(ctx context.Context, batchID string, records []*FeeLedgerRecord) error
	ListByTransaction(ctx context.Context, transactionID string) ([]*FeeLedgerRecord, error)
}

// TransactionRepository 交易仓储
type TransactionRepository interface {
	Save(ctx context.Context, tx *Transaction) error
	Get(ctx context.Context, transactionID string) (*Transaction, error)
}

// EventPublisher 费用事件外发（账本提交后通知下游）
type EventPublisher interface {
	PublishFeesCalculated(ctx context.Context, event FeesCalculatedEvent) error
}

// FeesCalculatedEvent 账本提交完成事件
type FeesCalculatedEvent struct {
	AuditID              string `json:"audit_id"`
	TransactionID        string `json:"transaction_id"`
	DealID               string `json:"deal_id"`
	EquationName         string `json:"equation_name"`
	TransferPostDiscount string `json:"transfer_post_discount"`
	CalculatedAt         string `json:"calculated_at"`
}
