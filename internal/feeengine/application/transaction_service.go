package application

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/shopspring/decimal"

	"github.com/ahamawy/fiveseptemberlaunch-sub000/internal/feeengine/domain"
	"github.com/ahamawy/fiveseptemberlaunch-sub000/pkg/metrics"
)

// CreateTransactionCommand 交易创建命令
type CreateTransactionCommand struct {
	DealID     string
	InvestorID string
	Units      int64
	UnitPrice  decimal.Decimal
	Years      int
}

// TransactionService 交易创建入口。费用引擎失败显式吞掉（仅告警日志），
// 保证交易落库优先于费用准确性；兜底路径走人工对账。
type TransactionService struct {
	executor     *DealEquationExecutor
	transactions domain.TransactionRepository
	ledger       domain.LedgerRepository
	publisher    domain.EventPublisher
	metrics      *metrics.Metrics
	logger       *slog.Logger
}

// NewTransactionService 创建交易服务；publisher 与 metrics 可为 nil
func NewTransactionService(
	executor *DealEquationExecutor,
	transactions domain.TransactionRepository,
	ledger domain.LedgerRepository,
	publisher domain.EventPublisher,
	m *metrics.Metrics,
	logger *slog.Logger,
) *TransactionService {
	return &TransactionService{
		executor:     executor,
		transactions: transactions,
		ledger:       ledger,
		publisher:    publisher,
		metrics:      m,
		logger:       logger.With("service", "feeengine_transaction"),
	}
}

// Create 创建交易：gross = units × unit_price，运行方程，
// 成功时持久化净额与账本；费用失败时交易仍以 net = gross、method = none 落库。
func (s *TransactionService) Create(ctx context.Context, cmd CreateTransactionCommand) (*domain.Transaction, *ExecutionResult, error) {
	gross := s.grossCapital(cmd)
	txCtx := domain.TransactionContext{
		DealID:       cmd.DealID,
		InvestorID:   cmd.InvestorID,
		GrossCapital: gross,
		Units:        cmd.Units,
		UnitPrice:    cmd.UnitPrice,
		Years:        cmd.Years,
	}

	tx := &domain.Transaction{
		TransactionID: fmt.Sprintf("TXN-%s-%d", cmd.DealID, time.Now().UnixNano()),
		DealID:        cmd.DealID,
		InvestorID:    cmd.InvestorID,
		Units:         cmd.Units,
		UnitPrice:     cmd.UnitPrice,
		GrossCapital:  gross,
		NetCapital:    gross,
		FeeMethod:     domain.FeeMethodNone,
		CreatedAt:     time.Now(),
	}

	result, err := s.executor.Execute(ctx, ExecuteParams{Tx: txCtx})
	switch {
	case err != nil:
		s.logger.WarnContext(ctx, "fee calculation failed, creating transaction without fees",
			"deal_id", cmd.DealID, "investor_id", cmd.InvestorID, "error", err)
		result = nil
	case !result.Validation.Valid:
		s.logger.WarnContext(ctx, "fee validation failed, creating transaction without fees",
			"deal_id", cmd.DealID, "investor_id", cmd.InvestorID, "errors", result.Validation.Errors)
	default:
		tx.NetCapital = result.State.NetAmount
		tx.FeeMethod = result.EquationName
	}

	if err := s.transactions.Save(ctx, tx); err != nil {
		return nil, result, fmt.Errorf("save transaction: %w", err)
	}

	if result != nil && result.Validation.Valid {
		if err := s.PersistLedger(ctx, tx.TransactionID, txCtx, result); err != nil {
			// 账本落库失败同样不回滚交易，留待对账
			s.logger.WarnContext(ctx, "fee ledger persistence failed",
				"transaction_id", tx.TransactionID, "error", err)
		}
	}

	s.logger.InfoContext(ctx, "transaction created",
		"transaction_id", tx.TransactionID,
		"deal_id", tx.DealID,
		"gross_capital", tx.GrossCapital,
		"net_capital", tx.NetCapital,
		"fee_method", tx.FeeMethod)
	return tx, result, nil
}

// PersistLedger 原子写入账本。校验未通过时拒绝写入任何记录。
func (s *TransactionService) PersistLedger(ctx context.Context, transactionID string, txCtx domain.TransactionContext, result *ExecutionResult) error {
	if !result.Validation.Valid {
		return domain.ErrInvalidLedger
	}

	records := BuildLedgerRecords(transactionID, txCtx, result)
	if err := s.ledger.SaveAll(ctx, records); err != nil {
		return fmt.Errorf("persist fee ledger: %w", err)
	}
	if s.metrics != nil {
		s.metrics.LedgerWritesTotal.Add(float64(len(records)))
	}

	if s.publisher != nil {
		event := domain.FeesCalculatedEvent{
			AuditID:              result.Audit.AuditID,
			TransactionID:        transactionID,
			DealID:               txCtx.DealID,
			EquationName:         result.EquationName,
			TransferPostDiscount: result.Final.TransferPostDiscount.String(),
			CalculatedAt:         result.Audit.CalculationDate.Format(time.RFC3339),
		}
		if err := s.publisher.PublishFeesCalculated(ctx, event); err != nil {
			s.logger.WarnContext(ctx, "fee event publish failed", "audit_id", event.AuditID, "error", err)
		}
	}
	return nil
}

// Get 查询交易
func (s *TransactionService) Get(ctx context.Context, transactionID string) (*domain.Transaction, error) {
	return s.transactions.Get(ctx, transactionID)
}

func (s *TransactionService) grossCapital(cmd CreateTransactionCommand) decimal.Decimal {
	return cmd.UnitPrice.Mul(decimal.NewFromInt(cmd.Units))
}
