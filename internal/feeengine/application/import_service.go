package application

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/ahamawy/fiveseptemberlaunch-sub000/internal/feeengine/domain"
	"github.com/ahamawy/fiveseptemberlaunch-sub000/pkg/metrics"
)

// ImportRow 批量导入的单行输入
type ImportRow struct {
	DealID        string
	GrossCapital  decimal.Decimal
	UnitPrice     decimal.Decimal
	Years         int
	Discounts     []domain.DiscountInput
	TransactionID string // 已知关联交易时填写，否则暂存
}

// ImportRowPreview 单行预览结果
type ImportRowPreview struct {
	Row     ImportRow
	Result  *ExecutionResult
	Records []*domain.FeeLedgerRecord
	Error   string
}

// ImportPreview 一个批次的预览：先算后写，提交是独立步骤
type ImportPreview struct {
	BatchID string
	Rows    []ImportRowPreview
}

// ImportCommitResult 提交结果统计
type ImportCommitResult struct {
	BatchID   string
	Persisted int
	Staged    int
	Skipped   int
}

// ImportService 批量导入。Preview 只计算不落库；Commit 持久化已预览的
// 批次，已知交易的记录直接入账本，未知的进入暂存区等待关联。
type ImportService struct {
	executor *DealEquationExecutor
	ledger   domain.LedgerRepository
	metrics  *metrics.Metrics
	logger   *slog.Logger

	mu       sync.Mutex
	previews map[string]*ImportPreview
}

// NewImportService 创建导入服务；metrics 可为 nil
func NewImportService(executor *DealEquationExecutor, ledger domain.LedgerRepository, m *metrics.Metrics, logger *slog.Logger) *ImportService {
	return &ImportService{
		executor: executor,
		ledger:   ledger,
		metrics:  m,
		logger:   logger.With("service", "feeengine_import"),
		previews: make(map[string]*ImportPreview),
	}
}

// Preview 逐行计算账本与校验结果，不做任何写入。
// 单行失败不影响其余行，错误随行返回。
func (s *ImportService) Preview(ctx context.Context, rows []ImportRow) (*ImportPreview, error) {
	if len(rows) == 0 {
		return nil, fmt.Errorf("import preview requires at least one row")
	}

	preview := &ImportPreview{
		BatchID: uuid.NewString(),
		Rows:    make([]ImportRowPreview, 0, len(rows)),
	}

	for _, row := range rows {
		rp := ImportRowPreview{Row: row}

		txCtx := domain.TransactionContext{
			DealID:       row.DealID,
			GrossCapital: row.GrossCapital,
			UnitPrice:    row.UnitPrice,
			Years:        row.Years,
		}
		result, err := s.executor.Execute(ctx, ExecuteParams{Tx: txCtx, ExtraDiscounts: row.Discounts})
		if err != nil {
			rp.Error = err.Error()
		} else {
			rp.Result = result
			rp.Records = BuildLedgerRecords(row.TransactionID, txCtx, result)
		}
		preview.Rows = append(preview.Rows, rp)
	}

	s.mu.Lock()
	s.previews[preview.BatchID] = preview
	s.mu.Unlock()

	s.logger.InfoContext(ctx, "import batch previewed", "batch_id", preview.BatchID, "rows", len(preview.Rows))
	return preview, nil
}

// Commit 持久化一个已预览的批次。校验未通过或计算失败的行跳过。
func (s *ImportService) Commit(ctx context.Context, batchID string) (*ImportCommitResult, error) {
	s.mu.Lock()
	preview, ok := s.previews[batchID]
	if ok {
		delete(s.previews, batchID)
	}
	s.mu.Unlock()
	if !ok {
		return nil, fmt.Errorf("import batch %s not found or already committed", batchID)
	}

	result := &ImportCommitResult{BatchID: batchID}
	for _, rp := range preview.Rows {
		if rp.Error != "" || rp.Result == nil || !rp.Result.Validation.Valid {
			result.Skipped++
			continue
		}

		if rp.Row.TransactionID != "" {
			if err := s.ledger.SaveAll(ctx, rp.Records); err != nil {
				return result, fmt.Errorf("persist imported ledger for transaction %s: %w", rp.Row.TransactionID, err)
			}
			result.Persisted++
		} else {
			if err := s.ledger.StageAll(ctx, batchID, rp.Records); err != nil {
				return result, fmt.Errorf("stage imported ledger for deal %s: %w", rp.Row.DealID, err)
			}
			result.Staged++
		}
		if s.metrics != nil {
			s.metrics.LedgerWritesTotal.Add(float64(len(rp.Records)))
		}
	}

	s.logger.InfoContext(ctx, "import batch committed",
		"batch_id", batchID, "persisted", result.Persisted, "staged", result.Staged, "skipped", result.Skipped)
	return result, nil
}
