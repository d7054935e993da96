package application

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/ahamawy/fiveseptemberlaunch-sub000/internal/feeengine/domain"
)

// BuildLedgerRecords 将执行结果整形为持久化账本：每个基础组件一条记录，
// 组件上的折扣行汇总为 DiscountPercent/DiscountAmount，审计负载逐条携带。
func BuildLedgerRecords(transactionID string, txCtx domain.TransactionContext, result *ExecutionResult) []*domain.FeeLedgerRecord {
	type discountAgg struct {
		amount  decimal.Decimal
		percent *decimal.Decimal
		count   int
	}
	discounts := make(map[domain.Component]*discountAgg)
	for _, app := range result.State.Applications {
		if !app.Discount {
			continue
		}
		agg, ok := discounts[app.Component]
		if !ok {
			agg = &discountAgg{amount: decimal.Zero}
			discounts[app.Component] = agg
		}
		agg.amount = agg.amount.Add(app.Amount.Abs())
		agg.percent = app.Percent
		agg.count++
	}

	var records []*domain.FeeLedgerRecord
	for _, app := range result.State.Applications {
		if app.Discount {
			continue
		}

		record := &domain.FeeLedgerRecord{
			LedgerID:       uuid.NewString(),
			TransactionID:  transactionID,
			DealID:         txCtx.DealID,
			InvestorID:     txCtx.InvestorID,
			Component:      app.Component,
			Amount:         app.Amount,
			Percent:        app.Percent,
			Basis:          app.Basis,
			DiscountAmount: decimal.Zero,
			Notes:          app.Notes,
			Audit:          result.Audit,
			CreatedAt:      result.Audit.CalculationDate,
		}
		if agg, ok := discounts[app.Component]; ok {
			record.DiscountAmount = agg.amount
			// 单条百分比折扣时保留原始比例；多条汇总后比例不再有意义
			if agg.count == 1 {
				record.DiscountPercent = agg.percent
			}
			record.Notes = fmt.Sprintf("%s; discounts applied: %s", record.Notes, agg.amount)
		}
		records = append(records, record)
	}
	return records
}
