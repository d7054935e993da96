// Package application 费用引擎应用服务：方程执行器、交易入口与批量导入
package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/ahamawy/fiveseptemberlaunch-sub000/internal/feeengine/domain"
	"github.com/ahamawy/fiveseptemberlaunch-sub000/pkg/metrics"
)

// ExecutionResult 一次方程执行的完整结果：最终状态、聚合金额、
// 校验结论与审计元数据
type ExecutionResult struct {
	State            *domain.FeeCalculationState
	Final            domain.FinalAmounts
	Validation       domain.ValidationResult
	EquationName     string
	Synthesized      bool
	AppliedDiscounts []domain.AppliedDiscount
	Audit            domain.AuditPayload
}

// ExecuteParams 执行参数。ExtraDiscounts 为调用方显式注入的折扣
// （批量导入路径），在条件折扣之后应用。
type ExecuteParams struct {
	Tx              domain.TransactionContext
	ExtraDiscounts  []domain.DiscountInput
	SaveSynthesized bool
}

// LegacyScheduleEquation 由旧费率规则表构造的方程名
const LegacyScheduleEquation = "LEGACY_SCHEDULE"

// DealEquationExecutor 方程执行器。三种来源：Loaded（交易配置了方程）、
// 旧费率规则表（未迁移交易），以及 Synthesized（都没有时按默认模板合成，
// 除非显式要求不落库）。
type DealEquationExecutor struct {
	equations       domain.EquationRepository
	schedules       domain.ScheduleRepository
	calc            *domain.Calculator
	validator       *domain.Validator
	metrics         *metrics.Metrics
	logger          *slog.Logger
	defaultTemplate string
}

// NewDealEquationExecutor 创建执行器；schedules 与 metrics 可为 nil
func NewDealEquationExecutor(
	equations domain.EquationRepository,
	schedules domain.ScheduleRepository,
	calc *domain.Calculator,
	m *metrics.Metrics,
	logger *slog.Logger,
	defaultTemplate string,
) *DealEquationExecutor {
	if defaultTemplate == "" {
		defaultTemplate = domain.TemplateStandardPrimary
	}
	return &DealEquationExecutor{
		equations:       equations,
		schedules:       schedules,
		calc:            calc,
		validator:       domain.NewValidator(),
		metrics:         m,
		logger:          logger.With("service", "feeengine_executor"),
		defaultTemplate: defaultTemplate,
	}
}

// resolveEquation 加载交易方程；未配置时回退旧费率规则表，再不然按默认模板合成
func (e *DealEquationExecutor) resolveEquation(ctx context.Context, dealID string, save bool) (*domain.DealEquation, bool, error) {
	eq, err := e.equations.GetByDeal(ctx, dealID)
	if err == nil {
		return eq, false, nil
	}
	if !errors.Is(err, domain.ErrEquationNotFound) {
		return nil, false, fmt.Errorf("load equation for deal %s: %w", dealID, err)
	}

	if e.schedules != nil {
		rules, serr := e.schedules.ListByDeal(ctx, dealID)
		if serr != nil {
			return nil, false, fmt.Errorf("load schedule for deal %s: %w", dealID, serr)
		}
		if len(rules) > 0 {
			e.logger.InfoContext(ctx, "no equation configured, using legacy schedule", "deal_id", dealID, "rules", len(rules))
			return domain.NewEquationFromSchedule(LegacyScheduleEquation, rules), false, nil
		}
	}

	eq, terr := domain.NewTemplateEquation(e.defaultTemplate)
	if terr != nil {
		return nil, false, fmt.Errorf("%w: %v", domain.ErrMissingSchedule, terr)
	}
	e.logger.InfoContext(ctx, "no equation configured, synthesized default", "deal_id", dealID, "template", eq.Name)
	if e.metrics != nil {
		e.metrics.SynthesizedEquations.Inc()
	}

	if save {
		if serr := e.equations.Save(ctx, dealID, eq); serr != nil {
			return nil, false, fmt.Errorf("persist synthesized equation for deal %s: %w", dealID, serr)
		}
	}
	return eq, true, nil
}

// Execute 运行完整计算管线：方程 → 优先级计算 → 年化 → 折扣 → 业绩报酬 → 聚合 → 校验
func (e *DealEquationExecutor) Execute(ctx context.Context, params ExecuteParams) (*ExecutionResult, error) {
	started := time.Now()

	txCtx := params.Tx
	eq, synthesized, err := e.resolveEquation(ctx, txCtx.DealID, params.SaveSynthesized)
	if err != nil {
		e.observe("error", started)
		return nil, err
	}

	rules, err := eq.Schedule()
	if err != nil {
		e.observe("error", started)
		return nil, err
	}

	state, err := e.calc.Calculate(rules, txCtx.GrossCapital)
	if err != nil {
		e.observe("error", started)
		return nil, err
	}

	if txCtx.Years > 1 {
		for _, component := range eq.AnnualComponents() {
			e.calc.ApplyAnnual(state, component, txCtx.Years)
		}
	}

	discounts := eq.TriggeredDiscounts(txCtx.GrossCapital)
	discounts = append(discounts, params.ExtraDiscounts...)
	applied, skipped := e.calc.ApplyDiscounts(state, discounts)
	for _, component := range skipped {
		e.logger.WarnContext(ctx, "discount skipped, base fee not present",
			"deal_id", txCtx.DealID, "component", component.String())
	}

	e.applyPerformance(state, eq, txCtx)

	final := e.calc.Finalize(state, txCtx.UnitPrice)
	validation := e.validator.Validate(state, final, txCtx.UnitPrice)

	if e.metrics != nil {
		for _, issue := range validation.Errors {
			e.metrics.ValidationFailures.WithLabelValues(issue.Check).Inc()
		}
	}
	if validation.Valid {
		e.observe("ok", started)
	} else {
		e.observe("invalid", started)
	}

	return &ExecutionResult{
		State:            state,
		Final:            final,
		Validation:       validation,
		EquationName:     eq.Name,
		Synthesized:      synthesized,
		AppliedDiscounts: applied,
		Audit:            buildAudit(eq, rules, state, applied),
	}, nil
}

// applyPerformance 计提业绩报酬；金额为零时不产生账本行，
// 避免 "无 carry" 制造账本噪音
func (e *DealEquationExecutor) applyPerformance(state *domain.FeeCalculationState, eq *domain.DealEquation, txCtx domain.TransactionContext) {
	if eq.Performance == nil || txCtx.Profit == nil {
		return
	}

	returned := decimal.Zero
	if txCtx.ReturnedCapital != nil {
		returned = *txCtx.ReturnedCapital
	}

	fee := eq.Performance.Fee(txCtx.GrossCapital, *txCtx.Profit, returned)
	if !fee.IsPositive() {
		return
	}

	notes := fmt.Sprintf("carry %s on profit %s", eq.Performance.CarryRate, txCtx.Profit)
	if eq.Performance.HurdleRate != nil {
		notes = fmt.Sprintf("%s, hurdle %s", notes, *eq.Performance.HurdleRate)
	}
	carry := eq.Performance.CarryRate
	state.Applications = append(state.Applications, domain.FeeApplication{
		Component: domain.ComponentPerformance,
		Amount:    fee,
		Percent:   &carry,
		Basis:     eq.Performance.Basis,
		Applied:   true,
		Notes:     notes,
	})
	state.RunningAmount = state.RunningAmount.Sub(fee)
}

func (e *DealEquationExecutor) observe(result string, started time.Time) {
	if e.metrics == nil {
		return
	}
	e.metrics.CalculationsTotal.WithLabelValues(result).Inc()
	e.metrics.CalculationDuration.Observe(time.Since(started).Seconds())
}

// buildAudit 组装审计负载：优先级顺序、各行基数上下文与折扣分解
func buildAudit(eq *domain.DealEquation, rules []domain.ScheduleRule, state *domain.FeeCalculationState, applied []domain.AppliedDiscount) domain.AuditPayload {
	order := make([]string, 0, len(rules))
	for _, r := range rules {
		order = append(order, r.Component.String())
	}

	basisCtx := make(map[string]string, len(state.Applications))
	for _, app := range state.Applications {
		basisCtx[app.Label()] = app.Basis.String()
	}

	breakdown := make([]domain.DiscountBreakdownEntry, 0, len(applied))
	for _, d := range applied {
		entry := domain.DiscountBreakdownEntry{
			Component: d.Component.String(),
			Amount:    d.Amount,
		}
		if d.Percent != nil {
			entry.Percent = d.Percent.String()
		}
		breakdown = append(breakdown, entry)
	}

	return domain.AuditPayload{
		AuditID:           uuid.NewString(),
		EquationName:      eq.Name,
		ScheduleVersion:   fmt.Sprintf("%s/r%d", eq.Name, len(rules)),
		PrecedenceOrder:   order,
		BasisContext:      basisCtx,
		DiscountBreakdown: breakdown,
		CalculationDate:   time.Now().UTC(),
	}
}
