package mysql

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/ahamawy/fiveseptemberlaunch-sub000/internal/feeengine/domain"
	"github.com/ahamawy/fiveseptemberlaunch-sub000/pkg/db"
)

// AutoMigrate 建表
func AutoMigrate(database *db.DB) error {
	return database.AutoMigrate(
		&DealEquationModel{},
		&ScheduleRuleModel{},
		&FeeApplicationModel{},
		&StagedFeeApplicationModel{},
		&TransactionModel{},
	)
}

// --- 方程仓储 ---

type equationRepository struct {
	db *db.DB
}

// NewEquationRepository 创建方程仓储
func NewEquationRepository(database *db.DB) domain.EquationRepository {
	return &equationRepository{db: database}
}

type discountConditionDTO struct {
	MinCapital decimal.Decimal `json:"min_capital"`
	Percent    decimal.Decimal `json:"percent"`
}

type equationRuleDTO struct {
	Component   string                `json:"component"`
	Kind        string                `json:"kind"`
	Basis       string                `json:"basis"`
	Rate        decimal.Decimal       `json:"rate"`
	FixedAmount decimal.Decimal       `json:"fixed_amount"`
	Precedence  int                   `json:"precedence"`
	Annual      bool                  `json:"annual,omitempty"`
	Discount    *discountConditionDTO `json:"discount,omitempty"`
}

type performanceRuleDTO struct {
	Basis      string           `json:"basis"`
	HurdleRate *decimal.Decimal `json:"hurdle_rate,omitempty"`
	CarryRate  decimal.Decimal  `json:"carry_rate"`
	Precedence int              `json:"precedence"`
}

func (r *equationRepository) GetByDeal(ctx context.Context, dealID string) (*domain.DealEquation, error) {
	var m DealEquationModel
	if err := r.db.WithContext(ctx).Where("deal_id = ?", dealID).First(&m).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrEquationNotFound
		}
		return nil, err
	}
	return toEquationDomain(&m)
}

func (r *equationRepository) Save(ctx context.Context, dealID string, eq *domain.DealEquation) error {
	if err := eq.Validate(); err != nil {
		return err
	}
	m, err := toEquationModel(dealID, eq)
	if err != nil {
		return err
	}

	return r.db.WithContext(ctx).
		Where("deal_id = ?", dealID).
		Assign(map[string]interface{}{
			"name":             m.Name,
			"rules_json":       m.RulesJSON,
			"performance_json": m.PerformanceJSON,
		}).
		FirstOrCreate(&DealEquationModel{}, DealEquationModel{DealID: dealID}).Error
}

func toEquationModel(dealID string, eq *domain.DealEquation) (*DealEquationModel, error) {
	dtos := make([]equationRuleDTO, 0, len(eq.Rules))
	for _, rule := range eq.Rules {
		dto := equationRuleDTO{
			Component:   rule.Component.String(),
			Kind:        rule.Kind.String(),
			Basis:       rule.Basis.String(),
			Rate:        rule.Rate,
			FixedAmount: rule.FixedAmount,
			Precedence:  rule.Precedence,
			Annual:      rule.Annual,
		}
		if rule.Discount != nil {
			dto.Discount = &discountConditionDTO{
				MinCapital: rule.Discount.MinCapital,
				Percent:    rule.Discount.Percent,
			}
		}
		dtos = append(dtos, dto)
	}
	rulesJSON, err := json.Marshal(dtos)
	if err != nil {
		return nil, fmt.Errorf("marshal equation rules: %w", err)
	}

	m := &DealEquationModel{DealID: dealID, Name: eq.Name, RulesJSON: rulesJSON}
	if eq.Performance != nil {
		perfJSON, err := json.Marshal(performanceRuleDTO{
			Basis:      eq.Performance.Basis.String(),
			HurdleRate: eq.Performance.HurdleRate,
			CarryRate:  eq.Performance.CarryRate,
			Precedence: eq.Performance.Precedence,
		})
		if err != nil {
			return nil, fmt.Errorf("marshal performance rule: %w", err)
		}
		m.PerformanceJSON = perfJSON
	}
	return m, nil
}

func toEquationDomain(m *DealEquationModel) (*domain.DealEquation, error) {
	var dtos []equationRuleDTO
	if err := json.Unmarshal(m.RulesJSON, &dtos); err != nil {
		return nil, fmt.Errorf("unmarshal equation rules for deal %s: %w", m.DealID, err)
	}

	eq := &domain.DealEquation{Name: m.Name, CreatedAt: m.CreatedAt}
	for _, dto := range dtos {
		component, err := domain.ParseComponent(dto.Component)
		if err != nil {
			return nil, err
		}
		basis, err := domain.ParseBasis(dto.Basis)
		if err != nil {
			return nil, err
		}
		rule := domain.EquationRule{
			Component:   component,
			Basis:       basis,
			Rate:        dto.Rate,
			FixedAmount: dto.FixedAmount,
			Precedence:  dto.Precedence,
			Annual:      dto.Annual,
		}
		switch dto.Kind {
		case domain.KindFixedAmount.String():
			rule.Kind = domain.KindFixedAmount
		default:
			rule.Kind = domain.KindPercentOfBasis
		}
		if dto.Discount != nil {
			rule.Discount = &domain.DiscountCondition{
				MinCapital: dto.Discount.MinCapital,
				Percent:    dto.Discount.Percent,
			}
		}
		eq.Rules = append(eq.Rules, rule)
	}

	if len(m.PerformanceJSON) > 0 {
		var perf performanceRuleDTO
		if err := json.Unmarshal(m.PerformanceJSON, &perf); err != nil {
			return nil, fmt.Errorf("unmarshal performance rule for deal %s: %w", m.DealID, err)
		}
		basis, err := domain.ParseBasis(perf.Basis)
		if err != nil {
			return nil, err
		}
		eq.Performance = &domain.PerformanceRule{
			Basis:      basis,
			HurdleRate: perf.HurdleRate,
			CarryRate:  perf.CarryRate,
			Precedence: perf.Precedence,
		}
	}
	return eq, nil
}

// --- 费率规则仓储 ---

type scheduleRepository struct {
	db *db.DB
}

// NewScheduleRepository 创建费率规则仓储
func NewScheduleRepository(database *db.DB) domain.ScheduleRepository {
	return &scheduleRepository{db: database}
}

func (r *scheduleRepository) ListByDeal(ctx context.Context, dealID string) ([]domain.ScheduleRule, error) {
	var models []*ScheduleRuleModel
	err := r.db.WithContext(ctx).
		Where("deal_id = ?", dealID).
		Order("precedence ASC").
		Find(&models).Error
	if err != nil {
		return nil, err
	}

	rules := make([]domain.ScheduleRule, 0, len(models))
	for _, m := range models {
		component, err := domain.ParseComponent(m.Component)
		if err != nil {
			return nil, err
		}
		basis, err := domain.ParseBasis(m.Basis)
		if err != nil {
			return nil, err
		}
		rules = append(rules, domain.ScheduleRule{
			Component:   component,
			Rate:        m.Rate,
			FixedAmount: m.FixedAmount,
			IsPercent:   m.IsPercent,
			Basis:       basis,
			Precedence:  m.Precedence,
			EffectiveAt: m.EffectiveAt,
		})
	}
	return rules, nil
}

// --- 账本仓储 ---

type ledgerRepository struct {
	db *db.DB
}

// NewLedgerRepository 创建账本仓储
func NewLedgerRepository(database *db.DB) domain.LedgerRepository {
	return &ledgerRepository{db: database}
}

func (r *ledgerRepository) SaveAll(ctx context.Context, records []*domain.FeeLedgerRecord) error {
	if len(records) == 0 {
		return nil
	}

	models := make([]*FeeApplicationModel, 0, len(records))
	for _, record := range records {
		cols, err := toLedgerColumns(record)
		if err != nil {
			return err
		}
		models = append(models, &FeeApplicationModel{ledgerColumns: cols})
	}

	// 全部记录单事务写入：部分写入的账本无法对账
	return r.db.WithTx(ctx, func(tx *gorm.DB) error {
		return tx.Create(&models).Error
	})
}

func (r *ledgerRepository) StageAll(ctx context.Context, batchID string, records []*domain.FeeLedgerRecord) error {
	if len(records) == 0 {
		return nil
	}

	models := make([]*StagedFeeApplicationModel, 0, len(records))
	for _, record := range records {
		cols, err := toLedgerColumns(record)
		if err != nil {
			return err
		}
		models = append(models, &StagedFeeApplicationModel{BatchID: batchID, ledgerColumns: cols})
	}

	return r.db.WithTx(ctx, func(tx *gorm.DB) error {
		return tx.Create(&models).Error
	})
}

func (r *ledgerRepository) ListByTransaction(ctx context.Context, transactionID string) ([]*domain.FeeLedgerRecord, error) {
	var models []*FeeApplicationModel
	err := r.db.WithContext(ctx).
		Where("transaction_id = ?", transactionID).
		Order("id ASC").
		Find(&models).Error
	if err != nil {
		return nil, err
	}

	records := make([]*domain.FeeLedgerRecord, 0, len(models))
	for _, m := range models {
		record, err := toLedgerDomain(&m.ledgerColumns)
		if err != nil {
			return nil, err
		}
		records = append(records, record)
	}
	return records, nil
}

func toLedgerColumns(record *domain.FeeLedgerRecord) (ledgerColumns, error) {
	auditJSON, err := json.Marshal(record.Audit)
	if err != nil {
		return ledgerColumns{}, fmt.Errorf("marshal audit payload: %w", err)
	}
	return ledgerColumns{
		LedgerID:        record.LedgerID,
		TransactionID:   record.TransactionID,
		DealID:          record.DealID,
		InvestorID:      record.InvestorID,
		Component:       record.Component.String(),
		Amount:          record.Amount,
		Percent:         record.Percent,
		Basis:           record.Basis.String(),
		DiscountPercent: record.DiscountPercent,
		DiscountAmount:  record.DiscountAmount,
		Notes:           record.Notes,
		AuditJSON:       auditJSON,
		CalculatedAt:    record.Audit.CalculationDate,
	}, nil
}

func toLedgerDomain(cols *ledgerColumns) (*domain.FeeLedgerRecord, error) {
	component, _, err := domain.ParseComponentLabel(cols.Component)
	if err != nil {
		return nil, err
	}
	basis, err := domain.ParseBasis(cols.Basis)
	if err != nil {
		return nil, err
	}

	record := &domain.FeeLedgerRecord{
		LedgerID:        cols.LedgerID,
		TransactionID:   cols.TransactionID,
		DealID:          cols.DealID,
		InvestorID:      cols.InvestorID,
		Component:       component,
		Amount:          cols.Amount,
		Percent:         cols.Percent,
		Basis:           basis,
		DiscountPercent: cols.DiscountPercent,
		DiscountAmount:  cols.DiscountAmount,
		Notes:           cols.Notes,
		CreatedAt:       cols.CalculatedAt,
	}
	if len(cols.AuditJSON) > 0 {
		if err := json.Unmarshal(cols.AuditJSON, &record.Audit); err != nil {
			return nil, fmt.Errorf("unmarshal audit payload: %w", err)
		}
	}
	return record, nil
}

// --- 交易仓储 ---

type transactionRepository struct {
	db *db.DB
}

// NewTransactionRepository 创建交易仓储
func NewTransactionRepository(database *db.DB) domain.TransactionRepository {
	return &transactionRepository{db: database}
}

func (r *transactionRepository) Save(ctx context.Context, tx *domain.Transaction) error {
	m := &TransactionModel{
		TransactionID: tx.TransactionID,
		DealID:        tx.DealID,
		InvestorID:    tx.InvestorID,
		Units:         tx.Units,
		UnitPrice:     tx.UnitPrice,
		GrossCapital:  tx.GrossCapital,
		NetCapital:    tx.NetCapital,
		FeeMethod:     tx.FeeMethod,
	}
	return r.db.WithContext(ctx).Create(m).Error
}

func (r *transactionRepository) Get(ctx context.Context, transactionID string) (*domain.Transaction, error) {
	var m TransactionModel
	if err := r.db.WithContext(ctx).Where("transaction_id = ?", transactionID).First(&m).Error; err != nil {
		return nil, err
	}
	return &domain.Transaction{
		TransactionID: m.TransactionID,
		DealID:        m.DealID,
		InvestorID:    m.InvestorID,
		Units:         m.Units,
		UnitPrice:     m.UnitPrice,
		GrossCapital:  m.GrossCapital,
		NetCapital:    m.NetCapital,
		FeeMethod:     m.FeeMethod,
		CreatedAt:     m.CreatedAt,
	}, nil
}
