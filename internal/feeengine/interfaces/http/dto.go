package http

import (
	"github.com/shopspring/decimal"

	"github.com/ahamawy/fiveseptemberlaunch-sub000/internal/feeengine/application"
	"github.com/ahamawy/fiveseptemberlaunch-sub000/internal/feeengine/domain"
)

type feeApplicationDTO struct {
	Component string `json:"component"`
	Amount    string `json:"amount"`
	Percent   string `json:"percent,omitempty"`
	Basis     string `json:"basis"`
	Applied   bool   `json:"applied"`
	Notes     string `json:"notes"`
}

type executionResultDTO struct {
	EquationName         string                  `json:"equation_name"`
	Synthesized          bool                    `json:"synthesized"`
	GrossAmount          string                  `json:"gross_amount"`
	NetAmount            string                  `json:"net_amount"`
	PremiumAmount        string                  `json:"premium_amount"`
	TransferPreDiscount  string                  `json:"transfer_pre_discount"`
	TotalDiscounts       string                  `json:"total_discounts"`
	TransferPostDiscount string                  `json:"transfer_post_discount"`
	Units                int64                   `json:"units"`
	Applications         []feeApplicationDTO     `json:"applications"`
	Validation           domain.ValidationResult `json:"validation"`
	Audit                domain.AuditPayload     `json:"audit"`
}

func toExecutionResultDTO(result *application.ExecutionResult) executionResultDTO {
	apps := make([]feeApplicationDTO, 0, len(result.State.Applications))
	for _, app := range result.State.Applications {
		dto := feeApplicationDTO{
			Component: app.Label(),
			Amount:    app.Amount.StringFixed(2),
			Basis:     app.Basis.String(),
			Applied:   app.Applied,
			Notes:     app.Notes,
		}
		if app.Percent != nil {
			dto.Percent = app.Percent.String()
		}
		apps = append(apps, dto)
	}

	return executionResultDTO{
		EquationName:         result.EquationName,
		Synthesized:          result.Synthesized,
		GrossAmount:          result.State.GrossAmount.StringFixed(2),
		NetAmount:            result.State.NetAmount.StringFixed(2),
		PremiumAmount:        result.State.PremiumAmount.StringFixed(2),
		TransferPreDiscount:  result.Final.TransferPreDiscount.StringFixed(2),
		TotalDiscounts:       result.Final.TotalDiscounts.StringFixed(2),
		TransferPostDiscount: result.Final.TransferPostDiscount.StringFixed(2),
		Units:                result.Final.Units,
		Applications:         apps,
		Validation:           result.Validation,
		Audit:                result.Audit,
	}
}

type discountConditionDTO struct {
	MinCapital string `json:"min_capital"`
	Percent    string `json:"percent"`
}

type equationRuleDTO struct {
	Component   string                `json:"component"`
	Kind        string                `json:"kind"`
	Basis       string                `json:"basis"`
	Rate        string                `json:"rate,omitempty"`
	FixedAmount string                `json:"fixed_amount,omitempty"`
	Precedence  int                   `json:"precedence"`
	Annual      bool                  `json:"annual,omitempty"`
	Discount    *discountConditionDTO `json:"discount,omitempty"`
}

type performanceRuleDTO struct {
	Basis      string `json:"basis"`
	HurdleRate string `json:"hurdle_rate,omitempty"`
	CarryRate  string `json:"carry_rate"`
	Precedence int    `json:"precedence"`
}

type equationDTO struct {
	Name        string              `json:"name"`
	Rules       []equationRuleDTO   `json:"rules"`
	Performance *performanceRuleDTO `json:"performance,omitempty"`
}

func toEquationDTO(eq *domain.DealEquation) equationDTO {
	dto := equationDTO{Name: eq.Name, Rules: make([]equationRuleDTO, 0, len(eq.Rules))}
	for _, rule := range eq.Rules {
		r := equationRuleDTO{
			Component:  rule.Component.String(),
			Kind:       rule.Kind.String(),
			Basis:      rule.Basis.String(),
			Precedence: rule.Precedence,
			Annual:     rule.Annual,
		}
		switch rule.Kind {
		case domain.KindFixedAmount:
			r.FixedAmount = rule.FixedAmount.String()
		default:
			r.Rate = rule.Rate.String()
		}
		if rule.Discount != nil {
			r.Discount = &discountConditionDTO{
				MinCapital: rule.Discount.MinCapital.String(),
				Percent:    rule.Discount.Percent.String(),
			}
		}
		dto.Rules = append(dto.Rules, r)
	}
	if eq.Performance != nil {
		p := &performanceRuleDTO{
			Basis:      eq.Performance.Basis.String(),
			CarryRate:  eq.Performance.CarryRate.String(),
			Precedence: eq.Performance.Precedence,
		}
		if eq.Performance.HurdleRate != nil {
			p.HurdleRate = eq.Performance.HurdleRate.String()
		}
		dto.Performance = p
	}
	return dto
}

func (e *equationDTO) toDomain() (*domain.DealEquation, error) {
	eq := &domain.DealEquation{Name: e.Name}
	for _, r := range e.Rules {
		component, err := domain.ParseComponent(r.Component)
		if err != nil {
			return nil, err
		}
		basis, err := domain.ParseBasis(r.Basis)
		if err != nil {
			return nil, err
		}
		rule := domain.EquationRule{
			Component:  component,
			Basis:      basis,
			Precedence: r.Precedence,
			Annual:     r.Annual,
		}
		switch r.Kind {
		case domain.KindFixedAmount.String():
			rule.Kind = domain.KindFixedAmount
			fixed, err := decimal.NewFromString(r.FixedAmount)
			if err != nil {
				return nil, err
			}
			rule.FixedAmount = fixed
		default:
			rule.Kind = domain.KindPercentOfBasis
			rate, err := decimal.NewFromString(r.Rate)
			if err != nil {
				return nil, err
			}
			rule.Rate = rate
		}
		if r.Discount != nil {
			minCapital, err := decimal.NewFromString(r.Discount.MinCapital)
			if err != nil {
				return nil, err
			}
			percent, err := decimal.NewFromString(r.Discount.Percent)
			if err != nil {
				return nil, err
			}
			rule.Discount = &domain.DiscountCondition{MinCapital: minCapital, Percent: percent}
		}
		eq.Rules = append(eq.Rules, rule)
	}

	if e.Performance != nil {
		basis, err := domain.ParseBasis(e.Performance.Basis)
		if err != nil {
			return nil, err
		}
		carry, err := decimal.NewFromString(e.Performance.CarryRate)
		if err != nil {
			return nil, err
		}
		perf := &domain.PerformanceRule{
			Basis:      basis,
			CarryRate:  carry,
			Precedence: e.Performance.Precedence,
		}
		if e.Performance.HurdleRate != "" {
			hurdle, err := decimal.NewFromString(e.Performance.HurdleRate)
			if err != nil {
				return nil, err
			}
			perf.HurdleRate = &hurdle
		}
		eq.Performance = perf
	}
	return eq, nil
}

type importRowPreviewDTO struct {
	DealID        string              `json:"deal_id"`
	TransactionID string              `json:"transaction_id,omitempty"`
	Error         string              `json:"error,omitempty"`
	Result        *executionResultDTO `json:"result,omitempty"`
}

type importPreviewDTO struct {
	BatchID string                `json:"batch_id"`
	Rows    []importRowPreviewDTO `json:"rows"`
}

func toImportPreviewDTO(preview *application.ImportPreview) importPreviewDTO {
	dto := importPreviewDTO{BatchID: preview.BatchID, Rows: make([]importRowPreviewDTO, 0, len(preview.Rows))}
	for _, row := range preview.Rows {
		r := importRowPreviewDTO{
			DealID:        row.Row.DealID,
			TransactionID: row.Row.TransactionID,
			Error:         row.Error,
		}
		if row.Result != nil {
			res := toExecutionResultDTO(row.Result)
			r.Result = &res
		}
		dto.Rows = append(dto.Rows, r)
	}
	return dto
}
