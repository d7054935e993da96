package application

import (
	"context"
	"errors"
	"log/slog"

	"github.com/ahamawy/fiveseptemberlaunch-sub000/internal/feeengine/domain"
)

// EquationService 方程管理：查询（含合成预览）、模板套用与保存
type EquationService struct {
	equations       domain.EquationRepository
	logger          *slog.Logger
	defaultTemplate string
}

// NewEquationService 创建方程服务
func NewEquationService(equations domain.EquationRepository, logger *slog.Logger, defaultTemplate string) *EquationService {
	if defaultTemplate == "" {
		defaultTemplate = domain.TemplateStandardPrimary
	}
	return &EquationService{
		equations:       equations,
		logger:          logger.With("service", "feeengine_equation"),
		defaultTemplate: defaultTemplate,
	}
}

// Resolve 返回交易方程；未配置时返回合成的默认方程（不落库），
// 第二个返回值标记是否为合成。
func (s *EquationService) Resolve(ctx context.Context, dealID string) (*domain.DealEquation, bool, error) {
	eq, err := s.equations.GetByDeal(ctx, dealID)
	if err == nil {
		return eq, false, nil
	}
	if !errors.Is(err, domain.ErrEquationNotFound) {
		return nil, false, err
	}

	eq, terr := domain.NewTemplateEquation(s.defaultTemplate)
	if terr != nil {
		return nil, false, domain.ErrMissingSchedule
	}
	return eq, true, nil
}

// ApplyTemplate 将模板方程绑定到交易
func (s *EquationService) ApplyTemplate(ctx context.Context, dealID, templateName string) (*domain.DealEquation, error) {
	eq, err := domain.NewTemplateEquation(templateName)
	if err != nil {
		return nil, err
	}
	if err := s.equations.Save(ctx, dealID, eq); err != nil {
		return nil, err
	}
	s.logger.InfoContext(ctx, "equation template applied", "deal_id", dealID, "template", templateName)
	return eq, nil
}

// Upsert 保存交易方程
func (s *EquationService) Upsert(ctx context.Context, dealID string, eq *domain.DealEquation) error {
	if err := eq.Validate(); err != nil {
		return err
	}
	if err := s.equations.Save(ctx, dealID, eq); err != nil {
		return err
	}
	s.logger.InfoContext(ctx, "equation saved", "deal_id", dealID, "equation", eq.Name)
	return nil
}

// Templates 返回模板库
func (s *EquationService) Templates() ([]*domain.DealEquation, error) {
	names := domain.TemplateNames()
	templates := make([]*domain.DealEquation, 0, len(names))
	for _, name := range names {
		eq, err := domain.NewTemplateEquation(name)
		if err != nil {
			return nil, err
		}
		templates = append(templates, eq)
	}
	return templates, nil
}
