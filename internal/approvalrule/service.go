package approvalrule

import (
	"context"
	"log/slog"
	"strings"

	"github.com/frahmantamala/expense-approval/internal"
	"github.com/frahmantamala/expense-approval/internal/core/common/validation"
	approvalRuleDatamodel "github.com/frahmantamala/expense-approval/internal/core/datamodel/approvalrule"
	"github.com/shopspring/decimal"
)

type RepositoryAPI interface {
	// List returns every rule ordered by min_amount.
	List(ctx context.Context) ([]*approvalRuleDatamodel.ApprovalRule, error)
	Create(ctx context.Context, rule *approvalRuleDatamodel.ApprovalRule) error
	// Lock blocks concurrent rule writers until the surrounding transaction ends.
	Lock(ctx context.Context) error
	Transaction(ctx context.Context, fn func(repo RepositoryAPI) error) error
}

// Service manages the approval rule table. Rules are policy data only:
// the approve and reject operations never consult them.
type Service struct {
	repo   RepositoryAPI
	logger *slog.Logger
}

func NewService(repo RepositoryAPI, logger *slog.Logger) *Service {
	return &Service{
		repo:   repo,
		logger: logger,
	}
}

func (s *Service) ListRules(ctx context.Context) ([]RuleResponse, error) {
	rules, err := s.load(ctx, s.repo)
	if err != nil {
		return nil, err
	}

	result := make([]RuleResponse, 0, len(rules))
	for _, r := range rules {
		result = append(result, r.ToResponse())
	}
	return result, nil
}

func (s *Service) CreateRule(ctx context.Context, dto CreateRuleDTO) (*RuleResponse, error) {
	var lower, upper *decimal.Decimal
	if dto.MinAmount != nil {
		l := dto.MinAmount.Round(2)
		lower = &l
	}
	if dto.MaxAmount != nil {
		u := dto.MaxAmount.Round(2)
		upper = &u
	}

	v := validation.NewValidator()
	v.Field("minAmount", lower).
		Required(internal.ErrCodeInvalidMinAmount, "minAmount is required").
		Custom(func(value interface{}) *internal.AppError {
			if lower != nil && lower.IsNegative() {
				return internal.NewValidationFieldError("minAmount", "minAmount must not be negative", internal.ErrCodeInvalidMinAmount)
			}
			return nil
		}).
		AtMost(validation.MaxStoredAmount, internal.ErrCodeInvalidMinAmount, "minAmount must not exceed "+validation.MaxStoredAmount.StringFixed(2))
	v.Field("maxAmount", upper).
		Custom(func(value interface{}) *internal.AppError {
			if upper != nil && lower != nil && !upper.GreaterThan(*lower) {
				return internal.NewValidationFieldError("maxAmount", "maxAmount must be greater than minAmount", internal.ErrCodeInvalidMaxAmount)
			}
			return nil
		}).
		AtMost(validation.MaxStoredAmount, internal.ErrCodeInvalidMaxAmount, "maxAmount must not exceed "+validation.MaxStoredAmount.StringFixed(2))
	v.Field("requiredApprovers", dto.RequiredApprovers).Custom(func(value interface{}) *internal.AppError {
		if dto.RequiredApprovers != nil && *dto.RequiredApprovers < 0 {
			return internal.NewValidationFieldError("requiredApprovers", "requiredApprovers must not be negative", internal.ErrCodeInvalidRequiredApprovers)
		}
		return nil
	})
	if err := v.Validate(); err != nil {
		s.logger.Warn("approval rule validation failed", "code", err.Code, "error", err.Message)
		return nil, err
	}

	rule := &Rule{
		MinAmount:   *lower,
		MaxAmount:   upper,
		AutoApprove: dto.AutoApprove,
	}
	if dto.RequiredApprovers != nil {
		rule.RequiredApprovers = *dto.RequiredApprovers
	}

	var row *approvalRuleDatamodel.ApprovalRule
	err := s.repo.Transaction(ctx, func(tx RepositoryAPI) error {
		if err := tx.Lock(ctx); err != nil {
			return err
		}
		existing, err := s.load(ctx, tx)
		if err != nil {
			return err
		}
		for _, other := range existing {
			if rule.Overlaps(other) {
				s.logger.Warn("approval rule overlaps existing rule",
					"existing_rule_id", other.ID,
					"min_amount", rule.MinAmount.String())
				return internal.ErrOverlappingRule
			}
		}

		row = ToDataModel(rule)
		return tx.Create(ctx, row)
	})
	if err != nil {
		if _, ok := internal.IsAppError(err); ok {
			return nil, err
		}
		s.logger.Error("failed to create approval rule", "error", err)
		return nil, internal.NewInternalError("failed to create approval rule", err)
	}

	s.logger.Info("approval rule created",
		"rule_id", row.ID,
		"min_amount", rule.MinAmount.String(),
		"required_approvers", rule.RequiredApprovers)

	resp := FromDataModel(row).ToResponse()
	return &resp, nil
}

// MatchRule returns the rule whose range contains the amount.
func (s *Service) MatchRule(ctx context.Context, rawAmount string) (*RuleResponse, error) {
	amount, err := decimal.NewFromString(strings.TrimSpace(rawAmount))
	if err != nil || amount.IsNegative() {
		return nil, internal.NewValidationError("Amount must be a non-negative number", internal.ErrCodeInvalidAmount)
	}

	rules, err := s.load(ctx, s.repo)
	if err != nil {
		return nil, err
	}

	for _, r := range rules {
		if r.Contains(amount) {
			resp := r.ToResponse()
			return &resp, nil
		}
	}
	return nil, internal.ErrRuleNotFound
}

// Coverage lists the rules together with the amount ranges none of them cover.
func (s *Service) Coverage(ctx context.Context) (*CoverageResponse, error) {
	rules, err := s.load(ctx, s.repo)
	if err != nil {
		return nil, err
	}

	resp := &CoverageResponse{
		Rules: make([]RuleResponse, 0, len(rules)),
		Gaps:  make([]GapResponse, 0),
	}
	for _, r := range rules {
		resp.Rules = append(resp.Rules, r.ToResponse())
	}
	for _, g := range FindGaps(rules) {
		resp.Gaps = append(resp.Gaps, GapResponse{From: g.From.InexactFloat64(), To: floatPtr(g.To)})
	}
	return resp, nil
}

// SeedDefaults inserts DefaultRules when the table is empty.
func (s *Service) SeedDefaults(ctx context.Context) (int, error) {
	inserted := 0
	err := s.repo.Transaction(ctx, func(tx RepositoryAPI) error {
		if err := tx.Lock(ctx); err != nil {
			return err
		}
		existing, err := tx.List(ctx)
		if err != nil {
			return err
		}
		if len(existing) > 0 {
			return nil
		}
		for _, r := range DefaultRules() {
			if err := tx.Create(ctx, ToDataModel(r)); err != nil {
				return err
			}
			inserted++
		}
		return nil
	})
	if err != nil {
		s.logger.Error("failed to seed approval rules", "error", err)
		return 0, err
	}
	return inserted, nil
}

func (s *Service) load(ctx context.Context, repo RepositoryAPI) ([]*Rule, error) {
	rows, err := repo.List(ctx)
	if err != nil {
		s.logger.Error("failed to list approval rules", "error", err)
		return nil, internal.NewInternalError("failed to list approval rules", err)
	}

	rules := make([]*Rule, 0, len(rows))
	for _, row := range rows {
		rules = append(rules, FromDataModel(row))
	}
	return rules, nil
}
