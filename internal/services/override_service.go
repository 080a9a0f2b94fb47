package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"bilancio/internal/amqp"
	"bilancio/internal/core"
	"bilancio/internal/ports"
)

// OverrideService applies the storage policy for monthly overrides: an
// amount equal to the rule default is never stored.
type OverrideService struct {
	rules     ports.RuleStore
	overrides ports.OverrideStore
	notifier
}

func NewOverrideService(rules ports.RuleStore, overrides ports.OverrideStore, events EventPublisher, cache SummaryInvalidator) *OverrideService {
	return &OverrideService{
		rules:     rules,
		overrides: overrides,
		notifier:  notifier{events: events, cache: cache},
	}
}

// OverrideResult is the outcome of SetMonthAmount. Override is nil when the
// month now follows the rule default.
type OverrideResult struct {
	Override *core.MonthlyOverride
	Amount   core.Money
}

// SetMonthAmount sets the rule's amount for one month. Zero is a valid amount.
func (s *OverrideService) SetMonthAmount(ctx context.Context, ruleID string, year int, month time.Month, amount core.Money) (OverrideResult, error) {
	if month < time.January || month > time.December {
		return OverrideResult{}, core.ErrInvalidMonth
	}
	if amount.Cents < 0 {
		return OverrideResult{}, core.ErrNegativeAmount
	}

	rule, err := s.rules.GetRule(ctx, ruleID)
	if err != nil {
		return OverrideResult{}, err
	}
	key := core.OverrideKey{RuleID: rule.ID, Kind: rule.Kind, Year: year, Month: month}

	if amount == rule.DefaultAmount {
		existing, ok, err := s.overrides.FindOverride(ctx, key)
		if err != nil {
			return OverrideResult{}, fmt.Errorf("find override: %w", err)
		}
		if ok {
			if err := s.overrides.DeleteOverride(ctx, existing.ID); err != nil {
				return OverrideResult{}, fmt.Errorf("delete override: %w", err)
			}
			slog.InfoContext(ctx, "Override removed, month back to default",
				"rule_id", rule.ID, "year", year, "month", int(month))
			s.monthChanged(ctx, amqp.OverrideCleared, year, month, rule.ID)
		}
		return OverrideResult{Amount: rule.DefaultAmount}, nil
	}

	o, err := s.overrides.UpsertOverride(ctx, key, amount)
	if err != nil {
		return OverrideResult{}, fmt.Errorf("upsert override: %w", err)
	}

	slog.InfoContext(ctx, "Override stored",
		"rule_id", rule.ID,
		"year", year,
		"month", int(month),
		"amount_cents", amount.Cents)

	s.monthChanged(ctx, amqp.OverrideSet, year, month, rule.ID)
	return OverrideResult{Override: &o, Amount: o.Amount}, nil
}
