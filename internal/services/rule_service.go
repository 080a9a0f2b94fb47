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

// RuleService manages recurring rules. Rules are never hard deleted:
// Archive closes the active window and keeps history.
type RuleService struct {
	rules      ports.RuleStore
	categories ports.CategoryStore
	notifier
}

func NewRuleService(rules ports.RuleStore, categories ports.CategoryStore, events EventPublisher, cache SummaryInvalidator) *RuleService {
	return &RuleService{
		rules:      rules,
		categories: categories,
		notifier:   notifier{events: events, cache: cache},
	}
}

func (s *RuleService) List(ctx context.Context) ([]core.RecurringRule, error) {
	return s.rules.ListRules(ctx)
}

func (s *RuleService) Get(ctx context.Context, id string) (core.RecurringRule, error) {
	return s.rules.GetRule(ctx, id)
}

// Create stores a new active rule. now bounds the years announced as changed.
func (s *RuleService) Create(ctx context.Context, rule core.RecurringRule, now time.Time) (core.RecurringRule, error) {
	rule.ID = ""
	rule.Lifecycle = core.ActiveLifecycle()
	if err := rule.Validate(); err != nil {
		return core.RecurringRule{}, err
	}
	if err := checkCategory(ctx, s.categories, rule.CategoryID); err != nil {
		return core.RecurringRule{}, err
	}

	created, err := s.rules.CreateRule(ctx, rule)
	if err != nil {
		return core.RecurringRule{}, fmt.Errorf("create rule: %w", err)
	}

	slog.InfoContext(ctx, "Recurring rule created",
		"id", created.ID,
		"kind", created.Kind,
		"amount_cents", created.DefaultAmount.Cents)

	from, to := changedYears(now, created.StartDate)
	s.yearsChanged(ctx, amqp.RuleCreated, from, to, created.ID)
	return created, nil
}

// Update replaces the editable fields of a rule. The lifecycle and the stored
// overrides are left as they are. The kind is fixed at creation since
// overrides are keyed on it.
func (s *RuleService) Update(ctx context.Context, rule core.RecurringRule, now time.Time) (core.RecurringRule, error) {
	existing, err := s.rules.GetRule(ctx, rule.ID)
	if err != nil {
		return core.RecurringRule{}, err
	}
	if rule.Kind != existing.Kind {
		return core.RecurringRule{}, core.NewValidationError("kind", "cannot be changed")
	}
	rule.Lifecycle = existing.Lifecycle
	rule.CreatedAt = existing.CreatedAt
	if err := rule.Validate(); err != nil {
		return core.RecurringRule{}, err
	}
	if err := checkCategory(ctx, s.categories, rule.CategoryID); err != nil {
		return core.RecurringRule{}, err
	}

	if err := s.rules.UpdateRule(ctx, rule); err != nil {
		return core.RecurringRule{}, fmt.Errorf("update rule: %w", err)
	}

	from, to := changedYears(now, existing.StartDate, rule.StartDate)
	s.yearsChanged(ctx, amqp.RuleUpdated, from, to, rule.ID)
	return rule, nil
}

// Archive stops the rule from the day of now onwards. Archiving an archived
// rule keeps its original archive day.
func (s *RuleService) Archive(ctx context.Context, id string, now time.Time) (core.RecurringRule, error) {
	rule, err := s.rules.GetRule(ctx, id)
	if err != nil {
		return core.RecurringRule{}, err
	}
	if rule.Lifecycle.IsArchived() {
		return rule, nil
	}

	rule.Lifecycle = core.ArchivedLifecycle(core.DateOf(now))
	if err := s.rules.UpdateRule(ctx, rule); err != nil {
		return core.RecurringRule{}, fmt.Errorf("archive rule: %w", err)
	}

	slog.InfoContext(ctx, "Recurring rule archived", "id", id, "since", rule.Lifecycle.Since.String())

	s.yearsChanged(ctx, amqp.RuleArchived, now.Year(), now.Year(), id)
	return rule, nil
}

// maxChangedYears caps how many whole-year events one rule change publishes.
const maxChangedYears = 20

// changedYears spans the years from the earliest start date to the later of
// now and the latest start date, keeping only the last maxChangedYears.
func changedYears(now time.Time, starts ...core.Date) (from, to int) {
	from, to = now.Year(), now.Year()
	for _, d := range starts {
		from = min(from, d.Year())
		to = max(to, d.Year())
	}
	return max(from, to-maxChangedYears+1), to
}
