package services

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"bilancio/internal/amqp"
	"bilancio/internal/calendar"
	"bilancio/internal/core"
	"bilancio/internal/installment"
	"bilancio/internal/ports"
)

// InstallmentRequest describes a purchase paid in monthly installments.
type InstallmentRequest struct {
	Description string
	Total       decimal.Decimal
	Count       int
	FirstDate   core.Date
	CategoryID  string
}

// InstallmentService creates and removes installment groups atomically.
type InstallmentService struct {
	store ports.Store
	notifier
}

func NewInstallmentService(store ports.Store, events EventPublisher, cache SummaryInvalidator) *InstallmentService {
	return &InstallmentService{
		store:    store,
		notifier: notifier{events: events, cache: cache},
	}
}

// CreateGroup splits the total and stores the group with all of its
// installments in one transaction. Invalid input fails before any write.
func (s *InstallmentService) CreateGroup(ctx context.Context, req InstallmentRequest) (core.InstallmentGroup, []core.Transaction, error) {
	req.Description = strings.TrimSpace(req.Description)
	if req.FirstDate.IsZero() {
		return core.InstallmentGroup{}, nil, core.NewValidationError("first_date", "must be set")
	}
	shares, err := installment.Split(req.Total, req.Count, req.FirstDate.Time)
	if err != nil {
		return core.InstallmentGroup{}, nil, err
	}

	group := core.InstallmentGroup{
		Description:       req.Description,
		TotalAmount:       installment.Total(shares),
		TotalInstallments: req.Count,
		CategoryID:        req.CategoryID,
		FirstDate:         req.FirstDate,
	}
	if err := group.Validate(); err != nil {
		return core.InstallmentGroup{}, nil, err
	}
	if err := checkCategory(ctx, s.store, group.CategoryID); err != nil {
		return core.InstallmentGroup{}, nil, err
	}

	var created []core.Transaction
	err = s.store.WithTx(ctx, func(tx ports.Repository) error {
		g, err := tx.CreateInstallmentGroup(ctx, group)
		if err != nil {
			return err
		}
		group = g

		created = make([]core.Transaction, 0, len(shares))
		for _, share := range shares {
			t, err := tx.CreateTransaction(ctx, core.Transaction{
				Kind:        core.KindExpense,
				Description: installment.Description(req.Description, share.Sequence, req.Count),
				Amount:      share.Amount,
				Date:        core.DateOf(share.Date),
				CategoryID:  req.CategoryID,
				GroupID:     g.ID,
				Sequence:    share.Sequence,
			})
			if err != nil {
				return fmt.Errorf("installment %d/%d: %w", share.Sequence, req.Count, err)
			}
			created = append(created, t)
		}
		return nil
	})
	if err != nil {
		return core.InstallmentGroup{}, nil, fmt.Errorf("create installment group: %w", err)
	}

	slog.InfoContext(ctx, "Installment group created",
		"group_id", group.ID,
		"installments", req.Count,
		"total_cents", group.TotalAmount.Cents,
		"first_date", group.FirstDate.String())

	for _, ym := range monthsOf(group) {
		s.monthChanged(ctx, amqp.InstallmentsCreated, ym.year, ym.month, group.ID)
	}
	return group, created, nil
}

// DeleteGroup removes the group and all of its installments.
func (s *InstallmentService) DeleteGroup(ctx context.Context, id string) error {
	group, err := s.store.GetInstallmentGroup(ctx, id)
	if err != nil {
		return err
	}
	if err := s.store.DeleteInstallmentGroup(ctx, id); err != nil {
		return fmt.Errorf("delete installment group: %w", err)
	}

	for _, ym := range monthsOf(group) {
		s.monthChanged(ctx, amqp.InstallmentsDeleted, ym.year, ym.month, id)
	}
	return nil
}

type yearMonth struct {
	year  int
	month time.Month
}

// monthsOf lists the distinct months holding an installment of g. Rolled
// over dates can put two installments in the same month.
func monthsOf(g core.InstallmentGroup) []yearMonth {
	seen := make(map[yearMonth]bool, g.TotalInstallments)
	var out []yearMonth
	for i := 0; i < g.TotalInstallments; i++ {
		d := calendar.AddMonths(g.FirstDate.Time, i)
		ym := yearMonth{year: d.Year(), month: d.Month()}
		if !seen[ym] {
			seen[ym] = true
			out = append(out, ym)
		}
	}
	return out
}
