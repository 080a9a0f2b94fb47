package services

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"bilancio/internal/amqp"
	"bilancio/internal/core"
	"bilancio/internal/ports"
)

// TransactionService records ad-hoc incomes and expenses.
type TransactionService struct {
	store        ports.TransactionStore
	categories   ports.CategoryStore
	installments *InstallmentService
	notifier
}

func NewTransactionService(store ports.TransactionStore, categories ports.CategoryStore, installments *InstallmentService, events EventPublisher, cache SummaryInvalidator) *TransactionService {
	return &TransactionService{
		store:        store,
		categories:   categories,
		installments: installments,
		notifier:     notifier{events: events, cache: cache},
	}
}

func (s *TransactionService) Create(ctx context.Context, t core.Transaction) (core.Transaction, error) {
	t.ID = ""
	t.GroupID = ""
	t.Sequence = 0
	t.Description = strings.TrimSpace(t.Description)
	if err := t.Validate(); err != nil {
		return core.Transaction{}, err
	}
	if err := checkCategory(ctx, s.categories, t.CategoryID); err != nil {
		return core.Transaction{}, err
	}

	created, err := s.store.CreateTransaction(ctx, t)
	if err != nil {
		return core.Transaction{}, fmt.Errorf("create transaction: %w", err)
	}

	slog.InfoContext(ctx, "Transaction created",
		"id", created.ID,
		"kind", created.Kind,
		"amount_cents", created.Amount.Cents,
		"date", created.Date.String())

	s.monthChanged(ctx, amqp.TransactionCreated, created.Date.Year(), created.Date.Month(), created.ID)
	return created, nil
}

func (s *TransactionService) List(ctx context.Context, year int, month time.Month) ([]core.Transaction, error) {
	if month < time.January || month > time.December {
		return nil, core.ErrInvalidMonth
	}
	return s.store.ListTransactions(ctx, year, month)
}

// Delete removes a transaction. Deleting one installment deletes its whole
// group, so a purchase is never left partially paid.
func (s *TransactionService) Delete(ctx context.Context, id string) error {
	t, err := s.store.GetTransaction(ctx, id)
	if err != nil {
		return err
	}
	if t.IsInstallment() {
		return s.installments.DeleteGroup(ctx, t.GroupID)
	}

	if err := s.store.DeleteTransaction(ctx, id); err != nil {
		return fmt.Errorf("delete transaction: %w", err)
	}

	slog.InfoContext(ctx, "Transaction deleted", "id", id)
	s.monthChanged(ctx, amqp.TransactionDeleted, t.Date.Year(), t.Date.Month(), id)
	return nil
}
