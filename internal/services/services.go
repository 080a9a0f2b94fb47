// Package services holds the write paths of the ledger: validation, storage
// policies, cache invalidation and event publishing.
package services

import (
	"errors"
	"fmt"

	"bilancio/internal/ports"
)

// Services bundles every service built over one store.
type Services struct {
	Rules        *RuleService
	Overrides    *OverrideService
	Transactions *TransactionService
	Installments *InstallmentService
	Categories   *CategoryService

	store  ports.Store
	closer func() error
}

// New wires the services. events and cache may be nil.
func New(store ports.Store, events EventPublisher, cache SummaryInvalidator) *Services {
	installments := NewInstallmentService(store, events, cache)
	return &Services{
		Rules:        NewRuleService(store, store, events, cache),
		Overrides:    NewOverrideService(store, store, events, cache),
		Transactions: NewTransactionService(store, store, installments, events, cache),
		Installments: installments,
		Categories:   NewCategoryService(store),
		store:        store,
	}
}

// OnClose registers an extra resource (the AMQP client) to release in Close.
func (s *Services) OnClose(fn func() error) {
	s.closer = fn
}

// Close closes the store and the registered resource.
func (s *Services) Close() error {
	var errs []error
	if s.store != nil {
		if err := s.store.Close(); err != nil {
			errs = append(errs, fmt.Errorf("storage: %w", err))
		}
	}
	if s.closer != nil {
		if err := s.closer(); err != nil {
			errs = append(errs, fmt.Errorf("amqp: %w", err))
		}
	}
	return errors.Join(errs...)
}
