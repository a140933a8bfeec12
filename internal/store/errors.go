package store

import (
	"errors"
	"fmt"
)

// Validation failures are distinct values/types so callers can tell a fixable
// order apart from a client problem or a transient persistence error.
var (
	ErrClientNotFound    = errors.New("client_not_found")
	ErrClientBlocked     = errors.New("client_blocked")
	ErrCreditNotAssigned = errors.New("credit_not_assigned")
	ErrSaleNotFound      = errors.New("sale_not_found")
	ErrInvalidTransition = errors.New("invalid_status_transition")
)

type ProductNotFoundError struct {
	ProductID uint
}

func (e *ProductNotFoundError) Error() string {
	return fmt.Sprintf("product_not_found: %d", e.ProductID)
}

type ProductInactiveError struct {
	ProductID uint
	Name      string
}

func (e *ProductInactiveError) Error() string {
	return fmt.Sprintf("product_inactive: %s", e.Name)
}

type InsufficientStockError struct {
	ProductID uint
	Name      string
	Requested float64
	Available float64
	Unit      string
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("insufficient_stock: %s requested %g, available %g %s", e.Name, e.Requested, e.Available, e.Unit)
}

type CreditExceededError struct {
	Limit     float64
	Available float64
	Requested float64
}

func (e *CreditExceededError) Error() string {
	return fmt.Sprintf("credit_exceeded: requested %.2f, available %.2f of limit %.2f", e.Requested, e.Available, e.Limit)
}

// PersistenceError marks store failures that are retryable by the caller once
// the underlying database recovers. Validation errors never wear this type.
type PersistenceError struct {
	Op  string
	Err error
}

func (e *PersistenceError) Error() string { return "persistence_failure: " + e.Op + ": " + e.Err.Error() }
func (e *PersistenceError) Unwrap() error { return e.Err }
