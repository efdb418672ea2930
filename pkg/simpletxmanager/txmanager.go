// Package simpletxmanager транзакционный менеджер поверх *sql.DB без метрик
// Семантика идентична pkg/txmanager
package simpletxmanager

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"

	"github.com/m04kA/SPA-BookingService/pkg/dbmetrics"
)

const maxRetries = 3

const (
	codeSerializationFailure = "40001"
	codeDeadlockDetected     = "40P01"
)

// ErrSerialization возвращается после исчерпания ретраев на конфликте сериализации
var ErrSerialization = errors.New("simpletxmanager: serialization conflict, retry the operation")

// TransactionManager выполняет функции в сериализуемых транзакциях поверх *sql.DB
type TransactionManager struct {
	db *sql.DB
}

// NewTransactionManager создает новый менеджер транзакций
func NewTransactionManager(db *sql.DB) *TransactionManager {
	return &TransactionManager{db: db}
}

// DoSerializable выполняет fn в SERIALIZABLE транзакции с ретраями на конфликтах
func (m *TransactionManager) DoSerializable(ctx context.Context, fn func(ctx context.Context) error) error {
	var lastErr error

	for attempt := 0; attempt < maxRetries; attempt++ {
		err := m.runOnce(ctx, fn)
		if err == nil {
			return nil
		}

		if !isRetryable(err) {
			return err
		}
		lastErr = err
	}

	return fmt.Errorf("%w: %v", ErrSerialization, lastErr)
}

func (m *TransactionManager) runOnce(ctx context.Context, fn func(ctx context.Context) error) (err error) {
	tx, err := m.db.BeginTx(ctx, &sql.TxOptions{Isolation: sql.LevelSerializable})
	if err != nil {
		return fmt.Errorf("simpletxmanager: begin transaction: %w", err)
	}

	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		}
	}()

	if err := fn(dbmetrics.WithTx(ctx, tx)); err != nil {
		_ = tx.Rollback()
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("simpletxmanager: commit transaction: %w", err)
	}

	return nil
}

func isRetryable(err error) bool {
	var pqErr *pq.Error
	if !errors.As(err, &pqErr) {
		return false
	}
	code := string(pqErr.Code)
	return code == codeSerializationFailure || code == codeDeadlockDetected
}
