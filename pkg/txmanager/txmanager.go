// Package txmanager транзакционный менеджер для обёрнутой метриками БД
// Сериализуемые транзакции с ретраями на serialization failure
package txmanager

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"

	"github.com/m04kA/SPA-BookingService/pkg/dbmetrics"
)

const maxRetries = 3

// Postgres SQLSTATE коды, при которых транзакцию имеет смысл повторить
const (
	codeSerializationFailure = "40001"
	codeDeadlockDetected     = "40P01"
)

var (
	// ErrSerialization возвращается, когда транзакция не смогла закоммититься
	// после всех ретраев из-за конфликта сериализации
	ErrSerialization = errors.New("txmanager: serialization conflict, retry the operation")
)

// TxBeginner интерфейс для начала транзакций
type TxBeginner interface {
	BeginTx(ctx context.Context, opts *sql.TxOptions) (dbmetrics.TxExecutor, error)
}

// TransactionManager выполняет функции в сериализуемых транзакциях
type TransactionManager struct {
	db TxBeginner
}

// NewTransactionManager создает новый менеджер транзакций
func NewTransactionManager(db TxBeginner) *TransactionManager {
	return &TransactionManager{db: db}
}

// DoSerializable выполняет fn в транзакции с уровнем изоляции SERIALIZABLE
// Транзакция кладется в контекст - репозитории подхватывают её через dbmetrics.GetExecutor
// При serialization failure или deadlock повторяет до maxRetries раз,
// после чего возвращает ErrSerialization
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
		return fmt.Errorf("txmanager: begin transaction: %w", err)
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
		return fmt.Errorf("txmanager: commit transaction: %w", err)
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
