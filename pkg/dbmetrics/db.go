package dbmetrics

import (
	"context"
	"database/sql"
	"time"

	"github.com/m04kA/SPA-BookingService/pkg/metrics"
)

const defaultPoolStatsInterval = 15 * time.Second

// DB обёртка над *sql.DB с записью метрик по каждому запросу
type DB struct {
	db      *sql.DB
	metrics *metrics.Metrics
	dbName  string
}

// Wrap оборачивает *sql.DB в обёртку с метриками
func Wrap(db *sql.DB, m *metrics.Metrics, dbName string) *DB {
	return &DB{db: db, metrics: m, dbName: dbName}
}

// WrapWithDefault оборачивает *sql.DB и запускает периодический сбор статистики connection pool
// Горутина сбора останавливается закрытием stopCh
func WrapWithDefault(db *sql.DB, m *metrics.Metrics, dbName string, stopCh <-chan struct{}) *DB {
	wrapped := Wrap(db, m, dbName)
	go wrapped.collectPoolStats(stopCh, defaultPoolStatsInterval)
	return wrapped
}

// ExecContext выполняет запрос с записью метрик
func (d *DB) ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error) {
	start := time.Now()
	res, err := d.db.ExecContext(ctx, query, args...)
	d.metrics.ObserveDBQuery("exec", err == nil, time.Since(start))
	return res, err
}

// QueryContext выполняет запрос с записью метрик
func (d *DB) QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error) {
	start := time.Now()
	rows, err := d.db.QueryContext(ctx, query, args...)
	d.metrics.ObserveDBQuery("query", err == nil, time.Since(start))
	return rows, err
}

// QueryRowContext выполняет запрос с записью метрик
// Ошибка выполнения станет видна только при Scan, поэтому здесь считаем запрос успешным
func (d *DB) QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row {
	start := time.Now()
	row := d.db.QueryRowContext(ctx, query, args...)
	d.metrics.ObserveDBQuery("query_row", true, time.Since(start))
	return row
}

// BeginTx начинает транзакцию; возвращаемый исполнитель тоже пишет метрики
func (d *DB) BeginTx(ctx context.Context, opts *sql.TxOptions) (TxExecutor, error) {
	start := time.Now()
	tx, err := d.db.BeginTx(ctx, opts)
	d.metrics.ObserveDBQuery("begin_tx", err == nil, time.Since(start))
	if err != nil {
		return nil, err
	}
	return &metricTx{tx: tx, metrics: d.metrics}, nil
}

func (d *DB) collectPoolStats(stopCh <-chan struct{}, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-stopCh:
			return
		case <-ticker.C:
			stats := d.db.Stats()
			d.metrics.SetDBPoolStats(d.dbName, stats.OpenConnections, stats.Idle, stats.InUse)
		}
	}
}

// metricTx транзакция с записью метрик по каждому запросу
type metricTx struct {
	tx      *sql.Tx
	metrics *metrics.Metrics
}

func (t *metricTx) ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error) {
	start := time.Now()
	res, err := t.tx.ExecContext(ctx, query, args...)
	t.metrics.ObserveDBQuery("tx_exec", err == nil, time.Since(start))
	return res, err
}

func (t *metricTx) QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error) {
	start := time.Now()
	rows, err := t.tx.QueryContext(ctx, query, args...)
	t.metrics.ObserveDBQuery("tx_query", err == nil, time.Since(start))
	return rows, err
}

func (t *metricTx) QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row {
	start := time.Now()
	row := t.tx.QueryRowContext(ctx, query, args...)
	t.metrics.ObserveDBQuery("tx_query_row", true, time.Since(start))
	return row
}

func (t *metricTx) Commit() error {
	return t.tx.Commit()
}

func (t *metricTx) Rollback() error {
	return t.tx.Rollback()
}
