// Package cache кеширование расписаний провайдеров поверх хранилища.
// Кешируются только расписания: бронирования всегда читаются из базы
package cache

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/m04kA/SPA-BookingService/internal/domain"
)

// ScheduleReader контракт хранилища расписаний
type ScheduleReader interface {
	GetSchedule(ctx context.Context, providerID int64, from, to time.Time) (*domain.Schedule, error)
}

// Logger интерфейс для логирования
type Logger interface {
	Debug(format string, v ...interface{})
}

// CachedScheduleReader LRU-кеш расписаний с инвалидацией по провайдеру
type CachedScheduleReader struct {
	reader ScheduleReader
	cache  *lru.Cache[string, *domain.Schedule]
	mu     sync.RWMutex
	log    Logger
}

// NewCachedScheduleReader создает кеш заданного размера
func NewCachedScheduleReader(reader ScheduleReader, size int, log Logger) (*CachedScheduleReader, error) {
	c, err := lru.New[string, *domain.Schedule](size)
	if err != nil {
		return nil, fmt.Errorf("cache: create lru: %w", err)
	}
	return &CachedScheduleReader{reader: reader, cache: c, log: log}, nil
}

// GetSchedule возвращает расписание из кеша или хранилища
func (c *CachedScheduleReader) GetSchedule(ctx context.Context, providerID int64, from, to time.Time) (*domain.Schedule, error) {
	key := cacheKey(providerID, from, to)

	c.mu.RLock()
	cached, ok := c.cache.Get(key)
	c.mu.RUnlock()
	if ok {
		c.log.Debug("cache: schedule hit key=%s", key)
		return cached, nil
	}

	schedule, err := c.reader.GetSchedule(ctx, providerID, from, to)
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	c.cache.Add(key, schedule)
	c.mu.Unlock()
	c.log.Debug("cache: schedule miss key=%s", key)

	return schedule, nil
}

// InvalidateProvider удаляет из кеша все записи провайдера.
// Вызывается после изменения расписания
func (c *CachedScheduleReader) InvalidateProvider(providerID int64) {
	prefix := fmt.Sprintf("%d|", providerID)

	c.mu.Lock()
	defer c.mu.Unlock()
	for _, key := range c.cache.Keys() {
		if strings.HasPrefix(key, prefix) {
			c.cache.Remove(key)
		}
	}
}

func cacheKey(providerID int64, from, to time.Time) string {
	return fmt.Sprintf("%d|%s|%s", providerID, from.Format(domain.DateFormat), to.Format(domain.DateFormat))
}
