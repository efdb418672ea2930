// Package events публикация событий жизненного цикла бронирований
// для диспетчера уведомлений. События публикуются только после коммита
// транзакции, изменившей бронирование
package events

import (
	"context"
	"encoding/json"
	"fmt"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/m04kA/SPA-BookingService/internal/domain"
)

// Logger интерфейс для логирования
type Logger interface {
	Info(format string, v ...interface{})
	Warn(format string, v ...interface{})
	Error(format string, v ...interface{})
}

// RabbitPublisher публикует события в topic exchange RabbitMQ
// Routing key: booking.<тип события>
type RabbitPublisher struct {
	conn     *amqp.Connection
	ch       *amqp.Channel
	exchange string
	log      Logger
}

// NewRabbitPublisher подключается к RabbitMQ и декларирует exchange
func NewRabbitPublisher(url, exchange string, log Logger) (*RabbitPublisher, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("events: dial rabbitmq: %w", err)
	}

	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("events: open channel: %w", err)
	}

	if err := ch.ExchangeDeclare(exchange, "topic", true, false, false, false, nil); err != nil {
		_ = ch.Close()
		_ = conn.Close()
		return nil, fmt.Errorf("events: declare exchange: %w", err)
	}

	return &RabbitPublisher{conn: conn, ch: ch, exchange: exchange, log: log}, nil
}

// Publish публикует событие жизненного цикла
func (p *RabbitPublisher) Publish(ctx context.Context, event domain.Event) error {
	body, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("events: marshal event %s: %w", event.ID, err)
	}

	routingKey := "booking." + string(event.Type)
	err = p.ch.PublishWithContext(ctx, p.exchange, routingKey, false, false, amqp.Publishing{
		ContentType: "application/json",
		MessageId:   event.ID,
		Timestamp:   event.OccurredAt,
		Body:        body,
	})
	if err != nil {
		return fmt.Errorf("events: publish %s: %w", routingKey, err)
	}

	p.log.Info("events: published %s booking_id=%d event_id=%s", routingKey, event.BookingID, event.ID)
	return nil
}

// Close закрывает канал и соединение
func (p *RabbitPublisher) Close() error {
	if p.ch != nil {
		_ = p.ch.Close()
	}
	if p.conn != nil {
		return p.conn.Close()
	}
	return nil
}

// LogPublisher заглушка, пишущая события только в лог
// Используется, когда брокер выключен в конфигурации
type LogPublisher struct {
	log Logger
}

// NewLogPublisher создает лог-публикатор
func NewLogPublisher(log Logger) *LogPublisher {
	return &LogPublisher{log: log}
}

// Publish пишет событие в лог
func (p *LogPublisher) Publish(_ context.Context, event domain.Event) error {
	p.log.Info("events: %s booking_id=%d %s -> %s (broker disabled)",
		event.Type, event.BookingID, event.OldStatus, event.NewStatus)
	return nil
}
