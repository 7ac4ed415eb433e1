package broker

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"parcel-booking/internal/pkg/config"
	"parcel-booking/internal/usecase/shared"
)

const (
	DriverLog      = "log"
	DriverRabbitMQ = "rabbitmq"
	DriverKafka    = "kafka"
)

// Dispatcher delivers booking notifications to the outside world.
type Dispatcher interface {
	NotifyBookingPaid(ctx context.Context, p shared.BookingPaidPayload) error
	Close() error
}

func New(cfg config.NotifyConfig) (Dispatcher, error) {
	switch strings.ToLower(cfg.Driver) {
	case DriverLog, "":
		return LogDispatcher{}, nil
	case DriverRabbitMQ:
		return NewRabbitMQ(cfg.AMQPURL, cfg.AMQPExchange)
	case DriverKafka:
		return NewKafka(cfg.KafkaBrokers, cfg.KafkaTopic), nil
	default:
		return nil, fmt.Errorf("unsupported notify driver %q", cfg.Driver)
	}
}

// LogDispatcher only records the notification.
type LogDispatcher struct{}

func (LogDispatcher) NotifyBookingPaid(_ context.Context, p shared.BookingPaidPayload) error {
	slog.Info("booking paid notification",
		"booking_id", p.BookingID,
		"user_id", p.UserID,
		"tracking_number", p.Tracking)
	return nil
}

func (LogDispatcher) Close() error { return nil }
