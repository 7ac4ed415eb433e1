package broker

import (
	"context"
	"encoding/json"
	"strings"

	"parcel-booking/internal/usecase/shared"

	"github.com/segmentio/kafka-go"
)

type Kafka struct {
	writer *kafka.Writer
}

func NewKafka(brokers, topic string) *Kafka {
	return &Kafka{writer: &kafka.Writer{
		Addr:         kafka.TCP(strings.Split(brokers, ",")...),
		Topic:        topic,
		Balancer:     &kafka.LeastBytes{},
		RequiredAcks: kafka.RequireOne,
	}}
}

// NotifyBookingPaid keys messages by booking id so events for one booking stay ordered.
func (k *Kafka) NotifyBookingPaid(ctx context.Context, payload shared.BookingPaidPayload) error {
	b, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	return k.writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(payload.BookingID),
		Value: b,
		Headers: []kafka.Header{
			{Key: "type", Value: []byte(payload.Type)},
		},
	})
}

func (k *Kafka) Close() error {
	return k.writer.Close()
}
