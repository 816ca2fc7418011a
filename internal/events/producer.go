package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/segmentio/kafka-go"
)

const (
	TypeUserRegistered     = "user_registered"
	TypeUserLoggedIn       = "user_logged_in"
	TypeTokensRefreshed    = "tokens_refreshed"
	TypeUserLoggedOut      = "user_logged_out"
	TypeCredentialsRotated = "credentials_rotated"
)

type Event struct {
	Type   string `json:"type"`
	UserID uint   `json:"user_id"`
	At     int64  `json:"at"`
}

type Producer struct {
	writer *kafka.Writer
}

func NewProducer(brokers []string, topic string) *Producer {
	if len(brokers) == 0 {
		return &Producer{}
	}
	return &Producer{
		writer: &kafka.Writer{
			Addr:         kafka.TCP(brokers...),
			Topic:        topic,
			Balancer:     &kafka.Hash{},
			RequiredAcks: kafka.RequireOne,
			WriteTimeout: 5 * time.Second,
		},
	}
}

func (p *Producer) PublishEvent(ctx context.Context, eventType string, userID uint) error {
	if p == nil || p.writer == nil {
		return nil
	}

	data, err := json.Marshal(Event{Type: eventType, UserID: userID, At: time.Now().Unix()})
	if err != nil {
		return fmt.Errorf("kafka: json.Marshal failed: %w", err)
	}

	msg := kafka.Message{
		Key:   []byte(fmt.Sprint(userID)),
		Value: data,
	}
	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("kafka: write failed: %w", err)
	}
	return nil
}

func (p *Producer) Close() error {
	if p == nil || p.writer == nil {
		return nil
	}
	return p.writer.Close()
}
