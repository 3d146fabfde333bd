package audit

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/segmentio/kafka-go"
)

var errKafkaNotConfigured = errors.New("audit: kafka brokers or topic not provided")

// Writer es la parte de *kafka.Writer que usa el sink.
type Writer interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// KafkaSink publica cada evento como JSON; la key es el user id.
type KafkaSink struct {
	w Writer
}

// KafkaConfig configura el writer.
type KafkaConfig struct {
	Brokers      []string
	Topic        string
	BatchTimeout time.Duration
}

// NewKafkaSink crea un writer asincrónico contra los brokers indicados.
func NewKafkaSink(cfg KafkaConfig) (*KafkaSink, error) {
	if len(cfg.Brokers) == 0 || cfg.Topic == "" {
		return nil, errKafkaNotConfigured
	}
	if cfg.BatchTimeout <= 0 {
		cfg.BatchTimeout = time.Second
	}
	w := &kafka.Writer{
		Addr:         kafka.TCP(cfg.Brokers...),
		Topic:        cfg.Topic,
		Balancer:     &kafka.Hash{},
		BatchTimeout: cfg.BatchTimeout,
		RequiredAcks: kafka.RequireOne,
		Async:        true,
	}
	return &KafkaSink{w: w}, nil
}

// NewKafkaSinkWithWriter permite inyectar un writer (tests).
func NewKafkaSinkWithWriter(w Writer) *KafkaSink {
	return &KafkaSink{w: w}
}

func (k *KafkaSink) Write(ctx context.Context, e Event) error {
	b, err := json.Marshal(e)
	if err != nil {
		return err
	}
	return k.w.WriteMessages(ctx, kafka.Message{
		Key:   []byte(e.UserID),
		Value: b,
		Time:  e.At,
	})
}

func (k *KafkaSink) Close() error { return k.w.Close() }
