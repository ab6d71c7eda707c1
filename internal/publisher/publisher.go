// Package publisher fans analysis results out to downstream consumers.
package publisher

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"github.com/segmentio/kafka-go"

	"TradeScout/internal/model"
)

// Publisher delivers a finished analysis somewhere outside the process.
type Publisher interface {
	Publish(ctx context.Context, res *model.AnalysisResult) error
	Close() error
}

// Config configures the Kafka writer.
type Config struct {
	Brokers      []string      `yaml:"brokers"`
	Topic        string        `yaml:"topic" default:"tradescout.signals"`
	Compression  string        `yaml:"compression" default:"gzip" validate:"oneof=gzip snappy lz4 zstd none"`
	MaxAttempts  int           `yaml:"max_attempts" default:"3" validate:"gte=1"`
	WriteTimeout time.Duration `yaml:"write_timeout" default:"10s"`
}

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// KafkaPublisher writes one JSON message per result, keyed by symbol.
type KafkaPublisher struct {
	writer messageWriter
	topic  string
	log    zerolog.Logger
}

// NewKafkaPublisher builds a publisher over a kafka.Writer.
func NewKafkaPublisher(cfg Config, log zerolog.Logger) (*KafkaPublisher, error) {
	if len(cfg.Brokers) == 0 {
		return nil, fmt.Errorf("kafka publisher: brokers are required")
	}
	if cfg.Topic == "" {
		return nil, fmt.Errorf("kafka publisher: topic is required")
	}
	w := &kafka.Writer{
		Addr:         kafka.TCP(cfg.Brokers...),
		Topic:        cfg.Topic,
		Balancer:     &kafka.Hash{},
		RequiredAcks: kafka.RequireAll,
		Compression:  parseCompression(cfg.Compression),
		MaxAttempts:  cfg.MaxAttempts,
		WriteTimeout: cfg.WriteTimeout,
	}
	return newKafkaPublisher(w, cfg.Topic, log), nil
}

func newKafkaPublisher(w messageWriter, topic string, log zerolog.Logger) *KafkaPublisher {
	return &KafkaPublisher{writer: w, topic: topic, log: log.With().Str("component", "publisher").Logger()}
}

func (p *KafkaPublisher) Publish(ctx context.Context, res *model.AnalysisResult) error {
	value, err := json.Marshal(res)
	if err != nil {
		return fmt.Errorf("marshal result: %w", err)
	}
	msg := kafka.Message{
		Key:   []byte(res.Symbol),
		Value: value,
		Time:  res.Timestamp,
		Headers: []kafka.Header{
			{Key: "signal", Value: []byte(res.Signal)},
		},
	}
	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("publish %s: %w", res.Symbol, err)
	}
	p.log.Debug().Str("symbol", res.Symbol).Str("topic", p.topic).Msg("result published")
	return nil
}

func (p *KafkaPublisher) Close() error {
	return p.writer.Close()
}

func parseCompression(s string) kafka.Compression {
	switch s {
	case "snappy":
		return kafka.Snappy
	case "lz4":
		return kafka.Lz4
	case "zstd":
		return kafka.Zstd
	case "none":
		return 0
	default:
		return kafka.Gzip
	}
}

// Noop discards results.
type Noop struct{}

func (Noop) Publish(context.Context, *model.AnalysisResult) error { return nil }
func (Noop) Close() error                                         { return nil }
