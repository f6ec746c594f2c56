package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/couchcryptid/ncr-risk-service/internal/config"
	"github.com/couchcryptid/ncr-risk-service/internal/domain"
	kafkago "github.com/segmentio/kafka-go"
)

// messageWriter is the subset of kafkago.Writer used here.
type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafkago.Message) error
	Close() error
}

// Writer publishes scored locations to a Kafka topic, one message per
// location keyed by its id.
// It implements pipeline.Publisher.
type Writer struct {
	writer messageWriter
	logger *slog.Logger
}

// NewWriter creates a Kafka producer for the configured sink topic.
func NewWriter(cfg *config.Config, logger *slog.Logger) *Writer {
	w := &kafkago.Writer{
		Addr:                   kafkago.TCP(cfg.KafkaBrokers...),
		Topic:                  cfg.KafkaSinkTopic,
		Balancer:               &kafkago.Hash{},
		RequiredAcks:           kafkago.RequireAll,
		AllowAutoTopicCreation: true,
	}
	return &Writer{writer: w, logger: logger}
}

// Publish serializes every row of the table and writes them in a single
// WriteMessages call. All rows share one scored_at timestamp.
func (w *Writer) Publish(ctx context.Context, table domain.ScoredTable) error {
	if table.Len() == 0 {
		return nil
	}
	scoredAt := domain.Now()
	msgs := make([]kafkago.Message, len(table.Rows))
	for i := range table.Rows {
		msg, err := serializeToMessage(table.Rows[i], scoredAt)
		if err != nil {
			return err
		}
		msgs[i] = msg
	}
	if err := w.writer.WriteMessages(ctx, msgs...); err != nil {
		return fmt.Errorf("write scored locations: %w", err)
	}
	w.logger.Debug("scored locations written", "messages", len(msgs))
	return nil
}

func (w *Writer) Close() error {
	return w.writer.Close()
}

// scoredLocationMessage is the JSON value of a published message.
type scoredLocationMessage struct {
	ID             string            `json:"id"`
	Place          string            `json:"place,omitempty"`
	Lat            *float64          `json:"lat"`
	Lon            *float64          `json:"lon"`
	Hazards        map[string]string `json:"hazards"`
	Cluster        int               `json:"cluster"`
	PredictedRisk  domain.Tier       `json:"predicted_risk"`
	Recommendation string            `json:"recommendation"`
	ScoredAt       time.Time         `json:"scored_at"`
}

// serializeToMessage marshals a scored location into a Kafka message.
func serializeToMessage(loc domain.ScoredLocation, scoredAt time.Time) (kafkago.Message, error) {
	data, err := json.Marshal(scoredLocationMessage{
		ID:             loc.ID,
		Place:          loc.Place,
		Lat:            loc.Lat,
		Lon:            loc.Lon,
		Hazards:        loc.Hazards,
		Cluster:        loc.Cluster,
		PredictedRisk:  loc.PredictedRisk,
		Recommendation: loc.Recommendation,
		ScoredAt:       scoredAt,
	})
	if err != nil {
		return kafkago.Message{}, fmt.Errorf("serialize scored location: %w", err)
	}
	return kafkago.Message{
		Key:   []byte(loc.ID),
		Value: data,
		Headers: []kafkago.Header{
			{Key: "predicted_risk", Value: []byte(loc.PredictedRisk)},
			{Key: "scored_at", Value: []byte(scoredAt.Format(time.RFC3339))},
		},
	}, nil
}
