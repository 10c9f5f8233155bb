package hermes

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/nats-io/nats.go"
)

// NATS subjects oracle publishes and consumes.
const (
	// SubjectSourceStored is published by the document/transcript pipeline
	// when a new source is ready for ingestion.
	SubjectSourceStored = "swarm.oracle.source.stored"
	// SubjectSourceIngested announces a fully ingested source.
	SubjectSourceIngested = "swarm.oracle.source.ingested"
	// SubjectAnswerReady hands one complete answer string to the delivery
	// layer. Splitting for transport is the delivery layer's concern.
	SubjectAnswerReady = "swarm.oracle.answer.ready"
)

// SourceStoredEvent is the ingestion trigger payload.
type SourceStoredEvent struct {
	SourceID   string `json:"source_id"`
	SourceType string `json:"source_type"` // "meeting", "chat", "document"
	Title      string `json:"title"`
	Date       string `json:"date"` // YYYY-MM-DD
	Format     string `json:"format"` // "transcript" or "chat_jsonl"
	Content    string `json:"content"`
}

// SourceIngestedEvent announces the chunks created for a source.
type SourceIngestedEvent struct {
	SourceID string   `json:"source_id"`
	ChunkIDs []string `json:"chunk_ids"`
	Entities int      `json:"entities"`
}

// AnswerReadyEvent carries one finished answer to the delivery layer.
type AnswerReadyEvent struct {
	Question string `json:"question"`
	Answer   string `json:"answer"`
}

type Client struct {
	conn   *nats.Conn
	subs   []*nats.Subscription
	logger *slog.Logger
}

func NewClient(url, token string, logger *slog.Logger) (*Client, error) {
	opts := []nats.Option{
		nats.RetryOnFailedConnect(true),
		nats.MaxReconnects(60),
		nats.ReconnectWait(2 * time.Second),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			if err != nil {
				logger.Warn("nats disconnected", "error", err)
			}
		}),
		nats.ReconnectHandler(func(_ *nats.Conn) {
			logger.Info("nats reconnected")
		}),
	}
	if token != "" {
		opts = append(opts, nats.Token(token))
	}

	nc, err := nats.Connect(url, opts...)
	if err != nil {
		return nil, fmt.Errorf("nats connect: %w", err)
	}

	return &Client{conn: nc, logger: logger}, nil
}

func (c *Client) Publish(subject string, data any) error {
	payload, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("marshal payload: %w", err)
	}
	return c.conn.Publish(subject, payload)
}

func (c *Client) Subscribe(subject string, handler func(subject string, data []byte)) error {
	sub, err := c.conn.Subscribe(subject, func(msg *nats.Msg) {
		handler(msg.Subject, msg.Data)
	})
	if err != nil {
		return fmt.Errorf("subscribe %s: %w", subject, err)
	}
	c.subs = append(c.subs, sub)
	c.logger.Info("subscribed", "subject", subject)
	return nil
}

func (c *Client) Close() {
	for _, sub := range c.subs {
		_ = sub.Unsubscribe()
	}
	c.conn.Close()
}
