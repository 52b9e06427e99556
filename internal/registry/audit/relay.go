package audit

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"github.com/twmb/franz-go/pkg/kgo"
)

const (
	defaultRelayInterval = 2 * time.Second
	defaultRelayBatch    = 100
)

// Relay drains the audit outbox and publishes committed change-sets to Kafka.
// The outbox row is only marked published after the broker acknowledges the
// record, so a crash between the two repeats the publish rather than losing
// it; downstream consumers must tolerate duplicates.
//
// Relay failures never touch the primary write path: the sink has already
// committed by the time a row is visible here.
type Relay struct {
	db       *sql.DB
	client   *kgo.Client
	topic    string
	interval time.Duration
	batch    int
	logger   *slog.Logger
}

// RelayOption configures a Relay.
type RelayOption func(*Relay)

// WithRelayInterval overrides the poll interval.
func WithRelayInterval(d time.Duration) RelayOption {
	return func(r *Relay) {
		if d > 0 {
			r.interval = d
		}
	}
}

// WithRelayBatch overrides the per-poll row limit.
func WithRelayBatch(n int) RelayOption {
	return func(r *Relay) {
		if n > 0 {
			r.batch = n
		}
	}
}

// NewRelay connects a Kafka producer for the audit topic.
func NewRelay(db *sql.DB, brokers []string, topic string, logger *slog.Logger, opts ...RelayOption) (*Relay, error) {
	if len(brokers) == 0 {
		return nil, fmt.Errorf("at least one kafka broker is required")
	}
	client, err := kgo.NewClient(
		kgo.SeedBrokers(brokers...),
		kgo.DefaultProduceTopic(topic),
	)
	if err != nil {
		return nil, fmt.Errorf("create kafka client: %w", err)
	}
	r := &Relay{
		db:       db,
		client:   client,
		topic:    topic,
		interval: defaultRelayInterval,
		batch:    defaultRelayBatch,
		logger:   logger,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r, nil
}

// Run polls until the context is cancelled.
func (r *Relay) Run(ctx context.Context) error {
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if err := r.publishPending(ctx); err != nil {
				// Transient broker/storage trouble; keep polling.
				r.logger.WarnContext(ctx, "audit relay pass failed", "error", err)
			}
		}
	}
}

func (r *Relay) publishPending(ctx context.Context) error {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, kind, payload
		FROM audit_outbox
		WHERE published_at IS NULL
		ORDER BY created_at
		LIMIT $1
	`, r.batch)
	if err != nil {
		return fmt.Errorf("query audit outbox: %w", err)
	}
	defer rows.Close()

	type pending struct {
		id      string
		kind    string
		payload []byte
	}
	var batch []pending
	for rows.Next() {
		var p pending
		if err := rows.Scan(&p.id, &p.kind, &p.payload); err != nil {
			return fmt.Errorf("scan audit outbox row: %w", err)
		}
		batch = append(batch, p)
	}
	if err := rows.Err(); err != nil {
		return err
	}

	for _, p := range batch {
		record := &kgo.Record{
			Topic: r.topic,
			Key:   []byte(p.kind),
			Value: p.payload,
		}
		if err := r.client.ProduceSync(ctx, record).FirstErr(); err != nil {
			return fmt.Errorf("produce audit record %s: %w", p.id, err)
		}
		if _, err := r.db.ExecContext(ctx, `
			UPDATE audit_outbox SET published_at = $1 WHERE id = $2
		`, time.Now().UTC(), p.id); err != nil {
			return fmt.Errorf("mark audit record published: %w", err)
		}
	}

	if len(batch) > 0 {
		r.logger.InfoContext(ctx, "audit relay published", "records", len(batch))
	}
	return nil
}

// Close flushes and releases the Kafka producer.
func (r *Relay) Close() {
	r.client.Close()
}
