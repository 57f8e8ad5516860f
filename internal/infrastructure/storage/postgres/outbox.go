package postgres

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"melodia/internal/core/id"
	"melodia/pkg/logger"
)

// OutboxStatus represents the state of an outbox message.
type OutboxStatus string

const (
	OutboxStatusPending   OutboxStatus = "pending"
	OutboxStatusPublished OutboxStatus = "published"
	OutboxStatusFailed    OutboxStatus = "failed"
)

// EventPasswordReset is emitted when a reset code is issued. The worker
// relays it to the notification queue.
const EventPasswordReset = "auth.password_reset"

const outboxMaxRetries = 5

// OutboxMessage is one row of the transactional outbox.
type OutboxMessage struct {
	ID          id.ID        `db:"id"`
	EventType   string       `db:"event_type"`
	Payload     []byte       `db:"payload"`
	Status      OutboxStatus `db:"status"`
	RetryCount  int          `db:"retry_count"`
	LastError   *string      `db:"last_error"`
	NextRetryAt *time.Time   `db:"next_retry_at"`
	CreatedAt   time.Time    `db:"created_at"`
	PublishedAt *time.Time   `db:"published_at"`
}

// PasswordResetEvent is the payload of EventPasswordReset messages.
type PasswordResetEvent struct {
	Email string `json:"email"`
	Code  string `json:"code"`
}

// OutboxPublisher writes events to the outbox table. The write joins the
// caller's transaction when one is open.
type OutboxPublisher struct {
	txManager *TxManager
}

// NewOutboxPublisher creates a new outbox publisher.
func NewOutboxPublisher(txManager *TxManager) *OutboxPublisher {
	return &OutboxPublisher{txManager: txManager}
}

// Publish writes an event to the outbox.
func (p *OutboxPublisher) Publish(ctx context.Context, eventType string, payload any) error {
	payloadBytes, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal event payload: %w", err)
	}

	_, err = p.txManager.GetQuerier(ctx).Exec(ctx, `
		INSERT INTO sys_outbox (id, event_type, payload, status, created_at)
		VALUES ($1, $2, $3, $4, $5)
	`, id.New(), eventType, payloadBytes, OutboxStatusPending, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("insert outbox message: %w", err)
	}

	return nil
}

// NotifyPasswordReset queues a reset code delivery. Satisfies the reset
// notifier contract; the actual send happens in the relay worker.
func (p *OutboxPublisher) NotifyPasswordReset(ctx context.Context, email, code string) error {
	return p.Publish(ctx, EventPasswordReset, PasswordResetEvent{Email: email, Code: code})
}

// OutboxHandler delivers one outbox message to its destination.
type OutboxHandler interface {
	Handle(ctx context.Context, msg *OutboxMessage) error
}

// OutboxRelay reads pending messages and hands them to the handler. Used by
// the background worker to push events to the message broker.
type OutboxRelay struct {
	txManager *TxManager
	batchSize int
	handler   OutboxHandler
}

// NewOutboxRelay creates a new outbox relay.
func NewOutboxRelay(txManager *TxManager, batchSize int, handler OutboxHandler) *OutboxRelay {
	return &OutboxRelay{
		txManager: txManager,
		batchSize: batchSize,
		handler:   handler,
	}
}

// ProcessBatch fetches and processes pending messages, returning the number
// delivered. Rows are locked with SKIP LOCKED so concurrent relays do not
// double-deliver.
func (r *OutboxRelay) ProcessBatch(ctx context.Context) (int, error) {
	var processed int

	err := r.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		q := r.txManager.GetQuerier(ctx)

		rows, err := q.Query(ctx, `
			SELECT id, event_type, payload, status,
			       retry_count, last_error, next_retry_at, created_at, published_at
			FROM sys_outbox
			WHERE status = $1
			  AND (next_retry_at IS NULL OR next_retry_at <= NOW())
			ORDER BY created_at
			LIMIT $2
			FOR UPDATE SKIP LOCKED
		`, OutboxStatusPending, r.batchSize)
		if err != nil {
			return fmt.Errorf("fetch outbox messages: %w", err)
		}
		defer rows.Close()

		var messages []*OutboxMessage
		for rows.Next() {
			var msg OutboxMessage
			err := rows.Scan(
				&msg.ID, &msg.EventType, &msg.Payload, &msg.Status,
				&msg.RetryCount, &msg.LastError, &msg.NextRetryAt,
				&msg.CreatedAt, &msg.PublishedAt,
			)
			if err != nil {
				return fmt.Errorf("scan outbox message: %w", err)
			}
			messages = append(messages, &msg)
		}
		if err := rows.Err(); err != nil {
			return fmt.Errorf("iterate outbox messages: %w", err)
		}

		for _, msg := range messages {
			if err := r.processMessage(ctx, msg); err != nil {
				logger.Warn(ctx, "outbox delivery failed",
					"message_id", msg.ID, "event_type", msg.EventType, "error", err)
				continue
			}
			processed++
		}

		return nil
	})
	if err != nil {
		return 0, err
	}

	return processed, nil
}

func (r *OutboxRelay) processMessage(ctx context.Context, msg *OutboxMessage) error {
	q := r.txManager.GetQuerier(ctx)

	if err := r.handler.Handle(ctx, msg); err != nil {
		// Linear backoff, then park as failed after the retry budget.
		nextRetry := time.Now().Add(time.Duration(msg.RetryCount+1) * time.Minute)
		errStr := err.Error()

		_, updateErr := q.Exec(ctx, `
			UPDATE sys_outbox
			SET retry_count = retry_count + 1,
			    last_error = $1,
			    next_retry_at = $2,
			    status = CASE WHEN retry_count >= $3 THEN $4 ELSE status END
			WHERE id = $5
		`, errStr, nextRetry, outboxMaxRetries, OutboxStatusFailed, msg.ID)
		if updateErr != nil {
			return fmt.Errorf("update failed message: %w", updateErr)
		}
		return err
	}

	_, err := q.Exec(ctx, `
		UPDATE sys_outbox
		SET status = $1, published_at = $2
		WHERE id = $3
	`, OutboxStatusPublished, time.Now().UTC(), msg.ID)

	return err
}
