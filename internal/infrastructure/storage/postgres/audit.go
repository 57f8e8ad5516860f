package postgres

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/klauspost/compress/zstd"

	appctx "melodia/internal/core/context"
	"melodia/internal/core/id"
)

// AuditEntry is a single audit log row. Large payloads are stored compressed.
type AuditEntry struct {
	ID                id.ID           `db:"id"`
	Action            string          `db:"action"`
	EntityType        string          `db:"entity_type"`
	EntityID          string          `db:"entity_id"`
	UserID            string          `db:"user_id"`
	Payload           json.RawMessage `db:"payload"`
	PayloadCompressed []byte          `db:"payload_compressed"`
	Compressed        bool            `db:"compressed"`
	CreatedAt         time.Time       `db:"created_at"`
}

// AuditService writes administrative mutations to sys_audit. Payloads above
// the threshold are zstd compressed.
type AuditService struct {
	txManager         *TxManager
	encoder           *zstd.Encoder
	decoder           *zstd.Decoder
	compressThreshold int
}

// NewAuditService creates a new audit service.
func NewAuditService(txManager *TxManager) (*AuditService, error) {
	encoder, err := zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedDefault))
	if err != nil {
		return nil, fmt.Errorf("create zstd encoder: %w", err)
	}

	decoder, err := zstd.NewReader(nil)
	if err != nil {
		return nil, fmt.Errorf("create zstd decoder: %w", err)
	}

	return &AuditService{
		txManager:         txManager,
		encoder:           encoder,
		decoder:           decoder,
		compressThreshold: 10 * 1024,
	}, nil
}

// Record stores one audit entry. The acting user is taken from context.
func (s *AuditService) Record(ctx context.Context, action, entity string, entityID string, payload any) error {
	entry := AuditEntry{
		ID:         id.New(),
		Action:     action,
		EntityType: entity,
		EntityID:   entityID,
		CreatedAt:  time.Now().UTC(),
	}

	if user := appctx.GetUser(ctx); user != nil {
		entry.UserID = user.UserID
	}

	if payload != nil {
		raw, err := json.Marshal(payload)
		if err != nil {
			return fmt.Errorf("marshal audit payload: %w", err)
		}
		if len(raw) > s.compressThreshold {
			entry.PayloadCompressed = s.encoder.EncodeAll(raw, nil)
			entry.Compressed = true
		} else {
			entry.Payload = raw
		}
	}

	query := `
		INSERT INTO sys_audit (
			id, action, entity_type, entity_id, user_id,
			payload, payload_compressed, compressed, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`

	_, err := s.txManager.GetQuerier(ctx).Exec(ctx, query,
		entry.ID, entry.Action, entry.EntityType, entry.EntityID, entry.UserID,
		entry.Payload, entry.PayloadCompressed, entry.Compressed, entry.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert audit entry: %w", err)
	}

	return nil
}

// History retrieves recent audit entries for an entity, newest first.
// Compressed payloads are inflated before returning.
func (s *AuditService) History(ctx context.Context, entity, entityID string, limit int) ([]AuditEntry, error) {
	query := `
		SELECT id, action, entity_type, entity_id, user_id,
			   payload, payload_compressed, compressed, created_at
		FROM sys_audit
		WHERE entity_type = $1 AND entity_id = $2
		ORDER BY created_at DESC
		LIMIT $3
	`

	rows, err := s.txManager.GetQuerier(ctx).Query(ctx, query, entity, entityID, limit)
	if err != nil {
		return nil, fmt.Errorf("query audit history: %w", err)
	}
	defer rows.Close()

	var entries []AuditEntry
	for rows.Next() {
		var e AuditEntry
		err := rows.Scan(
			&e.ID, &e.Action, &e.EntityType, &e.EntityID, &e.UserID,
			&e.Payload, &e.PayloadCompressed, &e.Compressed, &e.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("scan audit entry: %w", err)
		}

		if e.Compressed && len(e.PayloadCompressed) > 0 {
			raw, err := s.decoder.DecodeAll(e.PayloadCompressed, nil)
			if err != nil {
				return nil, fmt.Errorf("decompress audit payload: %w", err)
			}
			e.Payload = raw
			e.PayloadCompressed = nil
		}

		entries = append(entries, e)
	}

	return entries, rows.Err()
}
