package postgres

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"
	"github.com/klauspost/compress/zstd"

	"medstore/internal/core/id"
	"medstore/internal/domain/audit"
	"medstore/pkg/logger"
)

// CompressionAlgo specifies how the changes column was stored.
type CompressionAlgo string

const (
	CompressionNone CompressionAlgo = "none"
	CompressionZstd CompressionAlgo = "zstd"
)

const (
	defaultCompressThreshold = 10 * 1024
	defaultAuditWriteTimeout = 5 * time.Second
)

// AuditRecord is one row of audit_log.
type AuditRecord struct {
	ID                id.ID           `db:"id" json:"id"`
	OrganizationID    id.ID           `db:"organization_id" json:"organizationId"`
	EntityType        string          `db:"entity_type" json:"entityType"`
	EntityID          id.ID           `db:"entity_id" json:"entityId"`
	Action            string          `db:"action" json:"action"`
	ActorID           string          `db:"actor_id" json:"actorId"`
	Changes           json.RawMessage `db:"changes" json:"changes,omitempty"`
	ChangesCompressed []byte          `db:"changes_compressed" json:"-"`
	CompressionAlgo   CompressionAlgo `db:"compression_algo" json:"-"`
	CreatedAt         time.Time       `db:"created_at" json:"createdAt"`
}

// AuditRecorder implements audit.Recorder on the audit_log table.
// Writes run in the background on the pool, never inside the caller's transaction.
type AuditRecorder struct {
	db                Querier
	encoder           *zstd.Encoder
	decoder           *zstd.Decoder
	compressThreshold int
	timeout           time.Duration
	inflight          sync.WaitGroup
}

// NewAuditRecorder creates a recorder writing through db (normally the pool).
func NewAuditRecorder(db Querier) (*AuditRecorder, error) {
	encoder, err := zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedDefault))
	if err != nil {
		return nil, fmt.Errorf("create zstd encoder: %w", err)
	}
	decoder, err := zstd.NewReader(nil)
	if err != nil {
		return nil, fmt.Errorf("create zstd decoder: %w", err)
	}

	return &AuditRecorder{
		db:                db,
		encoder:           encoder,
		decoder:           decoder,
		compressThreshold: defaultCompressThreshold,
		timeout:           defaultAuditWriteTimeout,
	}, nil
}

// Record stores entry asynchronously. Failures are logged, never returned.
func (r *AuditRecorder) Record(ctx context.Context, entry audit.Entry) {
	rec, err := r.prepare(entry)
	if err != nil {
		logger.Error(ctx, "audit entry dropped", "entity_type", entry.EntityType, "entity_id", entry.EntityID, "error", err)
		return
	}

	writeCtx := context.WithoutCancel(ctx)
	r.inflight.Add(1)
	go func() {
		defer r.inflight.Done()
		ctx, cancel := context.WithTimeout(writeCtx, r.timeout)
		defer cancel()

		if err := r.insert(ctx, rec); err != nil {
			logger.Error(ctx, "audit write failed",
				"entity_type", rec.EntityType,
				"entity_id", rec.EntityID,
				"action", rec.Action,
				"error", err,
			)
		}
	}()
}

// Close waits for pending writes.
func (r *AuditRecorder) Close() {
	r.inflight.Wait()
	r.encoder.Close()
	r.decoder.Close()
}

func (r *AuditRecorder) prepare(entry audit.Entry) (AuditRecord, error) {
	rec := AuditRecord{
		ID:              id.New(),
		OrganizationID:  entry.OrganizationID,
		EntityType:      entry.EntityType,
		EntityID:        entry.EntityID,
		Action:          string(entry.Action),
		ActorID:         entry.ActorID,
		CompressionAlgo: CompressionNone,
		CreatedAt:       time.Now().UTC(),
	}

	if len(entry.Changes) == 0 {
		return rec, nil
	}
	changes, err := json.Marshal(entry.Changes)
	if err != nil {
		return rec, fmt.Errorf("marshal changes: %w", err)
	}

	if len(changes) > r.compressThreshold {
		rec.ChangesCompressed = r.encoder.EncodeAll(changes, nil)
		rec.CompressionAlgo = CompressionZstd
		return rec, nil
	}
	rec.Changes = changes
	return rec, nil
}

func (r *AuditRecorder) insert(ctx context.Context, rec AuditRecord) error {
	sql, args, err := sq.Insert("audit_log").
		SetMap(StructToMap(rec)).
		PlaceholderFormat(sq.Dollar).
		ToSql()
	if err != nil {
		return fmt.Errorf("build audit insert: %w", err)
	}
	_, err = r.db.Exec(ctx, sql, args...)
	return err
}

// History returns the newest audit records of one entity, decompressed.
func (r *AuditRecorder) History(ctx context.Context, orgID id.ID, entityType string, entityID id.ID, limit int) ([]AuditRecord, error) {
	if limit <= 0 {
		limit = 50
	}

	query := historyQuery(orgID, entityType, entityID, limit)
	sql, args, err := query.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build history query: %w", err)
	}

	var records []AuditRecord
	if err := pgxscan.Select(ctx, r.db, &records, sql, args...); err != nil {
		return nil, MapError(err, "audit history", "audit entry", entityID)
	}

	for i := range records {
		if err := r.inflate(&records[i]); err != nil {
			return nil, err
		}
	}
	return records, nil
}

func historyQuery(orgID id.ID, entityType string, entityID id.ID, limit int) sq.SelectBuilder {
	return sq.Select(ExtractDBColumns[AuditRecord]()...).
		From("audit_log").
		Where(sq.Eq{"organization_id": orgID, "entity_type": entityType, "entity_id": entityID}).
		OrderBy("created_at DESC").
		Limit(uint64(limit)).
		PlaceholderFormat(sq.Dollar)
}

func (r *AuditRecorder) inflate(rec *AuditRecord) error {
	if rec.CompressionAlgo != CompressionZstd || len(rec.ChangesCompressed) == 0 {
		return nil
	}
	raw, err := r.decoder.DecodeAll(rec.ChangesCompressed, nil)
	if err != nil {
		return fmt.Errorf("decompress audit changes %s: %w", rec.ID, err)
	}
	rec.Changes = raw
	rec.ChangesCompressed = nil
	return nil
}
