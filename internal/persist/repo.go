package persist

import (
	"context"
	"errors"
	"fmt"

	"github.com/goccy/go-json"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"
)

// SnapshotRepo stores world snapshots in PostgreSQL.
type SnapshotRepo struct {
	db *DB
}

func NewSnapshotRepo(db *DB) *SnapshotRepo {
	return &SnapshotRepo{db: db}
}

// Save writes snap in one transaction and sets snap.ID to the new row id.
func (r *SnapshotRepo) Save(ctx context.Context, snap *Snapshot) error {
	tx, err := r.db.Pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	var id int64
	if err := tx.QueryRow(ctx,
		`INSERT INTO world_snapshots (frame, taken_at) VALUES ($1, $2) RETURNING id`,
		snap.Frame, snap.TakenAt,
	).Scan(&id); err != nil {
		return fmt.Errorf("insert snapshot: %w", err)
	}

	rows, err := entityRows(id, snap.Entities)
	if err != nil {
		return err
	}
	if _, err := tx.CopyFrom(ctx,
		pgx.Identifier{"snapshot_entities"},
		[]string{"snapshot_id", "entity_index", "generation", "enabled", "components"},
		pgx.CopyFromRows(rows),
	); err != nil {
		return fmt.Errorf("copy snapshot entities: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return err
	}
	snap.ID = id
	r.db.log.Debug("snapshot saved",
		zap.Int64("id", id),
		zap.Int64("frame", snap.Frame),
		zap.Int("entities", len(snap.Entities)),
	)
	return nil
}

// entityRows lays out ents in snapshot_entities column order. Index and
// generation are uint32 and stored as BIGINT.
func entityRows(snapshotID int64, ents []EntityRecord) ([][]any, error) {
	rows := make([][]any, 0, len(ents))
	for _, rec := range ents {
		comps := rec.Components
		if comps == nil {
			comps = []ComponentRecord{}
		}
		payload, err := json.Marshal(comps)
		if err != nil {
			return nil, fmt.Errorf("encode entity %d: %w", rec.Index, err)
		}
		rows = append(rows, []any{snapshotID, int64(rec.Index), int64(rec.Generation), rec.Enabled, string(payload)})
	}
	return rows, nil
}

// Load reads the snapshot with the given id. Returns nil if it does not exist.
func (r *SnapshotRepo) Load(ctx context.Context, id int64) (*Snapshot, error) {
	snap := &Snapshot{ID: id}
	err := r.db.Pool.QueryRow(ctx,
		`SELECT frame, taken_at FROM world_snapshots WHERE id = $1`, id,
	).Scan(&snap.Frame, &snap.TakenAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if err := r.loadEntities(ctx, snap); err != nil {
		return nil, err
	}
	return snap, nil
}

// Latest reads the most recent snapshot. Returns nil if none was saved yet.
func (r *SnapshotRepo) Latest(ctx context.Context) (*Snapshot, error) {
	var id int64
	err := r.db.Pool.QueryRow(ctx,
		`SELECT id FROM world_snapshots ORDER BY id DESC LIMIT 1`,
	).Scan(&id)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return r.Load(ctx, id)
}

// Prune deletes all but the newest keep snapshots.
func (r *SnapshotRepo) Prune(ctx context.Context, keep int) (int64, error) {
	tag, err := r.db.Pool.Exec(ctx,
		`DELETE FROM world_snapshots
		 WHERE id NOT IN (SELECT id FROM world_snapshots ORDER BY id DESC LIMIT $1)`, keep,
	)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

func (r *SnapshotRepo) loadEntities(ctx context.Context, snap *Snapshot) error {
	rows, err := r.db.Pool.Query(ctx,
		`SELECT entity_index, generation, enabled, components
		 FROM snapshot_entities
		 WHERE snapshot_id = $1
		 ORDER BY entity_index`, snap.ID,
	)
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var (
			index, gen int64
			rec        EntityRecord
			raw        []byte
		)
		if err := rows.Scan(&index, &gen, &rec.Enabled, &raw); err != nil {
			return err
		}
		rec.Index = uint32(index)
		rec.Generation = uint32(gen)
		if err := json.Unmarshal(raw, &rec.Components); err != nil {
			return fmt.Errorf("decode entity %d: %w", rec.Index, err)
		}
		snap.Entities = append(snap.Entities, rec)
	}
	return rows.Err()
}
