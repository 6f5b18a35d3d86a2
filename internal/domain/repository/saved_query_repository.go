package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"cf_finder/internal/common"
	"cf_finder/internal/domain/model"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

// DefaultSavedQueryLimit is how many saved queries are kept.
const DefaultSavedQueryLimit = 10

type SavedQueryRepository interface {
	Save(ctx context.Context, targets, practices []string) (*model.SavedQuery, error)
	List(ctx context.Context) ([]model.SavedQuery, error)
	Delete(ctx context.Context, id string) error
	Clear(ctx context.Context) error
}

type savedQueryRow struct {
	ID        string `db:"id"`
	QueryKey  string `db:"query_key"`
	Targets   string `db:"targets"`
	Practices string `db:"practices"`
	CreatedAt int64  `db:"created_at"`
}

type sqlSavedQueryRepository struct {
	db    *sqlx.DB
	limit int
	now   func() time.Time
}

// NewSQLSavedQueryRepository stores saved queries in db, keeping the newest
// limit entries. Two queries with the same sorted target and practice lists
// are the same entry.
func NewSQLSavedQueryRepository(db *sqlx.DB, limit int) SavedQueryRepository {
	if limit <= 0 {
		limit = DefaultSavedQueryLimit
	}
	return &sqlSavedQueryRepository{db: db, limit: limit, now: time.Now}
}

// queryKey identifies a query independently of handle order.
func queryKey(targets, practices []string) string {
	t := slices.Clone(targets)
	p := slices.Clone(practices)
	slices.Sort(t)
	slices.Sort(p)
	return strings.Join(t, ",") + "|" + strings.Join(p, ",")
}

func (r *sqlSavedQueryRepository) Save(ctx context.Context, targets, practices []string) (*model.SavedQuery, error) {
	if targets == nil {
		targets = []string{}
	}
	if practices == nil {
		practices = []string{}
	}
	targetsJSON, err := json.Marshal(targets)
	if err != nil {
		return nil, fmt.Errorf("sqlSavedQueryRepository.Save: %w", err)
	}
	practicesJSON, err := json.Marshal(practices)
	if err != nil {
		return nil, fmt.Errorf("sqlSavedQueryRepository.Save: %w", err)
	}

	key := queryKey(targets, practices)
	saved := &model.SavedQuery{Targets: targets, Practices: practices}

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("sqlSavedQueryRepository.Save: begin: %w", err)
	}
	defer tx.Rollback()

	var latest sql.NullInt64
	if err := tx.GetContext(ctx, &latest, `SELECT MAX(created_at) FROM saved_queries`); err != nil {
		return nil, fmt.Errorf("sqlSavedQueryRepository.Save: %w", err)
	}
	// Keep timestamps strictly increasing so ordering is total.
	createdAt := r.now().UnixMilli()
	if latest.Valid && createdAt <= latest.Int64 {
		createdAt = latest.Int64 + 1
	}
	saved.Timestamp = time.UnixMilli(createdAt).UTC()

	var existingID string
	err = tx.GetContext(ctx, &existingID, tx.Rebind(`SELECT id FROM saved_queries WHERE query_key = ?`), key)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		saved.ID = uuid.NewString()
		_, err = tx.ExecContext(ctx,
			tx.Rebind(`INSERT INTO saved_queries (id, query_key, targets, practices, created_at) VALUES (?, ?, ?, ?, ?)`),
			saved.ID, key, string(targetsJSON), string(practicesJSON), createdAt)
	case err == nil:
		saved.ID = existingID
		_, err = tx.ExecContext(ctx,
			tx.Rebind(`UPDATE saved_queries SET targets = ?, practices = ?, created_at = ? WHERE id = ?`),
			string(targetsJSON), string(practicesJSON), createdAt, existingID)
	}
	if err != nil {
		return nil, fmt.Errorf("sqlSavedQueryRepository.Save: %w", err)
	}

	_, err = tx.ExecContext(ctx, tx.Rebind(`
		DELETE FROM saved_queries WHERE id NOT IN (
			SELECT id FROM saved_queries ORDER BY created_at DESC LIMIT ?
		)`), r.limit)
	if err != nil {
		return nil, fmt.Errorf("sqlSavedQueryRepository.Save: prune: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("sqlSavedQueryRepository.Save: commit: %w", err)
	}
	return saved, nil
}

func (r *sqlSavedQueryRepository) List(ctx context.Context) ([]model.SavedQuery, error) {
	var rows []savedQueryRow
	err := r.db.SelectContext(ctx, &rows, r.db.Rebind(`
		SELECT id, query_key, targets, practices, created_at
		FROM saved_queries ORDER BY created_at DESC LIMIT ?`), r.limit)
	if err != nil {
		return nil, fmt.Errorf("sqlSavedQueryRepository.List: %w", err)
	}

	out := make([]model.SavedQuery, 0, len(rows))
	for _, row := range rows {
		q := model.SavedQuery{ID: row.ID, Timestamp: time.UnixMilli(row.CreatedAt).UTC()}
		if err := json.Unmarshal([]byte(row.Targets), &q.Targets); err != nil {
			return nil, fmt.Errorf("sqlSavedQueryRepository.List: decode targets of %s: %w", row.ID, err)
		}
		if err := json.Unmarshal([]byte(row.Practices), &q.Practices); err != nil {
			return nil, fmt.Errorf("sqlSavedQueryRepository.List: decode practices of %s: %w", row.ID, err)
		}
		out = append(out, q)
	}
	return out, nil
}

func (r *sqlSavedQueryRepository) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, r.db.Rebind(`DELETE FROM saved_queries WHERE id = ?`), id)
	if err != nil {
		return fmt.Errorf("sqlSavedQueryRepository.Delete: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("sqlSavedQueryRepository.Delete: %w", err)
	}
	if n == 0 {
		return common.ErrNotFound
	}
	return nil
}

func (r *sqlSavedQueryRepository) Clear(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM saved_queries`); err != nil {
		return fmt.Errorf("sqlSavedQueryRepository.Clear: %w", err)
	}
	return nil
}
