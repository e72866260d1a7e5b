package postgres

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"strconv"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/turtacn/FigureLens/internal/domain/catalog"
	"github.com/turtacn/FigureLens/internal/domain/feature"
	"github.com/turtacn/FigureLens/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/FigureLens/pkg/errors"
	"github.com/turtacn/FigureLens/pkg/types/common"
)

const entryColumns = `id, name, series, variant, rarity, description,
	colors, materials, key_features, features, reference_image_url, released_at`

// Provider implements catalog.Provider on top of the catalog_entries table.
// Snapshot order follows the position column, which fixes the stable catalog
// order used for ranking ties.
type Provider struct {
	conn   *Connection
	logger logging.Logger
}

// NewProvider builds a catalog provider over an established connection.
func NewProvider(conn *Connection, log logging.Logger) *Provider {
	return &Provider{conn: conn, logger: log.Named("catalog.postgres")}
}

// Snapshot loads the full catalog in stable order.
func (p *Provider) Snapshot(ctx context.Context) ([]catalog.Entry, error) {
	rows, err := p.conn.Pool().Query(ctx,
		`SELECT `+entryColumns+` FROM catalog_entries ORDER BY position, id`)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeDatabaseError, "failed to load catalog snapshot")
	}
	defer rows.Close()

	entries := make([]catalog.Entry, 0, 64)
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeDatabaseError, "failed to read catalog rows")
	}
	return entries, nil
}

// Get returns a single entry by id.
func (p *Provider) Get(ctx context.Context, id string) (*catalog.Entry, error) {
	row := p.conn.Pool().QueryRow(ctx,
		`SELECT `+entryColumns+` FROM catalog_entries WHERE id = $1`, id)
	e, err := scanEntry(row)
	if err != nil {
		if stderrors.Is(err, pgx.ErrNoRows) {
			return nil, errors.New(errors.ErrCodeNotFound, "catalog entry not found").WithDetail("id=" + id)
		}
		return nil, err
	}
	return &e, nil
}

// Search lists entries matching the filter, in stable order.  Series and
// rarity narrow in SQL; the free-text query is matched against name,
// description and the term lists.
func (p *Provider) Search(ctx context.Context, f catalog.Filter) ([]catalog.Entry, error) {
	var (
		where []string
		args  []interface{}
	)
	if f.Series != "" {
		args = append(args, f.Series)
		where = append(where, "lower(series) = lower($"+strconv.Itoa(len(args))+")")
	}
	if f.Rarity != "" {
		args = append(args, string(f.Rarity))
		where = append(where, "rarity = $"+strconv.Itoa(len(args)))
	}
	if f.Query != "" {
		args = append(args, "%"+strings.ToLower(f.Query)+"%")
		n := strconv.Itoa(len(args))
		where = append(where, `(lower(name) LIKE $`+n+
			` OR lower(description) LIKE $`+n+
			` OR lower(array_to_string(colors || materials || key_features, ' ')) LIKE $`+n+`)`)
	}

	query := `SELECT ` + entryColumns + ` FROM catalog_entries`
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY position, id"

	rows, err := p.conn.Pool().Query(ctx, query, args...)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeDatabaseError, "catalog search failed")
	}
	defer rows.Close()

	var entries []catalog.Entry
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeDatabaseError, "failed to read catalog rows")
	}
	return entries, nil
}

// Upsert writes an entry, keeping its position if it already exists and
// appending it to the end of the catalog order otherwise.
func (p *Provider) Upsert(ctx context.Context, e *catalog.Entry) error {
	if err := e.Validate(); err != nil {
		return err
	}
	featJSON, err := marshalFeatures(e.Features)
	if err != nil {
		return err
	}
	var released interface{}
	if !e.ReleasedAt.IsZero() {
		released = e.ReleasedAt
	}
	_, err = p.conn.Pool().Exec(ctx, `
		INSERT INTO catalog_entries
			(id, name, series, variant, rarity, description,
			 colors, materials, key_features, features, reference_image_url, released_at,
			 position)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12,
			COALESCE((SELECT MAX(position) + 1 FROM catalog_entries), 0))
		ON CONFLICT (id) DO UPDATE SET
			name = EXCLUDED.name,
			series = EXCLUDED.series,
			variant = EXCLUDED.variant,
			rarity = EXCLUDED.rarity,
			description = EXCLUDED.description,
			colors = EXCLUDED.colors,
			materials = EXCLUDED.materials,
			key_features = EXCLUDED.key_features,
			features = EXCLUDED.features,
			reference_image_url = EXCLUDED.reference_image_url,
			released_at = EXCLUDED.released_at,
			updated_at = now()`,
		e.ID, e.Name, e.Series, e.Variant, string(e.Rarity), e.Description,
		e.Colors, e.Materials, e.KeyFeatures, featJSON, e.ReferenceImageURL, released)
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeDatabaseError, "failed to upsert catalog entry")
	}
	return nil
}

// Delete removes an entry by id.
func (p *Provider) Delete(ctx context.Context, id string) error {
	tag, err := p.conn.Pool().Exec(ctx, `DELETE FROM catalog_entries WHERE id = $1`, id)
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeDatabaseError, "failed to delete catalog entry")
	}
	if tag.RowsAffected() == 0 {
		return errors.New(errors.ErrCodeNotFound, "catalog entry not found").WithDetail("id=" + id)
	}
	return nil
}

// rowScanner is satisfied by both pgx.Row and pgx.Rows.
type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanEntry(row rowScanner) (catalog.Entry, error) {
	var (
		e        catalog.Entry
		rarity   string
		featJSON []byte
		released *time.Time
	)
	err := row.Scan(&e.ID, &e.Name, &e.Series, &e.Variant, &rarity, &e.Description,
		&e.Colors, &e.Materials, &e.KeyFeatures, &featJSON, &e.ReferenceImageURL, &released)
	if err != nil {
		return catalog.Entry{}, errors.Wrap(err, errors.ErrCodeDatabaseError, "failed to scan catalog entry")
	}
	e.Rarity = common.RarityTier(rarity)
	if released != nil {
		e.ReleasedAt = *released
	}
	if len(featJSON) > 0 {
		vf := &feature.VisualFeatures{}
		if err := json.Unmarshal(featJSON, vf); err != nil {
			return catalog.Entry{}, errors.Wrap(err, errors.ErrCodeSerialization,
				"invalid features document").WithDetail("id=" + e.ID)
		}
		e.Features = vf
	}
	return e, nil
}

func marshalFeatures(vf *feature.VisualFeatures) ([]byte, error) {
	if vf == nil {
		return nil, nil
	}
	b, err := json.Marshal(vf)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeSerialization, "failed to encode features")
	}
	return b, nil
}

