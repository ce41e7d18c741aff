package store

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
)

const (
	globalSettingQuery = `SELECT data FROM settings WHERE value = $1 AND hostname IS NULL`
	hostSettingQuery   = `SELECT data FROM settings WHERE value = $1 AND hostname = $2`
)

// GetSetting returns a setting value or nil when it does not exist.
// With a hostname only the host-scoped row is consulted; there is no
// fallback to the global row.
func (p *Postgres) GetSetting(ctx context.Context, key string, hostname *string) (*string, error) {
	sql, args := globalSettingQuery, []any{key}
	if hostname != nil {
		sql, args = hostSettingQuery, []any{key, *hostname}
	}

	var data pgtype.Text
	found := true
	err := p.do(ctx, "GetSetting", func(ctx context.Context) error {
		err := p.db.QueryRow(ctx, sql, args...).Scan(&data)
		if errors.Is(err, pgx.ErrNoRows) {
			found = false
			return nil
		}
		return err
	})
	if err != nil {
		return nil, err
	}
	if !found || !data.Valid {
		return nil, nil
	}
	v := data.String
	return &v, nil
}
