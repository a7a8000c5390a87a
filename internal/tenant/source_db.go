// internal/tenant/source_db.go
//
// Control-plane status source.
//
// Context
// -------
// Deployments that share the backend's control-plane database can read
// tenant status straight from the `site` table instead of calling the
// status endpoint.  The row is folded into the same Status value, so the
// suspension rules and the fail-open policy are identical for both
// sources.
//
// Schema reference
//
//	CREATE TABLE site (
//	    id            INT UNSIGNED PRIMARY KEY AUTO_INCREMENT,
//	    subdomain     VARCHAR(63)  NOT NULL UNIQUE,
//	    status        VARCHAR(16)  NULL,
//	    trial_ends_at TIMESTAMP    NULL,
//	    suspended_at  TIMESTAMP    NULL,
//	    deleted_at    TIMESTAMP    NULL,
//	    created_at    TIMESTAMP    NOT NULL DEFAULT CURRENT_TIMESTAMP,
//	    updated_at    TIMESTAMP    NOT NULL DEFAULT CURRENT_TIMESTAMP
//	);
//
// Notes
// -----
//   - A non-NULL `suspended_at` wins over the `status` column.
//   - Deleted rows are invisible; a missing row is ErrUnknownTenant.
package tenant

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
)

// siteStatusRow mirrors the columns read by DBSource.
type siteStatusRow struct {
	Status      sql.NullString `db:"status"`
	TrialEndsAt sql.NullTime   `db:"trial_ends_at"`
	SuspendedAt sql.NullTime   `db:"suspended_at"`
}

// DBSource reads status from the control-plane `site` table.
type DBSource struct {
	db *sqlx.DB
}

// NewDBSource wraps an open control-plane pool.
func NewDBSource(db *sqlx.DB) *DBSource { return &DBSource{db: db} }

const siteStatusQuery = `
        SELECT status, trial_ends_at, suspended_at
        FROM   site
        WHERE  subdomain = ?
          AND  deleted_at IS NULL
        LIMIT  1`

// Fetch implements Source.
func (s *DBSource) Fetch(ctx context.Context, tenantID string) (Status, error) {
	var row siteStatusRow
	if err := s.db.GetContext(ctx, &row, siteStatusQuery, tenantID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Status{}, statusError(ErrUnknownTenant, "%q", tenantID)
		}
		return Status{}, fmt.Errorf("site status %q: %w", tenantID, err)
	}

	st := Status{Status: row.Status.String}
	if row.SuspendedAt.Valid {
		st.Status = "suspended"
	}
	if row.TrialEndsAt.Valid {
		ends := row.TrialEndsAt.Time.In(time.UTC)
		st.TrialEndsAt = &ends
	}
	return st, nil
}
