// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 uprofile Contributors

package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/oklog/ulid/v2"
	"github.com/samber/oops"

	"github.com/Imfractical/uprofile/internal/account"
)

const sessionColumns = `id, account_id, token_hash, user_agent, ip_address, expires_at, created_at, last_seen_at`

// SessionRepository implements account.SessionRepository using PostgreSQL.
type SessionRepository struct {
	db DB
}

// NewSessionRepository creates a new SessionRepository.
func NewSessionRepository(db DB) *SessionRepository {
	return &SessionRepository{db: db}
}

// Create stores a new session.
func (r *SessionRepository) Create(ctx context.Context, s *account.Session) error {
	_, err := conn(ctx, r.db).Exec(ctx, `
		INSERT INTO sessions (`+sessionColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`,
		s.ID.String(),
		s.AccountID.String(),
		s.TokenHash,
		s.UserAgent,
		s.IPAddress,
		s.ExpiresAt,
		s.CreatedAt,
		s.LastSeenAt,
	)
	if err != nil {
		return oops.Code("SESSION_CREATE_FAILED").
			With("operation", "insert session").
			With("account_id", s.AccountID.String()).
			Wrap(err)
	}
	return nil
}

// GetByID retrieves a session by its ID.
func (r *SessionRepository) GetByID(ctx context.Context, id ulid.ULID) (*account.Session, error) {
	row := conn(ctx, r.db).QueryRow(ctx, `
		SELECT `+sessionColumns+`
		FROM sessions
		WHERE id = $1
	`, id.String())

	s, err := scanSession(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, oops.Code("SESSION_NOT_FOUND").
			With("session_id", id.String()).
			Wrap(account.ErrNotFound)
	}
	if err != nil {
		return nil, oops.Code("SESSION_GET_FAILED").
			With("operation", "get session by id").
			With("session_id", id.String()).
			Wrap(err)
	}
	return s, nil
}

// GetByTokenHash retrieves a session by its token hash.
func (r *SessionRepository) GetByTokenHash(ctx context.Context, tokenHash string) (*account.Session, error) {
	row := conn(ctx, r.db).QueryRow(ctx, `
		SELECT `+sessionColumns+`
		FROM sessions
		WHERE token_hash = $1
	`, tokenHash)

	s, err := scanSession(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, oops.Code("SESSION_NOT_FOUND").Wrap(account.ErrNotFound)
	}
	if err != nil {
		return nil, oops.Code("SESSION_GET_FAILED").
			With("operation", "get session by token hash").
			Wrap(err)
	}
	return s, nil
}

// UpdateLastSeen records activity on a session.
func (r *SessionRepository) UpdateLastSeen(ctx context.Context, id ulid.ULID, lastSeen time.Time) error {
	result, err := conn(ctx, r.db).Exec(ctx, `
		UPDATE sessions SET last_seen_at = $2
		WHERE id = $1
	`, id.String(), lastSeen)
	if err != nil {
		return oops.Code("SESSION_UPDATE_LAST_SEEN_FAILED").
			With("operation", "update last_seen_at").
			With("session_id", id.String()).
			Wrap(err)
	}
	if result.RowsAffected() == 0 {
		return oops.Code("SESSION_NOT_FOUND").
			With("session_id", id.String()).
			Wrap(account.ErrNotFound)
	}
	return nil
}

// Rebind replaces the token hash and expiry of a session owned by accountID.
func (r *SessionRepository) Rebind(ctx context.Context, id, accountID ulid.ULID, tokenHash string, expiresAt time.Time) error {
	result, err := conn(ctx, r.db).Exec(ctx, `
		UPDATE sessions SET token_hash = $3, expires_at = $4, last_seen_at = $5
		WHERE id = $1 AND account_id = $2
	`, id.String(), accountID.String(), tokenHash, expiresAt, time.Now())
	if err != nil {
		return oops.Code("SESSION_REBIND_FAILED").
			With("operation", "rebind session").
			With("session_id", id.String()).
			Wrap(err)
	}
	if result.RowsAffected() == 0 {
		return oops.Code("SESSION_NOT_FOUND").
			With("session_id", id.String()).
			With("account_id", accountID.String()).
			Wrap(account.ErrNotFound)
	}
	return nil
}

// Delete removes a session by ID.
func (r *SessionRepository) Delete(ctx context.Context, id ulid.ULID) error {
	result, err := conn(ctx, r.db).Exec(ctx, `
		DELETE FROM sessions WHERE id = $1
	`, id.String())
	if err != nil {
		return oops.Code("SESSION_DELETE_FAILED").
			With("operation", "delete session").
			With("session_id", id.String()).
			Wrap(err)
	}
	if result.RowsAffected() == 0 {
		return oops.Code("SESSION_NOT_FOUND").
			With("session_id", id.String()).
			Wrap(account.ErrNotFound)
	}
	return nil
}

// DeleteByAccountExcept removes every session of the account other than keep.
func (r *SessionRepository) DeleteByAccountExcept(ctx context.Context, accountID, keep ulid.ULID) (int64, error) {
	result, err := conn(ctx, r.db).Exec(ctx, `
		DELETE FROM sessions WHERE account_id = $1 AND id <> $2
	`, accountID.String(), keep.String())
	if err != nil {
		return 0, oops.Code("SESSION_DELETE_BY_ACCOUNT_FAILED").
			With("operation", "delete other sessions of account").
			With("account_id", accountID.String()).
			With("keep", keep.String()).
			Wrap(err)
	}
	return result.RowsAffected(), nil
}

// DeleteByAccount removes every session of the account. Deleting nothing
// is not an error.
func (r *SessionRepository) DeleteByAccount(ctx context.Context, accountID ulid.ULID) (int64, error) {
	result, err := conn(ctx, r.db).Exec(ctx, `
		DELETE FROM sessions WHERE account_id = $1
	`, accountID.String())
	if err != nil {
		return 0, oops.Code("SESSION_DELETE_BY_ACCOUNT_FAILED").
			With("operation", "delete sessions of account").
			With("account_id", accountID.String()).
			Wrap(err)
	}
	return result.RowsAffected(), nil
}

// DeleteExpired removes all expired sessions and returns the count.
func (r *SessionRepository) DeleteExpired(ctx context.Context) (int64, error) {
	result, err := conn(ctx, r.db).Exec(ctx, `
		DELETE FROM sessions WHERE expires_at < $1
	`, time.Now())
	if err != nil {
		return 0, oops.Code("SESSION_DELETE_EXPIRED_FAILED").
			With("operation", "delete expired sessions").
			Wrap(err)
	}
	return result.RowsAffected(), nil
}

// scanSession scans a single row into a Session.
// Callers are responsible for handling pgx.ErrNoRows.
func scanSession(row pgx.Row) (*account.Session, error) {
	var (
		idStr, accountIDStr string
		s                   account.Session
	)
	err := row.Scan(&idStr, &accountIDStr, &s.TokenHash, &s.UserAgent, &s.IPAddress,
		&s.ExpiresAt, &s.CreatedAt, &s.LastSeenAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, err //nolint:wrapcheck // callers wrap with context-specific info
		}
		return nil, oops.Code("SESSION_SCAN_FAILED").
			With("operation", "scan session").
			Wrap(err)
	}

	if s.ID, err = ulid.Parse(idStr); err != nil {
		return nil, oops.Code("SESSION_INVALID_ID").
			With("operation", "parse session id").
			With("id", idStr).
			Wrap(err)
	}
	if s.AccountID, err = ulid.Parse(accountIDStr); err != nil {
		return nil, oops.Code("SESSION_INVALID_ACCOUNT_ID").
			With("operation", "parse account id").
			With("account_id", accountIDStr).
			Wrap(err)
	}
	return &s, nil
}

var _ account.SessionRepository = (*SessionRepository)(nil)
