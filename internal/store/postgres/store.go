package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/samber/oops"

	"github.com/MrEthical07/contactAuth/principal"
)

// DB is the subset of pgxpool.Pool the store uses. pgxmock.PgxPoolIface
// satisfies it in tests.
type DB interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Ping(ctx context.Context) error
}

// Store implements principal.Store.
type Store struct {
	db DB
}

func New(db DB) *Store {
	return &Store{db: db}
}

// Connect opens a pool for dsn and verifies it with a ping. maxConns <= 0
// keeps the pgxpool default.
func Connect(ctx context.Context, dsn string, maxConns int32) (*pgxpool.Pool, error) {
	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, oops.Code("DB_CONFIG_INVALID").With("operation", "parse dsn").Wrap(err)
	}
	if maxConns > 0 {
		cfg.MaxConns = maxConns
	}
	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, oops.Code("DB_CONNECT_FAILED").With("operation", "create pool").Wrap(err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, oops.Code("DB_CONNECT_FAILED").With("operation", "ping").Wrap(err)
	}
	return pool, nil
}

const selectColumns = `id, username, email, password, avatar, confirmed, refresh_token, created_at`

func (s *Store) FindByEmail(ctx context.Context, email string) (principal.Principal, error) {
	var p principal.Principal
	err := s.db.QueryRow(ctx,
		`SELECT `+selectColumns+` FROM principals WHERE email = $1`,
		email,
	).Scan(&p.ID, &p.DisplayName, &p.Email, &p.PasswordHash, &p.Avatar, &p.Confirmed, &p.RefreshToken, &p.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return principal.Principal{}, principal.ErrNotFound
		}
		return principal.Principal{}, oops.Code("PRINCIPAL_QUERY_FAILED").With("email", email).Wrap(err)
	}
	return p, nil
}

func (s *Store) Create(ctx context.Context, p principal.Principal) (principal.Principal, error) {
	err := s.db.QueryRow(ctx,
		`INSERT INTO principals (username, email, password, avatar, confirmed)
		 VALUES ($1, $2, $3, $4, $5)
		 RETURNING id, created_at`,
		p.DisplayName, p.Email, p.PasswordHash, p.Avatar, p.Confirmed,
	).Scan(&p.ID, &p.CreatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation {
			return principal.Principal{}, principal.ErrExists
		}
		return principal.Principal{}, oops.Code("PRINCIPAL_CREATE_FAILED").With("email", p.Email).Wrap(err)
	}
	p.RefreshToken = nil
	return p, nil
}

func (s *Store) Save(ctx context.Context, p principal.Principal) error {
	tag, err := s.db.Exec(ctx,
		`UPDATE principals
		 SET username = $2, avatar = $3, confirmed = principals.confirmed OR $4
		 WHERE email = $1`,
		p.Email, p.DisplayName, p.Avatar, p.Confirmed,
	)
	if err != nil {
		return oops.Code("PRINCIPAL_SAVE_FAILED").With("email", p.Email).Wrap(err)
	}
	if tag.RowsAffected() == 0 {
		return principal.ErrNotFound
	}
	return nil
}

func (s *Store) SetRefreshToken(ctx context.Context, email string, token *string) error {
	tag, err := s.db.Exec(ctx,
		`UPDATE principals SET refresh_token = $2 WHERE email = $1`,
		email, token,
	)
	if err != nil {
		return oops.Code("REFRESH_TOKEN_SET_FAILED").With("email", email).Wrap(err)
	}
	if tag.RowsAffected() == 0 {
		return principal.ErrNotFound
	}
	return nil
}

func (s *Store) SwapRefreshToken(ctx context.Context, email, expected string, next *string) (bool, error) {
	tag, err := s.db.Exec(ctx,
		`UPDATE principals SET refresh_token = $3 WHERE email = $1 AND refresh_token = $2`,
		email, expected, next,
	)
	if err != nil {
		return false, oops.Code("REFRESH_TOKEN_SWAP_FAILED").With("email", email).Wrap(err)
	}
	return tag.RowsAffected() == 1, nil
}

func (s *Store) Ping(ctx context.Context) error {
	if err := s.db.Ping(ctx); err != nil {
		return oops.Code("DB_PING_FAILED").Wrap(err)
	}
	return nil
}
