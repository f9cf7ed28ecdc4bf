package postgres

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/kadewerk/tally/tally-backend/internal/domain"
)

// ServiceTokenRepository implements domain.ServiceTokenRepository using PostgreSQL
type ServiceTokenRepository struct {
	pool *pgxpool.Pool
}

// NewServiceTokenRepository creates a new ServiceTokenRepository
func NewServiceTokenRepository(pool *pgxpool.Pool) *ServiceTokenRepository {
	return &ServiceTokenRepository{pool: pool}
}

var _ domain.ServiceTokenRepository = (*ServiceTokenRepository)(nil)

// Create creates a new service token
func (r *ServiceTokenRepository) Create(ctx context.Context, token *domain.ServiceToken) error {
	var (
		id        pgtype.UUID
		createdAt pgtype.Timestamptz
	)
	err := r.pool.QueryRow(ctx, `
		INSERT INTO service_tokens (description, token_hash, token_prefix, created_by)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at`,
		token.Description, token.TokenHash, token.TokenPrefix, token.CreatedBy,
	).Scan(&id, &createdAt)
	if err != nil {
		return fmt.Errorf("insert service token: %w", err)
	}

	parsed, err := uuid.FromBytes(id.Bytes[:])
	if err != nil {
		return fmt.Errorf("failed to parse token ID: %w", err)
	}
	token.ID = parsed
	token.CreatedAt = createdAt.Time
	return nil
}

// List retrieves all non-revoked service tokens, newest first
func (r *ServiceTokenRepository) List(ctx context.Context) ([]*domain.ServiceToken, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, description, token_hash, token_prefix, created_by, created_at, last_used_at, revoked_at
		FROM service_tokens
		WHERE revoked_at IS NULL
		ORDER BY created_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("query service tokens: %w", err)
	}
	defer rows.Close()

	tokens := make([]*domain.ServiceToken, 0)
	for rows.Next() {
		token, err := scanServiceToken(rows)
		if err != nil {
			return nil, err
		}
		tokens = append(tokens, token)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("read service tokens: %w", err)
	}
	return tokens, nil
}

// GetByID retrieves a service token by ID
func (r *ServiceTokenRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.ServiceToken, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT id, description, token_hash, token_prefix, created_by, created_at, last_used_at, revoked_at
		FROM service_tokens
		WHERE id = $1`,
		pgtype.UUID{Bytes: id, Valid: true})

	token, err := scanServiceToken(row)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, domain.ErrTokenNotFound
		}
		return nil, err
	}
	return token, nil
}

// GetByHash retrieves an active service token by its hash (for authentication)
func (r *ServiceTokenRepository) GetByHash(ctx context.Context, hash string) (*domain.ServiceToken, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT id, description, token_hash, token_prefix, created_by, created_at, last_used_at, revoked_at
		FROM service_tokens
		WHERE token_hash = $1 AND revoked_at IS NULL`,
		hash)

	token, err := scanServiceToken(row)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, domain.ErrTokenNotFound
		}
		return nil, err
	}
	return token, nil
}

// Revoke marks a service token as revoked
func (r *ServiceTokenRepository) Revoke(ctx context.Context, id uuid.UUID) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE service_tokens
		SET revoked_at = now()
		WHERE id = $1 AND revoked_at IS NULL`,
		pgtype.UUID{Bytes: id, Valid: true})
	if err != nil {
		return fmt.Errorf("revoke service token: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrTokenNotFound
	}
	return nil
}

// UpdateLastUsed updates the last_used_at timestamp for a token
func (r *ServiceTokenRepository) UpdateLastUsed(ctx context.Context, id uuid.UUID) error {
	_, err := r.pool.Exec(ctx, `
		UPDATE service_tokens
		SET last_used_at = now()
		WHERE id = $1`,
		pgtype.UUID{Bytes: id, Valid: true})
	return err
}

// Helper functions

func scanServiceToken(row pgx.Row) (*domain.ServiceToken, error) {
	var (
		id         pgtype.UUID
		createdAt  pgtype.Timestamptz
		lastUsedAt pgtype.Timestamptz
		revokedAt  pgtype.Timestamptz
		token      domain.ServiceToken
	)
	if err := row.Scan(&id, &token.Description, &token.TokenHash, &token.TokenPrefix, &token.CreatedBy, &createdAt, &lastUsedAt, &revokedAt); err != nil {
		return nil, err
	}

	parsed, err := uuid.FromBytes(id.Bytes[:])
	if err != nil {
		return nil, fmt.Errorf("failed to parse token ID: %w", err)
	}
	token.ID = parsed
	token.CreatedAt = createdAt.Time
	if lastUsedAt.Valid {
		token.LastUsedAt = &lastUsedAt.Time
	}
	if revokedAt.Valid {
		token.RevokedAt = &revokedAt.Time
	}
	return &token, nil
}
