package service

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"fmt"

	"github.com/google/uuid"
	"github.com/kadewerk/tally/tally-backend/internal/domain"
	"github.com/rs/zerolog/log"
)

const (
	// tokenPrefix is the prefix for all service tokens
	tokenPrefix = "tly_"
	// tokenRandomBytes is the number of random bytes for the token (32 bytes = 256 bits)
	tokenRandomBytes = 32
	// tokenPrefixLength is the length of the displayable prefix (e.g., "tly_abc...xyz")
	tokenPrefixLength = 8
	// maxActiveTokens is the maximum number of active service tokens
	maxActiveTokens = 10
)

// TokenService handles service token business logic
type TokenService struct {
	repo domain.ServiceTokenRepository
}

// NewTokenService creates a new TokenService
func NewTokenService(repo domain.ServiceTokenRepository) *TokenService {
	return &TokenService{repo: repo}
}

// Create creates a new service token and returns the full token (shown only once)
func (s *TokenService) Create(ctx context.Context, createdBy, description string) (*domain.CreateServiceTokenResponse, error) {
	if description == "" || len(description) > 255 {
		return nil, domain.ErrInvalidTokenName
	}

	// Check token limit
	existingTokens, err := s.repo.List(ctx)
	if err != nil {
		return nil, err
	}
	if len(existingTokens) >= maxActiveTokens {
		return nil, domain.ErrTooManyTokens
	}

	// Generate secure random token
	rawToken, err := generateSecureToken()
	if err != nil {
		log.Error().Err(err).Msg("Failed to generate secure token")
		return nil, fmt.Errorf("failed to generate token: %w", err)
	}

	// Create full token with prefix
	fullToken := tokenPrefix + rawToken

	// Hash the token for storage
	hash := hashToken(fullToken)

	// Extract displayable prefix (first 8 chars after tly_)
	displayPrefix := tokenPrefix + rawToken[:tokenPrefixLength] + "..."

	// Create domain token
	token := &domain.ServiceToken{
		Description: description,
		TokenHash:   hash,
		TokenPrefix: displayPrefix,
		CreatedBy:   createdBy,
	}

	if err := s.repo.Create(ctx, token); err != nil {
		log.Error().Err(err).Str("created_by", createdBy).Msg("Failed to create service token")
		return nil, err
	}

	log.Info().
		Str("token_id", token.ID.String()).
		Str("created_by", createdBy).
		Str("description", description).
		Msg("Service token created")

	return &domain.CreateServiceTokenResponse{
		ID:          token.ID,
		Description: description,
		TokenPrefix: displayPrefix,
		Token:       fullToken,
		CreatedAt:   token.CreatedAt,
		Warning:     "Make sure to copy your service token now. You won't be able to see it again!",
	}, nil
}

// List retrieves all active service tokens
func (s *TokenService) List(ctx context.Context) ([]*domain.ServiceTokenResponse, error) {
	tokens, err := s.repo.List(ctx)
	if err != nil {
		log.Error().Err(err).Msg("Failed to list service tokens")
		return nil, err
	}

	// Convert to response DTOs (without sensitive data)
	result := make([]*domain.ServiceTokenResponse, len(tokens))
	for i, t := range tokens {
		result[i] = &domain.ServiceTokenResponse{
			ID:          t.ID,
			Description: t.Description,
			TokenPrefix: t.TokenPrefix,
			CreatedBy:   t.CreatedBy,
			CreatedAt:   t.CreatedAt,
			LastUsedAt:  t.LastUsedAt,
		}
	}
	return result, nil
}

// Revoke revokes a service token
func (s *TokenService) Revoke(ctx context.Context, tokenID uuid.UUID) error {
	if err := s.repo.Revoke(ctx, tokenID); err != nil {
		log.Error().Err(err).
			Str("token_id", tokenID.String()).
			Msg("Failed to revoke service token")
		return err
	}

	log.Info().
		Str("token_id", tokenID.String()).
		Msg("Service token revoked")

	return nil
}

// ValidateToken validates a service token and returns the associated token data
func (s *TokenService) ValidateToken(ctx context.Context, token string) (*domain.ServiceToken, error) {
	// Validate token format - must start with tly_ prefix
	if len(token) < len(tokenPrefix) || token[:len(tokenPrefix)] != tokenPrefix {
		return nil, domain.ErrTokenNotFound
	}

	// Hash the provided token
	hash := hashToken(token)

	// Look up by hash
	serviceToken, err := s.repo.GetByHash(ctx, hash)
	if err != nil {
		return nil, err
	}

	// Update last used timestamp asynchronously
	go func() {
		if updateErr := s.repo.UpdateLastUsed(context.Background(), serviceToken.ID); updateErr != nil {
			log.Error().Err(updateErr).Str("token_id", serviceToken.ID.String()).Msg("Failed to update last_used_at")
		}
	}()

	return serviceToken, nil
}

// generateSecureToken generates a cryptographically secure random token
func generateSecureToken() (string, error) {
	bytes := make([]byte, tokenRandomBytes)
	if _, err := rand.Read(bytes); err != nil {
		return "", err
	}
	// Use URL-safe base64 encoding without padding
	return base64.RawURLEncoding.EncodeToString(bytes), nil
}

// hashToken creates a SHA-256 hash of the token
func hashToken(token string) string {
	hash := sha256.Sum256([]byte(token))
	return fmt.Sprintf("%x", hash)
}
