package domain

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// ServiceToken represents a long-lived credential for machine callers such
// as the sync pipeline or archive automation
type ServiceToken struct {
	ID          uuid.UUID  `json:"id"`
	Description string     `json:"description"`
	TokenHash   string     `json:"-"` // Never expose hash
	TokenPrefix string     `json:"tokenPrefix"`
	CreatedBy   string     `json:"createdBy"`
	LastUsedAt  *time.Time `json:"lastUsedAt,omitempty"`
	CreatedAt   time.Time  `json:"createdAt"`
	RevokedAt   *time.Time `json:"revokedAt,omitempty"`
}

// CreateServiceTokenRequest represents the request to create a new service token
type CreateServiceTokenRequest struct {
	Description string `json:"description" validate:"required,max=255"`
}

// ServiceTokenResponse represents a token in list responses (excludes sensitive data)
type ServiceTokenResponse struct {
	ID          uuid.UUID  `json:"id"`
	Description string     `json:"description"`
	TokenPrefix string     `json:"tokenPrefix"`
	CreatedBy   string     `json:"createdBy"`
	CreatedAt   time.Time  `json:"createdAt"`
	LastUsedAt  *time.Time `json:"lastUsedAt,omitempty"`
}

// CreateServiceTokenResponse includes the full token for one-time display
type CreateServiceTokenResponse struct {
	ID          uuid.UUID `json:"id"`
	Description string    `json:"description"`
	TokenPrefix string    `json:"tokenPrefix"`
	Token       string    `json:"token"` // Full token - shown only once!
	CreatedAt   time.Time `json:"createdAt"`
	Warning     string    `json:"warning"`
}

// ServiceTokenRepository defines the interface for service token persistence
type ServiceTokenRepository interface {
	Create(ctx context.Context, token *ServiceToken) error
	List(ctx context.Context) ([]*ServiceToken, error)
	GetByID(ctx context.Context, id uuid.UUID) (*ServiceToken, error)
	GetByHash(ctx context.Context, hash string) (*ServiceToken, error)
	Revoke(ctx context.Context, id uuid.UUID) error
	UpdateLastUsed(ctx context.Context, id uuid.UUID) error
}
