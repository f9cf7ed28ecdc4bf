package handler

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/kadewerk/tally/tally-backend/internal/domain"
	"github.com/kadewerk/tally/tally-backend/internal/middleware"
	"github.com/kadewerk/tally/tally-backend/internal/service"
	"github.com/kadewerk/tally/tally-backend/internal/testutil"
	"github.com/labstack/echo/v4"
)

// Helper to stamp an operator identity onto the request context, the way the
// auth middleware does after validating a credential
func setupOperatorContext(c echo.Context, operator string) {
	ctx := context.WithValue(c.Request().Context(), middleware.OperatorIDKey, operator)
	c.SetRequest(c.Request().WithContext(ctx))
}

func TestTokenHandler_Create_Success(t *testing.T) {
	e := echo.New()
	repo := testutil.NewMockServiceTokenRepository()
	tokenService := service.NewTokenService(repo)
	handler := NewTokenHandler(tokenService)

	reqBody := `{"description": "Sync pipeline"}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/tokens", strings.NewReader(reqBody))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	setupOperatorContext(c, "auth0|operator")

	err := handler.Create(c)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	if rec.Code != http.StatusCreated {
		t.Errorf("Expected status 201, got %d", rec.Code)
	}

	var response domain.CreateServiceTokenResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &response); err != nil {
		t.Fatalf("Failed to unmarshal response: %v", err)
	}

	if response.Description != "Sync pipeline" {
		t.Errorf("Expected description 'Sync pipeline', got %s", response.Description)
	}
	if !strings.HasPrefix(response.Token, "tly_") {
		t.Errorf("Expected token to start with 'tly_', got %s", response.Token[:8])
	}
	if !strings.HasSuffix(response.TokenPrefix, "...") {
		t.Errorf("Expected a truncated display prefix, got %s", response.TokenPrefix)
	}
	if response.Warning == "" {
		t.Error("Expected a one-time display warning")
	}
}

func TestTokenHandler_Create_MissingOperator(t *testing.T) {
	e := echo.New()
	repo := testutil.NewMockServiceTokenRepository()
	tokenService := service.NewTokenService(repo)
	handler := NewTokenHandler(tokenService)

	reqBody := `{"description": "Sync pipeline"}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/tokens", strings.NewReader(reqBody))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	// No operator identity on the context
	err := handler.Create(c)
	if err != nil {
		t.Fatalf("Expected JSON response, got error: %v", err)
	}

	if rec.Code != http.StatusUnauthorized {
		t.Errorf("Expected status 401, got %d", rec.Code)
	}
}

func TestTokenHandler_Create_InvalidDescription(t *testing.T) {
	e := echo.New()
	repo := testutil.NewMockServiceTokenRepository()
	tokenService := service.NewTokenService(repo)
	handler := NewTokenHandler(tokenService)

	tests := []struct {
		name string
		body string
	}{
		{"Missing description", `{"description": ""}`},
		{"Description too long", fmt.Sprintf(`{"description": "%s"}`, strings.Repeat("x", 256))},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/api/v1/tokens", strings.NewReader(tt.body))
			req.Header.Set("Content-Type", "application/json")
			rec := httptest.NewRecorder()
			c := e.NewContext(req, rec)

			setupOperatorContext(c, "auth0|operator")

			err := handler.Create(c)
			if err != nil {
				t.Fatalf("Expected JSON response, got error: %v", err)
			}

			if rec.Code != http.StatusBadRequest {
				t.Errorf("Expected status 400, got %d", rec.Code)
			}
		})
	}
}

func TestTokenHandler_Create_TokenLimit(t *testing.T) {
	e := echo.New()
	repo := testutil.NewMockServiceTokenRepository()
	tokenService := service.NewTokenService(repo)
	handler := NewTokenHandler(tokenService)

	for i := 0; i < 10; i++ {
		repo.AddToken(&domain.ServiceToken{
			Description: fmt.Sprintf("Token %d", i),
			TokenHash:   fmt.Sprintf("hash-%d", i),
			TokenPrefix: "tly_xxxxxxxx...",
			CreatedBy:   "auth0|operator",
		})
	}

	reqBody := `{"description": "One too many"}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/tokens", strings.NewReader(reqBody))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	setupOperatorContext(c, "auth0|operator")

	err := handler.Create(c)
	if err != nil {
		t.Fatalf("Expected JSON response, got error: %v", err)
	}

	if rec.Code != http.StatusBadRequest {
		t.Errorf("Expected status 400, got %d", rec.Code)
	}

	var problemDetails ProblemDetails
	if err := json.Unmarshal(rec.Body.Bytes(), &problemDetails); err != nil {
		t.Fatalf("Failed to unmarshal response: %v", err)
	}
	if !strings.Contains(problemDetails.Detail, "Maximum number") {
		t.Errorf("Expected the limit to be named, got %s", problemDetails.Detail)
	}
}

func TestTokenHandler_List_Success(t *testing.T) {
	e := echo.New()
	repo := testutil.NewMockServiceTokenRepository()
	tokenService := service.NewTokenService(repo)
	handler := NewTokenHandler(tokenService)

	repo.AddToken(&domain.ServiceToken{
		Description: "Sync pipeline",
		TokenHash:   "hash-1",
		TokenPrefix: "tly_aaaaaaaa...",
		CreatedBy:   "auth0|operator",
	})
	repo.AddToken(&domain.ServiceToken{
		Description: "Archive automation",
		TokenHash:   "hash-2",
		TokenPrefix: "tly_bbbbbbbb...",
		CreatedBy:   "auth0|operator",
	})

	req := httptest.NewRequest(http.MethodGet, "/api/v1/tokens", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	setupOperatorContext(c, "auth0|operator")

	err := handler.List(c)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	if rec.Code != http.StatusOK {
		t.Errorf("Expected status 200, got %d", rec.Code)
	}

	var response []domain.ServiceTokenResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &response); err != nil {
		t.Fatalf("Failed to unmarshal response: %v", err)
	}

	if len(response) != 2 {
		t.Errorf("Expected 2 tokens, got %d", len(response))
	}
}

func TestTokenHandler_Revoke_Success(t *testing.T) {
	e := echo.New()
	repo := testutil.NewMockServiceTokenRepository()
	tokenService := service.NewTokenService(repo)
	handler := NewTokenHandler(tokenService)

	token := &domain.ServiceToken{
		ID:          uuid.New(),
		Description: "Sync pipeline",
		TokenHash:   "hash-1",
		TokenPrefix: "tly_aaaaaaaa...",
		CreatedBy:   "auth0|operator",
	}
	repo.AddToken(token)

	req := httptest.NewRequest(http.MethodDelete, "/api/v1/tokens/"+token.ID.String(), nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetParamNames("id")
	c.SetParamValues(token.ID.String())

	setupOperatorContext(c, "auth0|operator")

	err := handler.Revoke(c)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	if rec.Code != http.StatusNoContent {
		t.Errorf("Expected status 204, got %d", rec.Code)
	}

	revoked, err := repo.GetByID(context.Background(), token.ID)
	if err != nil {
		t.Fatalf("Expected to find the revoked token, got %v", err)
	}
	if revoked.RevokedAt == nil {
		t.Error("Expected the token to be marked revoked")
	}
}

func TestTokenHandler_Revoke_NotFound(t *testing.T) {
	e := echo.New()
	repo := testutil.NewMockServiceTokenRepository()
	tokenService := service.NewTokenService(repo)
	handler := NewTokenHandler(tokenService)

	missingID := uuid.New()

	req := httptest.NewRequest(http.MethodDelete, "/api/v1/tokens/"+missingID.String(), nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetParamNames("id")
	c.SetParamValues(missingID.String())

	setupOperatorContext(c, "auth0|operator")

	err := handler.Revoke(c)
	if err != nil {
		t.Fatalf("Expected JSON response, got error: %v", err)
	}

	if rec.Code != http.StatusNotFound {
		t.Errorf("Expected status 404, got %d", rec.Code)
	}
}

func TestTokenHandler_Revoke_InvalidID(t *testing.T) {
	e := echo.New()
	repo := testutil.NewMockServiceTokenRepository()
	tokenService := service.NewTokenService(repo)
	handler := NewTokenHandler(tokenService)

	req := httptest.NewRequest(http.MethodDelete, "/api/v1/tokens/not-a-uuid", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetParamNames("id")
	c.SetParamValues("not-a-uuid")

	setupOperatorContext(c, "auth0|operator")

	err := handler.Revoke(c)
	if err != nil {
		t.Fatalf("Expected JSON response, got error: %v", err)
	}

	if rec.Code != http.StatusBadRequest {
		t.Errorf("Expected status 400, got %d", rec.Code)
	}
}
