package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"habitos/internal/domain"
)

func testUser() domain.User {
	return domain.User{ID: "u1", Email: "user@example.com", DisplayName: "Ana"}
}

func TestJWTService_GenerateParseAccess(t *testing.T) {
	svc := NewJWTService("secret", 15*time.Minute, 30*time.Minute, nil)

	pair, err := svc.GeneratePair(context.Background(), testUser())
	if err != nil {
		t.Fatalf("generate pair: %v", err)
	}
	if pair.AccessToken == "" || pair.RefreshToken == "" || pair.ExpiresIn != 900 {
		t.Fatalf("unexpected pair %+v", pair)
	}

	claims, err := svc.ParseAccessToken(pair.AccessToken)
	if err != nil {
		t.Fatalf("parse access: %v", err)
	}
	if claims.UserID != "u1" || claims.Email != "user@example.com" || claims.DisplayName != "Ana" {
		t.Fatalf("unexpected claims: %+v", claims)
	}
	if _, err := svc.ParseAccessToken(pair.RefreshToken); !errors.Is(err, ErrJWTInvalid) {
		t.Fatalf("expected refresh token to be rejected as access, got %v", err)
	}
}

func TestJWTService_RefreshRotation(t *testing.T) {
	ctx := context.Background()
	svc := NewJWTService("secret", 15*time.Minute, 30*time.Minute, NewMemoryRefreshTokenStore())

	pair, err := svc.GeneratePair(ctx, testUser())
	if err != nil {
		t.Fatalf("generate pair: %v", err)
	}
	refreshed, err := svc.RefreshPair(ctx, pair.RefreshToken)
	if err != nil {
		t.Fatalf("refresh pair: %v", err)
	}
	claims, err := svc.ParseAccessToken(refreshed.AccessToken)
	if err != nil || claims.DisplayName != "Ana" {
		t.Fatalf("expected refreshed claims to carry profile, got %+v err=%v", claims, err)
	}
	if _, err := svc.RefreshPair(ctx, pair.RefreshToken); !errors.Is(err, ErrJWTInvalid) {
		t.Fatalf("expected old refresh token to be consumed, got %v", err)
	}
	if _, err := svc.RefreshPair(ctx, refreshed.RefreshToken); err != nil {
		t.Fatalf("expected new refresh token to work, got %v", err)
	}
}

func TestJWTService_RevokeRefresh(t *testing.T) {
	ctx := context.Background()
	svc := NewJWTService("secret", 15*time.Minute, 30*time.Minute, nil)
	pair, err := svc.GeneratePair(ctx, testUser())
	if err != nil {
		t.Fatalf("generate pair: %v", err)
	}
	if err := svc.RevokeRefresh(ctx, pair.RefreshToken); err != nil {
		t.Fatalf("revoke refresh: %v", err)
	}
	if _, err := svc.RefreshPair(ctx, pair.RefreshToken); err == nil {
		t.Fatalf("expected refresh to fail after revoke")
	}
}

func TestJWTService_Rejections(t *testing.T) {
	ctx := context.Background()
	now := time.Now().UTC()

	sign := func(claims Claims) string {
		token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
		signed, err := token.SignedString([]byte("secret"))
		if err != nil {
			t.Fatalf("sign token: %v", err)
		}
		return signed
	}
	registered := func(issuer, subject string, exp time.Time) jwt.RegisteredClaims {
		return jwt.RegisteredClaims{
			Issuer:    issuer,
			Subject:   subject,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(exp),
		}
	}

	tests := []struct {
		name    string
		token   string
		wantErr error
	}{
		{
			name:    "wrong issuer",
			token:   sign(Claims{UserID: "u1", TokenType: "access", RegisteredClaims: registered("other", "u1", now.Add(time.Minute))}),
			wantErr: ErrJWTInvalid,
		},
		{
			name:    "subject mismatch",
			token:   sign(Claims{UserID: "u1", TokenType: "access", RegisteredClaims: registered(jwtIssuer, "u2", now.Add(time.Minute))}),
			wantErr: ErrJWTInvalid,
		},
		{
			name:    "expired",
			token:   sign(Claims{UserID: "u1", TokenType: "access", RegisteredClaims: registered(jwtIssuer, "u1", now.Add(-time.Minute))}),
			wantErr: ErrJWTExpired,
		},
		{name: "garbage", token: "not-a-jwt", wantErr: ErrJWTInvalid},
		{name: "empty", token: "  ", wantErr: ErrJWTInvalid},
	}

	svc := NewJWTService("secret", 15*time.Minute, 30*time.Minute, nil)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := svc.ParseAccessToken(tt.token); !errors.Is(err, tt.wantErr) {
				t.Fatalf("expected %v, got %v", tt.wantErr, err)
			}
		})
	}

	t.Run("empty secret", func(t *testing.T) {
		empty := NewJWTService("", 15*time.Minute, 30*time.Minute, nil)
		if _, err := empty.GeneratePair(ctx, testUser()); !errors.Is(err, ErrJWTInvalid) {
			t.Fatalf("expected ErrJWTInvalid on empty secret, got %v", err)
		}
	})

	t.Run("access token in refresh flow", func(t *testing.T) {
		pair, err := svc.GeneratePair(ctx, testUser())
		if err != nil {
			t.Fatalf("generate pair: %v", err)
		}
		if _, err := svc.RefreshPair(ctx, pair.AccessToken); !errors.Is(err, ErrJWTInvalid) {
			t.Fatalf("expected ErrJWTInvalid, got %v", err)
		}
	})
}
