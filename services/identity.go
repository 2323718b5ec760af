package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"virtualwardrobe/apperrors"
	"virtualwardrobe/models"

	"firebase.google.com/go/v4/auth"
	"github.com/golang-jwt/jwt/v4"
	"google.golang.org/api/idtoken"
)

const refreshTokenType = "refresh"

// Identity is the authenticated caller.
type Identity struct {
	UserID string
	Email  string
}

// IdentityProvider verifies a bearer token. It fails closed: any problem with
// the token is an authorization error.
type IdentityProvider interface {
	Verify(ctx context.Context, token string) (*Identity, error)
}

// ExternalUserResolver maps a subject at an external identity provider to a
// local account.
type ExternalUserResolver interface {
	FindOrCreateExternal(ctx context.Context, provider models.AuthProvider, subject, email string) (*models.UserAccount, error)
}

type tokenClaims struct {
	Type  string `json:"typ,omitempty"`
	Email string `json:"email,omitempty"`
	jwt.RegisteredClaims
}

// TokenIssuer signs HS256 access and refresh tokens.
type TokenIssuer struct {
	secret     []byte
	accessTTL  time.Duration
	refreshTTL time.Duration
}

func NewTokenIssuer(secret string, accessTTL, refreshTTL time.Duration) *TokenIssuer {
	return &TokenIssuer{secret: []byte(secret), accessTTL: accessTTL, refreshTTL: refreshTTL}
}

func (t *TokenIssuer) sign(userID, email, tokenType string, ttl time.Duration) (string, error) {
	now := time.Now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, tokenClaims{
		Type:  tokenType,
		Email: email,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	})
	return token.SignedString(t.secret)
}

func (t *TokenIssuer) Issue(user *models.UserAccount) (*models.TokenPairOut, error) {
	access, err := t.sign(user.ID, user.Email, "", t.accessTTL)
	if err != nil {
		return nil, fmt.Errorf("sign access token: %w", err)
	}
	refresh, err := t.sign(user.ID, user.Email, refreshTokenType, t.refreshTTL)
	if err != nil {
		return nil, fmt.Errorf("sign refresh token: %w", err)
	}
	return &models.TokenPairOut{Token: access, RefreshToken: refresh}, nil
}

func (t *TokenIssuer) parse(raw string) (*tokenClaims, error) {
	claims := &tokenClaims{}
	_, err := jwt.ParseWithClaims(raw, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", token.Header["alg"])
		}
		return t.secret, nil
	})
	if err != nil {
		return nil, err
	}
	if claims.Subject == "" {
		return nil, errors.New("token has no subject")
	}
	return claims, nil
}

// ParseRefresh returns the user id a refresh token was issued to.
func (t *TokenIssuer) ParseRefresh(raw string) (string, error) {
	claims, err := t.parse(raw)
	if err != nil {
		return "", apperrors.Unauthenticated("invalid refresh token", err)
	}
	if claims.Type != refreshTokenType {
		return "", apperrors.Unauthenticated("invalid refresh token", errors.New("not a refresh token"))
	}
	return claims.Subject, nil
}

// JWTIdentityProvider accepts the access tokens issued by TokenIssuer.
type JWTIdentityProvider struct {
	Issuer *TokenIssuer
}

func (p *JWTIdentityProvider) Verify(ctx context.Context, token string) (*Identity, error) {
	claims, err := p.Issuer.parse(token)
	if err != nil {
		return nil, apperrors.Unauthenticated("invalid or expired token", err)
	}
	if claims.Type == refreshTokenType {
		return nil, apperrors.Unauthenticated("invalid or expired token", errors.New("refresh token used as access token"))
	}
	return &Identity{UserID: claims.Subject, Email: claims.Email}, nil
}

type FirebaseTokenVerifier interface {
	VerifyIDToken(ctx context.Context, idToken string) (*auth.Token, error)
}

// FirebaseIdentityProvider accepts Firebase ID tokens.
type FirebaseIdentityProvider struct {
	Verifier FirebaseTokenVerifier
	Users    ExternalUserResolver
}

func (p *FirebaseIdentityProvider) Verify(ctx context.Context, token string) (*Identity, error) {
	decoded, err := p.Verifier.VerifyIDToken(ctx, token)
	if err != nil {
		return nil, apperrors.Unauthenticated("invalid or expired token", err)
	}
	email, _ := decoded.Claims["email"].(string)
	user, err := p.Users.FindOrCreateExternal(ctx, models.ProviderFirebase, decoded.UID, email)
	if err != nil {
		return nil, apperrors.Internal("failed to resolve user", err)
	}
	return &Identity{UserID: user.ID, Email: user.Email}, nil
}

type GoogleTokenValidator func(ctx context.Context, idToken string, audience string) (*idtoken.Payload, error)

// GoogleIdentityProvider accepts Google ID tokens minted for Audience.
type GoogleIdentityProvider struct {
	Audience string
	Validate GoogleTokenValidator
	Users    ExternalUserResolver
}

func NewGoogleIdentityProvider(audience string, users ExternalUserResolver) *GoogleIdentityProvider {
	return &GoogleIdentityProvider{Audience: audience, Validate: idtoken.Validate, Users: users}
}

func (p *GoogleIdentityProvider) Verify(ctx context.Context, token string) (*Identity, error) {
	payload, err := p.Validate(ctx, token, p.Audience)
	if err != nil {
		return nil, apperrors.Unauthenticated("invalid or expired token", err)
	}
	email, _ := payload.Claims["email"].(string)
	user, err := p.Users.FindOrCreateExternal(ctx, models.ProviderGoogle, payload.Subject, email)
	if err != nil {
		return nil, apperrors.Internal("failed to resolve user", err)
	}
	return &Identity{UserID: user.ID, Email: user.Email}, nil
}
