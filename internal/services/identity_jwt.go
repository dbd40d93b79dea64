package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/golang-jwt/jwt/v5"

	"github.com/yungbote/adpersona-backend/internal/domain/auth"
)

var ErrInvalidToken = errors.New("invalid token")

// JWTClaims is the subset of a Supabase access token we read.
type JWTClaims struct {
	Email string `json:"email,omitempty"`
	jwt.RegisteredClaims
}

type jwtResolver struct {
	secret []byte
	parser *jwt.Parser
}

// NewJWTResolver verifies HS256 access tokens locally with the project's JWT secret.
func NewJWTResolver(secret string) (IdentityResolver, error) {
	secret = strings.TrimSpace(secret)
	if secret == "" {
		return nil, fmt.Errorf("missing SUPABASE_JWT_SECRET")
	}
	return &jwtResolver{
		secret: []byte(secret),
		parser: jwt.NewParser(
			jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
			jwt.WithExpirationRequired(),
		),
	}, nil
}

func (r *jwtResolver) Name() string { return "jwt" }

func (r *jwtResolver) Resolve(ctx context.Context, token string) (*auth.Identity, error) {
	claims := &JWTClaims{}
	parsed, err := r.parser.ParseWithClaims(token, claims, func(t *jwt.Token) (interface{}, error) {
		return r.secret, nil
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if !parsed.Valid {
		return nil, ErrInvalidToken
	}
	sub := strings.TrimSpace(claims.Subject)
	if sub == "" {
		return nil, fmt.Errorf("%w: missing sub claim", ErrInvalidToken)
	}
	return &auth.Identity{ID: sub, Email: claims.Email}, nil
}
