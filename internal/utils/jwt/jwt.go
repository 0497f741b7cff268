package jwt

import (
	"errors"
	"fmt"
	"time"

	gojwt "github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/princekumarofficial/journal-service/internal/types"
)

type TokenType string

const (
	AccessToken  TokenType = "access"
	RefreshToken TokenType = "refresh"
)

var (
	ErrInvalidToken = errors.New("invalid token")
	ErrExpiredToken = errors.New("token has expired")
	ErrWrongType    = errors.New("wrong token type")
)

// Claims carries the user id in sub, a unique id in jti and the token type.
type Claims struct {
	Type TokenType `json:"type"`
	gojwt.RegisteredClaims
}

// UserID parses the subject claim.
func (c *Claims) UserID() (types.EntityID, error) {
	return types.ParseEntityID(c.Subject)
}

// CreateToken signs a token of the given type for userID. It returns the
// token and its jti.
func CreateToken(userID types.EntityID, tokenType TokenType, secret string, ttl time.Duration) (string, string, error) {
	now := time.Now()
	jti := uuid.NewString()

	claims := Claims{
		Type: tokenType,
		RegisteredClaims: gojwt.RegisteredClaims{
			ID:        jti,
			Subject:   userID.String(),
			IssuedAt:  gojwt.NewNumericDate(now),
			ExpiresAt: gojwt.NewNumericDate(now.Add(ttl)),
		},
	}

	token, err := gojwt.NewWithClaims(gojwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	if err != nil {
		return "", "", fmt.Errorf("failed to sign token: %w", err)
	}
	return token, jti, nil
}

// ParseToken verifies the signature, expiry and type of tokenString.
func ParseToken(tokenString string, tokenType TokenType, secret string) (*Claims, error) {
	claims := &Claims{}
	_, err := gojwt.ParseWithClaims(tokenString, claims, func(*gojwt.Token) (interface{}, error) {
		return []byte(secret), nil
	}, gojwt.WithValidMethods([]string{gojwt.SigningMethodHS256.Alg()}))
	if errors.Is(err, gojwt.ErrTokenExpired) {
		return nil, ErrExpiredToken
	}
	if err != nil {
		return nil, ErrInvalidToken
	}

	if claims.Type != tokenType {
		return nil, ErrWrongType
	}
	if claims.ID == "" {
		return nil, ErrInvalidToken
	}
	return claims, nil
}

// ExtractUserIDFromToken returns the user id of a valid access token.
func ExtractUserIDFromToken(tokenString, secret string) (types.EntityID, error) {
	claims, err := ParseToken(tokenString, AccessToken, secret)
	if err != nil {
		return types.NilID, err
	}

	userID, err := claims.UserID()
	if err != nil {
		return types.NilID, ErrInvalidToken
	}
	return userID, nil
}
