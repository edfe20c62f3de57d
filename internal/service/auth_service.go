package service

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"watchtogether/internal/model"
)

var ErrInvalidToken = errors.New("invalid or expired token")

// AuthService issues and validates room-scoped creator tokens. The token is
// handed out once, at room creation, and is the only credential that proves
// a connection belongs to the room's creator.
type AuthService struct {
	jwtSecret []byte
}

// NewAuthService creates a new auth service
func NewAuthService(jwtSecret string) *AuthService {
	return &AuthService{jwtSecret: []byte(jwtSecret)}
}

// GenerateCreatorToken creates a room-scoped token for the room's creator.
// Expiry matches the room cache TTL.
func (s *AuthService) GenerateCreatorToken(roomCode, username string) (string, error) {
	claims := &model.CreatorClaims{
		RoomCode: roomCode,
		Username: username,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(24 * time.Hour)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(s.jwtSecret)
}

// ValidateCreatorToken validates a creator JWT and returns its claims.
func (s *AuthService) ValidateCreatorToken(tokenString string) (*model.CreatorClaims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &model.CreatorClaims{}, func(token *jwt.Token) (interface{}, error) {
		return s.jwtSecret, nil
	})
	if err != nil {
		return nil, ErrInvalidToken
	}

	claims, ok := token.Claims.(*model.CreatorClaims)
	if !ok || !token.Valid {
		return nil, ErrInvalidToken
	}

	return claims, nil
}
