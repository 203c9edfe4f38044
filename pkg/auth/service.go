/*
Package auth issues and validates the JWT bearer tokens the engine accepts
on its RPC endpoint.  Rate limiting is applied at validation time so a flood
of bad tokens cannot monopolize the signing key.
*/
package auth

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/spf13/viper"
)

type Service struct {
	signingKey  []byte
	rateLimiter *RateLimiter
}

func NewService() *Service {
	key := viper.GetString("auth.signingKey")

	if key == "" {
		key = "dev-signing-key"
	}

	return &Service{
		signingKey:  []byte(key),
		rateLimiter: NewRateLimiter(100, time.Minute),
	}
}

func (service *Service) getSigningKey(token *jwt.Token) (any, error) {
	if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
		return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
	}

	return service.signingKey, nil
}

/*
GenerateToken signs a token for subject, valid for ttl.
*/
func (service *Service) GenerateToken(subject string, ttl time.Duration) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": subject,
		"exp": time.Now().Add(ttl).Unix(),
		"iat": time.Now().Unix(),
	})

	return token.SignedString(service.signingKey)
}

/*
ValidateToken parses and verifies a token, returning its subject.
*/
func (service *Service) ValidateToken(tokenStr string) (string, error) {
	if !service.rateLimiter.Allow() {
		return "", fmt.Errorf("rate limit exceeded")
	}

	token, err := jwt.Parse(tokenStr, service.getSigningKey)

	if err != nil {
		return "", fmt.Errorf("invalid token: %w", err)
	}

	if !token.Valid {
		return "", fmt.Errorf("token expired")
	}

	subject, err := token.Claims.GetSubject()

	if err != nil || subject == "" {
		return "", fmt.Errorf("token has no subject")
	}

	return subject, nil
}
