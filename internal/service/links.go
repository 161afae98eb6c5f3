package service

import (
	"fmt"
	"net/url"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/kmenon/spendlens-go/internal/domain"
)

// LinkService mints and verifies signed dashboard links. The bot embeds
// the token in the URL it hands to the user; the dashboard exchanges it
// for the user id without a separate login.
type LinkService struct {
	secret  []byte
	ttl     time.Duration
	baseURL string
}

func NewLinkService(secret string, ttl time.Duration, baseURL string) *LinkService {
	return &LinkService{secret: []byte(secret), ttl: ttl, baseURL: baseURL}
}

// IssueLink returns a dashboard URL carrying a short-lived token for the
// user.
func (l *LinkService) IssueLink(userID string) (string, error) {
	if userID == "" {
		return "", &domain.ErrValidation{Field: "user_id", Message: "required"}
	}

	now := time.Now()
	claims := jwt.RegisteredClaims{
		Subject:   userID,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(l.ttl)),
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(l.secret)
	if err != nil {
		return "", fmt.Errorf("signing link token: %w", err)
	}
	return fmt.Sprintf("%s/?token=%s", l.baseURL, url.QueryEscape(token)), nil
}

// ResolveToken verifies a link token and returns the user id it was
// issued for.
func (l *LinkService) ResolveToken(token string) (string, error) {
	parsed, err := jwt.ParseWithClaims(token, &jwt.RegisteredClaims{}, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return l.secret, nil
	})
	if err != nil || !parsed.Valid {
		return "", &domain.ErrUnauthorized{Message: "invalid or expired link token"}
	}
	claims, ok := parsed.Claims.(*jwt.RegisteredClaims)
	if !ok || claims.Subject == "" {
		return "", &domain.ErrUnauthorized{Message: "invalid or expired link token"}
	}
	return claims.Subject, nil
}
