package auth

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"

	"github.com/ukydev/opsboard/internal/models"
)

var (
	ErrInvalidToken       = errors.New("invalid token")
	ErrExpiredToken       = errors.New("token expired")
	ErrInvalidCredentials = errors.New("invalid credentials")
)

const (
	issuer            = "opsboard"
	tokenTypeAccess   = "access"
	tokenTypeRefresh  = "refresh"
	refreshMultiplier = 7
)

// tokenClaims is the JWT payload for both access and refresh tokens.
type tokenClaims struct {
	Username   string      `json:"username,omitempty"`
	Role       models.Role `json:"role,omitempty"`
	EmployeeID string      `json:"employee_id,omitempty"`
	Type       string      `json:"typ"`
	jwt.RegisteredClaims
}

// Service handles authentication operations
type Service struct {
	jwtSecret []byte
	tokenExp  time.Duration
	now       func() time.Time
}

// NewService creates an authentication service. Refresh tokens live
// seven times as long as access tokens.
func NewService(secret string, expiry time.Duration) *Service {
	if secret == "" {
		secret = "default-secret-key-change-in-production"
	}
	if expiry <= 0 {
		expiry = 24 * time.Hour
	}
	return &Service{jwtSecret: []byte(secret), tokenExp: expiry, now: time.Now}
}

// HashPassword hashes a password using bcrypt
func (s *Service) HashPassword(password string) (string, error) {
	bytes, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("failed to hash password: %w", err)
	}
	return string(bytes), nil
}

// CheckPassword checks if a password matches a hash
func (s *Service) CheckPassword(password, hash string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}

func (s *Service) sign(subject string, c tokenClaims, ttl time.Duration) (string, error) {
	now := s.now()
	c.RegisteredClaims = jwt.RegisteredClaims{
		Issuer:    issuer,
		Subject:   subject,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, c).SignedString(s.jwtSecret)
}

// GenerateToken generates an access token for a user
func (s *Service) GenerateToken(user *models.User) (string, error) {
	return s.sign(user.ID.Hex(), tokenClaims{
		Username:   user.Username,
		Role:       user.Role,
		EmployeeID: user.EmployeeID,
		Type:       tokenTypeAccess,
	}, s.tokenExp)
}

// GenerateRefreshToken generates a refresh token for a user. It carries no
// role so a role change takes effect on the next refresh.
func (s *Service) GenerateRefreshToken(user *models.User) (string, error) {
	return s.sign(user.ID.Hex(), tokenClaims{Type: tokenTypeRefresh}, s.tokenExp*refreshMultiplier)
}

func (s *Service) parse(tokenString, wantType string) (*tokenClaims, error) {
	var c tokenClaims
	token, err := jwt.ParseWithClaims(tokenString, &c, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return s.jwtSecret, nil
	}, jwt.WithIssuer(issuer), jwt.WithTimeFunc(s.now))
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrExpiredToken
		}
		return nil, ErrInvalidToken
	}
	if !token.Valid || c.Type != wantType || c.Subject == "" || c.ExpiresAt == nil {
		return nil, ErrInvalidToken
	}
	return &c, nil
}

// ValidateToken validates an access token and returns the claims
func (s *Service) ValidateToken(tokenString string) (*models.Claims, error) {
	c, err := s.parse(tokenString, tokenTypeAccess)
	if err != nil {
		return nil, err
	}
	if c.Username == "" || c.Role == "" {
		return nil, ErrInvalidToken
	}
	return &models.Claims{
		UserID:     c.Subject,
		Username:   c.Username,
		Role:       c.Role,
		EmployeeID: c.EmployeeID,
		Exp:        c.ExpiresAt.Unix(),
	}, nil
}

// ValidateRefreshToken validates a refresh token and returns the user id
func (s *Service) ValidateRefreshToken(tokenString string) (string, error) {
	c, err := s.parse(tokenString, tokenTypeRefresh)
	if err != nil {
		return "", err
	}
	return c.Subject, nil
}

// ExtractTokenFromHeader extracts token from Authorization header
func (s *Service) ExtractTokenFromHeader(authHeader string) (string, error) {
	parts := strings.Split(authHeader, " ")
	if len(parts) != 2 || parts[0] != "Bearer" || parts[1] == "" {
		return "", ErrInvalidToken
	}
	return parts[1], nil
}
