package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/apex/log"
	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"

	"civicwatch/models"
)

// ErrInvalidCredentials is returned for unknown emails and wrong passwords
// alike, so login responses don't reveal which one it was.
var ErrInvalidCredentials = errors.New("invalid credentials")

// AuthService handles password login and JWT issuance/validation
type AuthService struct {
	db        *sql.DB
	jwtSecret []byte
}

func NewAuthService(db *sql.DB, jwtSecret string) *AuthService {
	return &AuthService{
		db:        db,
		jwtSecret: []byte(jwtSecret),
	}
}

// Login authenticates by email/password and returns a signed token
func (s *AuthService) Login(ctx context.Context, req *models.LoginRequest) (string, error) {
	row := s.db.QueryRowContext(ctx, `SELECT id, email, password_hash, role
		FROM users
		WHERE email = ?`, req.Email)

	var user models.User
	err := row.Scan(&user.ID, &user.Email, &user.PasswordHash, &user.Role)
	if err == sql.ErrNoRows {
		return "", ErrInvalidCredentials
	}
	if err != nil {
		log.Errorf("Failed to look up user %s: %v", req.Email, err)
		return "", err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		return "", ErrInvalidCredentials
	}

	return s.generateToken(&user)
}

// CreateUser registers a new account with a bcrypt password hash
func (s *AuthService) CreateUser(ctx context.Context, name, email, password, role string) error {
	passwordHash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `INSERT
		INTO users (name, email, password_hash, role)
		VALUES (?, ?, ?, ?)`,
		name, email, string(passwordHash), role)
	if err != nil {
		log.Errorf("Failed to create user %s: %v", email, err)
		return err
	}
	return nil
}

// ValidateToken verifies a token and returns the user id and role claims
func (s *AuthService) ValidateToken(tokenString string) (string, string, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return s.jwtSecret, nil
	})
	if err != nil {
		return "", "", fmt.Errorf("invalid token: %w", err)
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok || !token.Valid {
		return "", "", fmt.Errorf("invalid token claims")
	}

	sub, ok := claims["sub"].(string)
	if !ok {
		return "", "", fmt.Errorf("missing sub claim")
	}
	role, ok := claims["role"].(string)
	if !ok {
		return "", "", fmt.Errorf("missing role claim")
	}
	return sub, role, nil
}

func (s *AuthService) generateToken(user *models.User) (string, error) {
	now := time.Now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub":   fmt.Sprintf("%d", user.ID),
		"email": user.Email,
		"role":  user.Role,
		"iat":   now.Unix(),
		"exp":   now.Add(24 * time.Hour).Unix(),
	})

	tokenString, err := token.SignedString(s.jwtSecret)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return tokenString, nil
}
