package database

import (
	"context"
	"database/sql/driver"
	"testing"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"golang.org/x/crypto/bcrypt"

	"civicwatch/models"
)

// bcryptHashOf matches any stored value that is a bcrypt hash of the
// given plaintext password
type bcryptHashOf string

func (p bcryptHashOf) Match(v driver.Value) bool {
	s, ok := v.(string)
	if !ok {
		return false
	}
	return bcrypt.CompareHashAndPassword([]byte(s), []byte(p)) == nil
}

func TestLoginAndValidateToken(t *testing.T) {
	it(func() {
		hash, err := bcrypt.GenerateFromPassword([]byte("hunter22"), bcrypt.MinCost)
		if err != nil {
			t.Fatalf("failed to hash test password: %v", err)
		}

		mock.ExpectQuery("SELECT id, email, password_hash, role FROM users WHERE email = (.+)").
			WithArgs("official@city.gov").
			WillReturnRows(sqlmock.NewRows([]string{"id", "email", "password_hash", "role"}).
				AddRow(5, "official@city.gov", string(hash), "government"))

		s := NewAuthService(db, "test-secret")
		token, err := s.Login(context.Background(), &models.LoginRequest{
			Email:    "official@city.gov",
			Password: "hunter22",
		})
		if err != nil {
			t.Fatalf("unexpected login error: %v", err)
		}

		userID, role, err := s.ValidateToken(token)
		if err != nil {
			t.Fatalf("token failed validation: %v", err)
		}
		if userID != "5" || role != "government" {
			t.Errorf("expected claims (5, government), got (%s, %s)", userID, role)
		}
	})
}

func TestLoginWrongPassword(t *testing.T) {
	it(func() {
		hash, _ := bcrypt.GenerateFromPassword([]byte("hunter22"), bcrypt.MinCost)

		mock.ExpectQuery("SELECT id, email, password_hash, role FROM users WHERE email = (.+)").
			WithArgs("official@city.gov").
			WillReturnRows(sqlmock.NewRows([]string{"id", "email", "password_hash", "role"}).
				AddRow(5, "official@city.gov", string(hash), "government"))

		s := NewAuthService(db, "test-secret")
		if _, err := s.Login(context.Background(), &models.LoginRequest{
			Email:    "official@city.gov",
			Password: "wrong",
		}); err != ErrInvalidCredentials {
			t.Errorf("expected ErrInvalidCredentials, got %v", err)
		}
	})
}

func TestLoginUnknownEmail(t *testing.T) {
	it(func() {
		mock.ExpectQuery("SELECT id, email, password_hash, role FROM users WHERE email = (.+)").
			WithArgs("nobody@example.com").
			WillReturnRows(sqlmock.NewRows([]string{"id", "email", "password_hash", "role"}))

		s := NewAuthService(db, "test-secret")
		if _, err := s.Login(context.Background(), &models.LoginRequest{
			Email:    "nobody@example.com",
			Password: "whatever",
		}); err != ErrInvalidCredentials {
			t.Errorf("expected ErrInvalidCredentials, got %v", err)
		}
	})
}

func TestCreateUserStoresBcryptHash(t *testing.T) {
	it(func() {
		mock.ExpectExec("INSERT INTO users (.+) VALUES (.+)").
			WithArgs("Admin", "admin@city.gov", bcryptHashOf("hunter22"), "admin").
			WillReturnResult(sqlmock.NewResult(1, 1))

		s := NewAuthService(db, "test-secret")
		if err := s.CreateUser(context.Background(), "Admin", "admin@city.gov", "hunter22", "admin"); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if err := mock.ExpectationsWereMet(); err != nil {
			t.Errorf("unmet expectations: %v", err)
		}
	})
}

func TestValidateTokenRejectsGarbage(t *testing.T) {
	it(func() {
		s := NewAuthService(db, "test-secret")
		if _, _, err := s.ValidateToken("not-a-token"); err == nil {
			t.Error("expected an error for a malformed token")
		}
	})
}
