package admin

import (
	"database/sql"
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/lib/pq"
	"golang.org/x/crypto/bcrypt"

	"github.com/seastrike/seastrike-backend/db"
	"github.com/seastrike/seastrike-backend/internal/apperr"
	"github.com/seastrike/seastrike-backend/internal/room"
)

// PermSuperadmin lets an admin act on any room, not just their own.
const PermSuperadmin = "superadmin"

const tokenTTL = 24 * time.Hour

type Service struct {
	db        *sql.DB
	jwtSecret string
}

func NewService(conn *sql.DB, jwtSecret string) *Service {
	return &Service{db: conn, jwtSecret: jwtSecret}
}

func (s *Service) account(username string) (db.AdminAccount, error) {
	var acc db.AdminAccount
	err := s.db.QueryRow(`
		SELECT username, password, display_name, permissions, active
		FROM admins
		WHERE username = $1
	`, username).Scan(&acc.Username, &acc.Password, &acc.DisplayName, pq.Array(&acc.Permissions), &acc.Active)
	if errors.Is(err, sql.ErrNoRows) {
		return db.AdminAccount{}, apperr.Authorization("invalid credentials")
	}
	if err != nil {
		return db.AdminAccount{}, err
	}
	return acc, nil
}

// Login verifies the credential against the single hashed-password store
// and issues a session token. Deactivated accounts fail identically to
// bad passwords.
func (s *Service) Login(username, password string) (string, error) {
	acc, err := s.account(username)
	if err != nil {
		return "", err
	}
	if !acc.Active {
		return "", apperr.Authorization("invalid credentials")
	}
	if err := bcrypt.CompareHashAndPassword([]byte(acc.Password), []byte(password)); err != nil {
		return "", apperr.Authorization("invalid credentials")
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub":   acc.Username,
		"perms": acc.Permissions,
		"exp":   time.Now().Add(tokenTTL).Unix(),
	})
	signed, err := token.SignedString([]byte(s.jwtSecret))
	if err != nil {
		return "", err
	}
	return signed, nil
}

// Register creates an admin account with a bcrypt-hashed password.
// Restricted to superadmins at the handler layer.
func (s *Service) Register(username, password, displayName string, permissions []string) error {
	if username == "" || password == "" {
		return apperr.Validation("username and password cannot be empty")
	}
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	if permissions == nil {
		permissions = []string{}
	}
	_, err = s.db.Exec(`
		INSERT INTO admins (username, password, display_name, permissions, active)
		VALUES ($1, $2, $3, $4, TRUE)
	`, username, string(hashed), displayName, pq.Array(permissions))
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == "23505" {
			return apperr.Conflict("admin %s already exists", username)
		}
		return err
	}
	return nil
}

// VerifyToken validates a session token and re-checks the account is
// still active, so deactivation takes effect before the token expires.
func (s *Service) VerifyToken(tokenString string) (room.AdminIdentity, error) {
	token, err := jwt.Parse(tokenString, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, apperr.Authorization("unexpected signing method")
		}
		return []byte(s.jwtSecret), nil
	})
	if err != nil || !token.Valid {
		return room.AdminIdentity{}, apperr.Authorization("invalid or expired token")
	}
	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return room.AdminIdentity{}, apperr.Authorization("invalid token claims")
	}
	username, _ := claims["sub"].(string)
	if username == "" {
		return room.AdminIdentity{}, apperr.Authorization("invalid token claims")
	}

	acc, err := s.account(username)
	if err != nil {
		return room.AdminIdentity{}, err
	}
	if !acc.Active {
		return room.AdminIdentity{}, apperr.Authorization("account deactivated")
	}

	id := room.AdminIdentity{Username: acc.Username}
	for _, p := range acc.Permissions {
		if p == PermSuperadmin {
			id.Super = true
		}
	}
	return id, nil
}
