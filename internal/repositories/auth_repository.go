package repositories

import (
	"database/sql"
	"errors"
	"fmt"

	"almoxarifado_backend/internal/models"
)

// AuthRepository stores warehouse application accounts.
type AuthRepository interface {
	CreateUser(user *models.User) (int64, error)
	FindUserByUsername(username string) (*models.User, error)
	FindUserByID(userID int64) (*models.User, error)
}

type authRepository struct {
	db *sql.DB
}

// NewAuthRepository creates a new instance of AuthRepository.
func NewAuthRepository(db *sql.DB) AuthRepository {
	return &authRepository{db: db}
}

func (r *authRepository) CreateUser(user *models.User) (int64, error) {
	query := `INSERT INTO users (username, password_hash, email, full_name, is_active)
	          VALUES ($1, $2, $3, $4, $5)
	          RETURNING id, created_at`
	err := r.db.QueryRow(query, user.Username, user.PasswordHash,
		user.Email, user.FullName, user.IsActive).Scan(&user.ID, &user.CreatedAt)
	if err != nil {
		return 0, mapWriteError(err, "creating user")
	}
	return user.ID, nil
}

func (r *authRepository) FindUserByUsername(username string) (*models.User, error) {
	user := &models.User{}
	err := r.db.QueryRow(
		`SELECT id, username, password_hash, email, full_name, is_active, created_at
		   FROM users
		  WHERE username = $1`, username).
		Scan(&user.ID, &user.Username, &user.PasswordHash,
			&user.Email, &user.FullName, &user.IsActive, &user.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("%w: finding user %q: %v", ErrDatabaseError, username, err)
	}
	return user, nil
}

func (r *authRepository) FindUserByID(userID int64) (*models.User, error) {
	user := &models.User{}
	err := r.db.QueryRow(
		`SELECT id, username, password_hash, email, full_name, is_active, created_at
		   FROM users
		  WHERE id = $1`, userID).
		Scan(&user.ID, &user.Username, &user.PasswordHash,
			&user.Email, &user.FullName, &user.IsActive, &user.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("%w: finding user %d: %v", ErrDatabaseError, userID, err)
	}
	return user, nil
}
