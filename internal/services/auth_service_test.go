package services

import (
	"errors"
	"fmt"
	"testing"

	"almoxarifado_backend/internal/models"
	"almoxarifado_backend/internal/repositories"
)

type fakeAuthRepo struct {
	nextID int64
	users  map[int64]*models.User
}

func newFakeAuthRepo() *fakeAuthRepo {
	return &fakeAuthRepo{nextID: 1, users: map[int64]*models.User{}}
}

func (r *fakeAuthRepo) CreateUser(user *models.User) (int64, error) {
	for _, current := range r.users {
		if current.Username == user.Username {
			return 0, fmt.Errorf("%w: users_username_key", repositories.ErrDuplicateKey)
		}
	}
	user.ID = r.nextID
	r.nextID++
	clone := *user
	r.users[user.ID] = &clone
	return user.ID, nil
}

func (r *fakeAuthRepo) FindUserByUsername(username string) (*models.User, error) {
	for _, user := range r.users {
		if user.Username == username {
			clone := *user
			return &clone, nil
		}
	}
	return nil, repositories.ErrNotFound
}

func (r *fakeAuthRepo) FindUserByID(userID int64) (*models.User, error) {
	user, ok := r.users[userID]
	if !ok {
		return nil, repositories.ErrNotFound
	}
	clone := *user
	return &clone, nil
}

func TestRegisterAndLogin(t *testing.T) {
	repo := newFakeAuthRepo()
	svc := &authService{authRepo: repo}

	user, err := svc.RegisterUser(RegisterUserRequest{Username: "almoxarife", Password: "segredo-forte"})
	if err != nil {
		t.Fatalf("RegisterUser: %v", err)
	}
	if user.PasswordHash == "segredo-forte" {
		t.Fatal("password must not be stored in clear text")
	}

	resp, err := svc.LoginUser(models.Credentials{Username: "almoxarife", Password: "segredo-forte"})
	if err != nil {
		t.Fatalf("LoginUser: %v", err)
	}
	if resp.AccessToken == "" || resp.RefreshToken == "" {
		t.Error("login must issue both tokens")
	}

	if _, err := svc.LoginUser(models.Credentials{Username: "almoxarife", Password: "senha-errada"}); !errors.Is(err, ErrInvalidCredentials) {
		t.Errorf("wrong password err = %v, want ErrInvalidCredentials", err)
	}
	if _, err := svc.LoginUser(models.Credentials{Username: "ninguem", Password: "tanto-faz"}); !errors.Is(err, ErrInvalidCredentials) {
		t.Errorf("unknown user err = %v, want ErrInvalidCredentials", err)
	}
}

func TestRegisterDuplicateUsername(t *testing.T) {
	svc := &authService{authRepo: newFakeAuthRepo()}

	if _, err := svc.RegisterUser(RegisterUserRequest{Username: "almoxarife", Password: "segredo-forte"}); err != nil {
		t.Fatalf("RegisterUser: %v", err)
	}
	_, err := svc.RegisterUser(RegisterUserRequest{Username: "almoxarife", Password: "outro-segredo"})
	if !errors.Is(err, ErrUsernameExists) {
		t.Errorf("err = %v, want ErrUsernameExists", err)
	}
}

func TestLoginInactiveUser(t *testing.T) {
	repo := newFakeAuthRepo()
	svc := &authService{authRepo: repo}

	user, err := svc.RegisterUser(RegisterUserRequest{Username: "desligado", Password: "segredo-forte"})
	if err != nil {
		t.Fatalf("RegisterUser: %v", err)
	}
	repo.users[user.ID].IsActive = false

	if _, err := svc.LoginUser(models.Credentials{Username: "desligado", Password: "segredo-forte"}); !errors.Is(err, ErrUserInactive) {
		t.Errorf("err = %v, want ErrUserInactive", err)
	}
}
