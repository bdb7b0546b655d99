package auth

import (
	"context"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"catalog-admin/internal/models"
)

type fakeUsers struct {
	byEmail map[string]*models.AdminUser
}

func newFakeUsers() *fakeUsers {
	return &fakeUsers{byEmail: make(map[string]*models.AdminUser)}
}

func (f *fakeUsers) FindByEmail(_ context.Context, email string) (*models.AdminUser, error) {
	u, ok := f.byEmail[email]
	if !ok {
		return nil, errors.New("admin user not found")
	}
	return u, nil
}

func (f *fakeUsers) Create(_ context.Context, user *models.AdminUser) error {
	f.byEmail[user.Email] = user
	return nil
}

func seedUser(t *testing.T, users *fakeUsers, email, password string) {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	require.NoError(t, err)
	users.byEmail[email] = &models.AdminUser{Email: email, PasswordHash: string(hash)}
}

func TestSignIn(t *testing.T) {
	users := newFakeUsers()
	seedUser(t, users, "admin@example.com", "s3cret")
	svc := NewService(users)
	ctx := context.Background()

	u, err := svc.SignIn(ctx, "admin@example.com", "s3cret")
	require.NoError(t, err)
	assert.Equal(t, "admin@example.com", u.Email)

	_, err = svc.SignIn(ctx, "admin@example.com", "wrong")
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	_, err = svc.SignIn(ctx, "nobody@example.com", "s3cret")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestEnsureAdmin(t *testing.T) {
	users := newFakeUsers()
	svc := NewService(users)
	ctx := context.Background()

	require.NoError(t, svc.EnsureAdmin(ctx, "admin@example.com", "s3cret"))
	require.Contains(t, users.byEmail, "admin@example.com")
	created := users.byEmail["admin@example.com"]

	// idempotent: a second seed does not replace the account
	require.NoError(t, svc.EnsureAdmin(ctx, "admin@example.com", "other"))
	assert.Same(t, created, users.byEmail["admin@example.com"])

	// the seeded hash verifies
	_, err := svc.SignIn(ctx, "admin@example.com", "s3cret")
	assert.NoError(t, err)
}

func TestEnsureAdminDisabled(t *testing.T) {
	users := newFakeUsers()
	svc := NewService(users)

	require.NoError(t, svc.EnsureAdmin(context.Background(), "", ""))
	assert.Empty(t, users.byEmail)
}
