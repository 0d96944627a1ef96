package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fintrack_backend/models"
)

type fakeUserStore struct {
	users  map[string]*models.User
	nextID uint
}

func newFakeUserStore() *fakeUserStore {
	return &fakeUserStore{users: make(map[string]*models.User), nextID: 1}
}

func (f *fakeUserStore) Create(_ context.Context, user *models.User) error {
	user.ID = f.nextID
	f.nextID++
	cp := *user
	f.users[user.Email] = &cp
	return nil
}

func (f *fakeUserStore) ByEmail(_ context.Context, email string) (*models.User, error) {
	u, ok := f.users[email]
	if !ok {
		return nil, nil
	}
	cp := *u
	return &cp, nil
}

func (f *fakeUserStore) ByID(_ context.Context, id uint) (*models.User, error) {
	for _, u := range f.users {
		if u.ID == id {
			cp := *u
			return &cp, nil
		}
	}
	return nil, ErrNotFound
}

func TestRegisterAndLogin(t *testing.T) {
	svc := NewAuthService(newFakeUserStore(), "test-secret")
	ctx := context.Background()

	result, err := svc.Register(ctx, RegisterInput{
		Email:    "Jan@Example.com",
		Password: "correct horse",
		Name:     "Jan",
	})
	require.NoError(t, err)
	assert.NotEmpty(t, result.Token)
	// Email is normalized on the way in.
	assert.Equal(t, "jan@example.com", result.User.Email)
	assert.NotEqual(t, "correct horse", result.User.PasswordHash)

	login, err := svc.Login(ctx, LoginInput{Email: "jan@example.com", Password: "correct horse"})
	require.NoError(t, err)
	assert.Equal(t, result.User.ID, login.User.ID)

	userID, err := svc.ParseUserID(login.Token)
	require.NoError(t, err)
	assert.Equal(t, result.User.ID, userID)
}

func TestRegisterDuplicateEmail(t *testing.T) {
	svc := NewAuthService(newFakeUserStore(), "test-secret")
	ctx := context.Background()

	input := RegisterInput{Email: "jan@example.com", Password: "correct horse", Name: "Jan"}
	_, err := svc.Register(ctx, input)
	require.NoError(t, err)

	_, err = svc.Register(ctx, input)
	assert.ErrorIs(t, err, ErrEmailTaken)
}

func TestLoginRejectsBadCredentials(t *testing.T) {
	svc := NewAuthService(newFakeUserStore(), "test-secret")
	ctx := context.Background()

	_, err := svc.Register(ctx, RegisterInput{Email: "jan@example.com", Password: "correct horse", Name: "Jan"})
	require.NoError(t, err)

	_, err = svc.Login(ctx, LoginInput{Email: "jan@example.com", Password: "wrong"})
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	_, err = svc.Login(ctx, LoginInput{Email: "nobody@example.com", Password: "correct horse"})
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestParseUserIDRejectsForgedToken(t *testing.T) {
	svc := NewAuthService(newFakeUserStore(), "test-secret")
	other := NewAuthService(newFakeUserStore(), "other-secret")
	ctx := context.Background()

	result, err := other.Register(ctx, RegisterInput{Email: "jan@example.com", Password: "correct horse", Name: "Jan"})
	require.NoError(t, err)

	_, err = svc.ParseUserID(result.Token)
	assert.Error(t, err)

	_, err = svc.ParseUserID("not-a-token")
	assert.Error(t, err)
}
