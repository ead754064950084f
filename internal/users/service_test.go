package users

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/crustline/crustline/internal/shared"
)

type mockProfiles struct {
	user       *User
	lastParams UpdateParams
}

func (m *mockProfiles) Get(ctx context.Context, id int64) (*User, error) {
	if m.user == nil || m.user.ID != id {
		return nil, shared.ErrNotFound
	}
	return m.user, nil
}

func (m *mockProfiles) Update(ctx context.Context, id int64, params UpdateParams) (*User, error) {
	if m.user == nil || m.user.ID != id {
		return nil, shared.ErrNotFound
	}
	m.lastParams = params
	updated := *m.user
	if params.Name != nil {
		updated.Name = *params.Name
	}
	if params.Email != nil {
		updated.Email = *params.Email
	}
	m.user = &updated
	return &updated, nil
}

func stringPtr(s string) *string { return &s }

func TestUpdateNameOnly(t *testing.T) {
	repo := &mockProfiles{user: &User{ID: 1, Name: "Old", Email: "old@test.local"}}
	service := NewService(repo)

	user, err := service.Update(context.Background(), 1, UpdateRequest{Name: stringPtr("  New Name  ")})
	require.NoError(t, err)
	assert.Equal(t, "New Name", user.Name)
	assert.Equal(t, "old@test.local", user.Email)
	assert.Nil(t, repo.lastParams.Email)
	assert.Nil(t, repo.lastParams.PasswordHash)
}

func TestUpdateEmptyNameRejected(t *testing.T) {
	service := NewService(&mockProfiles{user: &User{ID: 1}})
	_, err := service.Update(context.Background(), 1, UpdateRequest{Name: stringPtr("   ")})
	require.ErrorIs(t, err, shared.ErrValidation)
}

func TestUpdateCanonicalisesEmail(t *testing.T) {
	repo := &mockProfiles{user: &User{ID: 1, Name: "N", Email: "old@test.local"}}
	service := NewService(repo)

	user, err := service.Update(context.Background(), 1, UpdateRequest{Email: stringPtr("  New@Test.LOCAL ")})
	require.NoError(t, err)
	assert.Equal(t, "new@test.local", user.Email)
}

func TestUpdateRehashesPassword(t *testing.T) {
	repo := &mockProfiles{user: &User{ID: 1, Name: "N", Email: "n@test.local"}}
	service := NewService(repo)

	_, err := service.Update(context.Background(), 1, UpdateRequest{Password: stringPtr("s3cret")})
	require.NoError(t, err)
	require.NotNil(t, repo.lastParams.PasswordHash)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(*repo.lastParams.PasswordHash), []byte("s3cret")))
}

func TestUpdateEmptyPasswordRejected(t *testing.T) {
	service := NewService(&mockProfiles{user: &User{ID: 1}})
	_, err := service.Update(context.Background(), 1, UpdateRequest{Password: stringPtr("")})
	require.ErrorIs(t, err, shared.ErrValidation)
}
