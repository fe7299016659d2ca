package database

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/v2/bson"

	"github.com/ajaysundarmurugaiyan/Task-Manager-backend/models"
)

func TestNormalizeEmail(t *testing.T) {
	assert.Equal(t, "a@x.com", NormalizeEmail("  A@X.COM "))
	assert.Equal(t, "", NormalizeEmail("   "))
}

func TestIsDuplicateKey(t *testing.T) {
	assert.False(t, IsDuplicateKey(errors.New("some other error")))
	assert.True(t, IsDuplicateKey(errors.New(`write exception: E11000 duplicate key error collection: users index: email_1`)))
	assert.False(t, IsDuplicateKey(nil))
}

func TestInMemoryUserStore_UniqueEmail(t *testing.T) {
	store := NewInMemoryUserStore()
	ctx := context.Background()

	first := models.User{Email: "Dup@X.com", Role: models.RoleUser, IsActive: true}
	require.NoError(t, store.Insert(ctx, &first))
	assert.Equal(t, "dup@x.com", first.Email)

	second := models.User{Email: "dup@x.com"}
	assert.ErrorIs(t, store.Insert(ctx, &second), ErrDuplicateEmail)

	other := models.User{Email: "other@x.com"}
	require.NoError(t, store.Insert(ctx, &other))

	email := "dup@x.com"
	_, err := store.Update(ctx, other.ID, UserUpdate{Email: &email})
	assert.ErrorIs(t, err, ErrDuplicateEmail)
}

func TestInMemoryUserStore_UpdateStampsPasswordChangedAt(t *testing.T) {
	store := NewInMemoryUserStore()
	ctx := context.Background()

	user := models.User{Email: "p@x.com", Role: models.RoleUser, IsActive: true}
	require.NoError(t, store.Insert(ctx, &user))
	require.Nil(t, user.PasswordChangedAt)

	name := "Renamed"
	updated, err := store.Update(ctx, user.ID, UserUpdate{Name: &name})
	require.NoError(t, err)
	assert.Nil(t, updated.PasswordChangedAt, "non-password updates must not stamp passwordChangedAt")

	hash := "new-hash"
	updated, err = store.Update(ctx, user.ID, UserUpdate{PasswordHash: &hash})
	require.NoError(t, err)
	require.NotNil(t, updated.PasswordChangedAt)
}

func TestInMemoryUserStore_NotFound(t *testing.T) {
	store := NewInMemoryUserStore()
	ctx := context.Background()

	_, err := store.FindByID(ctx, bson.NewObjectID())
	assert.ErrorIs(t, err, ErrUserNotFound)

	_, err = store.FindByEmail(ctx, "ghost@x.com")
	assert.ErrorIs(t, err, ErrUserNotFound)

	name := "X"
	_, err = store.Update(ctx, bson.NewObjectID(), UserUpdate{Name: &name})
	assert.ErrorIs(t, err, ErrUserNotFound)
}
