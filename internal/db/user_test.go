package db

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/ukydev/opsboard/internal/models"
)

func newTestUser() models.User {
	return models.User{
		Username:     "testuser",
		Email:        "test@example.com",
		PasswordHash: "hashedpassword",
		Role:         models.RoleManager,
		FirstName:    "Test",
		LastName:     "User",
		EmployeeID:   "e1",
	}
}

func insertTestUser(t *testing.T, collection *mongo.Collection) (*MongoUserCollection, models.User) {
	t.Helper()
	userCollection := &MongoUserCollection{Collection: collection}
	require.NoError(t, userCollection.InsertUser(context.Background(), newTestUser()))

	var inserted models.User
	err := collection.FindOne(context.Background(), bson.M{"username": "testuser"}).Decode(&inserted)
	require.NoError(t, err)
	return userCollection, inserted
}

func TestMongoUserCollection_InsertUser(t *testing.T) {
	collection := testDatabase(t).Collection(models.CollectionUsers)
	_, found := insertTestUser(t, collection)

	user := newTestUser()
	assert.Equal(t, user.Username, found.Username)
	assert.Equal(t, user.Email, found.Email)
	assert.Equal(t, user.Role, found.Role)
	assert.Equal(t, "e1", found.EmployeeID)
	assert.True(t, found.IsActive)
	assert.NotZero(t, found.CreatedAt)
	assert.NotZero(t, found.UpdatedAt)
}

func TestMongoUserCollection_FindUserByID(t *testing.T) {
	collection := testDatabase(t).Collection(models.CollectionUsers)
	userCollection, inserted := insertTestUser(t, collection)

	found, err := userCollection.FindUserByID(context.Background(), inserted.ID.Hex())
	assert.NoError(t, err)
	assert.Equal(t, inserted.Username, found.Username)

	_, err = userCollection.FindUserByID(context.Background(), "invalid-id")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMongoUserCollection_FindUserByUsernameAndEmail(t *testing.T) {
	collection := testDatabase(t).Collection(models.CollectionUsers)
	userCollection, _ := insertTestUser(t, collection)
	ctx := context.Background()

	found, err := userCollection.FindUserByUsername(ctx, "testuser")
	assert.NoError(t, err)
	assert.Equal(t, "test@example.com", found.Email)

	found, err = userCollection.FindUserByEmail(ctx, "test@example.com")
	assert.NoError(t, err)
	assert.Equal(t, "testuser", found.Username)

	_, err = userCollection.FindUserByUsername(ctx, "nonexistent")
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = userCollection.FindUserByEmail(ctx, "nonexistent@example.com")
	assert.ErrorIs(t, err, ErrNotFound)

	users, err := userCollection.FindUsers(ctx, bson.M{"role": models.RoleManager})
	assert.NoError(t, err)
	assert.Len(t, users, 1)
}

func TestMongoUserCollection_UpdateUser(t *testing.T) {
	collection := testDatabase(t).Collection(models.CollectionUsers)
	userCollection, inserted := insertTestUser(t, collection)

	updated := inserted
	updated.FirstName = "Updated"
	updated.LastName = "Name"
	require.NoError(t, userCollection.UpdateUser(context.Background(), inserted.ID.Hex(), updated))

	found, err := userCollection.FindUserByID(context.Background(), inserted.ID.Hex())
	assert.NoError(t, err)
	assert.Equal(t, "Updated", found.FirstName)
	assert.Equal(t, "Name", found.LastName)
	assert.True(t, found.UpdatedAt.After(inserted.UpdatedAt))
}

func TestMongoUserCollection_DeleteUser(t *testing.T) {
	collection := testDatabase(t).Collection(models.CollectionUsers)
	userCollection, inserted := insertTestUser(t, collection)

	assert.NoError(t, userCollection.DeleteUser(context.Background(), inserted.ID.Hex()))
	_, err := userCollection.FindUserByID(context.Background(), inserted.ID.Hex())
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMongoUserCollection_UpdateLastLogin(t *testing.T) {
	collection := testDatabase(t).Collection(models.CollectionUsers)
	userCollection, inserted := insertTestUser(t, collection)

	require.NoError(t, userCollection.UpdateLastLogin(context.Background(), inserted.ID.Hex()))

	found, err := userCollection.FindUserByID(context.Background(), inserted.ID.Hex())
	assert.NoError(t, err)
	require.NotNil(t, found.LastLogin)
	assert.False(t, found.LastLogin.Before(inserted.CreatedAt))
}
