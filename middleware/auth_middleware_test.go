package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/v2/bson"

	"github.com/ajaysundarmurugaiyan/Task-Manager-backend/database"
	"github.com/ajaysundarmurugaiyan/Task-Manager-backend/models"
	"github.com/ajaysundarmurugaiyan/Task-Manager-backend/utils"
)

func testTokenManager() *utils.TokenManager {
	return &utils.TokenManager{
		AccessSecret:  []byte("test-access-secret"),
		RefreshSecret: []byte("test-refresh-secret"),
		AccessTTL:     time.Hour,
		RefreshTTL:    7 * 24 * time.Hour,
	}
}

func seedUser(t *testing.T, store *database.InMemoryUserStore, role models.Role, active bool, pwChangedAt *time.Time) models.User {
	t.Helper()
	user := models.User{
		ID:                bson.NewObjectID(),
		Name:              "Test User",
		Email:             bson.NewObjectID().Hex() + "@example.com",
		PasswordHash:      "$2a$10$irrelevantforthesetests",
		Role:              role,
		IsActive:          active,
		PasswordChangedAt: pwChangedAt,
		CreatedAt:         time.Now().UTC(),
		UpdatedAt:         time.Now().UTC(),
	}
	require.NoError(t, store.Insert(context.Background(), &user))
	return user
}

func protectedRouter(store *database.InMemoryUserStore, tm *utils.TokenManager) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/protected", AuthMiddleware(store, tm), func(c *gin.Context) {
		user, _ := CurrentUser(c)
		c.JSON(http.StatusOK, gin.H{"id": user.ID.Hex(), "hash": user.PasswordHash})
	})
	r.GET("/admin", AuthMiddleware(store, tm), RequireRoles(models.RoleAdmin), func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"ok": true})
	})
	return r
}

func doGet(r *gin.Engine, path, authHeader string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	if authHeader != "" {
		req.Header.Set("Authorization", authHeader)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestAuthMiddleware_MissingOrMalformedHeader(t *testing.T) {
	store := database.NewInMemoryUserStore()
	r := protectedRouter(store, testTokenManager())

	assert.Equal(t, http.StatusUnauthorized, doGet(r, "/protected", "").Code)
	assert.Equal(t, http.StatusUnauthorized, doGet(r, "/protected", "Token abc").Code)
	assert.Equal(t, http.StatusUnauthorized, doGet(r, "/protected", "bearer lowercase").Code)
}

func TestAuthMiddleware_InvalidToken(t *testing.T) {
	store := database.NewInMemoryUserStore()
	tm := testTokenManager()
	r := protectedRouter(store, tm)

	assert.Equal(t, http.StatusUnauthorized, doGet(r, "/protected", "Bearer not-a-token").Code)
}

func TestAuthMiddleware_RefreshTokenRejectedAsAccess(t *testing.T) {
	store := database.NewInMemoryUserStore()
	tm := testTokenManager()
	user := seedUser(t, store, models.RoleUser, true, nil)
	r := protectedRouter(store, tm)

	refresh, err := tm.Issue(user.ID.Hex(), utils.TokenRefresh)
	require.NoError(t, err)

	assert.Equal(t, http.StatusUnauthorized, doGet(r, "/protected", "Bearer "+refresh).Code)
}

func TestAuthMiddleware_UnknownUser(t *testing.T) {
	store := database.NewInMemoryUserStore()
	tm := testTokenManager()
	r := protectedRouter(store, tm)

	tok, err := tm.Issue(bson.NewObjectID().Hex(), utils.TokenAccess)
	require.NoError(t, err)

	w := doGet(r, "/protected", "Bearer "+tok)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Contains(t, w.Body.String(), "unknown or deactivated user")
}

func TestAuthMiddleware_DeactivatedUser(t *testing.T) {
	store := database.NewInMemoryUserStore()
	tm := testTokenManager()
	user := seedUser(t, store, models.RoleUser, false, nil)
	r := protectedRouter(store, tm)

	tok, err := tm.Issue(user.ID.Hex(), utils.TokenAccess)
	require.NoError(t, err)

	assert.Equal(t, http.StatusUnauthorized, doGet(r, "/protected", "Bearer "+tok).Code)
}

func TestAuthMiddleware_StaleTokenAfterPasswordChange(t *testing.T) {
	store := database.NewInMemoryUserStore()
	tm := testTokenManager()

	changed := time.Now().UTC().Add(time.Hour)
	user := seedUser(t, store, models.RoleUser, true, &changed)
	r := protectedRouter(store, tm)

	tok, err := tm.Issue(user.ID.Hex(), utils.TokenAccess)
	require.NoError(t, err)

	w := doGet(r, "/protected", "Bearer "+tok)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Contains(t, w.Body.String(), "credentials changed")
}

func TestAuthMiddleware_TokenIssuedAfterPasswordChangeAccepted(t *testing.T) {
	store := database.NewInMemoryUserStore()
	tm := testTokenManager()

	changed := time.Now().UTC().Add(-time.Hour)
	user := seedUser(t, store, models.RoleUser, true, &changed)
	r := protectedRouter(store, tm)

	tok, err := tm.Issue(user.ID.Hex(), utils.TokenAccess)
	require.NoError(t, err)

	assert.Equal(t, http.StatusOK, doGet(r, "/protected", "Bearer "+tok).Code)
}

func TestAuthMiddleware_TokenFromSameSecondAsPasswordChangeAccepted(t *testing.T) {
	store := database.NewInMemoryUserStore()
	tm := testTokenManager()

	id := bson.NewObjectID()
	tok, err := tm.Issue(id.Hex(), utils.TokenAccess)
	require.NoError(t, err)
	claims, err := tm.Verify(tok, utils.TokenAccess)
	require.NoError(t, err)

	// iat is whole seconds on the wire; a change stamped later within the
	// token's own second must not mark the token stale.
	changed := claims.IssuedAt.Time.Add(500 * time.Millisecond)
	user := models.User{
		ID:                id,
		Name:              "Test User",
		Email:             id.Hex() + "@example.com",
		PasswordHash:      "$2a$10$irrelevantforthesetests",
		Role:              models.RoleUser,
		IsActive:          true,
		PasswordChangedAt: &changed,
	}
	require.NoError(t, store.Insert(context.Background(), &user))
	r := protectedRouter(store, tm)

	assert.Equal(t, http.StatusOK, doGet(r, "/protected", "Bearer "+tok).Code)
}

type unavailableUserStore struct {
	database.UserStore
}

func (unavailableUserStore) FindByID(context.Context, bson.ObjectID) (*models.User, error) {
	return nil, errors.New("connection reset by peer")
}

func TestAuthMiddleware_StoreFailureIsNotUnauthorized(t *testing.T) {
	tm := testTokenManager()
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/protected", AuthMiddleware(unavailableUserStore{}, tm), func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"ok": true})
	})

	tok, err := tm.Issue(bson.NewObjectID().Hex(), utils.TokenAccess)
	require.NoError(t, err)

	assert.Equal(t, http.StatusInternalServerError, doGet(r, "/protected", "Bearer "+tok).Code)
}

func TestAuthMiddleware_AttachesSanitizedUser(t *testing.T) {
	store := database.NewInMemoryUserStore()
	tm := testTokenManager()
	user := seedUser(t, store, models.RoleUser, true, nil)
	r := protectedRouter(store, tm)

	tok, err := tm.Issue(user.ID.Hex(), utils.TokenAccess)
	require.NoError(t, err)

	w := doGet(r, "/protected", "Bearer "+tok)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), user.ID.Hex())
	assert.Contains(t, w.Body.String(), `"hash":""`)
}

func TestRequireRoles_ForbiddenForNonAdmin(t *testing.T) {
	store := database.NewInMemoryUserStore()
	tm := testTokenManager()
	user := seedUser(t, store, models.RoleUser, true, nil)
	r := protectedRouter(store, tm)

	tok, err := tm.Issue(user.ID.Hex(), utils.TokenAccess)
	require.NoError(t, err)

	assert.Equal(t, http.StatusForbidden, doGet(r, "/admin", "Bearer "+tok).Code)
}

func TestRequireRoles_AllowsAdmin(t *testing.T) {
	store := database.NewInMemoryUserStore()
	tm := testTokenManager()
	admin := seedUser(t, store, models.RoleAdmin, true, nil)
	r := protectedRouter(store, tm)

	tok, err := tm.Issue(admin.ID.Hex(), utils.TokenAccess)
	require.NoError(t, err)

	assert.Equal(t, http.StatusOK, doGet(r, "/admin", "Bearer "+tok).Code)
}

func TestRequireRoles_UnauthenticatedWithoutAuthMiddleware(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/bare", RequireRoles(models.RoleAdmin), func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"ok": true})
	})

	assert.Equal(t, http.StatusUnauthorized, doGet(r, "/bare", "").Code)
}
