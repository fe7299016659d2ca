package controllers

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/v2/bson"

	"github.com/ajaysundarmurugaiyan/Task-Manager-backend/config"
	"github.com/ajaysundarmurugaiyan/Task-Manager-backend/database"
	"github.com/ajaysundarmurugaiyan/Task-Manager-backend/dto"
	"github.com/ajaysundarmurugaiyan/Task-Manager-backend/middleware"
	"github.com/ajaysundarmurugaiyan/Task-Manager-backend/models"
	"github.com/ajaysundarmurugaiyan/Task-Manager-backend/utils"
)

var errInvalidUpdates = errors.New("invalid updates")

// selfUpdatableFields is the allow-list for PATCH /auth/me; admins may
// additionally change role and active on any account.
var selfUpdatableFields = map[string]bool{
	"name":     true,
	"email":    true,
	"password": true,
}

var adminUpdatableFields = map[string]bool{
	"name":     true,
	"email":    true,
	"password": true,
	"role":     true,
	"active":   true,
}

// POST /auth/register (admin only via route group)
func Register(users database.UserStore) gin.HandlerFunc {
	return func(c *gin.Context) {
		var body dto.RegisterUserDTO
		if err := c.ShouldBindJSON(&body); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "name, email and password are required"})
			return
		}

		if err := utils.ValidatePasswordStrength(body.Password); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		role := models.RoleUser
		if body.Role != "" {
			role = models.Role(body.Role)
		}

		hash, err := utils.HashPassword(body.Password)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to hash password"})
			return
		}

		now := time.Now().UTC()
		user := models.User{
			ID:           bson.NewObjectID(),
			Name:         body.Name,
			Email:        database.NormalizeEmail(body.Email),
			PasswordHash: hash,
			Role:         role,
			IsActive:     true,
			CreatedAt:    now,
			UpdatedAt:    now,
		}

		if err := users.Insert(c.Request.Context(), &user); err != nil {
			if errors.Is(err, database.ErrDuplicateEmail) {
				c.JSON(http.StatusBadRequest, gin.H{"error": "email already in use"})
				return
			}
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to create user"})
			return
		}

		c.JSON(http.StatusCreated, user.Public())
	}
}

// PATCH /auth/me
func UpdateMe(users database.UserStore, cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		current, ok := middleware.CurrentUser(c)
		if !ok {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "authentication required"})
			return
		}

		var body map[string]any
		if err := c.ShouldBindJSON(&body); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": errInvalidUpdates.Error()})
			return
		}

		upd, err := buildUserUpdate(body, selfUpdatableFields)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		updated, err := users.Update(c.Request.Context(), current.ID, upd)
		if err != nil {
			respondUpdateError(c, err)
			return
		}

		// Changing the password invalidated every outstanding token,
		// including the refresh cookie.
		if upd.PasswordHash != nil {
			utils.ClearRefreshCookie(c, cfg)
		}

		c.JSON(http.StatusOK, updated.Public())
	}
}

// PATCH /auth/users/:id (admin only via route group)
func AdminUpdateUser(users database.UserStore) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, err := bson.ObjectIDFromHex(c.Param("id"))
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid user id"})
			return
		}

		var body map[string]any
		if err := c.ShouldBindJSON(&body); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": errInvalidUpdates.Error()})
			return
		}

		upd, err := buildUserUpdate(body, adminUpdatableFields)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		updated, err := users.Update(c.Request.Context(), userID, upd)
		if err != nil {
			respondUpdateError(c, err)
			return
		}

		c.JSON(http.StatusOK, updated.Public())
	}
}

// buildUserUpdate validates the request body against the allow-list. One
// unknown key fails the whole request; nothing is applied partially.
func buildUserUpdate(body map[string]any, allowed map[string]bool) (database.UserUpdate, error) {
	var upd database.UserUpdate

	if len(body) == 0 {
		return upd, errInvalidUpdates
	}
	for key := range body {
		if !allowed[key] {
			return upd, errInvalidUpdates
		}
	}

	if raw, ok := body["name"]; ok {
		name, ok := raw.(string)
		if !ok || name == "" {
			return upd, errInvalidUpdates
		}
		upd.Name = &name
	}
	if raw, ok := body["email"]; ok {
		email, ok := raw.(string)
		if !ok || email == "" {
			return upd, errInvalidUpdates
		}
		upd.Email = &email
	}
	if raw, ok := body["password"]; ok {
		password, ok := raw.(string)
		if !ok {
			return upd, errInvalidUpdates
		}
		if err := utils.ValidatePasswordStrength(password); err != nil {
			return upd, err
		}
		hash, err := utils.HashPassword(password)
		if err != nil {
			return upd, err
		}
		upd.PasswordHash = &hash
	}
	if raw, ok := body["role"]; ok {
		roleStr, ok := raw.(string)
		if !ok || !models.ValidRole(roleStr) {
			return upd, errInvalidUpdates
		}
		role := models.Role(roleStr)
		upd.Role = &role
	}
	if raw, ok := body["active"]; ok {
		active, ok := raw.(bool)
		if !ok {
			return upd, errInvalidUpdates
		}
		upd.IsActive = &active
	}

	return upd, nil
}

func respondUpdateError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, database.ErrUserNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "user not found"})
	case errors.Is(err, database.ErrDuplicateEmail):
		c.JSON(http.StatusBadRequest, gin.H{"error": "email already in use"})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to update user"})
	}
}
