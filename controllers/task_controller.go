package controllers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"github.com/ajaysundarmurugaiyan/Task-Manager-backend/config"
	"github.com/ajaysundarmurugaiyan/Task-Manager-backend/database"
	"github.com/ajaysundarmurugaiyan/Task-Manager-backend/dto"
	"github.com/ajaysundarmurugaiyan/Task-Manager-backend/middleware"
	"github.com/ajaysundarmurugaiyan/Task-Manager-backend/models"
	"github.com/ajaysundarmurugaiyan/Task-Manager-backend/utils"
)

// POST /tasks (admin)
func CreateTask(users database.UserStore) gin.HandlerFunc {
	return func(c *gin.Context) {
		current, ok := middleware.CurrentUser(c)
		if !ok {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "authentication required"})
			return
		}

		var body dto.CreateTaskDTO
		if err := c.ShouldBindJSON(&body); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "title and assignedTo are required"})
			return
		}

		assigneeID, err := bson.ObjectIDFromHex(body.AssignedTo)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid assignee id"})
			return
		}
		assignee, err := users.FindByID(c.Request.Context(), assigneeID)
		if err != nil || !assignee.IsActive {
			c.JSON(http.StatusBadRequest, gin.H{"error": "assignee not found or inactive"})
			return
		}

		now := time.Now().UTC()
		task := models.Task{
			ID:          bson.NewObjectID(),
			Title:       body.Title,
			Description: body.Description,
			Status:      models.TaskPending,
			AssignedTo:  assigneeID,
			CreatedBy:   current.ID,
			DueDate:     body.DueDate,
			CreatedAt:   now,
			UpdatedAt:   now,
		}

		tasksCol := database.OpenCollection("tasks")
		if _, err := tasksCol.InsertOne(c.Request.Context(), task); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to create task"})
			return
		}

		c.JSON(http.StatusCreated, task)
	}
}

// GET /tasks (admin; filters: status, assignedTo, page, limit)
func GetTasks() gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()

		filter := bson.M{}
		if status := c.Query("status"); status != "" {
			if !models.ValidTaskStatus(status) {
				c.JSON(http.StatusBadRequest, gin.H{"error": "invalid status filter"})
				return
			}
			filter["status"] = models.TaskStatus(status)
		}
		if assignee := c.Query("assignedTo"); assignee != "" {
			assigneeID, err := bson.ObjectIDFromHex(assignee)
			if err != nil {
				c.JSON(http.StatusBadRequest, gin.H{"error": "invalid assignee filter"})
				return
			}
			filter["assignedTo"] = assigneeID
		}

		listTasks(c, ctx, filter)
	}
}

// GET /tasks/me
func GetMyTasks() gin.HandlerFunc {
	return func(c *gin.Context) {
		current, ok := middleware.CurrentUser(c)
		if !ok {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "authentication required"})
			return
		}

		filter := bson.M{"assignedTo": current.ID}
		if status := c.Query("status"); status != "" {
			if !models.ValidTaskStatus(status) {
				c.JSON(http.StatusBadRequest, gin.H{"error": "invalid status filter"})
				return
			}
			filter["status"] = models.TaskStatus(status)
		}

		listTasks(c, c.Request.Context(), filter)
	}
}

// GET /tasks/:id — admins see any task, users only their own.
func GetTask() gin.HandlerFunc {
	return func(c *gin.Context) {
		current, ok := middleware.CurrentUser(c)
		if !ok {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "authentication required"})
			return
		}

		task, ok := findTask(c)
		if !ok {
			return
		}
		if current.Role != models.RoleAdmin && task.AssignedTo != current.ID {
			c.JSON(http.StatusForbidden, gin.H{"error": "not your task"})
			return
		}

		c.JSON(http.StatusOK, task)
	}
}

// PATCH /tasks/:id (admin)
func UpdateTask(users database.UserStore) gin.HandlerFunc {
	return func(c *gin.Context) {
		taskID, err := bson.ObjectIDFromHex(c.Param("id"))
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid task id"})
			return
		}

		var body dto.UpdateTaskDTO
		if err := c.ShouldBindJSON(&body); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid update payload"})
			return
		}

		set := bson.M{"updatedAt": time.Now().UTC()}
		if body.Title != nil {
			set["title"] = *body.Title
		}
		if body.Description != nil {
			set["description"] = *body.Description
		}
		if body.DueDate != nil {
			set["dueDate"] = *body.DueDate
		}
		if body.Status != nil {
			if !models.ValidTaskStatus(*body.Status) {
				c.JSON(http.StatusBadRequest, gin.H{"error": "invalid status"})
				return
			}
			set["status"] = models.TaskStatus(*body.Status)
		}
		if body.AssignedTo != nil {
			assigneeID, err := bson.ObjectIDFromHex(*body.AssignedTo)
			if err != nil {
				c.JSON(http.StatusBadRequest, gin.H{"error": "invalid assignee id"})
				return
			}
			assignee, err := users.FindByID(c.Request.Context(), assigneeID)
			if err != nil || !assignee.IsActive {
				c.JSON(http.StatusBadRequest, gin.H{"error": "assignee not found or inactive"})
				return
			}
			set["assignedTo"] = assigneeID
		}

		tasksCol := database.OpenCollection("tasks")
		opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
		var task models.Task
		err = tasksCol.FindOneAndUpdate(c.Request.Context(), bson.M{"_id": taskID}, bson.M{"$set": set}, opts).Decode(&task)
		if err == mongo.ErrNoDocuments {
			c.JSON(http.StatusNotFound, gin.H{"error": "task not found"})
			return
		}
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to update task"})
			return
		}

		c.JSON(http.StatusOK, task)
	}
}

// PATCH /tasks/:id/status — assignees move their task along the allowed
// transitions; admins may additionally cancel.
func UpdateTaskStatus() gin.HandlerFunc {
	return func(c *gin.Context) {
		current, ok := middleware.CurrentUser(c)
		if !ok {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "authentication required"})
			return
		}

		var body dto.TaskStatusDTO
		if err := c.ShouldBindJSON(&body); err != nil || !models.ValidTaskStatus(body.Status) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid status"})
			return
		}
		next := models.TaskStatus(body.Status)

		task, ok := findTask(c)
		if !ok {
			return
		}

		isAdmin := current.Role == models.RoleAdmin
		if !isAdmin && task.AssignedTo != current.ID {
			c.JSON(http.StatusForbidden, gin.H{"error": "not your task"})
			return
		}

		allowed := models.CanTransition(task.Status, next)
		if isAdmin && next == models.TaskCancelled &&
			task.Status != models.TaskCompleted && task.Status != models.TaskCancelled {
			allowed = true
		}
		if !allowed {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid status transition"})
			return
		}

		tasksCol := database.OpenCollection("tasks")
		opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
		var updated models.Task
		err := tasksCol.FindOneAndUpdate(c.Request.Context(),
			bson.M{"_id": task.ID, "status": task.Status},
			bson.M{"$set": bson.M{"status": next, "updatedAt": time.Now().UTC()}},
			opts).Decode(&updated)
		if err == mongo.ErrNoDocuments {
			// Lost a concurrent transition race.
			c.JSON(http.StatusConflict, gin.H{"error": "task status changed, retry"})
			return
		}
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to update task"})
			return
		}

		c.JSON(http.StatusOK, updated)
	}
}

// DELETE /tasks/:id (admin)
func DeleteTask(cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		task, ok := findTask(c)
		if !ok {
			return
		}

		tasksCol := database.OpenCollection("tasks")
		if _, err := tasksCol.DeleteOne(c.Request.Context(), bson.M{"_id": task.ID}); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to delete task"})
			return
		}

		// Best effort: orphaned attachments are not worth failing the delete.
		if len(task.Attachments) > 0 && cfg.GCSBucket != "" {
			if client, bucket, err := utils.NewGCSClient(c.Request.Context(), cfg); err == nil {
				names := make([]string, 0, len(task.Attachments))
				for _, a := range task.Attachments {
					names = append(names, a.ObjectName)
				}
				_ = utils.DeleteGCSObjects(c.Request.Context(), client, bucket, names)
				_ = client.Close()
			}
		}

		c.JSON(http.StatusOK, gin.H{"ok": true})
	}
}

// POST /tasks/:id/attachments — admin or the task's assignee.
func UploadTaskAttachment(cfg *config.Config, v *utils.FileValidator) gin.HandlerFunc {
	return func(c *gin.Context) {
		current, ok := middleware.CurrentUser(c)
		if !ok {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "authentication required"})
			return
		}

		task, ok := findTask(c)
		if !ok {
			return
		}
		if current.Role != models.RoleAdmin && task.AssignedTo != current.ID {
			c.JSON(http.StatusForbidden, gin.H{"error": "not your task"})
			return
		}

		fileHeader, err := c.FormFile("file")
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "file is required"})
			return
		}

		mimeType, err := v.ValidateFile(fileHeader)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		client, bucket, err := utils.NewGCSClient(c.Request.Context(), cfg)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "storage unavailable"})
			return
		}
		defer client.Close()

		attachment, err := utils.UploadTaskAttachmentToGCS(
			c.Request.Context(), client, bucket, utils.GenerateSlug(task.Title), fileHeader, mimeType)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "upload failed"})
			return
		}

		tasksCol := database.OpenCollection("tasks")
		_, err = tasksCol.UpdateByID(c.Request.Context(), task.ID, bson.M{
			"$push": bson.M{"attachments": attachment},
			"$set":  bson.M{"updatedAt": time.Now().UTC()},
		})
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to save attachment"})
			return
		}

		c.JSON(http.StatusCreated, attachment)
	}
}

func findTask(c *gin.Context) (models.Task, bool) {
	taskID, err := bson.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid task id"})
		return models.Task{}, false
	}

	tasksCol := database.OpenCollection("tasks")
	var task models.Task
	err = tasksCol.FindOne(c.Request.Context(), bson.M{"_id": taskID}).Decode(&task)
	if err == mongo.ErrNoDocuments {
		c.JSON(http.StatusNotFound, gin.H{"error": "task not found"})
		return models.Task{}, false
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load task"})
		return models.Task{}, false
	}
	return task, true
}

func listTasks(c *gin.Context, ctx context.Context, filter bson.M) {
	maxLimit, defaultLimit := utils.GetDefaultQueryLimits()
	page := utils.ParseIntDefault(c.Query("page"), 1)
	limit := utils.ParseIntDefault(c.Query("limit"), defaultLimit)
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = defaultLimit
	}
	if limit > maxLimit {
		limit = maxLimit
	}
	skip := int64((page - 1) * limit)

	findOpts := options.Find().
		SetSkip(skip).
		SetLimit(int64(limit)).
		SetSort(bson.D{{Key: "createdAt", Value: -1}})

	tasksCol := database.OpenCollection("tasks")
	cursor, err := tasksCol.Find(ctx, filter, findOpts)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list tasks"})
		return
	}
	defer cursor.Close(ctx)

	tasks := make([]models.Task, 0)
	for cursor.Next(ctx) {
		var t models.Task
		if err := cursor.Decode(&t); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list tasks"})
			return
		}
		tasks = append(tasks, t)
	}
	if err := cursor.Err(); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list tasks"})
		return
	}

	total, err := tasksCol.CountDocuments(ctx, filter)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list tasks"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"items": tasks,
		"page":  page,
		"limit": limit,
		"total": total,
	})
}
