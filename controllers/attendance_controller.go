package controllers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"github.com/ajaysundarmurugaiyan/Task-Manager-backend/database"
	"github.com/ajaysundarmurugaiyan/Task-Manager-backend/dto"
	"github.com/ajaysundarmurugaiyan/Task-Manager-backend/middleware"
	"github.com/ajaysundarmurugaiyan/Task-Manager-backend/models"
	"github.com/ajaysundarmurugaiyan/Task-Manager-backend/utils"
)

const attendanceDateLayout = "2006-01-02"

// POST /attendance — marks the caller's attendance for today. The unique
// (userId, date) index makes a second mark for the same day a conflict.
func MarkAttendance() gin.HandlerFunc {
	return func(c *gin.Context) {
		current, ok := middleware.CurrentUser(c)
		if !ok {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "authentication required"})
			return
		}

		var body dto.MarkAttendanceDTO
		if err := c.ShouldBindJSON(&body); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "status must be present or absent"})
			return
		}

		now := time.Now().UTC()
		record := models.Attendance{
			ID:       bson.NewObjectID(),
			UserID:   current.ID,
			Date:     now.Format(attendanceDateLayout),
			Status:   models.AttendanceStatus(body.Status),
			MarkedAt: now,
		}

		attendanceCol := database.OpenCollection("attendance")
		if _, err := attendanceCol.InsertOne(c.Request.Context(), record); err != nil {
			if database.IsDuplicateKey(err) {
				c.JSON(http.StatusConflict, gin.H{"error": "attendance already marked for today"})
				return
			}
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to mark attendance"})
			return
		}

		c.JSON(http.StatusCreated, record)
	}
}

// GET /attendance/me
func GetMyAttendance() gin.HandlerFunc {
	return func(c *gin.Context) {
		current, ok := middleware.CurrentUser(c)
		if !ok {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "authentication required"})
			return
		}

		listAttendance(c, bson.M{"userId": current.ID})
	}
}

// GET /attendance (admin; filters: userId, date, status)
func GetAllAttendance() gin.HandlerFunc {
	return func(c *gin.Context) {
		filter := bson.M{}
		if userID := c.Query("userId"); userID != "" {
			id, err := bson.ObjectIDFromHex(userID)
			if err != nil {
				c.JSON(http.StatusBadRequest, gin.H{"error": "invalid userId filter"})
				return
			}
			filter["userId"] = id
		}
		if date := c.Query("date"); date != "" {
			if _, err := time.Parse(attendanceDateLayout, date); err != nil {
				c.JSON(http.StatusBadRequest, gin.H{"error": "date must be YYYY-MM-DD"})
				return
			}
			filter["date"] = date
		}
		if status := c.Query("status"); status != "" {
			if !models.ValidAttendanceStatus(status) {
				c.JSON(http.StatusBadRequest, gin.H{"error": "status must be present or absent"})
				return
			}
			filter["status"] = status
		}

		listAttendance(c, filter)
	}
}

func listAttendance(c *gin.Context, filter bson.M) {
	ctx := c.Request.Context()

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
		SetSort(bson.D{{Key: "date", Value: -1}})

	attendanceCol := database.OpenCollection("attendance")
	cursor, err := attendanceCol.Find(ctx, filter, findOpts)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list attendance"})
		return
	}
	defer cursor.Close(ctx)

	records := make([]models.Attendance, 0)
	for cursor.Next(ctx) {
		var r models.Attendance
		if err := cursor.Decode(&r); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list attendance"})
			return
		}
		records = append(records, r)
	}
	if err := cursor.Err(); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list attendance"})
		return
	}

	total, err := attendanceCol.CountDocuments(ctx, filter)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list attendance"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"items": records,
		"page":  page,
		"limit": limit,
		"total": total,
	})
}
