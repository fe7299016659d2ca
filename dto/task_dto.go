package dto

import "time"

type CreateTaskDTO struct {
	Title       string     `json:"title" binding:"required"`
	Description string     `json:"description"`
	AssignedTo  string     `json:"assignedTo" binding:"required"`
	DueDate     *time.Time `json:"dueDate"`
}

type UpdateTaskDTO struct {
	Title       *string    `json:"title"`
	Description *string    `json:"description"`
	AssignedTo  *string    `json:"assignedTo"`
	DueDate     *time.Time `json:"dueDate"`
	Status      *string    `json:"status"`
}

type TaskStatusDTO struct {
	Status string `json:"status" binding:"required"`
}
