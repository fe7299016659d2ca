package models

import (
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
)

type TaskStatus string

const (
	TaskPending    TaskStatus = "pending"
	TaskInProgress TaskStatus = "in-progress"
	TaskCompleted  TaskStatus = "completed"
	TaskCancelled  TaskStatus = "cancelled"
)

// taskTransitions lists the moves an assignee may make. Admins may also
// cancel from any non-terminal state.
var taskTransitions = map[TaskStatus][]TaskStatus{
	TaskPending:    {TaskInProgress},
	TaskInProgress: {TaskCompleted},
}

func ValidTaskStatus(s string) bool {
	switch TaskStatus(s) {
	case TaskPending, TaskInProgress, TaskCompleted, TaskCancelled:
		return true
	}
	return false
}

// CanTransition reports whether an assignee may move a task from one status
// to another.
func CanTransition(from, to TaskStatus) bool {
	for _, next := range taskTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

type TaskAttachment struct {
	PublicURL  string    `bson:"publicUrl" json:"publicUrl"`
	ObjectName string    `bson:"objectName" json:"-"`
	FileName   string    `bson:"fileName" json:"fileName"`
	MimeType   string    `bson:"mimeType" json:"mimeType"`
	SizeBytes  int64     `bson:"sizeBytes" json:"sizeBytes"`
	UploadedAt time.Time `bson:"uploadedAt" json:"uploadedAt"`
}

type Task struct {
	ID          bson.ObjectID    `bson:"_id,omitempty" json:"id"`
	Title       string           `bson:"title" json:"title"`
	Description string           `bson:"description" json:"description"`
	Status      TaskStatus       `bson:"status" json:"status"`
	AssignedTo  bson.ObjectID    `bson:"assignedTo" json:"assignedTo"`
	CreatedBy   bson.ObjectID    `bson:"createdBy" json:"createdBy"`
	DueDate     *time.Time       `bson:"dueDate,omitempty" json:"dueDate,omitempty"`
	Attachments []TaskAttachment `bson:"attachments,omitempty" json:"attachments,omitempty"`
	CreatedAt   time.Time        `bson:"createdAt" json:"createdAt"`
	UpdatedAt   time.Time        `bson:"updatedAt" json:"updatedAt"`
}
