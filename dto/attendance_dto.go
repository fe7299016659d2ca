package dto

type MarkAttendanceDTO struct {
	Status string `json:"status" binding:"required,oneof=present absent"`
}
