package models

import (
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
)

type AttendanceStatus string

const (
	AttendancePresent AttendanceStatus = "present"
	AttendanceAbsent  AttendanceStatus = "absent"
)

func ValidAttendanceStatus(s string) bool {
	return AttendanceStatus(s) == AttendancePresent || AttendanceStatus(s) == AttendanceAbsent
}

type Attendance struct {
	ID     bson.ObjectID `bson:"_id,omitempty" json:"id"`
	UserID bson.ObjectID `bson:"userId" json:"userId"`
	// Date is the calendar day in YYYY-MM-DD form; the (userId, date) unique
	// index enforces one record per user per day.
	Date     string           `bson:"date" json:"date"`
	Status   AttendanceStatus `bson:"status" json:"status"`
	MarkedAt time.Time        `bson:"markedAt" json:"markedAt"`
}
