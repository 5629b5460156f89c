package model

import "time"

// Event 活动表，对应 events
type Event struct {
	EventID         string      `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"_id"`
	Title           string      `gorm:"type:varchar(200);not null"                     json:"title"`
	Date            time.Time   `gorm:"not null;index"                                 json:"date"`
	Location        string      `gorm:"type:varchar(200);not null;default:''"          json:"location"`
	Description     string      `gorm:"type:text;not null"                             json:"description"`
	RegisteredUsers StringArray `gorm:"type:text[];not null;default:'{}'"              json:"registeredUsers"`
	CreatedBy       *string     `gorm:"type:uuid"                                      json:"-"`
	BaseModel
}

// TableName 指定表名
func (Event) TableName() string { return "events" }

// IsRegistered 判断用户是否已报名
func (e *Event) IsRegistered(userID string) bool {
	return e.RegisteredUsers.Contains(userID)
}
