package model

import "time"

// 失物招领状态
const (
	ItemStatusLost  = "Lost"
	ItemStatusFound = "Found"
)

// Item 失物招领表，对应 items
type Item struct {
	ItemID      string    `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"_id"`
	Item        string    `gorm:"column:item;type:varchar(200);not null"         json:"item"`
	Location    string    `gorm:"type:varchar(200);not null"                     json:"location"`
	Date        time.Time `gorm:"not null;index"                                 json:"date"`
	Status      string    `gorm:"type:varchar(10);not null"                      json:"status"`
	Description string    `gorm:"type:text;not null;default:''"                  json:"description"`
	ImageURL    string    `gorm:"column:image_url;type:varchar(1000)"            json:"imageUrl,omitempty"`
	Reporter    string    `gorm:"type:varchar(64);not null;default:''"           json:"reporter"`
	BaseModel
}

// TableName 指定表名
func (Item) TableName() string { return "items" }

// ValidItemStatus 判断状态是否为合法枚举值
func ValidItemStatus(s string) bool {
	return s == ItemStatusLost || s == ItemStatusFound
}
