package dto

import "time"

// ── 活动模块 DTO ──

// CreateEventRequest 创建活动请求
type CreateEventRequest struct {
	Title       string `json:"title"       binding:"required,max=200"`
	Date        string `json:"date"        binding:"required"`
	Location    string `json:"location"    binding:"omitempty,max=200"`
	Description string `json:"description" binding:"required"`
}

// EventResponse 活动信息响应
type EventResponse struct {
	ID              string    `json:"_id"`
	Title           string    `json:"title"`
	Date            time.Time `json:"date"`
	Location        string    `json:"location"`
	Description     string    `json:"description"`
	RegisteredUsers []string  `json:"registeredUsers"`
}
