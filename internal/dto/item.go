package dto

import "time"

// ── 失物招领模块 DTO ──

// CreateItemRequest 发布失物/招领请求
// 发布者取自认证身份，请求体中的 reporter 字段被忽略
type CreateItemRequest struct {
	Item        string `json:"item"        binding:"required,max=200"`
	Location    string `json:"location"    binding:"required,max=200"`
	Date        string `json:"date"        binding:"required"`
	Status      string `json:"status"      binding:"required,oneof=Lost Found"`
	Description string `json:"description" binding:"omitempty"`
	ImageURL    string `json:"imageUrl"    binding:"omitempty,url,max=1000"`
}

// ItemListRequest 失物招领列表查询参数
type ItemListRequest struct {
	Status string `form:"status" binding:"omitempty,oneof=Lost Found"`
}

// ItemResponse 失物招领信息响应
type ItemResponse struct {
	ID          string    `json:"_id"`
	Item        string    `json:"item"`
	Location    string    `json:"location"`
	Date        time.Time `json:"date"`
	Status      string    `json:"status"`
	Description string    `json:"description"`
	ImageURL    string    `json:"imageUrl,omitempty"`
	Reporter    string    `json:"reporter"`
}
