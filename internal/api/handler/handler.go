package handler

import "github.com/sank902/Campus-connect/internal/service"

// Handler 所有 Handler 的聚合入口
type Handler struct {
	Auth  *AuthHandler
	Event *EventHandler
	Item  *ItemHandler
}

// NewHandler 创建 Handler 聚合
func NewHandler(svc *service.Service) *Handler {
	return &Handler{
		Auth:  NewAuthHandler(svc.Auth),
		Event: NewEventHandler(svc.Event, svc.Export, svc.Calendar),
		Item:  NewItemHandler(svc.Item),
	}
}
