package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/sank902/Campus-connect/internal/dto"
	"github.com/sank902/Campus-connect/internal/service"
	"github.com/sank902/Campus-connect/pkg/response"
)

// ItemHandler 失物招领模块 HTTP 处理器
type ItemHandler struct {
	itemSvc service.ItemService
}

// NewItemHandler 创建 ItemHandler
func NewItemHandler(itemSvc service.ItemService) *ItemHandler {
	return &ItemHandler{itemSvc: itemSvc}
}

// ListItems 失物招领列表（按日期倒序，可按 status 过滤）
// GET /api/items
func (h *ItemHandler) ListItems(c *gin.Context) {
	var req dto.ItemListRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		response.BadRequest(c, 13003, "status must be Lost or Found")
		return
	}

	items, err := h.itemSvc.List(c.Request.Context(), &req)
	if err != nil {
		handleItemError(c, err)
		return
	}
	response.OK(c, items)
}

// CreateItem 发布失物/招领，发布者为当前用户
// POST /api/items
func (h *ItemHandler) CreateItem(c *gin.Context) {
	p, ok := MustGetPrincipal(c)
	if !ok {
		return
	}

	var req dto.CreateItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ErrorWithDetails(c, http.StatusBadRequest, 13003, "Invalid item data", err.Error())
		return
	}

	item, err := h.itemSvc.Create(c.Request.Context(), &req, p)
	if err != nil {
		handleItemError(c, err)
		return
	}
	response.Created(c, item)
}

// DeleteItem 删除物品（发布者本人或管理员）
// DELETE /api/items/:id
func (h *ItemHandler) DeleteItem(c *gin.Context) {
	p, ok := MustGetPrincipal(c)
	if !ok {
		return
	}

	if err := h.itemSvc.Delete(c.Request.Context(), c.Param("id"), p); err != nil {
		handleItemError(c, err)
		return
	}
	response.Message(c, http.StatusOK, "Item removed successfully")
}

func handleItemError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrItemNotFound):
		response.NotFound(c, 13001, "Item not found")
	case errors.Is(err, service.ErrNotItemOwner):
		// 归属校验失败沿用 401
		response.Unauthorized(c, 13002, "User not authorized")
	case errors.Is(err, service.ErrInvalidItemStatus):
		response.BadRequest(c, 13003, "status must be Lost or Found")
	case errors.Is(err, service.ErrInvalidDate):
		response.BadRequest(c, 13003, "Invalid item date")
	case errors.Is(err, service.ErrUnauthenticated):
		response.Unauthorized(c, 10002, "Not authenticated")
	default:
		response.InternalError(c)
	}
}
