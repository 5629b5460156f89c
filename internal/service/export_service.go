package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"

	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"

	"github.com/sank902/Campus-connect/internal/access"
	"github.com/sank902/Campus-connect/internal/model"
	"github.com/sank902/Campus-connect/internal/repository"
)

// ── 导出模块业务错误 ──

var (
	ErrExportGenerateFail = errors.New("生成 Excel 文件失败")
)

const registrantSheet = "报名名单"

// ExportService 导出业务接口
//
// 设计说明：
//   - 导出单个活动的报名名单为 Excel (.xlsx)，仅管理员可用
//   - 行顺序与报名顺序一致；已不存在的用户仅输出 ID
//   - 导出以 bytes.Buffer 返回，由 Handler 层设置 HTTP 响应头后写入 Response
type ExportService interface {
	ExportRegistrants(ctx context.Context, eventID string, p access.Principal) (*bytes.Buffer, string, error)
}

type exportService struct {
	repo   *repository.Repository
	logger *zap.Logger
}

// NewExportService 创建 ExportService 实例
func NewExportService(repo *repository.Repository, logger *zap.Logger) ExportService {
	return &exportService{repo: repo, logger: logger}
}

// ExportRegistrants 导出活动报名名单
// 返回值：buf（Excel 内容）, filename（建议文件名）, error
func (s *exportService) ExportRegistrants(ctx context.Context, eventID string, p access.Principal) (*bytes.Buffer, string, error) {
	if !access.ExportRegistrants.Allow(p, "") {
		return nil, "", ErrEventForbidden
	}

	event, err := findEvent(ctx, s.repo, s.logger, eventID)
	if err != nil {
		return nil, "", err
	}

	users, err := s.repo.User.ListByIDs(ctx, event.RegisteredUsers)
	if err != nil {
		s.logger.Error("查询报名用户失败", zap.String("event_id", eventID), zap.Error(err))
		return nil, "", err
	}
	byID := make(map[string]*model.User, len(users))
	for i := range users {
		byID[users[i].UserID] = &users[i]
	}

	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", registrantSheet); err != nil {
		return nil, "", fmt.Errorf("%w: %v", ErrExportGenerateFail, err)
	}

	// 标题行：活动信息
	title := fmt.Sprintf("%s（%s）", event.Title, event.Date.Format("2006-01-02 15:04"))
	_ = f.SetCellValue(registrantSheet, "A1", title)
	_ = f.MergeCell(registrantSheet, "A1", "D1")

	headers := []string{"序号", "用户ID", "姓名", "邮箱"}
	for i, h := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 2)
		_ = f.SetCellValue(registrantSheet, cell, h)
	}

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"#DCE6F1"}, Pattern: 1},
	})
	if err == nil {
		_ = f.SetCellStyle(registrantSheet, "A2", "D2", headerStyle)
	}

	for i, uid := range event.RegisteredUsers {
		row := i + 3
		name, email := "", ""
		if u, ok := byID[uid]; ok {
			name, email = u.Name, u.Email
		}
		values := []interface{}{i + 1, uid, name, email}
		for col, v := range values {
			cell, _ := excelize.CoordinatesToCellName(col+1, row)
			_ = f.SetCellValue(registrantSheet, cell, v)
		}
	}

	_ = f.SetColWidth(registrantSheet, "A", "A", 8)
	_ = f.SetColWidth(registrantSheet, "B", "B", 40)
	_ = f.SetColWidth(registrantSheet, "C", "D", 28)

	buf, err := f.WriteToBuffer()
	if err != nil {
		s.logger.Error("写入 Excel 失败", zap.Error(err))
		return nil, "", fmt.Errorf("%w: %v", ErrExportGenerateFail, err)
	}

	filename := fmt.Sprintf("%s_报名名单.xlsx", event.Title)
	return buf, filename, nil
}
