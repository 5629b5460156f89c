package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/sank902/Campus-connect/internal/access"
	"github.com/sank902/Campus-connect/internal/dto"
	"github.com/sank902/Campus-connect/internal/service"
	"github.com/sank902/Campus-connect/pkg/response"
)

func init() {
	gin.SetMode(gin.TestMode)
}

// ═══════════════════════════════════════════════════════════
// Mock Services
// ═══════════════════════════════════════════════════════════

// ── Mock AuthService ──

type mockAuthService struct {
	registerErr error
	loginResult *dto.LoginResponse
	loginErr    error
	logoutErr   error
	logoutJTI   string
}

func (m *mockAuthService) Register(_ context.Context, req *dto.RegisterRequest) (*dto.UserResponse, error) {
	if m.registerErr != nil {
		return nil, m.registerErr
	}
	return &dto.UserResponse{ID: "u1", Name: req.Name, Email: req.Email, Role: "student"}, nil
}
func (m *mockAuthService) Login(_ context.Context, _ *dto.LoginRequest) (*dto.LoginResponse, error) {
	return m.loginResult, m.loginErr
}
func (m *mockAuthService) Logout(_ context.Context, jti string, _ time.Time) error {
	m.logoutJTI = jti
	return m.logoutErr
}
func (m *mockAuthService) CurrentUser(p access.Principal) *dto.UserResponse {
	return &dto.UserResponse{ID: p.ID, Name: p.Name, Email: p.Email, Role: p.Role}
}

// ── Mock EventService ──

type mockEventService struct {
	listResult   []dto.EventResponse
	listErr      error
	getResult    *dto.EventResponse
	getErr       error
	createResult *dto.EventResponse
	createErr    error
	createCalled bool
	regResult    *dto.EventResponse
	regErr       error
	regPrincipal access.Principal
}

func (m *mockEventService) List(_ context.Context) ([]dto.EventResponse, error) {
	return m.listResult, m.listErr
}
func (m *mockEventService) GetByID(_ context.Context, _ string) (*dto.EventResponse, error) {
	return m.getResult, m.getErr
}
func (m *mockEventService) Create(_ context.Context, _ *dto.CreateEventRequest, _ access.Principal) (*dto.EventResponse, error) {
	m.createCalled = true
	return m.createResult, m.createErr
}
func (m *mockEventService) Register(_ context.Context, _ string, p access.Principal) (*dto.EventResponse, error) {
	m.regPrincipal = p
	return m.regResult, m.regErr
}

// ── Mock ExportService ──

type mockExportService struct {
	buf      *bytes.Buffer
	filename string
	err      error
}

func (m *mockExportService) ExportRegistrants(_ context.Context, _ string, _ access.Principal) (*bytes.Buffer, string, error) {
	return m.buf, m.filename, m.err
}

// ── Mock CalendarService ──

type mockCalendarService struct {
	body      string
	err       error
	imported  string
	importRes *dto.ImportResult
	importErr error
}

func (m *mockCalendarService) ExportCalendar(_ context.Context) (string, error) {
	return m.body, m.err
}
func (m *mockCalendarService) ImportCalendar(_ context.Context, r io.Reader, _ access.Principal) (*dto.ImportResult, error) {
	b, _ := io.ReadAll(r)
	m.imported = string(b)
	return m.importRes, m.importErr
}

// ── Mock ItemService ──

type mockItemService struct {
	listResult   []dto.ItemResponse
	listErr      error
	listStatus   string
	createResult *dto.ItemResponse
	createErr    error
	deleteErr    error
}

func (m *mockItemService) List(_ context.Context, req *dto.ItemListRequest) ([]dto.ItemResponse, error) {
	m.listStatus = req.Status
	return m.listResult, m.listErr
}
func (m *mockItemService) Create(_ context.Context, _ *dto.CreateItemRequest, _ access.Principal) (*dto.ItemResponse, error) {
	return m.createResult, m.createErr
}
func (m *mockItemService) Delete(_ context.Context, _ string, _ access.Principal) error {
	return m.deleteErr
}

// ═══════════════════════════════════════════════════════════
// Test Helpers
// ═══════════════════════════════════════════════════════════

func setAuth(role string) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set("user_id", "test-user-id")
		c.Set("user_name", "Tester")
		c.Set("user_email", "tester@campus.edu")
		c.Set("role", role)
		c.Set("token_jti", "test-jti")
		c.Set("token_exp", time.Now().Add(time.Hour))
		c.Next()
	}
}

func jsonBody(v interface{}) io.Reader {
	b, _ := json.Marshal(v)
	return bytes.NewReader(b)
}

func parseError(w *httptest.ResponseRecorder) response.ErrorBody {
	var body response.ErrorBody
	_ = json.Unmarshal(w.Body.Bytes(), &body)
	return body
}

func doJSON(r *gin.Engine, method, path string, body interface{}) *httptest.ResponseRecorder {
	var reader io.Reader
	if body != nil {
		reader = jsonBody(body)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

// ═══════════════════════════════════════════════════════════
// AuthHandler Tests
// ═══════════════════════════════════════════════════════════

func TestAuthHandler_Register_Success(t *testing.T) {
	h := NewAuthHandler(&mockAuthService{})
	r := gin.New()
	r.POST("/register", h.Register)

	w := doJSON(r, "POST", "/register", dto.RegisterRequest{Name: "A", Email: "a@campus.edu", Password: "pw"})

	if w.Code != http.StatusCreated {
		t.Fatalf("期望 201，实际=%d", w.Code)
	}
	var body response.MessageBody
	_ = json.Unmarshal(w.Body.Bytes(), &body)
	if body.Message != "User registered successfully" {
		t.Errorf("提示信息不符: %q", body.Message)
	}
	if strings.Contains(w.Body.String(), "token") {
		t.Error("注册响应不应签发 Token")
	}
}

func TestAuthHandler_Register_Duplicate(t *testing.T) {
	h := NewAuthHandler(&mockAuthService{registerErr: service.ErrEmailExists})
	r := gin.New()
	r.POST("/register", h.Register)

	w := doJSON(r, "POST", "/register", dto.RegisterRequest{Name: "A", Email: "a@campus.edu", Password: "pw"})

	if w.Code != http.StatusBadRequest {
		t.Errorf("期望 400，实际=%d", w.Code)
	}
	if body := parseError(w); body.Code != 11002 {
		t.Errorf("期望 code=11002，实际=%d", body.Code)
	}
}

func TestAuthHandler_Register_InvalidBody(t *testing.T) {
	h := NewAuthHandler(&mockAuthService{})
	r := gin.New()
	r.POST("/register", h.Register)

	w := doJSON(r, "POST", "/register", map[string]string{"name": "A", "email": "not-an-email"})

	if w.Code != http.StatusBadRequest {
		t.Errorf("期望 400，实际=%d", w.Code)
	}
	if body := parseError(w); body.Code != 10001 || body.Details == "" {
		t.Errorf("期望 code=10001 且包含详情，实际=%+v", body)
	}
}

func TestAuthHandler_Register_PasswordTooLong(t *testing.T) {
	h := NewAuthHandler(&mockAuthService{registerErr: service.ErrPasswordTooLong})
	r := gin.New()
	r.POST("/register", h.Register)

	w := doJSON(r, "POST", "/register", dto.RegisterRequest{Name: "A", Email: "a@campus.edu", Password: strings.Repeat("密", 30)})

	if w.Code != http.StatusBadRequest {
		t.Errorf("期望 400，实际=%d", w.Code)
	}
	if body := parseError(w); body.Code != 10001 {
		t.Errorf("期望 code=10001，实际=%d", body.Code)
	}
}

func TestAuthHandler_Register_StoreFailure(t *testing.T) {
	h := NewAuthHandler(&mockAuthService{registerErr: errors.New("pq: connection refused")})
	r := gin.New()
	r.POST("/register", h.Register)

	w := doJSON(r, "POST", "/register", dto.RegisterRequest{Name: "A", Email: "a@campus.edu", Password: "pw"})

	if w.Code != http.StatusInternalServerError {
		t.Errorf("期望 500，实际=%d", w.Code)
	}
	if strings.Contains(w.Body.String(), "pq:") {
		t.Error("500 响应不应泄露内部错误")
	}
}

func TestAuthHandler_Login_Success(t *testing.T) {
	mock := &mockAuthService{loginResult: &dto.LoginResponse{
		Token:     "signed-token",
		ExpiresIn: 10800,
		User:      dto.UserResponse{ID: "u1", Name: "Alice", Email: "alice@campus.edu", Role: "student"},
	}}
	h := NewAuthHandler(mock)
	r := gin.New()
	r.POST("/login", h.Login)

	w := doJSON(r, "POST", "/login", dto.LoginRequest{Email: "alice@campus.edu", Password: "pw"})

	if w.Code != http.StatusOK {
		t.Fatalf("期望 200，实际=%d", w.Code)
	}
	var body struct {
		Token string            `json:"token"`
		User  map[string]string `json:"user"`
	}
	_ = json.Unmarshal(w.Body.Bytes(), &body)
	if body.Token != "signed-token" {
		t.Errorf("token 不符: %q", body.Token)
	}
	for _, k := range []string{"id", "name", "email", "role"} {
		if body.User[k] == "" {
			t.Errorf("user.%s 缺失", k)
		}
	}
	if _, ok := body.User["password"]; ok {
		t.Error("响应不应包含密码")
	}
}

func TestAuthHandler_Login_InvalidCredentials(t *testing.T) {
	h := NewAuthHandler(&mockAuthService{loginErr: service.ErrInvalidCredentials})
	r := gin.New()
	r.POST("/login", h.Login)

	w := doJSON(r, "POST", "/login", dto.LoginRequest{Email: "a@campus.edu", Password: "bad"})

	if w.Code != http.StatusBadRequest {
		t.Errorf("期望 400，实际=%d", w.Code)
	}
	body := parseError(w)
	if body.Code != 11001 || body.Message != "Invalid credentials" {
		t.Errorf("错误体不符: %+v", body)
	}
}

func TestAuthHandler_Logout(t *testing.T) {
	mock := &mockAuthService{}
	h := NewAuthHandler(mock)
	r := gin.New()
	r.POST("/logout", setAuth("student"), h.Logout)

	w := doJSON(r, "POST", "/logout", nil)

	if w.Code != http.StatusOK {
		t.Errorf("期望 200，实际=%d", w.Code)
	}
	if mock.logoutJTI != "test-jti" {
		t.Errorf("应以当前 Token 的 jti 登出，实际=%q", mock.logoutJTI)
	}
}

func TestAuthHandler_Me(t *testing.T) {
	h := NewAuthHandler(&mockAuthService{})

	r := gin.New()
	r.GET("/me", setAuth("admin"), h.Me)
	w := doJSON(r, "GET", "/me", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("期望 200，实际=%d", w.Code)
	}
	var user dto.UserResponse
	_ = json.Unmarshal(w.Body.Bytes(), &user)
	if user.ID != "test-user-id" || user.Role != "admin" {
		t.Errorf("身份不符: %+v", user)
	}

	// 未经过认证中间件
	r2 := gin.New()
	r2.GET("/me", h.Me)
	if w := doJSON(r2, "GET", "/me", nil); w.Code != http.StatusUnauthorized {
		t.Errorf("缺少身份期望 401，实际=%d", w.Code)
	}
}

// ═══════════════════════════════════════════════════════════
// EventHandler Tests
// ═══════════════════════════════════════════════════════════

func newEventRouter(ev *mockEventService, ex *mockExportService, cal *mockCalendarService, role string) *gin.Engine {
	h := NewEventHandler(ev, ex, cal)
	r := gin.New()
	g := r.Group("/events", setAuth(role))
	g.GET("", h.ListEvents)
	g.POST("", h.CreateEvent)
	g.GET("/calendar.ics", h.Calendar)
	g.POST("/import", h.ImportCalendar)
	g.GET("/:id", h.GetEvent)
	g.POST("/:id/register", h.RegisterEvent)
	g.GET("/:id/registrants/export", h.ExportRegistrants)
	return r
}

func TestEventHandler_ListEvents_WireShape(t *testing.T) {
	ev := &mockEventService{listResult: []dto.EventResponse{{
		ID: "e1", Title: "Fest", Date: time.Date(2025, 12, 15, 17, 0, 0, 0, time.UTC), RegisteredUsers: []string{},
	}}}
	r := newEventRouter(ev, nil, nil, "student")

	w := doJSON(r, "GET", "/events", nil)

	if w.Code != http.StatusOK {
		t.Fatalf("期望 200，实际=%d", w.Code)
	}
	var list []map[string]interface{}
	if err := json.Unmarshal(w.Body.Bytes(), &list); err != nil {
		t.Fatalf("响应应为 JSON 数组: %v", err)
	}
	if list[0]["_id"] != "e1" {
		t.Errorf("应使用 _id 字段，实际=%v", list[0])
	}
	if regs, ok := list[0]["registeredUsers"].([]interface{}); !ok || len(regs) != 0 {
		t.Errorf("registeredUsers 应为空数组，实际=%v", list[0]["registeredUsers"])
	}
}

func TestEventHandler_CreateEvent(t *testing.T) {
	valid := dto.CreateEventRequest{Title: "Hack", Date: "2025-11-28T18:00", Location: "Lab", Description: "d"}

	t.Run("管理员创建成功", func(t *testing.T) {
		ev := &mockEventService{createResult: &dto.EventResponse{ID: "e1", Title: "Hack"}}
		w := doJSON(newEventRouter(ev, nil, nil, "admin"), "POST", "/events", valid)
		if w.Code != http.StatusCreated {
			t.Errorf("期望 201，实际=%d", w.Code)
		}
	})

	t.Run("学生被拒", func(t *testing.T) {
		ev := &mockEventService{createErr: service.ErrEventForbidden}
		w := doJSON(newEventRouter(ev, nil, nil, "student"), "POST", "/events", valid)
		if w.Code != http.StatusForbidden {
			t.Errorf("期望 403，实际=%d", w.Code)
		}
	})

	t.Run("缺少必填字段", func(t *testing.T) {
		ev := &mockEventService{}
		w := doJSON(newEventRouter(ev, nil, nil, "admin"), "POST", "/events", map[string]string{"title": "x"})
		if w.Code != http.StatusBadRequest {
			t.Errorf("期望 400，实际=%d", w.Code)
		}
		if ev.createCalled {
			t.Error("校验失败不应调用 Service")
		}
	})

	t.Run("非法日期", func(t *testing.T) {
		ev := &mockEventService{createErr: service.ErrInvalidDate}
		w := doJSON(newEventRouter(ev, nil, nil, "admin"), "POST", "/events", valid)
		if w.Code != http.StatusBadRequest || parseError(w).Code != 12002 {
			t.Errorf("期望 400/12002，实际=%d/%d", w.Code, parseError(w).Code)
		}
	})
}

func TestEventHandler_RegisterEvent(t *testing.T) {
	ev := &mockEventService{regResult: &dto.EventResponse{ID: "e1", RegisteredUsers: []string{"test-user-id"}}}
	w := doJSON(newEventRouter(ev, nil, nil, "student"), "POST", "/events/e1/register", nil)

	if w.Code != http.StatusOK {
		t.Errorf("期望 200，实际=%d", w.Code)
	}
	if ev.regPrincipal.ID != "test-user-id" {
		t.Errorf("应以认证身份报名，实际=%q", ev.regPrincipal.ID)
	}

	ev = &mockEventService{regErr: service.ErrEventNotFound}
	w = doJSON(newEventRouter(ev, nil, nil, "student"), "POST", "/events/missing/register", nil)
	if w.Code != http.StatusNotFound {
		t.Errorf("期望 404，实际=%d", w.Code)
	}
	if body := parseError(w); body.Message != "Event not found" {
		t.Errorf("提示信息不符: %q", body.Message)
	}

	ev = &mockEventService{regErr: errors.New("db down")}
	w = doJSON(newEventRouter(ev, nil, nil, "student"), "POST", "/events/e1/register", nil)
	if w.Code != http.StatusInternalServerError {
		t.Errorf("期望 500，实际=%d", w.Code)
	}
}

func TestEventHandler_ExportRegistrants(t *testing.T) {
	ex := &mockExportService{buf: bytes.NewBufferString("xlsx-bytes"), filename: "Hack_报名名单.xlsx"}
	w := doJSON(newEventRouter(&mockEventService{}, ex, nil, "admin"), "GET", "/events/e1/registrants/export", nil)

	if w.Code != http.StatusOK {
		t.Fatalf("期望 200，实际=%d", w.Code)
	}
	if ct := w.Header().Get("Content-Type"); !strings.Contains(ct, "spreadsheetml") {
		t.Errorf("Content-Type 不符: %s", ct)
	}
	if cd := w.Header().Get("Content-Disposition"); !strings.HasPrefix(cd, "attachment;") {
		t.Errorf("Content-Disposition 不符: %s", cd)
	}

	ex = &mockExportService{err: service.ErrEventForbidden}
	w = doJSON(newEventRouter(&mockEventService{}, ex, nil, "student"), "GET", "/events/e1/registrants/export", nil)
	if w.Code != http.StatusForbidden {
		t.Errorf("期望 403，实际=%d", w.Code)
	}
}

func TestEventHandler_Calendar(t *testing.T) {
	cal := &mockCalendarService{body: "BEGIN:VCALENDAR\r\nEND:VCALENDAR\r\n"}
	w := doJSON(newEventRouter(&mockEventService{}, nil, cal, "student"), "GET", "/events/calendar.ics", nil)

	if w.Code != http.StatusOK {
		t.Fatalf("期望 200，实际=%d", w.Code)
	}
	if ct := w.Header().Get("Content-Type"); !strings.HasPrefix(ct, "text/calendar") {
		t.Errorf("Content-Type 不符: %s", ct)
	}
	if !strings.HasPrefix(w.Body.String(), "BEGIN:VCALENDAR") {
		t.Errorf("响应体不符: %s", w.Body.String())
	}
}

func TestEventHandler_ImportCalendar(t *testing.T) {
	cal := &mockCalendarService{importRes: &dto.ImportResult{Created: 2, Skipped: 1}}
	r := newEventRouter(&mockEventService{}, nil, cal, "admin")

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, _ := mw.CreateFormFile("file", "events.ics")
	_, _ = fw.Write([]byte("BEGIN:VCALENDAR"))
	_ = mw.Close()

	req := httptest.NewRequest("POST", "/events/import", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusCreated {
		t.Fatalf("期望 201，实际=%d", w.Code)
	}
	if cal.imported != "BEGIN:VCALENDAR" {
		t.Errorf("上传内容未传递给 Service: %q", cal.imported)
	}

	// 缺少文件
	w = doJSON(r, "POST", "/events/import", nil)
	if w.Code != http.StatusBadRequest {
		t.Errorf("缺少文件期望 400，实际=%d", w.Code)
	}
}

func TestEventHandler_ImportCalendar_TooLarge(t *testing.T) {
	cal := &mockCalendarService{importErr: service.ErrCalendarTooLarge}
	r := newEventRouter(&mockEventService{}, nil, cal, "admin")

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, _ := mw.CreateFormFile("file", "events.ics")
	_, _ = fw.Write([]byte("BEGIN:VCALENDAR"))
	_ = mw.Close()

	req := httptest.NewRequest("POST", "/events/import", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusRequestEntityTooLarge {
		t.Errorf("期望 413，实际=%d", w.Code)
	}
	if body := parseError(w); body.Code != 10005 {
		t.Errorf("期望 code=10005，实际=%d", body.Code)
	}
}

// ═══════════════════════════════════════════════════════════
// ItemHandler Tests
// ═══════════════════════════════════════════════════════════

func newItemRouter(m *mockItemService) *gin.Engine {
	h := NewItemHandler(m)
	r := gin.New()
	g := r.Group("/items", setAuth("student"))
	g.GET("", h.ListItems)
	g.POST("", h.CreateItem)
	g.DELETE("/:id", h.DeleteItem)
	return r
}

func TestItemHandler_ListItems(t *testing.T) {
	m := &mockItemService{listResult: []dto.ItemResponse{{ID: "i1", Item: "Keys", Status: "Found"}}}
	r := newItemRouter(m)

	w := doJSON(r, "GET", "/items?status=Found", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("期望 200，实际=%d", w.Code)
	}
	if m.listStatus != "Found" {
		t.Errorf("status 过滤未传递，实际=%q", m.listStatus)
	}

	w = doJSON(r, "GET", "/items?status=Stolen", nil)
	if w.Code != http.StatusBadRequest {
		t.Errorf("非法 status 期望 400，实际=%d", w.Code)
	}
}

func TestItemHandler_CreateItem(t *testing.T) {
	m := &mockItemService{createResult: &dto.ItemResponse{ID: "i1", Reporter: "test-user-id"}}
	r := newItemRouter(m)

	w := doJSON(r, "POST", "/items", dto.CreateItemRequest{Item: "Keys", Location: "Quad", Date: "2025-11-16", Status: "Found"})
	if w.Code != http.StatusCreated {
		t.Errorf("期望 201，实际=%d", w.Code)
	}

	w = doJSON(r, "POST", "/items", dto.CreateItemRequest{Item: "Keys", Location: "Quad", Date: "2025-11-16", Status: "Misplaced"})
	if w.Code != http.StatusBadRequest {
		t.Errorf("非法状态期望 400，实际=%d", w.Code)
	}
}

func TestItemHandler_DeleteItem(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		wantCode int
	}{
		{"删除成功", nil, http.StatusOK},
		{"物品不存在", service.ErrItemNotFound, http.StatusNotFound},
		{"非发布者", service.ErrNotItemOwner, http.StatusUnauthorized},
		{"存储故障", errors.New("db down"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := doJSON(newItemRouter(&mockItemService{deleteErr: tt.err}), "DELETE", "/items/i1", nil)
			if w.Code != tt.wantCode {
				t.Errorf("期望 %d，实际=%d", tt.wantCode, w.Code)
			}
		})
	}

	w := doJSON(newItemRouter(&mockItemService{}), "DELETE", "/items/i1", nil)
	var body response.MessageBody
	_ = json.Unmarshal(w.Body.Bytes(), &body)
	if body.Message != "Item removed successfully" {
		t.Errorf("提示信息不符: %q", body.Message)
	}
}
