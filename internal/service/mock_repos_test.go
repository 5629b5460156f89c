package service

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/sank902/Campus-connect/config"
	"github.com/sank902/Campus-connect/internal/model"
	"github.com/sank902/Campus-connect/internal/repository"
	pkgerrors "github.com/sank902/Campus-connect/pkg/errors"
	"github.com/sank902/Campus-connect/pkg/jwt"
)

// ── Mock UserRepository ──

type mockUserRepo struct {
	mu        sync.Mutex
	users     map[string]*model.User // key: user_id
	byEmail   map[string]*model.User
	err       error // 非 nil 时所有方法返回该错误
	createErr error // 仅 Create 返回该错误
}

func newMockUserRepo() *mockUserRepo {
	return &mockUserRepo{
		users:   make(map[string]*model.User),
		byEmail: make(map[string]*model.User),
	}
}

func (m *mockUserRepo) Create(_ context.Context, user *model.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	if m.createErr != nil {
		return m.createErr
	}
	if _, ok := m.byEmail[user.Email]; ok {
		return pkgerrors.ErrDuplicateKey
	}
	if user.UserID == "" {
		user.UserID = uuid.NewString()
	}
	m.users[user.UserID] = user
	m.byEmail[user.Email] = user
	return nil
}

func (m *mockUserRepo) GetByID(_ context.Context, id string) (*model.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return nil, m.err
	}
	if u, ok := m.users[id]; ok {
		return u, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockUserRepo) GetByEmail(_ context.Context, email string) (*model.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return nil, m.err
	}
	if u, ok := m.byEmail[email]; ok {
		return u, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockUserRepo) ListByIDs(_ context.Context, ids []string) ([]model.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return nil, m.err
	}
	var result []model.User
	for _, id := range ids {
		if u, ok := m.users[id]; ok {
			result = append(result, *u)
		}
	}
	return result, nil
}

func (m *mockUserRepo) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.users)
}

// ── Mock EventRepository ──

type mockEventRepo struct {
	mu     sync.Mutex
	events map[string]*model.Event
	writes int // AddRegistrant 实际写入次数
	err    error
}

func newMockEventRepo() *mockEventRepo {
	return &mockEventRepo{events: make(map[string]*model.Event)}
}

func (m *mockEventRepo) put(e *model.Event) *model.Event {
	m.mu.Lock()
	defer m.mu.Unlock()
	if e.EventID == "" {
		e.EventID = uuid.NewString()
	}
	if e.RegisteredUsers == nil {
		e.RegisteredUsers = model.StringArray{}
	}
	m.events[e.EventID] = e
	return e
}

func (m *mockEventRepo) Create(_ context.Context, event *model.Event) error {
	if m.err != nil {
		return m.err
	}
	event.CreatedAt = time.Now()
	event.UpdatedAt = event.CreatedAt
	m.put(event)
	return nil
}

func (m *mockEventRepo) CreateBatch(ctx context.Context, events []model.Event) error {
	for i := range events {
		if err := m.Create(ctx, &events[i]); err != nil {
			return err
		}
	}
	return nil
}

func (m *mockEventRepo) GetByID(_ context.Context, id string) (*model.Event, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return nil, m.err
	}
	e, ok := m.events[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	cp := *e
	cp.RegisteredUsers = append(model.StringArray{}, e.RegisteredUsers...)
	return &cp, nil
}

func (m *mockEventRepo) List(_ context.Context) ([]model.Event, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return nil, m.err
	}
	result := make([]model.Event, 0, len(m.events))
	for _, e := range m.events {
		result = append(result, *e)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Date.Before(result[j].Date) })
	return result, nil
}

func (m *mockEventRepo) Count(_ context.Context) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return 0, m.err
	}
	return int64(len(m.events)), nil
}

// AddRegistrant 在锁内完成判断与追加，与数据库条件更新语义一致
func (m *mockEventRepo) AddRegistrant(_ context.Context, eventID, userID string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return false, m.err
	}
	e, ok := m.events[eventID]
	if !ok || e.RegisteredUsers.Contains(userID) {
		return false, nil
	}
	e.RegisteredUsers = append(e.RegisteredUsers, userID)
	m.writes++
	return true, nil
}

// ── Mock ItemRepository ──

type mockItemRepo struct {
	mu    sync.Mutex
	items map[string]*model.Item
	err   error
}

func newMockItemRepo() *mockItemRepo {
	return &mockItemRepo{items: make(map[string]*model.Item)}
}

func (m *mockItemRepo) put(it *model.Item) *model.Item {
	m.mu.Lock()
	defer m.mu.Unlock()
	if it.ItemID == "" {
		it.ItemID = uuid.NewString()
	}
	m.items[it.ItemID] = it
	return it
}

func (m *mockItemRepo) Create(_ context.Context, item *model.Item) error {
	if m.err != nil {
		return m.err
	}
	m.put(item)
	return nil
}

func (m *mockItemRepo) CreateBatch(ctx context.Context, items []model.Item) error {
	for i := range items {
		if err := m.Create(ctx, &items[i]); err != nil {
			return err
		}
	}
	return nil
}

func (m *mockItemRepo) GetByID(_ context.Context, id string) (*model.Item, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return nil, m.err
	}
	if it, ok := m.items[id]; ok {
		cp := *it
		return &cp, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockItemRepo) List(_ context.Context, status string) ([]model.Item, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return nil, m.err
	}
	var result []model.Item
	for _, it := range m.items {
		if status != "" && it.Status != status {
			continue
		}
		result = append(result, *it)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Date.After(result[j].Date) })
	return result, nil
}

func (m *mockItemRepo) Count(_ context.Context) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return 0, m.err
	}
	return int64(len(m.items)), nil
}

func (m *mockItemRepo) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	if _, ok := m.items[id]; !ok {
		return gorm.ErrRecordNotFound
	}
	delete(m.items, id)
	return nil
}

func (m *mockItemRepo) exists(id string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.items[id]
	return ok
}

// ── Mock TokenRevoker ──

type mockRevoker struct {
	jti string
	ttl time.Duration
	err error
}

func (m *mockRevoker) BlacklistToken(_ context.Context, jti string, ttl time.Duration) error {
	m.jti, m.ttl = jti, ttl
	return m.err
}

// ── 测试辅助 ──

type testEnv struct {
	cfg    *config.Config
	repo   *repository.Repository
	users  *mockUserRepo
	events *mockEventRepo
	items  *mockItemRepo
	jwtMgr *jwt.Manager
	logger *zap.Logger
}

func newTestEnv() *testEnv {
	cfg := &config.Config{
		Auth: config.AuthConfig{
			JWTSecret:   "test-secret-key-for-unit-testing-2026",
			TokenTTL:    3 * time.Hour,
			BcryptCost:  bcrypt.MinCost,
			AdminMarker: "admin",
		},
	}
	users, events, items := newMockUserRepo(), newMockEventRepo(), newMockItemRepo()
	return &testEnv{
		cfg:    cfg,
		repo:   &repository.Repository{User: users, Event: events, Item: items},
		users:  users,
		events: events,
		items:  items,
		jwtMgr: jwt.NewManager(&cfg.Auth),
		logger: zap.NewNop(),
	}
}

// addUser 直接写入一个已哈希密码的用户
func (e *testEnv) addUser(name, email, password, role string) *model.User {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	if err != nil {
		panic(fmt.Sprintf("hash: %v", err))
	}
	u := &model.User{Name: name, Email: email, PasswordHash: string(hash), Role: role}
	if err := e.users.Create(context.Background(), u); err != nil {
		panic(err)
	}
	return u
}
