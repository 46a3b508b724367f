package httpapi

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"log/slog"
	"net/http/httptest"
	"sort"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/planhub/planhub/internal/authgate"
	"github.com/planhub/planhub/internal/common"
	"github.com/planhub/planhub/internal/dbx"
	"github.com/planhub/planhub/internal/logging"
	"github.com/planhub/planhub/internal/mq"
	"github.com/planhub/planhub/internal/server/config"
	"github.com/planhub/planhub/internal/server/models"
	lockoutsrepo "github.com/planhub/planhub/internal/server/repositories/lockouts"
	notificationsrepo "github.com/planhub/planhub/internal/server/repositories/notifications"
	plansrepo "github.com/planhub/planhub/internal/server/repositories/plans"
	refreshtokensrepo "github.com/planhub/planhub/internal/server/repositories/refreshtokens"
	resetsrepo "github.com/planhub/planhub/internal/server/repositories/resets"
	usersrepo "github.com/planhub/planhub/internal/server/repositories/users"
	"github.com/planhub/planhub/internal/server/services"
	"golang.org/x/crypto/bcrypt"
)

// Map-backed repositories for handler tests. No locking: handler tests are
// sequential.

type memUsers struct {
	seq   int
	users map[string]*models.User
}

func (m *memUsers) Create(ctx context.Context, u *models.User) (*models.User, error) {
	m.seq++
	u.ID = fmt.Sprintf("u-%d", m.seq)
	u.CreatedAt = time.Now()
	m.users[u.ID] = u
	return u, nil
}

func (m *memUsers) GetByUsername(ctx context.Context, username string) (*models.User, error) {
	for _, u := range m.users {
		if u.Username == username {
			return u, nil
		}
	}
	return nil, common.ErrorNotFound
}

func (m *memUsers) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	for _, u := range m.users {
		if u.Email == email {
			return u, nil
		}
	}
	return nil, common.ErrorNotFound
}

func (m *memUsers) GetByID(ctx context.Context, id string) (*models.User, error) {
	if u, ok := m.users[id]; ok {
		return u, nil
	}
	return nil, common.ErrorNotFound
}

func (m *memUsers) List(ctx context.Context) ([]*models.User, error) {
	var out []*models.User
	for _, u := range m.users {
		out = append(out, u)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Username < out[j].Username })
	return out, nil
}

func (m *memUsers) Update(ctx context.Context, u *models.User) error {
	if _, ok := m.users[u.ID]; !ok {
		return common.ErrorNotFound
	}
	m.users[u.ID] = u
	return nil
}

func (m *memUsers) SetPassword(ctx context.Context, id string, hash []byte) error {
	u, ok := m.users[id]
	if !ok {
		return common.ErrorNotFound
	}
	u.PasswordHash = hash
	return nil
}

func (m *memUsers) Delete(ctx context.Context, id string) error {
	delete(m.users, id)
	return nil
}

type memLocks struct{ locks map[string]*authgate.Lockout }

func (m *memLocks) Get(ctx context.Context, username string) (*authgate.Lockout, error) {
	if l, ok := m.locks[username]; ok {
		cp := *l
		return &cp, nil
	}
	return nil, common.ErrorNotFound
}

func (m *memLocks) Put(ctx context.Context, lock *authgate.Lockout) error {
	cp := *lock
	m.locks[lock.Username] = &cp
	return nil
}

func (m *memLocks) Delete(ctx context.Context, username string) error {
	delete(m.locks, username)
	return nil
}

type memRefresh struct{ tokens map[string]*models.RefreshToken }

func (m *memRefresh) Create(ctx context.Context, userID, token string, validity time.Duration) error {
	m.tokens[token] = &models.RefreshToken{UserID: userID, Token: token, Expires: time.Now().Add(validity)}
	return nil
}

func (m *memRefresh) Find(ctx context.Context, token string) (*models.RefreshToken, error) {
	if t, ok := m.tokens[token]; ok {
		return t, nil
	}
	return nil, common.ErrorNotFound
}

func (m *memRefresh) Delete(ctx context.Context, token string) error {
	delete(m.tokens, token)
	return nil
}

func (m *memRefresh) DeleteForUser(ctx context.Context, userID string) error {
	for k, t := range m.tokens {
		if t.UserID == userID {
			delete(m.tokens, k)
		}
	}
	return nil
}

type memPlans struct {
	seq       int
	plans     map[string]*models.Plan
	revisions map[string][]*models.PlanRevision
}

func (m *memPlans) Create(ctx context.Context, p *models.Plan) (*models.Plan, error) {
	m.seq++
	p.ID = fmt.Sprintf("p-%d", m.seq)
	p.CreatedAt = time.Now()
	p.UpdatedAt = p.CreatedAt
	m.plans[p.ID] = p
	return p, nil
}

func (m *memPlans) GetByID(ctx context.Context, id string) (*models.Plan, error) {
	if p, ok := m.plans[id]; ok {
		cp := *p
		return &cp, nil
	}
	return nil, common.ErrorNotFound
}

func (m *memPlans) GetByCode(ctx context.Context, code string) (*models.Plan, error) {
	for _, p := range m.plans {
		if p.Code == code {
			cp := *p
			return &cp, nil
		}
	}
	return nil, common.ErrorNotFound
}

func (m *memPlans) List(ctx context.Context, filter *models.PlanFilter) ([]*models.Plan, int, error) {
	var out []*models.Plan
	for _, p := range m.plans {
		if filter != nil && filter.Status != "" && p.Status != filter.Status {
			continue
		}
		cp := *p
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Code < out[j].Code })
	return out, len(out), nil
}

func (m *memPlans) Update(ctx context.Context, p *models.Plan) error {
	if _, ok := m.plans[p.ID]; !ok {
		return common.ErrorNotFound
	}
	cp := *p
	m.plans[p.ID] = &cp
	return nil
}

func (m *memPlans) UpdateStatus(ctx context.Context, id, status string) error {
	p, ok := m.plans[id]
	if !ok {
		return common.ErrorNotFound
	}
	p.Status = status
	return nil
}

func (m *memPlans) AddRevision(ctx context.Context, rev *models.PlanRevision) (*models.PlanRevision, error) {
	rev.ID = fmt.Sprintf("r-%d", len(m.revisions[rev.PlanID])+1)
	rev.CreatedAt = time.Now()
	m.revisions[rev.PlanID] = append(m.revisions[rev.PlanID], rev)
	if p, ok := m.plans[rev.PlanID]; ok {
		p.Revision = rev.Revision
		p.StorageKey = rev.StorageKey
	}
	return rev, nil
}

func (m *memPlans) ListRevisions(ctx context.Context, planID string) ([]*models.PlanRevision, error) {
	revs := append([]*models.PlanRevision(nil), m.revisions[planID]...)
	sort.Slice(revs, func(i, j int) bool { return revs[i].Revision > revs[j].Revision })
	return revs, nil
}

func (m *memPlans) Delete(ctx context.Context, id string) error {
	delete(m.plans, id)
	return nil
}

type memNotifications struct {
	seq   int
	items []*models.Notification
}

func (m *memNotifications) Create(ctx context.Context, n *models.Notification) (*models.Notification, error) {
	m.seq++
	n.ID = fmt.Sprintf("n-%d", m.seq)
	n.CreatedAt = time.Now()
	m.items = append(m.items, n)
	return n, nil
}

func (m *memNotifications) ListForUser(ctx context.Context, userID string, unreadOnly bool) ([]*models.Notification, error) {
	var out []*models.Notification
	for i := len(m.items) - 1; i >= 0; i-- {
		n := m.items[i]
		if n.UserID != userID || (unreadOnly && n.Read) {
			continue
		}
		out = append(out, n)
	}
	return out, nil
}

func (m *memNotifications) MarkRead(ctx context.Context, id, userID string) error {
	for _, n := range m.items {
		if n.ID == id && n.UserID == userID {
			n.Read = true
			return nil
		}
	}
	return common.ErrorNotFound
}

func (m *memNotifications) MarkAllRead(ctx context.Context, userID string) error {
	for _, n := range m.items {
		if n.UserID == userID {
			n.Read = true
		}
	}
	return nil
}

type memResets struct{ resets map[string]*models.PasswordReset }

func (m *memResets) Create(ctx context.Context, userID, token string, validity time.Duration) error {
	m.resets[token] = &models.PasswordReset{ID: token, UserID: userID, Token: token, Expires: time.Now().Add(validity)}
	return nil
}

func (m *memResets) Find(ctx context.Context, token string) (*models.PasswordReset, error) {
	if r, ok := m.resets[token]; ok && !r.Used {
		cp := *r
		return &cp, nil
	}
	return nil, common.ErrorNotFound
}

func (m *memResets) MarkUsed(ctx context.Context, token string) error {
	r, ok := m.resets[token]
	if !ok {
		return common.ErrorNotFound
	}
	r.Used = true
	return nil
}

type memRepoManager struct {
	u  *memUsers
	l  *memLocks
	r  *memRefresh
	p  *memPlans
	n  *memNotifications
	rs *memResets
}

func newMemRepoManager() *memRepoManager {
	return &memRepoManager{
		u:  &memUsers{users: map[string]*models.User{}},
		l:  &memLocks{locks: map[string]*authgate.Lockout{}},
		r:  &memRefresh{tokens: map[string]*models.RefreshToken{}},
		p:  &memPlans{plans: map[string]*models.Plan{}, revisions: map[string][]*models.PlanRevision{}},
		n:  &memNotifications{},
		rs: &memResets{resets: map[string]*models.PasswordReset{}},
	}
}

func (m *memRepoManager) RunMigrations(context.Context, *sql.DB) error { return nil }
func (m *memRepoManager) Users(db dbx.DBTX) usersrepo.Repository       { return m.u }
func (m *memRepoManager) Lockouts(db dbx.DBTX) lockoutsrepo.Repository { return m.l }
func (m *memRepoManager) RefreshTokens(db dbx.DBTX) refreshtokensrepo.Repository {
	return m.r
}
func (m *memRepoManager) Plans(db dbx.DBTX) plansrepo.Repository { return m.p }
func (m *memRepoManager) Notifications(db dbx.DBTX) notificationsrepo.Repository {
	return m.n
}
func (m *memRepoManager) Resets(db dbx.DBTX) resetsrepo.Repository { return m.rs }

// --- test server assembly ---

type testEnv struct {
	server *httptest.Server
	rm     *memRepoManager
	cfg    *config.Config
	db     *sql.DB
	mock   sqlmock.Sqlmock
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New error: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	cfg := &config.Config{
		SecretKey:                    "test-secret",
		AccessTokenValidityDuration:  time.Hour,
		RefreshTokenValidityDuration: 24 * time.Hour,
		LockMaxAttempts:              3,
		LockDuration:                 6 * time.Minute,
		S3Bucket:                     "planos",
		S3Region:                     "us-east-1",
		S3BaseEndpoint:               "http://127.0.0.1:9000",
		PublicBaseURL:                "http://localhost:5173",
	}

	logger := logging.NewSlogLogger(slog.New(slog.NewJSONHandler(io.Discard, nil)))
	rm := newMemRepoManager()

	userSvc := services.NewUserService(db, rm, cfg)
	accountSvc := services.NewAccountService(db, rm)
	notifySvc := services.NewNotificationService(db, rm, mq.NoopPublisher{}, logger)
	planSvc := services.NewPlanService(db, rm, notifySvc, cfg)
	resetSvc := services.NewResetService(db, rm, &memMailer{}, logger, cfg)

	h := NewHandler(userSvc, accountSvc, planSvc, notifySvc, resetSvc, logger, []byte(cfg.SecretKey))
	srv := httptest.NewServer(h.Router())
	t.Cleanup(srv.Close)

	return &testEnv{server: srv, rm: rm, cfg: cfg, db: db, mock: mock}
}

type memMailer struct {
	to   []string
	body []string
}

func (m *memMailer) Send(ctx context.Context, to, subject, body string) error {
	m.to = append(m.to, to)
	m.body = append(m.body, body)
	return nil
}

func (e *testEnv) seedUser(t *testing.T, username, password, role string) *models.User {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("bcrypt error: %v", err)
	}
	u, err := e.rm.u.Create(context.Background(), &models.User{
		Username:     username,
		Email:        username + "@planta.com",
		Role:         role,
		PasswordHash: hash,
		Active:       true,
	})
	if err != nil {
		t.Fatalf("seed user error: %v", err)
	}
	return u
}
