package services

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/planhub/planhub/internal/authgate"
	"github.com/planhub/planhub/internal/logging"
	"github.com/planhub/planhub/internal/common"
	"github.com/planhub/planhub/internal/dbx"
	"github.com/planhub/planhub/internal/server/models"
	lockoutsrepo "github.com/planhub/planhub/internal/server/repositories/lockouts"
	notificationsrepo "github.com/planhub/planhub/internal/server/repositories/notifications"
	plansrepo "github.com/planhub/planhub/internal/server/repositories/plans"
	refreshtokensrepo "github.com/planhub/planhub/internal/server/repositories/refreshtokens"
	resetsrepo "github.com/planhub/planhub/internal/server/repositories/resets"
	usersrepo "github.com/planhub/planhub/internal/server/repositories/users"
)

// In-memory fakes shared by the service tests. They live behind the same
// repository interfaces as the Postgres implementations.

func newTestLogger() logging.Logger {
	return logging.NewSlogLogger(slog.New(slog.NewJSONHandler(io.Discard, nil)))
}

type fakeUsersRepo struct {
	mu    sync.Mutex
	seq   int
	users map[string]*models.User

	err error
}

func newFakeUsersRepo() *fakeUsersRepo {
	return &fakeUsersRepo{users: map[string]*models.User{}}
}

func (f *fakeUsersRepo) Create(ctx context.Context, user *models.User) (*models.User, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.seq++
	user.ID = fmt.Sprintf("u-%d", f.seq)
	user.CreatedAt = time.Now()
	f.users[user.ID] = user
	return user, nil
}

func (f *fakeUsersRepo) GetByUsername(ctx context.Context, username string) (*models.User, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, u := range f.users {
		if u.Username == username {
			return u, nil
		}
	}
	return nil, common.ErrorNotFound
}

func (f *fakeUsersRepo) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, u := range f.users {
		if u.Email == email {
			return u, nil
		}
	}
	return nil, common.ErrorNotFound
}

func (f *fakeUsersRepo) GetByID(ctx context.Context, id string) (*models.User, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if u, ok := f.users[id]; ok {
		return u, nil
	}
	return nil, common.ErrorNotFound
}

func (f *fakeUsersRepo) List(ctx context.Context) ([]*models.User, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	var result []*models.User
	for _, u := range f.users {
		result = append(result, u)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Username < result[j].Username })
	return result, nil
}

func (f *fakeUsersRepo) Update(ctx context.Context, user *models.User) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.users[user.ID]; !ok {
		return common.ErrorNotFound
	}
	f.users[user.ID] = user
	return nil
}

func (f *fakeUsersRepo) SetPassword(ctx context.Context, id string, hash []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.users[id]
	if !ok {
		return common.ErrorNotFound
	}
	u.PasswordHash = hash
	return nil
}

func (f *fakeUsersRepo) Delete(ctx context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.users, id)
	return nil
}

type fakeLockoutsRepo struct {
	mu    sync.Mutex
	locks map[string]*authgate.Lockout
}

func newFakeLockoutsRepo() *fakeLockoutsRepo {
	return &fakeLockoutsRepo{locks: map[string]*authgate.Lockout{}}
}

func (f *fakeLockoutsRepo) Get(ctx context.Context, username string) (*authgate.Lockout, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if l, ok := f.locks[username]; ok {
		cp := *l
		return &cp, nil
	}
	return nil, common.ErrorNotFound
}

func (f *fakeLockoutsRepo) Put(ctx context.Context, lock *authgate.Lockout) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	cp := *lock
	f.locks[lock.Username] = &cp
	return nil
}

func (f *fakeLockoutsRepo) Delete(ctx context.Context, username string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.locks, username)
	return nil
}

type fakeRefreshRepo struct {
	mu     sync.Mutex
	tokens map[string]*models.RefreshToken

	createErr error
}

func newFakeRefreshRepo() *fakeRefreshRepo {
	return &fakeRefreshRepo{tokens: map[string]*models.RefreshToken{}}
}

func (f *fakeRefreshRepo) Create(ctx context.Context, userID string, token string, validity time.Duration) error {
	if f.createErr != nil {
		return f.createErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.tokens[token] = &models.RefreshToken{UserID: userID, Token: token, Expires: time.Now().Add(validity)}
	return nil
}

func (f *fakeRefreshRepo) Find(ctx context.Context, token string) (*models.RefreshToken, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if t, ok := f.tokens[token]; ok {
		return t, nil
	}
	return nil, common.ErrorNotFound
}

func (f *fakeRefreshRepo) Delete(ctx context.Context, token string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.tokens, token)
	return nil
}

func (f *fakeRefreshRepo) DeleteForUser(ctx context.Context, userID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for k, t := range f.tokens {
		if t.UserID == userID {
			delete(f.tokens, k)
		}
	}
	return nil
}

type fakePlansRepo struct {
	mu        sync.Mutex
	seq       int
	plans     map[string]*models.Plan
	revisions map[string][]*models.PlanRevision
}

func newFakePlansRepo() *fakePlansRepo {
	return &fakePlansRepo{plans: map[string]*models.Plan{}, revisions: map[string][]*models.PlanRevision{}}
}

func (f *fakePlansRepo) Create(ctx context.Context, plan *models.Plan) (*models.Plan, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.seq++
	plan.ID = fmt.Sprintf("p-%d", f.seq)
	plan.CreatedAt = time.Now()
	plan.UpdatedAt = plan.CreatedAt
	f.plans[plan.ID] = plan
	return plan, nil
}

func (f *fakePlansRepo) GetByID(ctx context.Context, id string) (*models.Plan, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if p, ok := f.plans[id]; ok {
		cp := *p
		return &cp, nil
	}
	return nil, common.ErrorNotFound
}

func (f *fakePlansRepo) GetByCode(ctx context.Context, code string) (*models.Plan, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, p := range f.plans {
		if p.Code == code {
			cp := *p
			return &cp, nil
		}
	}
	return nil, common.ErrorNotFound
}

func (f *fakePlansRepo) List(ctx context.Context, filter *models.PlanFilter) ([]*models.Plan, int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var result []*models.Plan
	for _, p := range f.plans {
		if filter != nil {
			if filter.Zone != "" && p.Zone != filter.Zone {
				continue
			}
			if filter.Status != "" && p.Status != filter.Status {
				continue
			}
		}
		cp := *p
		result = append(result, &cp)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Code < result[j].Code })
	return result, len(result), nil
}

func (f *fakePlansRepo) Update(ctx context.Context, plan *models.Plan) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.plans[plan.ID]; !ok {
		return common.ErrorNotFound
	}
	cp := *plan
	f.plans[plan.ID] = &cp
	return nil
}

func (f *fakePlansRepo) UpdateStatus(ctx context.Context, id string, status string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.plans[id]
	if !ok {
		return common.ErrorNotFound
	}
	p.Status = status
	return nil
}

func (f *fakePlansRepo) AddRevision(ctx context.Context, rev *models.PlanRevision) (*models.PlanRevision, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	rev.ID = fmt.Sprintf("r-%d", len(f.revisions[rev.PlanID])+1)
	rev.CreatedAt = time.Now()
	f.revisions[rev.PlanID] = append(f.revisions[rev.PlanID], rev)
	if p, ok := f.plans[rev.PlanID]; ok {
		p.Revision = rev.Revision
		p.StorageKey = rev.StorageKey
	}
	return rev, nil
}

func (f *fakePlansRepo) ListRevisions(ctx context.Context, planID string) ([]*models.PlanRevision, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	revs := append([]*models.PlanRevision(nil), f.revisions[planID]...)
	sort.Slice(revs, func(i, j int) bool { return revs[i].Revision > revs[j].Revision })
	return revs, nil
}

func (f *fakePlansRepo) Delete(ctx context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.plans, id)
	delete(f.revisions, id)
	return nil
}

type fakeNotificationsRepo struct {
	mu    sync.Mutex
	seq   int
	items []*models.Notification

	createErr error
}

func newFakeNotificationsRepo() *fakeNotificationsRepo {
	return &fakeNotificationsRepo{}
}

func (f *fakeNotificationsRepo) Create(ctx context.Context, n *models.Notification) (*models.Notification, error) {
	if f.createErr != nil {
		return nil, f.createErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.seq++
	n.ID = fmt.Sprintf("n-%d", f.seq)
	n.CreatedAt = time.Now()
	f.items = append(f.items, n)
	return n, nil
}

func (f *fakeNotificationsRepo) ListForUser(ctx context.Context, userID string, unreadOnly bool) ([]*models.Notification, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var result []*models.Notification
	for i := len(f.items) - 1; i >= 0; i-- {
		n := f.items[i]
		if n.UserID != userID {
			continue
		}
		if unreadOnly && n.Read {
			continue
		}
		result = append(result, n)
	}
	return result, nil
}

func (f *fakeNotificationsRepo) MarkRead(ctx context.Context, id string, userID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, n := range f.items {
		if n.ID == id && n.UserID == userID {
			n.Read = true
			return nil
		}
	}
	return common.ErrorNotFound
}

func (f *fakeNotificationsRepo) MarkAllRead(ctx context.Context, userID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, n := range f.items {
		if n.UserID == userID {
			n.Read = true
		}
	}
	return nil
}

type fakeResetsRepo struct {
	mu     sync.Mutex
	seq    int
	resets map[string]*models.PasswordReset
}

func newFakeResetsRepo() *fakeResetsRepo {
	return &fakeResetsRepo{resets: map[string]*models.PasswordReset{}}
}

func (f *fakeResetsRepo) Create(ctx context.Context, userID string, token string, validity time.Duration) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.seq++
	f.resets[token] = &models.PasswordReset{
		ID: fmt.Sprintf("pr-%d", f.seq), UserID: userID, Token: token,
		Expires: time.Now().Add(validity),
	}
	return nil
}

func (f *fakeResetsRepo) Find(ctx context.Context, token string) (*models.PasswordReset, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if r, ok := f.resets[token]; ok && !r.Used {
		cp := *r
		return &cp, nil
	}
	return nil, common.ErrorNotFound
}

func (f *fakeResetsRepo) MarkUsed(ctx context.Context, token string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	r, ok := f.resets[token]
	if !ok {
		return common.ErrorNotFound
	}
	r.Used = true
	return nil
}

type fakeRepoManager struct {
	u  *fakeUsersRepo
	l  *fakeLockoutsRepo
	r  *fakeRefreshRepo
	p  *fakePlansRepo
	n  *fakeNotificationsRepo
	rs *fakeResetsRepo
}

func newFakeRepoManager() *fakeRepoManager {
	return &fakeRepoManager{
		u:  newFakeUsersRepo(),
		l:  newFakeLockoutsRepo(),
		r:  newFakeRefreshRepo(),
		p:  newFakePlansRepo(),
		n:  newFakeNotificationsRepo(),
		rs: newFakeResetsRepo(),
	}
}

func (m *fakeRepoManager) RunMigrations(context.Context, *sql.DB) error { return nil }
func (m *fakeRepoManager) Users(db dbx.DBTX) usersrepo.Repository       { return m.u }
func (m *fakeRepoManager) Lockouts(db dbx.DBTX) lockoutsrepo.Repository { return m.l }
func (m *fakeRepoManager) RefreshTokens(db dbx.DBTX) refreshtokensrepo.Repository {
	return m.r
}
func (m *fakeRepoManager) Plans(db dbx.DBTX) plansrepo.Repository { return m.p }
func (m *fakeRepoManager) Notifications(db dbx.DBTX) notificationsrepo.Repository {
	return m.n
}
func (m *fakeRepoManager) Resets(db dbx.DBTX) resetsrepo.Repository { return m.rs }

type fakePublisher struct {
	mu        sync.Mutex
	published []string
	err       error
}

func (p *fakePublisher) Publish(ctx context.Context, routingKey string, body any) error {
	if p.err != nil {
		return p.err
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	p.published = append(p.published, routingKey)
	return nil
}

func (p *fakePublisher) Close() {}

type fakeMailer struct {
	mu   sync.Mutex
	to   []string
	body []string
	err  error
}

func (m *fakeMailer) Send(ctx context.Context, to, subject, body string) error {
	if m.err != nil {
		return m.err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.to = append(m.to, to)
	m.body = append(m.body, body)
	return nil
}
