package service

import (
	"context"
	"sync"
	"time"

	"github.com/labdesk/identity/internal/core/domain"
)

// ---------------------------------------------------------------------------
// Table stubs
// ---------------------------------------------------------------------------

type stubAccountRepo struct {
	mu    sync.Mutex
	byID  map[string]*domain.Account
	err   error
	count int
}

func newStubAccountRepo(accounts ...*domain.Account) *stubAccountRepo {
	r := &stubAccountRepo{byID: make(map[string]*domain.Account)}
	for _, a := range accounts {
		r.byID[a.ID] = cloneAccount(a)
	}
	return r
}

func cloneAccount(a *domain.Account) *domain.Account {
	if a == nil {
		return nil
	}
	clone := *a
	return &clone
}

func (r *stubAccountRepo) FindByID(_ context.Context, id string) (*domain.Account, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return nil, r.err
	}
	if a, ok := r.byID[id]; ok {
		return cloneAccount(a), nil
	}
	return nil, domain.ErrAccountNotFound
}

func (r *stubAccountRepo) FindByEmail(_ context.Context, email string) (*domain.Account, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return nil, r.err
	}
	for _, a := range r.byID {
		if a.Email == email {
			return cloneAccount(a), nil
		}
	}
	return nil, domain.ErrAccountNotFound
}

func (r *stubAccountRepo) Create(_ context.Context, account *domain.Account) (*domain.Account, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, a := range r.byID {
		if a.Email == account.Email {
			return nil, domain.ErrAccountExists
		}
	}
	created := cloneAccount(account)
	if created.ID == "" {
		r.count++
		created.ID = "acc-" + string(rune('0'+r.count))
	}
	r.byID[created.ID] = cloneAccount(created)
	return cloneAccount(created), nil
}

type stubProfileRepo struct {
	mu       sync.Mutex
	byID     map[string]*domain.LaboratoryProfile
	findErr  error
	upserted []*domain.LaboratoryProfile
	calls    int
}

func newStubProfileRepo(profiles ...*domain.LaboratoryProfile) *stubProfileRepo {
	r := &stubProfileRepo{byID: make(map[string]*domain.LaboratoryProfile)}
	for _, p := range profiles {
		clone := *p
		r.byID[p.ID] = &clone
	}
	return r
}

func (r *stubProfileRepo) FindByID(_ context.Context, id string) (*domain.LaboratoryProfile, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls++
	if r.findErr != nil {
		return nil, r.findErr
	}
	p, ok := r.byID[id]
	if !ok {
		return nil, domain.ErrProfileNotFound
	}
	clone := *p
	return &clone, nil
}

func (r *stubProfileRepo) Upsert(_ context.Context, p *domain.LaboratoryProfile) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	clone := *p
	r.byID[p.ID] = &clone
	r.upserted = append(r.upserted, &clone)
	return nil
}

type stubSubscriptionRepo struct {
	byID map[string]*domain.SubscriptionProfile
	err  error
}

func (r *stubSubscriptionRepo) FindByID(_ context.Context, id string) (*domain.SubscriptionProfile, error) {
	if r.err != nil {
		return nil, r.err
	}
	s, ok := r.byID[id]
	if !ok {
		return nil, domain.ErrSubscriptionNotFound
	}
	clone := *s
	return &clone, nil
}

type stubEmployeeRepo struct {
	byEmail map[string]*domain.Employee
	err     error
	// block makes lookups wait for context cancellation.
	block bool
}

func (r *stubEmployeeRepo) FindActiveByEmail(ctx context.Context, email string) (*domain.Employee, error) {
	if r.block {
		<-ctx.Done()
		return nil, ctx.Err()
	}
	if r.err != nil {
		return nil, r.err
	}
	e, ok := r.byEmail[email]
	if !ok || !e.IsActive {
		return nil, domain.ErrEmployeeNotFound
	}
	clone := *e
	return &clone, nil
}

type stubRoleRepo struct {
	byKey map[string]*domain.RolePermission
	err   error
}

func (r *stubRoleRepo) Find(_ context.Context, labID, role string) (*domain.RolePermission, error) {
	if r.err != nil {
		return nil, r.err
	}
	rp, ok := r.byKey[labID+"/"+role]
	if !ok {
		return nil, domain.ErrRolePermissionNotFound
	}
	clone := *rp
	return &clone, nil
}

type stubStageRepo struct {
	byID  map[string]domain.ProductionStage
	err   error
	calls int
	asked []string
}

func (r *stubStageRepo) FindByIDs(_ context.Context, ids []string) ([]domain.ProductionStage, error) {
	r.calls++
	r.asked = append(r.asked, ids...)
	if r.err != nil {
		return nil, r.err
	}
	var out []domain.ProductionStage
	for _, id := range ids {
		if s, ok := r.byID[id]; ok {
			out = append(out, s)
		}
	}
	return out, nil
}

// ---------------------------------------------------------------------------
// Session storage stubs
// ---------------------------------------------------------------------------

type memSessionStore struct {
	mu            sync.Mutex
	active        map[string]*domain.AuthSession
	admin         map[string]*domain.AuthSession
	impersonation map[string]*domain.ImpersonationSession
	putErr        error
}

func newMemSessionStore() *memSessionStore {
	return &memSessionStore{
		active:        make(map[string]*domain.AuthSession),
		admin:         make(map[string]*domain.AuthSession),
		impersonation: make(map[string]*domain.ImpersonationSession),
	}
}

func cloneSession(s *domain.AuthSession) *domain.AuthSession {
	if s == nil {
		return nil
	}
	clone := *s
	return &clone
}

func (m *memSessionStore) GetActive(_ context.Context, scope string) (*domain.AuthSession, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return cloneSession(m.active[scope]), nil
}

func (m *memSessionStore) PutActive(_ context.Context, scope string, s *domain.AuthSession) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.putErr != nil {
		return m.putErr
	}
	m.active[scope] = cloneSession(s)
	return nil
}

func (m *memSessionStore) DeleteActive(_ context.Context, scope string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.active, scope)
	return nil
}

func (m *memSessionStore) GetAdmin(_ context.Context, scope string) (*domain.AuthSession, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return cloneSession(m.admin[scope]), nil
}

func (m *memSessionStore) PutAdmin(_ context.Context, scope string, s *domain.AuthSession) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.admin[scope] = cloneSession(s)
	return nil
}

func (m *memSessionStore) DeleteAdmin(_ context.Context, scope string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.admin, scope)
	return nil
}

func (m *memSessionStore) GetImpersonation(_ context.Context, scope string) (*domain.ImpersonationSession, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.impersonation[scope]
	if !ok {
		return nil, nil
	}
	clone := *s
	return &clone, nil
}

func (m *memSessionStore) PutImpersonation(_ context.Context, scope string, s *domain.ImpersonationSession) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	clone := *s
	m.impersonation[scope] = &clone
	return nil
}

func (m *memSessionStore) DeleteImpersonation(_ context.Context, scope string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.impersonation, scope)
	return nil
}

type stubRevocations struct {
	revoked map[string]time.Time
	err     error
}

func newStubRevocations() *stubRevocations {
	return &stubRevocations{revoked: make(map[string]time.Time)}
}

func (r *stubRevocations) Revoke(_ context.Context, id string, until time.Time) error {
	if r.err != nil {
		return r.err
	}
	r.revoked[id] = until
	return nil
}

func (r *stubRevocations) IsRevoked(_ context.Context, id string) (bool, error) {
	if r.err != nil {
		return false, r.err
	}
	_, ok := r.revoked[id]
	return ok, nil
}

// ---------------------------------------------------------------------------
// Impersonation stubs
// ---------------------------------------------------------------------------

type stubGateway struct {
	impersonateFn func(ctx context.Context, adminToken, targetID string) (*domain.ImpersonationGrant, error)
	endCalls      []string // session ids
	endTokens     []string
	endErr        error
}

func (g *stubGateway) Impersonate(ctx context.Context, adminToken, targetID string) (*domain.ImpersonationGrant, error) {
	return g.impersonateFn(ctx, adminToken, targetID)
}

func (g *stubGateway) EndImpersonation(_ context.Context, adminToken, sessionID string) error {
	g.endCalls = append(g.endCalls, sessionID)
	g.endTokens = append(g.endTokens, adminToken)
	return g.endErr
}

type stubAudit struct {
	mu     sync.Mutex
	events []domain.AuditEvent
}

func (a *stubAudit) Record(e domain.AuditEvent) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.events = append(a.events, e)
}

func (a *stubAudit) actions() []domain.AuditAction {
	a.mu.Lock()
	defer a.mu.Unlock()
	out := make([]domain.AuditAction, len(a.events))
	for i, e := range a.events {
		out[i] = e.Action
	}
	return out
}

// stubRecordRepo mirrors the unique open-record index of the mongo
// repository: Create refuses a second record that has not been ended.
type stubRecordRepo struct {
	mu   sync.Mutex
	byID map[string]*domain.ImpersonationRecord
	err  error
	// findDelay widens the window between the open-record check and Create.
	findDelay time.Duration
}

func newStubRecordRepo() *stubRecordRepo {
	return &stubRecordRepo{byID: make(map[string]*domain.ImpersonationRecord)}
}

func (r *stubRecordRepo) FindOpenByAdmin(_ context.Context, adminID string, now time.Time) (*domain.ImpersonationRecord, error) {
	if r.findDelay > 0 {
		time.Sleep(r.findDelay)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return nil, r.err
	}
	for _, rec := range r.byID {
		if rec.AdminUserID == adminID && rec.Open(now) {
			clone := *rec
			return &clone, nil
		}
	}
	return nil, domain.ErrImpersonationNotFound
}

func (r *stubRecordRepo) FindByID(_ context.Context, id string) (*domain.ImpersonationRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	rec, ok := r.byID[id]
	if !ok {
		return nil, domain.ErrImpersonationNotFound
	}
	clone := *rec
	return &clone, nil
}

func (r *stubRecordRepo) Create(_ context.Context, rec *domain.ImpersonationRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.byID {
		if existing.AdminUserID == rec.AdminUserID && existing.EndedAt == nil {
			return domain.ErrImpersonationConflict
		}
	}
	clone := *rec
	r.byID[rec.SessionID] = &clone
	return nil
}

func (r *stubRecordRepo) MarkEnded(_ context.Context, id string, at time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	rec, ok := r.byID[id]
	if !ok {
		return domain.ErrImpersonationNotFound
	}
	rec.EndedAt = &at
	return nil
}

func (r *stubRecordRepo) CloseExpired(_ context.Context, adminID string, now time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, rec := range r.byID {
		if rec.AdminUserID == adminID && rec.EndedAt == nil && !now.Before(rec.ExpiresAt) {
			at := now
			rec.EndedAt = &at
		}
	}
	return nil
}

// openFor counts the admin's records that have not been ended.
func (r *stubRecordRepo) openFor(adminID string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, rec := range r.byID {
		if rec.AdminUserID == adminID && rec.EndedAt == nil {
			n++
		}
	}
	return n
}
