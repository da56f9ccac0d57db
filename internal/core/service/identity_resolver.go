package service

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/labdesk/identity/internal/api/metrics"
	"github.com/labdesk/identity/internal/core/domain"
	"github.com/labdesk/identity/internal/core/ports"
)

const defaultResolveTimeout = 5 * time.Second

// IdentityRepositories groups the tables read during resolution.
type IdentityRepositories struct {
	Profiles        ports.ProfileRepository
	Subscriptions   ports.SubscriptionRepository
	Employees       ports.EmployeeRepository
	RolePermissions ports.RolePermissionRepository
	Stages          ports.StageRepository
}

// IdentityResolver reconciles the account, laboratory and employee records
// of a signed-in account into one Identity.
type IdentityResolver struct {
	repos   IdentityRepositories
	stages  *StageNormalizer
	timeout time.Duration
	log     zerolog.Logger
}

// NewIdentityResolver returns a resolver. Each lookup phase is bounded by
// timeout; a non-positive timeout selects defaultResolveTimeout.
func NewIdentityResolver(repos IdentityRepositories, timeout time.Duration, log zerolog.Logger) *IdentityResolver {
	if timeout <= 0 {
		timeout = defaultResolveTimeout
	}
	return &IdentityResolver{
		repos:   repos,
		stages:  NewStageNormalizer(repos.Stages, log),
		timeout: timeout,
		log:     log,
	}
}

// Resolve never returns an error: failed lookups are logged and the
// affected part of the identity falls back to its most restrictive value.
func (r *IdentityResolver) Resolve(ctx context.Context, account *domain.Account) *domain.Identity {
	start := time.Now()
	defer func() { metrics.ResolutionDuration.Observe(time.Since(start).Seconds()) }()

	identity := &domain.Identity{
		AccountID:    account.ID,
		Email:        account.Email,
		ScopingID:    account.ID,
		Capabilities: domain.UnaffiliatedCapabilities(),
	}

	// 1. Independent lookups. A failure in one never cancels the others.
	var (
		profile  *domain.LaboratoryProfile
		sub      *domain.SubscriptionProfile
		employee *domain.Employee
	)
	r.phase(ctx, func(ctx context.Context, g *errgroup.Group) {
		g.Go(func() error {
			p, err := r.repos.Profiles.FindByID(ctx, account.ID)
			profile = keep(r, "profile", account.ID, p, err, domain.ErrProfileNotFound)
			return nil
		})
		g.Go(func() error {
			s, err := r.repos.Subscriptions.FindByID(ctx, account.ID)
			sub = keep(r, "subscription", account.ID, s, err, domain.ErrSubscriptionNotFound)
			return nil
		})
		g.Go(func() error {
			e, err := r.repos.Employees.FindActiveByEmail(ctx, account.Email)
			employee = keep(r, "employee", account.ID, e, err, domain.ErrEmployeeNotFound)
			return nil
		})
	})

	switch {
	case employee != nil:
		r.resolveEmployee(ctx, identity, employee)
	case profile != nil && profile.ID == account.ID:
		identity.Laboratory = profile
		identity.Subscription = sub
		identity.Capabilities = domain.OwnerCapabilities(profile.ID)
	default:
		identity.Subscription = sub
	}

	metrics.ResolutionsTotal.WithLabelValues(string(identity.Capabilities.Kind())).Inc()
	r.log.Debug().
		Str("account_id", account.ID).
		Str("kind", string(identity.Capabilities.Kind())).
		Str("scoping_id", identity.ScopingID).
		Msg("identity resolved")

	return identity
}

// resolveEmployee fills identity from the employer's records. Subscription
// state is always the employer's.
func (r *IdentityResolver) resolveEmployee(ctx context.Context, identity *domain.Identity, employee *domain.Employee) {
	identity.Employee = employee
	identity.ScopingID = employee.LaboratoryID
	labID := employee.LaboratoryID

	var (
		employer    *domain.LaboratoryProfile
		employerSub *domain.SubscriptionProfile
		role        *domain.RolePermission
	)
	r.phase(ctx, func(ctx context.Context, g *errgroup.Group) {
		g.Go(func() error {
			p, err := r.repos.Profiles.FindByID(ctx, labID)
			employer = keep(r, "employer_profile", identity.AccountID, p, err, domain.ErrProfileNotFound)
			return nil
		})
		g.Go(func() error {
			s, err := r.repos.Subscriptions.FindByID(ctx, labID)
			employerSub = keep(r, "employer_subscription", identity.AccountID, s, err, domain.ErrSubscriptionNotFound)
			return nil
		})
		g.Go(func() error {
			rp, err := r.repos.RolePermissions.Find(ctx, labID, employee.RoleName)
			role = keep(r, "role_permission", identity.AccountID, rp, err, domain.ErrRolePermissionNotFound)
			return nil
		})
	})

	identity.Laboratory = employer
	identity.Subscription = employerSub

	if role == nil {
		identity.Capabilities = domain.RestrictedEmployeeCapabilities(*employee)
		return
	}

	var stages []string
	r.phase(ctx, func(ctx context.Context, _ *errgroup.Group) {
		stages = r.stages.Normalize(ctx, role.WorkManagement.AllowedStages)
	})
	identity.Capabilities = domain.EmployeeCapabilities(*employee, role.WorkManagement, stages)
}

// phase runs fn under the resolver timeout and waits for every goroutine
// it started.
func (r *IdentityResolver) phase(ctx context.Context, fn func(ctx context.Context, g *errgroup.Group)) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	var g errgroup.Group
	fn(ctx, &g)
	_ = g.Wait()
}

// keep returns v unless err is set. notFound is an expected outcome and is
// not logged.
func keep[T any](r *IdentityResolver, lookup, accountID string, v *T, err, notFound error) *T {
	if err == nil {
		return v
	}
	if errors.Is(err, notFound) {
		return nil
	}
	metrics.LookupFailuresTotal.WithLabelValues(lookup).Inc()
	r.log.Warn().
		Err(err).
		Str("lookup", lookup).
		Str("account_id", accountID).
		Msg("identity lookup failed, continuing with restricted access")
	return nil
}
