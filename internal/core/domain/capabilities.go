package domain

import (
	"encoding/json"
	"slices"
)

// IdentityKind is the path through which an account's capabilities were derived.
type IdentityKind string

const (
	KindOwner        IdentityKind = "owner"
	KindEmployee     IdentityKind = "employee"
	KindUnaffiliated IdentityKind = "unaffiliated"
)

// EffectiveCapabilities is the resolved, read-only permission view of a
// session. Build it with OwnerCapabilities, EmployeeCapabilities or
// UnaffiliatedCapabilities; the zero value is unaffiliated.
type EffectiveCapabilities struct {
	kind                IdentityKind
	employeeID          string
	laboratoryID        string
	roleName            string
	canViewAllWorks     bool
	canViewAssignedOnly bool
	canEditAllStages    bool
	allowedStages       []string
	stageSet            map[string]struct{}
}

// OwnerCapabilities grants unrestricted access on the owner's laboratory.
func OwnerCapabilities(laboratoryID string) EffectiveCapabilities {
	return EffectiveCapabilities{
		kind:             KindOwner,
		laboratoryID:     laboratoryID,
		canViewAllWorks:  true,
		canEditAllStages: true,
	}
}

// EmployeeCapabilities derives an employee's view from its role's work
// management block. stages must already be normalized to canonical ids.
func EmployeeCapabilities(emp Employee, wm WorkManagement, stages []string) EffectiveCapabilities {
	sorted := slices.Clone(stages)
	slices.Sort(sorted)
	sorted = slices.Compact(sorted)
	if sorted == nil {
		sorted = []string{}
	}

	set := make(map[string]struct{}, len(sorted))
	for _, s := range sorted {
		set[s] = struct{}{}
	}

	return EffectiveCapabilities{
		kind:                KindEmployee,
		employeeID:          emp.ID,
		laboratoryID:        emp.LaboratoryID,
		roleName:            emp.RoleName,
		canViewAllWorks:     wm.ViewAllWorks,
		canViewAssignedOnly: wm.ViewAssignedOnly,
		canEditAllStages:    wm.CanEditAllStages,
		allowedStages:       sorted,
		stageSet:            set,
	}
}

// RestrictedEmployeeCapabilities is the view of an employee whose role
// permissions could not be loaded: affiliated, but without stage access.
func RestrictedEmployeeCapabilities(emp Employee) EffectiveCapabilities {
	return EmployeeCapabilities(emp, WorkManagement{}, nil)
}

// UnaffiliatedCapabilities denies everything.
func UnaffiliatedCapabilities() EffectiveCapabilities {
	return EffectiveCapabilities{kind: KindUnaffiliated}
}

func (c EffectiveCapabilities) Kind() IdentityKind {
	if c.kind == "" {
		return KindUnaffiliated
	}
	return c.kind
}

func (c EffectiveCapabilities) IsEmployee() bool          { return c.kind == KindEmployee }
func (c EffectiveCapabilities) IsLaboratoryOwner() bool   { return c.kind == KindOwner }
func (c EffectiveCapabilities) EmployeeID() string        { return c.employeeID }
func (c EffectiveCapabilities) LaboratoryID() string      { return c.laboratoryID }
func (c EffectiveCapabilities) RoleName() string          { return c.roleName }
func (c EffectiveCapabilities) CanViewAllWorks() bool     { return c.canViewAllWorks }
func (c EffectiveCapabilities) CanViewAssignedOnly() bool { return c.canViewAssignedOnly }
func (c EffectiveCapabilities) CanEditAllStages() bool    { return c.canEditAllStages }

// AllowedStages returns a copy of the normalized stage list.
func (c EffectiveCapabilities) AllowedStages() []string {
	if c.allowedStages == nil {
		return []string{}
	}
	return slices.Clone(c.allowedStages)
}

// CanAccessStage reports whether the session may see work in the stage.
func (c EffectiveCapabilities) CanAccessStage(stageID string) bool {
	return c.stagePermitted(stageID)
}

// CanEditStage reports whether the session may edit work in the stage.
// Access and edit are currently the same predicate.
func (c EffectiveCapabilities) CanEditStage(stageID string) bool {
	return c.stagePermitted(stageID)
}

func (c EffectiveCapabilities) stagePermitted(stageID string) bool {
	switch c.kind {
	case KindOwner:
		return true
	case KindEmployee:
		if c.canEditAllStages {
			return true
		}
		_, ok := c.stageSet[stageID]
		return ok
	default:
		return false
	}
}

type capabilitiesJSON struct {
	Kind                IdentityKind `json:"kind"`
	IsEmployee          bool         `json:"is_employee"`
	IsLaboratoryOwner   bool         `json:"is_laboratory_owner"`
	EmployeeID          string       `json:"employee_id,omitempty"`
	LaboratoryID        string       `json:"laboratory_id,omitempty"`
	RoleName            string       `json:"role_name,omitempty"`
	CanViewAllWorks     bool         `json:"can_view_all_works"`
	CanViewAssignedOnly bool         `json:"can_view_assigned_only"`
	AllowedStages       []string     `json:"allowed_stages"`
	CanEditAllStages    bool         `json:"can_edit_all_stages"`
}

func (c EffectiveCapabilities) MarshalJSON() ([]byte, error) {
	return json.Marshal(capabilitiesJSON{
		Kind:                c.Kind(),
		IsEmployee:          c.IsEmployee(),
		IsLaboratoryOwner:   c.IsLaboratoryOwner(),
		EmployeeID:          c.employeeID,
		LaboratoryID:        c.laboratoryID,
		RoleName:            c.roleName,
		CanViewAllWorks:     c.canViewAllWorks,
		CanViewAssignedOnly: c.canViewAssignedOnly,
		AllowedStages:       c.AllowedStages(),
		CanEditAllStages:    c.canEditAllStages,
	})
}

// Identity is the outcome of resolving a signed-in account.
//
// AccountID is who is signed in. ScopingID is whose data the session may
// query: the employer laboratory for employees, the account itself
// otherwise. Never scope queries by AccountID.
type Identity struct {
	AccountID    string                `json:"account_id"`
	Email        string                `json:"email"`
	ScopingID    string                `json:"scoping_id"`
	Laboratory   *LaboratoryProfile    `json:"laboratory,omitempty"`
	Subscription *SubscriptionProfile  `json:"subscription,omitempty"`
	Employee     *Employee             `json:"employee,omitempty"`
	Capabilities EffectiveCapabilities `json:"capabilities"`
}
