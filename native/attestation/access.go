package attestation

import (
	"errors"
	"fmt"
	"strings"

	"github.com/soomtochukwu/Veritasor-Contracts-sub001/core/events"
	"github.com/soomtochukwu/Veritasor-Contracts-sub001/native/common"
)

// Role is a bit in an account's role mask.
type Role uint32

const (
	RoleAdmin Role = 1 << iota
	RoleAttestor
	RoleBusiness
	RoleOperator
	RoleArbiter
)

var roleNames = []struct {
	role Role
	name string
}{
	{RoleAdmin, "admin"},
	{RoleAttestor, "attestor"},
	{RoleBusiness, "business"},
	{RoleOperator, "operator"},
	{RoleArbiter, "arbiter"},
}

// AllRoles is the mask of every defined role.
const AllRoles = RoleAdmin | RoleAttestor | RoleBusiness | RoleOperator | RoleArbiter

// Names lists the role names set in the mask.
func (r Role) Names() []string {
	out := make([]string, 0, len(roleNames))
	for _, entry := range roleNames {
		if r&entry.role != 0 {
			out = append(out, entry.name)
		}
	}
	return out
}

func (r Role) String() string { return strings.Join(r.Names(), "|") }

// ParseRole maps a role name to its bit.
func ParseRole(name string) (Role, error) {
	normalized := strings.ToLower(strings.TrimSpace(name))
	for _, entry := range roleNames {
		if entry.name == normalized {
			return entry.role, nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownRole, name)
}

var (
	errNilAccessState = errors.New("access: state not configured")

	ErrUnauthorized       = common.NewError(common.KindAuthorization, "unauthorized", "caller lacks the required role")
	ErrUnknownRole        = common.NewError(common.KindConfig, "unknown_role", "unknown role")
	ErrAlreadyInitialized = common.NewError(common.KindState, "already_initialized", "access control already initialised")
)

type accessState interface {
	Roles(account [20]byte) (uint32, error)
	PutRoles(account [20]byte, roles uint32) error
	RoleHolders() ([][20]byte, error)
	AddRoleHolder(account [20]byte) error
	IsPaused(module string) bool
	SetPaused(module string, paused bool) error
}

// Access is the role and pause registry gating every write path.
type Access struct {
	state   accessState
	emitter events.Emitter
}

// NewAccess creates an access registry with a no-op emitter.
func NewAccess() *Access {
	return &Access{emitter: events.NoopEmitter{}}
}

// SetState configures the state backend.
func (a *Access) SetState(state accessState) { a.state = state }

// SetEmitter configures the event emitter. Passing nil resets it to a no-op.
func (a *Access) SetEmitter(emitter events.Emitter) {
	if emitter == nil {
		a.emitter = events.NoopEmitter{}
		return
	}
	a.emitter = emitter
}

// Roles returns the role mask of account.
func (a *Access) Roles(account [20]byte) (Role, error) {
	if a == nil || a.state == nil {
		return 0, errNilAccessState
	}
	roles, err := a.state.Roles(account)
	if err != nil {
		return 0, fmt.Errorf("access: load roles: %w", err)
	}
	return Role(roles), nil
}

// HasAnyRole reports whether account holds at least one bit of mask. Storage
// failures deny.
func (a *Access) HasAnyRole(account [20]byte, mask Role) bool {
	roles, err := a.Roles(account)
	if err != nil {
		return false
	}
	return roles&mask != 0
}

// IsAllowed is the collaborator check used by consumers of the registry.
func (a *Access) IsAllowed(account [20]byte, role Role) bool {
	return a.HasAnyRole(account, role)
}

// Require fails with ErrUnauthorized unless account holds a bit of mask.
func (a *Access) Require(account [20]byte, mask Role) error {
	if a.HasAnyRole(account, mask) {
		return nil
	}
	return fmt.Errorf("%w: requires %s", ErrUnauthorized, mask)
}

// IsPaused reports whether writes to module are suspended.
func (a *Access) IsPaused(module string) bool {
	if a == nil || a.state == nil {
		return false
	}
	return a.state.IsPaused(module)
}

// RoleHolders lists every account that was ever granted a role.
func (a *Access) RoleHolders() ([][20]byte, error) {
	if a == nil || a.state == nil {
		return nil, errNilAccessState
	}
	return a.state.RoleHolders()
}

// Bootstrap grants the first admin. It fails once any role holder exists.
func (a *Access) Bootstrap(admin [20]byte) error {
	holders, err := a.RoleHolders()
	if err != nil {
		return err
	}
	if len(holders) > 0 {
		return ErrAlreadyInitialized
	}
	return a.setRoles(admin, admin, RoleAdmin, true)
}

// Grant adds role to account. Only admins may grant.
func (a *Access) Grant(caller, account [20]byte, role Role) error {
	if err := a.Require(caller, RoleAdmin); err != nil {
		return err
	}
	return a.setRoles(caller, account, role, true)
}

// Revoke removes role from account. Only admins may revoke.
func (a *Access) Revoke(caller, account [20]byte, role Role) error {
	if err := a.Require(caller, RoleAdmin); err != nil {
		return err
	}
	return a.setRoles(caller, account, role, false)
}

func (a *Access) setRoles(caller, account [20]byte, role Role, grant bool) error {
	if role == 0 || role&^AllRoles != 0 {
		return fmt.Errorf("%w: mask %d", ErrUnknownRole, uint32(role))
	}
	current, err := a.Roles(account)
	if err != nil {
		return err
	}
	next := current &^ role
	if grant {
		next = current | role
	}
	if err := a.state.PutRoles(account, uint32(next)); err != nil {
		return fmt.Errorf("access: store roles: %w", err)
	}
	if grant {
		if err := a.state.AddRoleHolder(account); err != nil {
			return fmt.Errorf("access: index holder: %w", err)
		}
	}
	a.emitter.Emit(events.RoleChanged{Account: account, Role: uint32(role), Roles: uint32(next), By: caller, Granted: grant})
	return nil
}

// Pause suspends every attestation write path. Admins and operators may pause.
func (a *Access) Pause(caller [20]byte) error {
	if err := a.Require(caller, RoleAdmin|RoleOperator); err != nil {
		return err
	}
	return a.setPaused(caller, true)
}

// Unpause resumes writes. Only admins may unpause.
func (a *Access) Unpause(caller [20]byte) error {
	if err := a.Require(caller, RoleAdmin); err != nil {
		return err
	}
	return a.setPaused(caller, false)
}

func (a *Access) setPaused(caller [20]byte, paused bool) error {
	if err := a.state.SetPaused(common.ModuleAttestation, paused); err != nil {
		return fmt.Errorf("access: store pause flag: %w", err)
	}
	a.emitter.Emit(events.PauseChanged{By: caller, Paused: paused})
	return nil
}
