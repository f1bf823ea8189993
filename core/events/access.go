package events

import "github.com/soomtochukwu/Veritasor-Contracts-sub001/core/types"

const (
	TypeRoleGranted = "access.role_granted"
	TypeRoleRevoked = "access.role_revoked"
	TypePaused      = "access.paused"
	TypeUnpaused    = "access.unpaused"
)

// RoleChanged records a grant or revocation of a role bit.
type RoleChanged struct {
	Account [20]byte
	Role    uint32
	Roles   uint32
	By      [20]byte
	Granted bool
}

func (e RoleChanged) EventType() string {
	if e.Granted {
		return TypeRoleGranted
	}
	return TypeRoleRevoked
}

func (e RoleChanged) Event() *types.Event {
	return &types.Event{Type: e.EventType(), Attributes: map[string]string{
		"account": account(e.Account),
		"role":    u32(e.Role),
		"roles":   u32(e.Roles),
		"by":      account(e.By),
	}}
}

// PauseChanged records the pause switch moving.
type PauseChanged struct {
	By     [20]byte
	Paused bool
}

func (e PauseChanged) EventType() string {
	if e.Paused {
		return TypePaused
	}
	return TypeUnpaused
}

func (e PauseChanged) Event() *types.Event {
	return &types.Event{Type: e.EventType(), Attributes: map[string]string{"by": account(e.By)}}
}
