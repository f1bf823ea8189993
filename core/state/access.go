package state

import (
	"bytes"
	"sort"
)

// Roles returns the role mask of account.
func (m *Manager) Roles(account [20]byte) (uint32, error) {
	var roles uint32
	if _, err := m.KVGet(accessRolesKey(account), &roles); err != nil {
		return 0, err
	}
	return roles, nil
}

// PutRoles stores the role mask of account.
func (m *Manager) PutRoles(account [20]byte, roles uint32) error {
	return m.KVPut(accessRolesKey(account), roles)
}

// RoleHolders lists every account that was ever granted a role, sorted by
// address.
func (m *Manager) RoleHolders() ([][20]byte, error) {
	var holders [][20]byte
	if err := m.KVGetList(accessHoldersKeyBytes, &holders); err != nil {
		return nil, err
	}
	return holders, nil
}

// AddRoleHolder records account in the holder index. Duplicates are ignored
// and the stored list stays sorted for determinism.
func (m *Manager) AddRoleHolder(account [20]byte) error {
	holders, err := m.RoleHolders()
	if err != nil {
		return err
	}
	for _, existing := range holders {
		if existing == account {
			return nil
		}
	}
	holders = append(holders, account)
	sort.Slice(holders, func(i, j int) bool {
		return bytes.Compare(holders[i][:], holders[j][:]) < 0
	})
	return m.KVPut(accessHoldersKeyBytes, holders)
}

// IsPaused reports whether module is paused. Storage errors report paused so
// writes fail closed.
func (m *Manager) IsPaused(module string) bool {
	var paused bool
	if _, err := m.KVGet(accessPausedKey(module), &paused); err != nil {
		return true
	}
	return paused
}

// SetPaused stores the pause flag of module.
func (m *Manager) SetPaused(module string, paused bool) error {
	return m.KVPut(accessPausedKey(module), paused)
}
