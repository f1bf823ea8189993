package rpc

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/soomtochukwu/Veritasor-Contracts-sub001/core"
	"github.com/soomtochukwu/Veritasor-Contracts-sub001/native/attestation"
	"github.com/soomtochukwu/Veritasor-Contracts-sub001/native/common"
)

type roleCall func(n *core.Node, caller [20]byte, nonce uint64, account [20]byte, role attestation.Role) error

func (s *Server) handleRoleChange(w http.ResponseWriter, r *http.Request, apply roleCall) {
	caller, err := callerFrom(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	var body RoleRequest
	if err := decodeBody(r, w, &body); err != nil {
		writeError(w, r, err)
		return
	}
	account, err := parseAddress("account", body.Account)
	if err != nil {
		writeError(w, r, badRequest(err))
		return
	}
	role, err := attestation.ParseRole(body.Role)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if err := apply(s.node, caller, body.Nonce, account, role); err != nil {
		writeError(w, r, err)
		return
	}
	roles, err := s.node.Roles(account)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, RolesResult{Account: formatAddress(account), Roles: roles.Names()})
}

func (s *Server) handleGrantRole(w http.ResponseWriter, r *http.Request) {
	s.handleRoleChange(w, r, (*core.Node).GrantRole)
}

func (s *Server) handleRevokeRole(w http.ResponseWriter, r *http.Request) {
	s.handleRoleChange(w, r, (*core.Node).RevokeRole)
}

func (s *Server) handleRoles(w http.ResponseWriter, r *http.Request) {
	account, err := addressParam(r, "account")
	if err != nil {
		writeError(w, r, err)
		return
	}
	roles, err := s.node.Roles(account)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, RolesResult{Account: formatAddress(account), Roles: roles.Names()})
}

func (s *Server) setPaused(w http.ResponseWriter, r *http.Request, paused bool) {
	caller, err := callerFrom(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	var body NonceRequest
	if err := decodeBody(r, w, &body); err != nil {
		writeError(w, r, err)
		return
	}
	if paused {
		err = s.node.Pause(caller, body.Nonce)
	} else {
		err = s.node.Unpause(caller, body.Nonce)
	}
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, StatusResult{Paused: s.node.IsPaused()})
}

func (s *Server) handlePause(w http.ResponseWriter, r *http.Request)   { s.setPaused(w, r, true) }
func (s *Server) handleUnpause(w http.ResponseWriter, r *http.Request) { s.setPaused(w, r, false) }

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, StatusResult{Paused: s.node.IsPaused()})
}

// handleNonce reports the next expected admin nonce. The channel query
// parameter defaults to the admin channel.
func (s *Server) handleNonce(w http.ResponseWriter, r *http.Request) {
	account, err := addressParam(r, "account")
	if err != nil {
		writeError(w, r, err)
		return
	}
	channel := common.NonceChannelAdmin
	if v, ok, err := uintQuery(r, "channel", 32); err != nil {
		writeError(w, r, err)
		return
	} else if ok {
		channel = uint32(v)
	}
	nonce, err := s.node.Nonce(account, channel)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, NonceResult{Channel: channel, Nonce: nonce})
}

func (s *Server) handleBalance(w http.ResponseWriter, r *http.Request) {
	holder, err := addressParam(r, "holder")
	if err != nil {
		writeError(w, r, err)
		return
	}
	token := chi.URLParam(r, "token")
	balance, err := s.node.Balance(token, holder)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, BalanceResult{Token: token, Holder: formatAddress(holder), Balance: formatAmount(balance)})
}
