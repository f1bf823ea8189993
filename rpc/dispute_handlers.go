package rpc

import (
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/soomtochukwu/Veritasor-Contracts-sub001/native/dispute"
)

func (s *Server) handleOpenDispute(w http.ResponseWriter, r *http.Request) {
	caller, err := callerFrom(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	var body OpenDisputeRequest
	if err := decodeBody(r, w, &body); err != nil {
		writeError(w, r, err)
		return
	}
	business, err := parseAddress("business", body.Business)
	if err != nil {
		writeError(w, r, badRequest(err))
		return
	}
	kind, err := dispute.ParseType(body.Type)
	if err != nil {
		writeError(w, r, err)
		return
	}
	id, err := s.node.OpenDispute(caller, business, body.Period, kind, body.Evidence)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, DisputeIDResult{ID: id})
}

func (s *Server) handleGetDispute(w http.ResponseWriter, r *http.Request) {
	id, err := uintParam(r, "id", 64)
	if err != nil {
		writeError(w, r, err)
		return
	}
	d, ok, err := s.node.GetDispute(id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if !ok {
		writeError(w, r, fmt.Errorf("%w: %d", dispute.ErrNotFound, id))
		return
	}
	writeJSON(w, http.StatusOK, disputeResultFrom(d))
}

func (s *Server) handleResolveDispute(w http.ResponseWriter, r *http.Request) {
	caller, err := callerFrom(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	id, err := uintParam(r, "id", 64)
	if err != nil {
		writeError(w, r, err)
		return
	}
	var body ResolveDisputeRequest
	if err := decodeBody(r, w, &body); err != nil {
		writeError(w, r, err)
		return
	}
	outcome, err := dispute.ParseOutcome(body.Outcome)
	if err != nil {
		writeError(w, r, err)
		return
	}
	d, err := s.node.ResolveDispute(caller, id, outcome, body.Notes)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, disputeResultFrom(d))
}

func (s *Server) handleCloseDispute(w http.ResponseWriter, r *http.Request) {
	caller, err := callerFrom(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	id, err := uintParam(r, "id", 64)
	if err != nil {
		writeError(w, r, err)
		return
	}
	d, err := s.node.CloseDispute(caller, id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, disputeResultFrom(d))
}

func (s *Server) handleDisputesByAttestation(w http.ResponseWriter, r *http.Request) {
	business, err := addressParam(r, "business")
	if err != nil {
		writeError(w, r, err)
		return
	}
	list, err := s.node.DisputesByAttestation(business, chi.URLParam(r, "period"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, disputeResultsFrom(list))
}

func (s *Server) handleDisputesByChallenger(w http.ResponseWriter, r *http.Request) {
	challenger, err := addressParam(r, "challenger")
	if err != nil {
		writeError(w, r, err)
		return
	}
	list, err := s.node.DisputesByChallenger(challenger)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, disputeResultsFrom(list))
}
