package rpc

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/soomtochukwu/Veritasor-Contracts-sub001/native/attestation"
)

func (s *Server) handleSubmit(w http.ResponseWriter, r *http.Request) {
	caller, err := callerFrom(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	var body SubmitAttestationRequest
	if err := decodeBody(r, w, &body); err != nil {
		writeError(w, r, err)
		return
	}
	req, err := body.toDomain()
	if err != nil {
		writeError(w, r, badRequest(err))
		return
	}
	record, err := s.node.SubmitAttestation(caller, req)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, attestationResultFrom(record))
}

func (s *Server) handleSubmitWithMetadata(w http.ResponseWriter, r *http.Request) {
	caller, err := callerFrom(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	var body SubmitAttestationRequest
	if err := decodeBody(r, w, &body); err != nil {
		writeError(w, r, err)
		return
	}
	req, err := body.toDomain()
	if err != nil {
		writeError(w, r, badRequest(err))
		return
	}
	record, err := s.node.SubmitAttestationWithMetadata(caller, req, body.Currency, body.IsNet)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, attestationResultFrom(record))
}

func (s *Server) handleSubmitBatch(w http.ResponseWriter, r *http.Request) {
	caller, err := callerFrom(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	var body BatchRequest
	if err := decodeBody(r, w, &body); err != nil {
		writeError(w, r, err)
		return
	}
	items := make([]attestation.SubmitRequest, len(body.Items))
	for i, item := range body.Items {
		req, err := item.toDomain()
		if err != nil {
			writeError(w, r, badRequest(fmt.Errorf("item %d: %w", i, err)))
			return
		}
		items[i] = req
	}
	records, err := s.node.SubmitAttestationBatch(caller, items)
	if err != nil {
		writeError(w, r, err)
		return
	}
	out := make([]AttestationResult, len(records))
	for i, record := range records {
		out[i] = attestationResultFrom(record)
	}
	writeJSON(w, http.StatusCreated, out)
}

func (s *Server) handleSubmitMultiPeriod(w http.ResponseWriter, r *http.Request) {
	caller, err := callerFrom(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	var body MultiPeriodRequest
	if err := decodeBody(r, w, &body); err != nil {
		writeError(w, r, err)
		return
	}
	business, err := parseAddress("business", body.Business)
	if err != nil {
		writeError(w, r, badRequest(err))
		return
	}
	root, err := parseRoot("merkleRoot", body.MerkleRoot)
	if err != nil {
		writeError(w, r, badRequest(err))
		return
	}
	stored, err := s.node.SubmitMultiPeriodAttestation(caller, attestation.MultiPeriodRequest{
		Business:    business,
		StartPeriod: body.StartPeriod,
		EndPeriod:   body.EndPeriod,
		MerkleRoot:  root,
		Timestamp:   body.Timestamp,
		Version:     body.Version,
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, rangeResultFrom(stored))
}

func (s *Server) handleRevokeRange(w http.ResponseWriter, r *http.Request) {
	caller, err := callerFrom(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	var body RevokeRangeRequest
	if err := decodeBody(r, w, &body); err != nil {
		writeError(w, r, err)
		return
	}
	business, err := parseAddress("business", body.Business)
	if err != nil {
		writeError(w, r, badRequest(err))
		return
	}
	root, err := parseRoot("merkleRoot", body.MerkleRoot)
	if err != nil {
		writeError(w, r, badRequest(err))
		return
	}
	count, err := s.node.RevokeMultiPeriodAttestation(caller, business, root)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, CountResult{Count: uint64(count)})
}

func (s *Server) handleRevoke(w http.ResponseWriter, r *http.Request) {
	caller, err := callerFrom(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	business, err := addressParam(r, "business")
	if err != nil {
		writeError(w, r, err)
		return
	}
	var body RevokeRequest
	if err := decodeBody(r, w, &body); err != nil {
		writeError(w, r, err)
		return
	}
	record, err := s.node.RevokeAttestation(caller, business, chi.URLParam(r, "period"), body.Reason)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, attestationResultFrom(record))
}

func (s *Server) handleMigrate(w http.ResponseWriter, r *http.Request) {
	caller, err := callerFrom(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	business, err := addressParam(r, "business")
	if err != nil {
		writeError(w, r, err)
		return
	}
	var body MigrateRequest
	if err := decodeBody(r, w, &body); err != nil {
		writeError(w, r, err)
		return
	}
	root, err := parseRoot("merkleRoot", body.MerkleRoot)
	if err != nil {
		writeError(w, r, badRequest(err))
		return
	}
	record, err := s.node.MigrateAttestation(caller, business, chi.URLParam(r, "period"), root, body.Version)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, attestationResultFrom(record))
}

func (s *Server) handleGetAttestation(w http.ResponseWriter, r *http.Request) {
	business, err := addressParam(r, "business")
	if err != nil {
		writeError(w, r, err)
		return
	}
	record, ok, err := s.node.GetAttestation(business, chi.URLParam(r, "period"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	if !ok {
		writeError(w, r, fmt.Errorf("%w: period %q", attestation.ErrNotFound, chi.URLParam(r, "period")))
		return
	}
	writeJSON(w, http.StatusOK, attestationResultFrom(record))
}

func (s *Server) handleVerifyAttestation(w http.ResponseWriter, r *http.Request) {
	business, err := addressParam(r, "business")
	if err != nil {
		writeError(w, r, err)
		return
	}
	root, err := rootQuery(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	valid, err := s.node.VerifyAttestation(business, chi.URLParam(r, "period"), root)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, VerifyResult{Valid: valid})
}

func (s *Server) handleIsRevoked(w http.ResponseWriter, r *http.Request) {
	business, err := addressParam(r, "business")
	if err != nil {
		writeError(w, r, err)
		return
	}
	revoked, err := s.node.IsRevoked(business, chi.URLParam(r, "period"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, FlagResult{Value: revoked})
}

func (s *Server) handleIsExpired(w http.ResponseWriter, r *http.Request) {
	business, err := addressParam(r, "business")
	if err != nil {
		writeError(w, r, err)
		return
	}
	expired, err := s.node.IsExpired(business, chi.URLParam(r, "period"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, FlagResult{Value: expired})
}

func (s *Server) handleListAttestations(w http.ResponseWriter, r *http.Request) {
	business, err := addressParam(r, "business")
	if err != nil {
		writeError(w, r, err)
		return
	}
	query := r.URL.Query()
	q := attestation.PageQuery{
		PeriodStart: query.Get("from"),
		PeriodEnd:   query.Get("to"),
	}
	switch strings.ToLower(strings.TrimSpace(query.Get("status"))) {
	case "", "active":
		q.Status = attestation.StatusActive
	case "revoked":
		q.Status = attestation.StatusRevoked
	case "all":
		q.Status = attestation.StatusAll
	default:
		writeError(w, r, badRequest(fmt.Errorf("invalid status %q", query.Get("status"))))
		return
	}
	if v, ok, err := uintQuery(r, "version", 32); err != nil {
		writeError(w, r, err)
		return
	} else if ok {
		q.HasVersion = true
		q.Version = uint32(v)
	}
	limit, _, err := uintQuery(r, "limit", 32)
	if err != nil {
		writeError(w, r, err)
		return
	}
	q.Limit = uint32(limit)
	if q.Cursor, _, err = uintQuery(r, "cursor", 64); err != nil {
		writeError(w, r, err)
		return
	}
	page, err := s.node.ListAttestations(business, q)
	if err != nil {
		writeError(w, r, err)
		return
	}
	out := PageResult{Items: make([]AttestationResult, len(page.Items)), NextCursor: page.NextCursor, Done: page.Done}
	for i, item := range page.Items {
		out.Items[i] = attestationResultFrom(item)
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleListRanges(w http.ResponseWriter, r *http.Request) {
	business, err := addressParam(r, "business")
	if err != nil {
		writeError(w, r, err)
		return
	}
	list, err := s.node.ListRanges(business)
	if err != nil {
		writeError(w, r, err)
		return
	}
	out := make([]RangeResult, len(list))
	for i, rng := range list {
		out[i] = rangeResultFrom(rng)
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleForPeriod(w http.ResponseWriter, r *http.Request) {
	business, err := addressParam(r, "business")
	if err != nil {
		writeError(w, r, err)
		return
	}
	period, err := uintParam(r, "period", 32)
	if err != nil {
		writeError(w, r, err)
		return
	}
	rng, ok, err := s.node.GetAttestationForPeriod(business, uint32(period))
	if err != nil {
		writeError(w, r, err)
		return
	}
	if !ok {
		writeJSON(w, http.StatusNotFound, ErrorBody{Error: fmt.Sprintf("no active range covers period %d", period), Kind: "not_found", RequestID: requestIDFrom(r.Context())})
		return
	}
	writeJSON(w, http.StatusOK, rangeResultFrom(rng))
}

func (s *Server) handleVerifyMultiPeriod(w http.ResponseWriter, r *http.Request) {
	business, err := addressParam(r, "business")
	if err != nil {
		writeError(w, r, err)
		return
	}
	period, err := uintParam(r, "period", 32)
	if err != nil {
		writeError(w, r, err)
		return
	}
	root, err := rootQuery(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	valid, err := s.node.VerifyMultiPeriodAttestation(business, uint32(period), root)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, VerifyResult{Valid: valid})
}
