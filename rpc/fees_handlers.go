package rpc

import (
	"net/http"
)

func (s *Server) handleQuote(w http.ResponseWriter, r *http.Request) {
	business, err := addressParam(r, "business")
	if err != nil {
		writeError(w, r, err)
		return
	}
	amount, err := s.node.QuoteFee(business)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, QuoteResult{Amount: formatAmount(amount)})
}

func (s *Server) handleBreakdown(w http.ResponseWriter, r *http.Request) {
	business, err := addressParam(r, "business")
	if err != nil {
		writeError(w, r, err)
		return
	}
	breakdown, err := s.node.FeeBreakdown(business)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, breakdownResultFrom(breakdown))
}

func (s *Server) handleFeeConfig(w http.ResponseWriter, r *http.Request) {
	var out FeesOverview
	cfg, ok, err := s.node.FeeConfig()
	if err != nil {
		writeError(w, r, err)
		return
	}
	if ok {
		result := feeConfigResultFrom(cfg)
		out.Fee = &result
	}
	flat, ok, err := s.node.FlatFeeConfig()
	if err != nil {
		writeError(w, r, err)
		return
	}
	if ok {
		result := flatFeeConfigResultFrom(flat)
		out.FlatFee = &result
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleVolumeBrackets(w http.ResponseWriter, r *http.Request) {
	brackets, err := s.node.VolumeBrackets()
	if err != nil {
		writeError(w, r, err)
		return
	}
	out := BracketsResult{Thresholds: brackets.Thresholds, Discounts: brackets.Discounts}
	if out.Thresholds == nil {
		out.Thresholds = []uint64{}
		out.Discounts = []uint32{}
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleTierDiscount(w http.ResponseWriter, r *http.Request) {
	tier, err := uintParam(r, "tier", 32)
	if err != nil {
		writeError(w, r, err)
		return
	}
	bps, err := s.node.TierDiscount(uint32(tier))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, TierResult{Tier: uint32(tier), Bps: bps})
}

func (s *Server) handleBusinessTier(w http.ResponseWriter, r *http.Request) {
	business, err := addressParam(r, "business")
	if err != nil {
		writeError(w, r, err)
		return
	}
	tier, err := s.node.BusinessTier(business)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, TierResult{Tier: tier})
}

func (s *Server) handleSubmissionCount(w http.ResponseWriter, r *http.Request) {
	business, err := addressParam(r, "business")
	if err != nil {
		writeError(w, r, err)
		return
	}
	count, err := s.node.SubmissionCount(business)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, CountResult{Count: count})
}

func (s *Server) handleConfigureFees(w http.ResponseWriter, r *http.Request) {
	caller, err := callerFrom(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	var body ConfigureFeeRequest
	if err := decodeBody(r, w, &body); err != nil {
		writeError(w, r, err)
		return
	}
	collector, err := parseAddress("collector", body.Collector)
	if err != nil {
		writeError(w, r, badRequest(err))
		return
	}
	baseFee, err := parseAmount("baseFee", body.BaseFee)
	if err != nil {
		writeError(w, r, badRequest(err))
		return
	}
	cfg, err := s.node.ConfigureFees(caller, body.Nonce, body.Token, collector, baseFee, body.Enabled)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, feeConfigResultFrom(cfg))
}

func (s *Server) handleConfigureFlatFee(w http.ResponseWriter, r *http.Request) {
	caller, err := callerFrom(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	var body ConfigureFlatFeeRequest
	if err := decodeBody(r, w, &body); err != nil {
		writeError(w, r, err)
		return
	}
	treasury, err := parseAddress("treasury", body.Treasury)
	if err != nil {
		writeError(w, r, badRequest(err))
		return
	}
	amount, err := parseAmount("amount", body.Amount)
	if err != nil {
		writeError(w, r, badRequest(err))
		return
	}
	cfg, err := s.node.ConfigureFlatFee(caller, body.Nonce, body.Token, treasury, amount, body.Enabled)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, flatFeeConfigResultFrom(cfg))
}

func (s *Server) handleSetFeesEnabled(w http.ResponseWriter, r *http.Request) {
	caller, err := callerFrom(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	var body SetEnabledRequest
	if err := decodeBody(r, w, &body); err != nil {
		writeError(w, r, err)
		return
	}
	cfg, err := s.node.SetFeesEnabled(caller, body.Nonce, body.Enabled)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, feeConfigResultFrom(cfg))
}

func (s *Server) handleSetTierDiscount(w http.ResponseWriter, r *http.Request) {
	caller, err := callerFrom(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	var body TierDiscountRequest
	if err := decodeBody(r, w, &body); err != nil {
		writeError(w, r, err)
		return
	}
	if err := s.node.SetTierDiscount(caller, body.Nonce, body.Tier, body.Bps); err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, TierResult{Tier: body.Tier, Bps: body.Bps})
}

func (s *Server) handleSetBusinessTier(w http.ResponseWriter, r *http.Request) {
	caller, err := callerFrom(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	var body BusinessTierRequest
	if err := decodeBody(r, w, &body); err != nil {
		writeError(w, r, err)
		return
	}
	business, err := parseAddress("business", body.Business)
	if err != nil {
		writeError(w, r, badRequest(err))
		return
	}
	if err := s.node.SetBusinessTier(caller, body.Nonce, business, body.Tier); err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, TierResult{Tier: body.Tier})
}

func (s *Server) handleSetVolumeBrackets(w http.ResponseWriter, r *http.Request) {
	caller, err := callerFrom(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	var body BracketsRequest
	if err := decodeBody(r, w, &body); err != nil {
		writeError(w, r, err)
		return
	}
	if err := s.node.SetVolumeBrackets(caller, body.Nonce, body.Thresholds, body.Discounts); err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, BracketsResult{Thresholds: body.Thresholds, Discounts: body.Discounts})
}

func (s *Server) handleRateLimitConfig(w http.ResponseWriter, r *http.Request) {
	cfg, ok, err := s.node.RateLimitConfig()
	if err != nil {
		writeError(w, r, err)
		return
	}
	if !ok {
		writeJSON(w, http.StatusOK, RateLimitResult{})
		return
	}
	writeJSON(w, http.StatusOK, rateLimitResultFrom(cfg))
}

func (s *Server) handleActiveCount(w http.ResponseWriter, r *http.Request) {
	business, err := addressParam(r, "business")
	if err != nil {
		writeError(w, r, err)
		return
	}
	count, err := s.node.ActiveSubmissionCount(business)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, CountResult{Count: uint64(count)})
}

func (s *Server) handleConfigureRateLimit(w http.ResponseWriter, r *http.Request) {
	caller, err := callerFrom(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	var body RateLimitRequest
	if err := decodeBody(r, w, &body); err != nil {
		writeError(w, r, err)
		return
	}
	cfg, err := s.node.ConfigureRateLimit(caller, body.Nonce, body.MaxSubmissions, body.WindowSeconds, body.Enabled)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, rateLimitResultFrom(cfg))
}
