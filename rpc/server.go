package rpc

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/soomtochukwu/Veritasor-Contracts-sub001/core"
	"github.com/soomtochukwu/Veritasor-Contracts-sub001/indexer"
)

const (
	maxRequestBytes = 1 << 20 // 1 MiB

	// CallerHeader carries the bech32 identity the request acts as.
	CallerHeader = "X-Veritasor-Caller"
)

type Config struct {
	ListenAddress string
	Auth          AuthConfig
	RateLimit     RateLimit
	Logger        *slog.Logger
	// Index serves /v1/index when set.
	Index *indexer.Store
}

type Server struct {
	node    *core.Node
	logger  *slog.Logger
	auth    *Authenticator
	limiter *ClientRateLimiter
	index   *indexer.Store
	handler http.Handler
	http    *http.Server
}

func NewServer(node *core.Node, cfg Config) *Server {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With(slog.String("component", "rpc"))
	s := &Server{
		node:    node,
		logger:  logger,
		auth:    NewAuthenticator(cfg.Auth, logger),
		limiter: NewClientRateLimiter(cfg.RateLimit),
		index:   cfg.Index,
	}
	s.handler = otelhttp.NewHandler(s.routes(), "veritasor.rpc")
	s.http = &http.Server{
		Addr:              cfg.ListenAddress,
		Handler:           s.handler,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
	return s
}

// Handler exposes the routed handler, mainly for tests.
func (s *Server) Handler() http.Handler { return s.handler }

// Start serves until Shutdown is called.
func (s *Server) Start() error {
	s.logger.Info("starting http server", slog.String("addr", s.http.Addr))
	if err := s.http.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.http.Shutdown(ctx)
}

func (s *Server) routes() http.Handler {
	r := chi.NewRouter()
	r.Use(requestContext(s.logger))
	r.Use(observe)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	r.Handle("/metrics", promhttp.Handler())

	admin := s.auth.Middleware(ScopeAdmin)
	r.Route("/v1", func(v1 chi.Router) {
		v1.Use(s.limiter.Middleware)

		v1.Route("/attestations", func(ar chi.Router) {
			ar.Post("/", s.handleSubmit)
			ar.Post("/metadata", s.handleSubmitWithMetadata)
			ar.Post("/batch", s.handleSubmitBatch)
			ar.Post("/ranges", s.handleSubmitMultiPeriod)
			ar.Post("/ranges/revoke", s.handleRevokeRange)
			ar.Get("/{business}", s.handleListAttestations)
			ar.Get("/{business}/ranges", s.handleListRanges)
			ar.Get("/{business}/ranges/{period}", s.handleForPeriod)
			ar.Get("/{business}/ranges/{period}/verify", s.handleVerifyMultiPeriod)
			ar.Get("/{business}/{period}", s.handleGetAttestation)
			ar.Get("/{business}/{period}/verify", s.handleVerifyAttestation)
			ar.Get("/{business}/{period}/revoked", s.handleIsRevoked)
			ar.Get("/{business}/{period}/expired", s.handleIsExpired)
			ar.Post("/{business}/{period}/revoke", s.handleRevoke)
			ar.Post("/{business}/{period}/migrate", s.handleMigrate)
		})

		v1.Route("/fees", func(fr chi.Router) {
			fr.Get("/config", s.handleFeeConfig)
			fr.Get("/brackets", s.handleVolumeBrackets)
			fr.Get("/tiers/{tier}", s.handleTierDiscount)
			fr.Get("/quote/{business}", s.handleQuote)
			fr.Get("/breakdown/{business}", s.handleBreakdown)
			fr.Get("/business/{business}/tier", s.handleBusinessTier)
			fr.Get("/business/{business}/count", s.handleSubmissionCount)
			fr.Group(func(gr chi.Router) {
				gr.Use(admin)
				gr.Post("/config", s.handleConfigureFees)
				gr.Post("/flat", s.handleConfigureFlatFee)
				gr.Post("/enabled", s.handleSetFeesEnabled)
				gr.Post("/tiers", s.handleSetTierDiscount)
				gr.Post("/business-tier", s.handleSetBusinessTier)
				gr.Post("/brackets", s.handleSetVolumeBrackets)
			})
		})

		v1.Route("/ratelimit", func(rr chi.Router) {
			rr.Get("/config", s.handleRateLimitConfig)
			rr.Get("/active/{business}", s.handleActiveCount)
			rr.With(admin).Post("/config", s.handleConfigureRateLimit)
		})

		v1.Route("/disputes", func(dr chi.Router) {
			dr.Post("/", s.handleOpenDispute)
			dr.Get("/{id}", s.handleGetDispute)
			dr.Post("/{id}/resolve", s.handleResolveDispute)
			dr.Post("/{id}/close", s.handleCloseDispute)
			dr.Get("/by-attestation/{business}/{period}", s.handleDisputesByAttestation)
			dr.Get("/by-challenger/{challenger}", s.handleDisputesByChallenger)
		})

		v1.Route("/admin", func(adm chi.Router) {
			adm.Get("/status", s.handleStatus)
			adm.Get("/roles/{account}", s.handleRoles)
			adm.Get("/nonce/{account}", s.handleNonce)
			adm.Group(func(gr chi.Router) {
				gr.Use(admin)
				gr.Post("/roles/grant", s.handleGrantRole)
				gr.Post("/roles/revoke", s.handleRevokeRole)
				gr.Post("/pause", s.handlePause)
				gr.Post("/unpause", s.handleUnpause)
			})
		})

		v1.Get("/balances/{token}/{holder}", s.handleBalance)
		v1.Get("/events/recent", s.handleRecentEvents)
		v1.Get("/events/ws", s.handleEventsWS)
		if s.index != nil {
			v1.Get("/index/events", s.handleIndexedEvents)
			v1.With(admin).Get("/index/verify", s.handleVerifyIndex)
		}
	})
	return r
}

func decodeBody(r *http.Request, w http.ResponseWriter, dst interface{}) error {
	reader := http.MaxBytesReader(w, r.Body, maxRequestBytes)
	defer reader.Close()
	decoder := json.NewDecoder(reader)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			return badRequest(errors.New("request body required"))
		}
		return badRequest(fmt.Errorf("invalid request body: %w", err))
	}
	return nil
}

// callerFrom resolves the acting identity from CallerHeader.
func callerFrom(r *http.Request) ([20]byte, error) {
	caller, err := parseAddress("caller", r.Header.Get(CallerHeader))
	if err != nil {
		return caller, badRequest(fmt.Errorf("%s header: %w", CallerHeader, err))
	}
	return caller, nil
}

func addressParam(r *http.Request, name string) ([20]byte, error) {
	addr, err := parseAddress(name, chi.URLParam(r, name))
	return addr, badRequest(err)
}

func uintParam(r *http.Request, name string, bits int) (uint64, error) {
	raw := strings.TrimSpace(chi.URLParam(r, name))
	v, err := strconv.ParseUint(raw, 10, bits)
	if err != nil {
		return 0, badRequest(fmt.Errorf("invalid %s %q", name, raw))
	}
	return v, nil
}

func uintQuery(r *http.Request, name string, bits int) (uint64, bool, error) {
	raw := strings.TrimSpace(r.URL.Query().Get(name))
	if raw == "" {
		return 0, false, nil
	}
	v, err := strconv.ParseUint(raw, 10, bits)
	if err != nil {
		return 0, false, badRequest(fmt.Errorf("invalid %s %q", name, raw))
	}
	return v, true, nil
}

func rootQuery(r *http.Request) ([32]byte, error) {
	root, err := parseRoot("root", r.URL.Query().Get("root"))
	return root, badRequest(err)
}
