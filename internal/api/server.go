// Package api exposes the economy command surface over HTTP. It is the
// dispatcher side of the system: it identifies the caller, decodes the
// command, forwards it to the engine with the current time, and renders the
// result. Display formatting belongs to clients, not here.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"hustle/internal/config"
	"hustle/internal/econ"
)

type contextKey string

const accountContextKey contextKey = "account"

type Server struct {
	cfg  config.APIConfig
	log  *slog.Logger
	econ *econ.Service
	mux  *chi.Mux
}

func New(cfg config.APIConfig, logger *slog.Logger, econSvc *econ.Service) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Server{
		cfg:  cfg,
		log:  logger,
		econ: econSvc,
		mux:  chi.NewRouter(),
	}
	s.routes()
	return s
}

func (s *Server) Handler() http.Handler {
	return s.mux
}

func (s *Server) routes() {
	r := s.mux
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{"ok": true})
	})

	r.Route("/v1", func(r chi.Router) {
		r.Use(s.accountMiddleware)

		r.Get("/balance", s.handleBalance)
		r.Get("/profile", s.handleProfile)
		r.Get("/jobs", s.handleJobs)
		r.Post("/jobs/apply", s.handleApplyJob)
		r.Post("/work", s.handleWork)
		r.Get("/leaderboard", s.handleLeaderboard)

		r.Post("/companies", s.handleCreateCompany)
		r.Get("/companies/info", s.handleCompanyInfo)
		r.Get("/companies/leaderboard", s.handleCompanyLeaderboard)
		r.Post("/companies/invite", s.handleInvite)
		r.Post("/companies/accept", s.handleAccept)
		r.Post("/companies/leave", s.handleLeave)
		r.Post("/companies/deposit", s.handleDeposit)
		r.Post("/companies/withdraw", s.handleWithdraw)
		r.Post("/companies/salary", s.handleSetSalary)
	})
}

// accountMiddleware trusts the dispatcher in front of this server to have
// authenticated the chat user; the header only carries the identity along.
func (s *Server) accountMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := strings.TrimSpace(r.Header.Get("X-Account-ID"))
		if id == "" {
			writeError(w, http.StatusUnauthorized, "missing X-Account-ID header")
			return
		}
		ctx := contextWithAccount(r.Context(), id)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func (s *Server) handleBalance(w http.ResponseWriter, r *http.Request) {
	out, err := s.econ.Balance(r.Context(), accountID(r), time.Now().UTC())
	s.respond(w, out, err)
}

func (s *Server) handleProfile(w http.ResponseWriter, r *http.Request) {
	out, err := s.econ.Profile(r.Context(), accountID(r), time.Now().UTC())
	s.respond(w, out, err)
}

func (s *Server) handleJobs(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"jobs": s.econ.Jobs()})
}

func (s *Server) handleApplyJob(w http.ResponseWriter, r *http.Request) {
	var in struct {
		Job string `json:"job"`
	}
	if err := decodeBody(r, &in); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	out, err := s.econ.ApplyJob(r.Context(), accountID(r), in.Job, time.Now().UTC())
	s.respond(w, out, err)
}

func (s *Server) handleWork(w http.ResponseWriter, r *http.Request) {
	out, err := s.econ.Work(r.Context(), accountID(r), time.Now().UTC())
	s.respond(w, out, err)
}

func (s *Server) handleLeaderboard(w http.ResponseWriter, r *http.Request) {
	rows, err := s.econ.Leaderboard(r.Context(), queryLimit(r))
	if err != nil {
		s.respond(w, nil, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"rows": rows})
}

func (s *Server) handleCreateCompany(w http.ResponseWriter, r *http.Request) {
	var in struct {
		Name string `json:"name"`
	}
	if err := decodeBody(r, &in); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	out, err := s.econ.CreateCompany(r.Context(), accountID(r), in.Name, s.cfg.CompanyCost, time.Now().UTC())
	s.respond(w, out, err)
}

func (s *Server) handleCompanyInfo(w http.ResponseWriter, r *http.Request) {
	out, err := s.econ.CompanyInfo(r.Context(), accountID(r), time.Now().UTC())
	s.respond(w, out, err)
}

func (s *Server) handleCompanyLeaderboard(w http.ResponseWriter, r *http.Request) {
	rows, err := s.econ.CompanyLeaderboard(r.Context(), queryLimit(r))
	if err != nil {
		s.respond(w, nil, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"rows": rows})
}

func (s *Server) handleInvite(w http.ResponseWriter, r *http.Request) {
	var in struct {
		TargetID string `json:"target_id"`
	}
	if err := decodeBody(r, &in); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	out, err := s.econ.Invite(r.Context(), accountID(r), in.TargetID, time.Now().UTC())
	s.respond(w, out, err)
}

func (s *Server) handleAccept(w http.ResponseWriter, r *http.Request) {
	out, err := s.econ.Accept(r.Context(), accountID(r), time.Now().UTC())
	s.respond(w, out, err)
}

func (s *Server) handleLeave(w http.ResponseWriter, r *http.Request) {
	if err := s.econ.Leave(r.Context(), accountID(r), time.Now().UTC()); err != nil {
		s.respond(w, nil, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"ok": true})
}

func (s *Server) handleDeposit(w http.ResponseWriter, r *http.Request) {
	amount, err := amountBody(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	out, err := s.econ.Deposit(r.Context(), accountID(r), amount, time.Now().UTC())
	s.respond(w, out, err)
}

func (s *Server) handleWithdraw(w http.ResponseWriter, r *http.Request) {
	amount, err := amountBody(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	out, err := s.econ.Withdraw(r.Context(), accountID(r), amount, time.Now().UTC())
	s.respond(w, out, err)
}

func (s *Server) handleSetSalary(w http.ResponseWriter, r *http.Request) {
	amount, err := amountBody(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	out, err := s.econ.SetSalary(r.Context(), accountID(r), amount, time.Now().UTC())
	s.respond(w, out, err)
}

func (s *Server) respond(w http.ResponseWriter, payload any, err error) {
	if err != nil {
		status := statusForError(err)
		if status == http.StatusInternalServerError {
			s.log.Error("command failed", "err", err)
		}
		writeError(w, status, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, payload)
}

func statusForError(err error) int {
	switch {
	case errors.Is(err, econ.ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, econ.ErrConflict):
		return http.StatusConflict
	case errors.Is(err, econ.ErrPrecondition):
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

func decodeBody(r *http.Request, out any) error {
	defer r.Body.Close()
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(out); err != nil {
		return errors.New("invalid JSON body")
	}
	return nil
}

func amountBody(r *http.Request) (int64, error) {
	var in struct {
		Amount int64 `json:"amount"`
	}
	if err := decodeBody(r, &in); err != nil {
		return 0, err
	}
	return in.Amount, nil
}

func queryLimit(r *http.Request) int {
	raw := strings.TrimSpace(r.URL.Query().Get("limit"))
	if raw == "" {
		return 0
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0
	}
	return n
}

func accountID(r *http.Request) string {
	id, _ := r.Context().Value(accountContextKey).(string)
	return id
}

func contextWithAccount(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, accountContextKey, id)
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]any{"error": strings.TrimSpace(message)})
}
