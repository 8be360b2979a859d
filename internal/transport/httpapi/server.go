// Package httpapi is the agent-facing REST transport. Every endpoint is a
// stateless POST carrying JSON; session identity travels in the request body
// as a session_token, never in cookies or headers.
package httpapi

import (
	"encoding/json"
	"log"
	"net/http"

	"moltmud.ai/internal/protocol"
	"moltmud.ai/internal/sim/world"
)

type Server struct {
	world *world.World
	log   *log.Logger

	maxBodyBytes int64
}

func NewServer(w *world.World, logger *log.Logger) *Server {
	return &Server{
		world:        w,
		log:          logger,
		maxBodyBytes: 64 * 1024,
	}
}

// Register mounts the v1 endpoints on mux.
func (s *Server) Register(mux *http.ServeMux) {
	mux.HandleFunc("/v1/connect", s.handleConnect)
	mux.HandleFunc("/v1/state", s.handleState)
	mux.HandleFunc("/v1/act", s.handleAct)
	mux.HandleFunc("/v1/disconnect", s.handleDisconnect)
	mux.HandleFunc("/healthz", s.handleHealthz)
}

func (s *Server) handleConnect(rw http.ResponseWriter, r *http.Request) {
	var req protocol.ConnectRequest
	if !s.readJSON(rw, r, &req) {
		return
	}
	resp, werr := s.world.Connect(req)
	if werr != nil {
		s.writeError(rw, werr)
		return
	}
	s.writeJSON(rw, http.StatusOK, resp)
}

func (s *Server) handleState(rw http.ResponseWriter, r *http.Request) {
	var req protocol.StateRequest
	if !s.readJSON(rw, r, &req) {
		return
	}
	resp, werr := s.world.State(req.SessionToken)
	if werr != nil {
		s.writeError(rw, werr)
		return
	}
	s.writeJSON(rw, http.StatusOK, resp)
}

func (s *Server) handleAct(rw http.ResponseWriter, r *http.Request) {
	var req protocol.ActRequest
	if !s.readJSON(rw, r, &req) {
		return
	}
	resp, werr := s.world.Act(req.SessionToken, req.Action, req.Params)
	if werr != nil {
		s.writeError(rw, werr)
		return
	}
	s.writeJSON(rw, http.StatusOK, resp)
}

func (s *Server) handleDisconnect(rw http.ResponseWriter, r *http.Request) {
	var req protocol.DisconnectRequest
	if !s.readJSON(rw, r, &req) {
		return
	}
	resp, werr := s.world.Disconnect(req.SessionToken)
	if werr != nil {
		s.writeError(rw, werr)
		return
	}
	s.writeJSON(rw, http.StatusOK, resp)
}

func (s *Server) handleHealthz(rw http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		rw.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	s.writeJSON(rw, http.StatusOK, map[string]any{
		"ok":      true,
		"version": protocol.Version,
	})
}

// readJSON decodes the request body, rejecting non-POST methods and bodies
// above the size cap. It writes the failure response itself and reports
// whether the caller should proceed.
func (s *Server) readJSON(rw http.ResponseWriter, r *http.Request, v any) bool {
	if r.Method != http.MethodPost {
		rw.Header().Set("Allow", http.MethodPost)
		s.writeJSON(rw, http.StatusMethodNotAllowed,
			protocol.Fail(protocol.ErrBadRequest, "method not allowed"))
		return false
	}
	r.Body = http.MaxBytesReader(rw, r.Body, s.maxBodyBytes)
	dec := json.NewDecoder(r.Body)
	if err := dec.Decode(v); err != nil {
		s.writeJSON(rw, http.StatusBadRequest,
			protocol.Fail(protocol.ErrBadRequest, "malformed JSON body"))
		return false
	}
	return true
}

func (s *Server) writeError(rw http.ResponseWriter, werr *world.Error) {
	s.writeJSON(rw, httpStatus(werr.Code), protocol.Fail(werr.Code, werr.Message))
}

func (s *Server) writeJSON(rw http.ResponseWriter, status int, v any) {
	rw.Header().Set("Content-Type", "application/json")
	rw.WriteHeader(status)
	if err := json.NewEncoder(rw).Encode(v); err != nil {
		s.log.Printf("httpapi: write response: %v", err)
	}
}

// httpStatus maps engine error codes onto HTTP statuses. Clients are expected
// to branch on error_code; the status is a coarse signal for proxies and
// generic tooling.
func httpStatus(code string) int {
	switch code {
	case protocol.ErrBadRequest, protocol.ErrValidation, protocol.ErrInvalidRating:
		return http.StatusBadRequest
	case protocol.ErrSessionNotFound, protocol.ErrSessionExpired:
		return http.StatusUnauthorized
	case protocol.ErrFragmentNotFound:
		return http.StatusNotFound
	case protocol.ErrSelfPurchase, protocol.ErrInsufficientInfluence,
		protocol.ErrDuplicateRating, protocol.ErrNoPermission, protocol.ErrInvalidExit:
		return http.StatusConflict
	case protocol.ErrUnknownAction:
		return http.StatusBadRequest
	case protocol.ErrInternal:
		return http.StatusInternalServerError
	}
	return http.StatusInternalServerError
}
