/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package gateway

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/Seednode/impostor/internal/archive"
	"github.com/Seednode/impostor/internal/game"
	"github.com/gorilla/websocket"
	"github.com/julienschmidt/httprouter"
	"github.com/skip2/go-qrcode"
)

const (
	qrSize           = 320
	maxRequestBody   = 4096
	maxRecentGames   = 100
	defaultRecentMax = 20
)

// Config holds the gateway's collaborators.
type Config struct {
	Registry *game.Registry
	// Archive is optional; without it the recent games endpoint reports 503.
	Archive archive.Repository

	Prefix string
	// AllowedOrigin restricts websocket upgrades to one Origin; empty allows any.
	AllowedOrigin string

	// Headers, if set, is applied to every HTTP response.
	Headers func(w http.ResponseWriter)
	Logf    func(format string, args ...any)
}

// Server maps HTTP requests and websocket sessions onto the registry.
type Server struct {
	registry *game.Registry
	archive  archive.Repository
	prefix   string
	upgrader websocket.Upgrader
	headers  func(w http.ResponseWriter)
	logf     func(format string, args ...any)
}

func New(cfg *Config) (*Server, error) {
	if cfg == nil {
		return nil, errors.New("config cannot be nil")
	}

	if cfg.Registry == nil {
		return nil, errors.New("registry cannot be nil")
	}

	s := &Server{
		registry: cfg.Registry,
		archive:  cfg.Archive,
		prefix:   strings.TrimSuffix(cfg.Prefix, "/"),
		headers:  cfg.Headers,
		logf:     cfg.Logf,
	}

	if s.headers == nil {
		s.headers = func(http.ResponseWriter) {}
	}
	if s.logf == nil {
		s.logf = func(string, ...any) {}
	}

	allowed := cfg.AllowedOrigin
	s.upgrader = websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin: func(r *http.Request) bool {
			if allowed == "" {
				return true
			}
			origin := r.Header.Get("Origin")
			return origin == "" || strings.EqualFold(origin, allowed)
		},
	}

	return s, nil
}

// Register sets up routes so that:
//   - POST $prefix/api/rooms        → create a room
//   - GET  $prefix/api/rooms/:pin   → room summary
//   - GET  $prefix/api/games/recent → archived leaderboards
//   - GET  $prefix/rooms/:pin/qr    → PNG QR code for the join URL
//   - GET  $prefix/ws               → realtime channel
func (s *Server) Register(mux *httprouter.Router) {
	mux.POST(s.prefix+"/api/rooms", s.createRoom)
	mux.GET(s.prefix+"/api/rooms/:pin", s.lookupRoom)
	mux.GET(s.prefix+"/api/games/recent", s.recentGames)
	mux.GET(s.prefix+"/rooms/:pin/qr", s.qr)
	mux.GET(s.prefix+"/ws", s.serveWS)
}

type createRoomRequest struct {
	HostID      string `json:"hostId"`
	DisplayName string `json:"displayName"`
}

type errorResponse struct {
	Error string `json:"error"`
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.Header().Set("Cache-Control", "no-store")
	s.headers(w)
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logf("ERROR: Writing response: %v", err)
	}
}

func (s *Server) writeError(w http.ResponseWriter, status int, err error) {
	msg := "Something went wrong"

	var ge game.Error
	if errors.As(err, &ge) {
		msg = ge.Error()
	}

	s.writeJSON(w, status, errorResponse{Error: msg})
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, game.ErrRoomNotFound):
		return http.StatusNotFound
	case errors.Is(err, game.ErrPinUnavailable):
		return http.StatusServiceUnavailable
	case errors.As(err, new(game.Error)):
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}

func (s *Server) createRoom(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	var req createRoomRequest

	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxRequestBody)).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, ErrMalformed)
		return
	}

	out, err := s.registry.CreateRoom(&game.CreateRoomInput{
		HostID:      req.HostID,
		DisplayName: req.DisplayName,
	})
	if err != nil {
		s.writeError(w, statusFor(err), err)
		return
	}

	s.writeJSON(w, http.StatusCreated, out)
}

func (s *Server) lookupRoom(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	pin := ps.ByName("pin")
	if !validPin(pin) {
		s.writeError(w, http.StatusBadRequest, ErrInvalidPin)
		return
	}

	summary, err := s.registry.Lookup(pin)
	if err != nil {
		s.writeError(w, statusFor(err), err)
		return
	}

	s.writeJSON(w, http.StatusOK, summary)
}

func (s *Server) recentGames(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	if s.archive == nil {
		s.writeJSON(w, http.StatusServiceUnavailable, errorResponse{Error: "Game archive is disabled"})
		return
	}

	limit := defaultRecentMax
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 || n > maxRecentGames {
			s.writeJSON(w, http.StatusBadRequest, errorResponse{Error: "Invalid limit"})
			return
		}
		limit = n
	}

	out, err := s.archive.ListRecentGames(r.Context(), &archive.ListRecentGamesInput{Limit: limit})
	if err != nil {
		s.logf("ERROR: Listing recent games: %v", err)
		s.writeError(w, http.StatusInternalServerError, err)
		return
	}

	games := out.Games
	if games == nil {
		games = []*archive.Game{}
	}

	s.writeJSON(w, http.StatusOK, games)
}

// qr generates a PNG QR code pointing players at the join page for a room.
func (s *Server) qr(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	pin := ps.ByName("pin")
	if !validPin(pin) {
		s.writeError(w, http.StatusBadRequest, ErrInvalidPin)
		return
	}

	if _, err := s.registry.Room(pin); err != nil {
		s.writeError(w, statusFor(err), err)
		return
	}

	// Respect TLS and X-Forwarded-Proto when deriving the scheme.
	scheme := "http"
	if r.TLS != nil {
		scheme = "https"
	}
	if proto := r.Header.Get("X-Forwarded-Proto"); proto != "" {
		scheme = proto
	}

	url := scheme + "://" + r.Host + s.prefix + "/?pin=" + pin

	png, err := qrcode.Encode(url, qrcode.Medium, qrSize)
	if err != nil {
		http.Error(w, "qr generation failed", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "image/png")
	s.headers(w)
	_, _ = w.Write(png)
}

func (s *Server) serveWS(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logf("ERROR: Upgrading connection from %s: %v", r.RemoteAddr, err)
		return
	}

	c := newClient(s, conn)

	go c.writePump()
	c.readPump()
}
