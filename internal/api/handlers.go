package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/espwifi/wifid/internal/dispatch"
	"github.com/espwifi/wifid/internal/wifi"
	"github.com/go-chi/chi/v5"
)

// handleHealthz handles GET /healthz (no auth).
func (s *Server) handleHealthz(w http.ResponseWriter, r *http.Request) {
	resp := HealthzResponse{
		Status:        "ok",
		UptimeSeconds: int64(time.Since(s.startedAt).Seconds()),
		QueueDepth:    s.prober.Depth(),
	}
	s.writeJSON(w, http.StatusOK, resp)
}

// handleGetAddrs handles GET /ap/addresses.
func (s *Server) handleGetAddrs(w http.ResponseWriter, r *http.Request) {
	var addrs wifi.APAddrs
	if err := s.commander.Addrs(&addrs); err != nil {
		s.writeCommandError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, AddrsResponse{
		IP:      addrs.IP.String(),
		Gateway: addrs.Gateway.String(),
		Netmask: addrs.Netmask.String(),
	})
}

// handleSetAddrs handles PUT /ap/addresses.
func (s *Server) handleSetAddrs(w http.ResponseWriter, r *http.Request) {
	var req SetAddrsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	ip, err := wifi.ParseIPv4(req.IP)
	if err != nil {
		s.writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	var gw, nm *wifi.IPv4
	if req.Gateway != "" {
		v, err := wifi.ParseIPv4(req.Gateway)
		if err != nil {
			s.writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		gw = &v
	}
	if req.Netmask != "" {
		v, err := wifi.ParseIPv4(req.Netmask)
		if err != nil {
			s.writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		nm = &v
	}

	if err := s.commander.SetAddrs(ip, gw, nm); err != nil {
		s.writeCommandError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// handleGetMAC handles GET /ap/mac.
func (s *Server) handleGetMAC(w http.ResponseWriter, r *http.Request) {
	var mac wifi.MAC
	if err := s.commander.MAC(&mac); err != nil {
		s.writeCommandError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, MACResponse{MAC: mac.String()})
}

// handleSetMAC handles PUT /ap/mac.
func (s *Server) handleSetMAC(w http.ResponseWriter, r *http.Request) {
	var req SetMACRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	mac, err := wifi.ParseMAC(req.MAC)
	if err != nil {
		s.writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := s.commander.SetMAC(mac); err != nil {
		s.writeCommandError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// handleConfigure handles PUT /ap/config.
func (s *Server) handleConfigure(w http.ResponseWriter, r *http.Request) {
	var req ConfigureRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	enc, err := wifi.ParseEncryption(req.Encryption)
	if err != nil {
		s.writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	cfg := wifi.APConfig{
		SSID:        req.SSID,
		Passphrase:  req.Passphrase,
		Channel:     req.Channel,
		Encryption:  enc,
		MaxStations: req.MaxStations,
		Hidden:      req.Hidden,
	}
	if err := s.commander.Configure(cfg); err != nil {
		s.writeCommandError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// handleListStations handles GET /stations.
func (s *Server) handleListStations(w http.ResponseWriter, r *http.Request) {
	limit := 16
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			s.writeError(w, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		limit = n
	}

	buf := make([]wifi.Station, limit)
	var found int
	if err := s.commander.Stations(buf, &found); err != nil {
		s.writeCommandError(w, err)
		return
	}

	resp := StationsResponse{Stations: make([]StationJSON, 0, found), Found: found}
	for _, st := range buf[:found] {
		resp.Stations = append(resp.Stations, StationJSON{IP: st.IP.String(), MAC: st.MAC.String()})
	}
	s.writeJSON(w, http.StatusOK, resp)
}

// handleDisconnect handles DELETE /stations/{mac}.
func (s *Server) handleDisconnect(w http.ResponseWriter, r *http.Request) {
	mac, err := wifi.ParseMAC(chi.URLParam(r, "mac"))
	if err != nil {
		s.writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := s.commander.Disconnect(mac); err != nil {
		s.writeCommandError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// handleAuditCommands handles GET /audit/commands.
func (s *Server) handleAuditCommands(w http.ResponseWriter, r *http.Request) {
	if s.auditor == nil {
		s.writeError(w, http.StatusNotFound, "audit trail disabled")
		return
	}

	limit := 50
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			s.writeError(w, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		limit = n
	}

	entries, err := s.auditor.Recent(r.Context(), limit)
	if err != nil {
		s.logger.Error("failed to read audit trail", "error", err)
		s.writeError(w, http.StatusInternalServerError, "failed to read audit trail")
		return
	}
	s.writeJSON(w, http.StatusOK, entries)
}

// handleEvents handles GET /events: a snapshot of recent module events,
// optionally only those after ?since=<id>.
func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request) {
	if s.hub == nil {
		s.writeError(w, http.StatusNotFound, "event stream disabled")
		return
	}

	var since int64
	if v := r.URL.Query().Get("since"); v != "" {
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil || n < 0 {
			s.writeError(w, http.StatusBadRequest, "since must be a non-negative integer")
			return
		}
		since = n
	}

	s.writeJSON(w, http.StatusOK, s.hub.SnapshotSince(since))
}

// writeCommandError maps the command error taxonomy onto HTTP statuses.
func (s *Server) writeCommandError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, dispatch.ErrInvalidArgument):
		s.writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, dispatch.ErrQueueFull):
		s.writeError(w, http.StatusTooManyRequests, err.Error())
	case errors.Is(err, dispatch.ErrTimeout):
		s.writeError(w, http.StatusGatewayTimeout, err.Error())
	case errors.Is(err, dispatch.ErrNotReady):
		s.writeError(w, http.StatusServiceUnavailable, err.Error())
	default:
		s.writeError(w, http.StatusBadGateway, err.Error())
	}
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func (s *Server) writeError(w http.ResponseWriter, status int, msg string) {
	s.writeJSON(w, status, ErrorResponse{Error: msg})
}
