package server

import (
	"encoding/json"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5/middleware"

	"shinobi-relay/internal/relay"
	"shinobi-relay/internal/relayerr"
)

type triggerResponse struct {
	relay.Outcome
	Error string `json:"error,omitempty"`
	Kind  string `json:"kind,omitempty"`
}

// handleTrigger runs a relay unless the system is armed. Shinobi may post an
// event body; it is drained and ignored.
func (s *Server) handleTrigger(w http.ResponseWriter, r *http.Request) {
	if r.Body != nil {
		_, _ = io.Copy(io.Discard, io.LimitReader(r.Body, 1<<20))
	}

	log := s.log.With().Str("request_id", middleware.GetReqID(r.Context())).Logger()
	log.Debug().Str("method", r.Method).Str("remote", r.RemoteAddr).Msg("trigger received")

	out, err := s.relay.Run(r.Context(), relay.Request{
		Destination: s.opts.Destination,
		Trigger:     relay.TriggerWebhook,
		Suppressed:  s.state.Armed,
	})
	if err != nil {
		log.Error().Err(err).Str("relay_id", out.ID).Msg("webhook relay failed")
		respondJSON(w, http.StatusBadGateway, triggerResponse{
			Outcome: out,
			Error:   err.Error(),
			Kind:    relayerr.KindOf(err).String(),
		})
		return
	}

	respondJSON(w, http.StatusOK, triggerResponse{Outcome: out})
}

func (s *Server) handleStatus(w http.ResponseWriter, _ *http.Request) {
	respondJSON(w, http.StatusOK, map[string]any{"armed": s.state.Armed()})
}

func respondJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if payload == nil {
		return
	}
	_ = json.NewEncoder(w).Encode(payload)
}
