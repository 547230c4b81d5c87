package api

import (
	"net/http"

	"github.com/seenimoa/flightdesk/internal/config"
)

// ConfigResponse is the JSON envelope returned by GET /api/v1/config.
type ConfigResponse struct {
	Config    config.Config `json:"config"`
	Inventory string        `json:"inventory"`
	Notifiers string        `json:"notifiers"`
}

// handleGetConfig returns the running configuration with credentials masked.
func (s *Server) handleGetConfig(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, APIResponse{
		Success: true,
		Data: ConfigResponse{
			Config:    s.app.Config.Redacted(),
			Inventory: s.app.Source.Name(),
			Notifiers: s.app.Notifiers.Name(),
		},
	})
}

// handleGetConfigKeys returns the status of every credential.
func (s *Server) handleGetConfigKeys(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, APIResponse{
		Success: true,
		Data:    config.CheckAPIKeys(s.app.Config),
	})
}

// handleGetRates returns the exchange-rate table conversions currently use.
func (s *Server) handleGetRates(w http.ResponseWriter, r *http.Request) {
	table, err := s.app.Converter.Table(r.Context())
	if err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, APIResponse{Success: true, Data: table})
}
