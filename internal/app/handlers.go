package app

import (
	"encoding/json"
	"net/http"

	"nexttram.org/internal/alexa"
)

// HealthStatus is the body of /v1/healthcheck. The service is ready once the
// catalog holds at least one stop.
type HealthStatus struct {
	Status      string `json:"status"`
	Environment string `json:"environment"`
	Version     string `json:"version"`
	Provider    string `json:"provider"`
	Stops       int    `json:"stops"`
	Ready       bool   `json:"ready"`
}

func (app *Application) healthcheckHandler(w http.ResponseWriter, r *http.Request) {
	stops := 0
	if app.Catalog != nil {
		stops = app.Catalog.Len()
	}
	ready := stops > 0

	status := HealthStatus{
		Status:      "available",
		Environment: app.Config.Server.Env,
		Version:     app.Version,
		Provider:    app.Config.Schedule.Provider,
		Stops:       stops,
		Ready:       ready,
	}

	code := http.StatusOK
	if !ready {
		code = http.StatusInternalServerError
	}
	app.writeJSON(w, code, status)
}

// webhookHandler answers a voice request. Every outcome the caller can hear,
// including an unreadable envelope, is a 200.
func (app *Application) webhookHandler(w http.ResponseWriter, r *http.Request) {
	env, err := alexa.Decode(r.Body)
	if err != nil {
		app.Logger.Warn("Unreadable voice request", "error", err)
		app.writeJSON(w, http.StatusOK, alexa.Malformed())
		return
	}

	if skillID := app.Config.Server.SkillID; skillID != "" && env.ApplicationID() != skillID {
		app.Logger.Warn("Voice request for another skill", "application_id", env.ApplicationID())
		app.writeJSON(w, http.StatusForbidden, map[string]string{"error": "unknown application"})
		return
	}

	resp, ok := app.Dispatcher.Respond(r.Context(), env)
	if !ok {
		w.WriteHeader(http.StatusOK)
		return
	}
	app.writeJSON(w, http.StatusOK, resp)
}

func (app *Application) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json;charset=UTF-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		app.Logger.Error("Failed to write response", "error", err)
	}
}
