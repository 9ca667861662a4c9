package app

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"nexttram.org/internal/alexa"
	"nexttram.org/internal/catalog"
	"nexttram.org/internal/models"
	"nexttram.org/internal/schedule"
)

const launchBody = `{"version":"1.0","session":{"user":{"userId":"caller-1"},"application":{"applicationId":"skill-1"}},"request":{"type":"LaunchRequest","requestId":"r0"}}`

func intentRequest(name, slots string) string {
	return `{"version":"1.0","session":{"user":{"userId":"caller-1"},"application":{"applicationId":"skill-1"}},` +
		`"request":{"type":"IntentRequest","requestId":"r1","locale":"fr-FR","intent":{"name":"` + name + `","slots":{` + slots + `}}}}`
}

func postWebhook(t *testing.T, app *Application, body string) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body))
	app.webhookHandler(rec, req)
	return rec
}

func decodeSpeech(t *testing.T, rec *httptest.ResponseRecorder) alexa.ResponseEnvelope {
	t.Helper()
	var resp alexa.ResponseEnvelope
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if resp.Response.OutputSpeech == nil {
		t.Fatal("response has no speech")
	}
	return resp
}

func TestHealthcheckHandler(t *testing.T) {
	app, _ := newTestApplication(t, &stubGateway{})

	rr := httptest.NewRecorder()
	app.healthcheckHandler(rr, httptest.NewRequest(http.MethodGet, "/v1/healthcheck", nil))

	if rr.Code != http.StatusOK {
		t.Errorf("handler returned wrong status code: got %v want %v", rr.Code, http.StatusOK)
	}

	var resp HealthStatus
	if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	want := HealthStatus{Status: "available", Environment: "testing", Version: "test-version", Provider: "astuce", Stops: 6, Ready: true}
	if resp != want {
		t.Errorf("got %+v, want %+v", resp, want)
	}
}

func TestHealthcheckHandlerEmptyCatalog(t *testing.T) {
	app, _ := newTestApplication(t, &stubGateway{})
	empty, err := catalog.New(nil)
	if err != nil {
		t.Fatal(err)
	}
	app.Catalog = empty

	rr := httptest.NewRecorder()
	app.healthcheckHandler(rr, httptest.NewRequest(http.MethodGet, "/v1/healthcheck", nil))

	if rr.Code != http.StatusInternalServerError {
		t.Errorf("status = %d, want 500", rr.Code)
	}
}

func TestWebhookNextDeparture(t *testing.T) {
	app, _ := newTestApplication(t, &stubGateway{result: models.DepartsIn(12)})

	rec := postWebhook(t, app, intentRequest("LeaveTimeIntent",
		`"depart":{"name":"depart","value":"Boulingrin"},"destination":{"name":"destination","value":"Technopole"}`))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); !strings.HasPrefix(ct, "application/json") {
		t.Errorf("Content-Type = %q", ct)
	}
	resp := decodeSpeech(t, rec)
	if want := "Le prochain métro de Boulingrin vers Technopôle part dans 12 minutes."; resp.Response.OutputSpeech.Text != want {
		t.Errorf("text = %q, want %q", resp.Response.OutputSpeech.Text, want)
	}
	if resp.Response.ShouldEndSession {
		t.Error("session should stay open")
	}
}

func TestWebhookStoredDeparture(t *testing.T) {
	app, store := newTestApplication(t, &stubGateway{result: models.DepartsIn(15)})

	rec := postWebhook(t, app, intentRequest("SetDefaultDeparture",
		`"depart":{"name":"depart","value":"Boulingrin"},"temps":{"name":"temps","value":"PT10M"}`))
	resp := decodeSpeech(t, rec)
	if !strings.HasPrefix(resp.Response.OutputSpeech.Text, "Votre lieu de départ par défaut est maintenant Boulingrin.") {
		t.Errorf("text = %q", resp.Response.OutputSpeech.Text)
	}
	if dep, ok := store.Departure("caller-1"); !ok || dep.StopID != 101 || dep.LeadMinutes != 10 {
		t.Errorf("stored departure = %+v, %v", dep, ok)
	}

	rec = postWebhook(t, app, intentRequest("LeaveTimeIntent", `"destination":{"name":"destination","value":"Europe"}`))
	resp = decodeSpeech(t, rec)
	if !strings.Contains(resp.Response.OutputSpeech.Text, "Vous devez partir dans 5 minutes.") {
		t.Errorf("text = %q", resp.Response.OutputSpeech.Text)
	}
}

func TestWebhookFailuresStay200(t *testing.T) {
	tests := []struct {
		name     string
		gateway  *stubGateway
		body     string
		wantText string
		wantEnd  bool
	}{
		{
			name:     "malformed envelope",
			gateway:  &stubGateway{},
			body:     `{"request":`,
			wantText: "Désolé, une erreur est survenue lors de la lecture de votre requête",
			wantEnd:  true,
		},
		{
			name:     "missing departure",
			gateway:  &stubGateway{},
			body:     intentRequest("LeaveTimeIntent", `"destination":{"value":"Europe"}`),
			wantText: "Lieu de départ manquant.",
		},
		{
			name:     "unsupported intent",
			gateway:  &stubGateway{},
			body:     intentRequest("OrderPizzaIntent", ""),
			wantText: "Désolé, je ne suis pas capable de traiter cette requête",
		},
		{
			name:     "schedule unavailable",
			gateway:  &stubGateway{err: &schedule.GatewayError{Kind: schedule.ErrUnavailable, Reason: "no minutes token"}},
			body:     intentRequest("LeaveTimeIntent", `"depart":{"value":"Boulingrin"},"destination":{"value":"Europe"}`),
			wantText: "Les horaires sont indisponibles pour le moment.",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			app, _ := newTestApplication(t, tt.gateway)
			rec := postWebhook(t, app, tt.body)

			if rec.Code != http.StatusOK {
				t.Fatalf("status = %d, want 200", rec.Code)
			}
			resp := decodeSpeech(t, rec)
			if resp.Response.OutputSpeech.Text != tt.wantText {
				t.Errorf("text = %q, want %q", resp.Response.OutputSpeech.Text, tt.wantText)
			}
			if resp.Response.ShouldEndSession != tt.wantEnd {
				t.Errorf("shouldEndSession = %v, want %v", resp.Response.ShouldEndSession, tt.wantEnd)
			}
		})
	}
}

func TestWebhookSessionEnded(t *testing.T) {
	app, _ := newTestApplication(t, &stubGateway{})
	rec := postWebhook(t, app, `{"session":{"user":{"userId":"caller-1"}},"request":{"type":"SessionEndedRequest","reason":"EXCEEDED_MAX_REPROMPTS"}}`)

	if rec.Code != http.StatusOK {
		t.Errorf("status = %d", rec.Code)
	}
	if rec.Body.Len() != 0 {
		t.Errorf("expected empty body, got %q", rec.Body.String())
	}
}

func TestWebhookSkillID(t *testing.T) {
	app, _ := newTestApplication(t, &stubGateway{})
	app.Config.Server.SkillID = "skill-2"

	rec := postWebhook(t, app, launchBody)
	if rec.Code != http.StatusForbidden {
		t.Errorf("status = %d, want 403", rec.Code)
	}

	app.Config.Server.SkillID = "skill-1"
	rec = postWebhook(t, app, launchBody)
	if rec.Code != http.StatusOK {
		t.Errorf("status = %d, want 200", rec.Code)
	}
}
