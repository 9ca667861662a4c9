package app

import (
	"context"
	"io"
	"log/slog"
	"strings"
	"sync"
	"testing"

	"nexttram.org/internal/catalog"
	"nexttram.org/internal/config"
	"nexttram.org/internal/models"
	"nexttram.org/internal/preferences"
)

const testNetwork = `Boulingrin,101,1
Beauvoisine,102,1
Théâtre des Arts,Theatre des Arts,104,1
Saint-Sever,105,1
Europe,106,2
Technopôle,Technopole,109,3
`

type stubGateway struct {
	mu      sync.Mutex
	result  models.ScheduleResult
	err     error
	queries []models.ScheduleQuery
}

func (s *stubGateway) NextDeparture(_ context.Context, q models.ScheduleQuery) (models.ScheduleResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.queries = append(s.queries, q)
	return s.result, s.err
}

func testConfig() *config.Config {
	return &config.Config{
		Server:   config.ServerConfig{Port: 4000, Env: "testing"},
		Topology: config.DefaultTopology(),
		Schedule: config.ScheduleConfig{Provider: "astuce", LineID: 40},
	}
}

func newTestApplication(t *testing.T, gateway *stubGateway) (*Application, *preferences.MemoryStore) {
	t.Helper()

	cat, err := catalog.LoadNetworkCSV(strings.NewReader(testNetwork))
	if err != nil {
		t.Fatalf("failed to load test network: %v", err)
	}

	store := preferences.NewMemoryStore()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return New(testConfig(), cat, gateway, store, logger, "test-version"), store
}
