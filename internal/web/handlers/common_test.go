package handlers

import (
	"net/http/httptest"
	"testing"
)

func TestHealthCheck(t *testing.T) {
	req := httptest.NewRequest("GET", "/api/v1/health", nil)
	recorder := httptest.NewRecorder()

	HealthCheck(recorder, req)

	assertStatusCode(t, recorder, 200)

	var resp map[string]string
	parseJSONResponse(t, recorder, &resp)

	if resp["status"] != "ok" {
		t.Errorf("expected status 'ok', got '%s'", resp["status"])
	}
}

func TestSanitizeForLog(t *testing.T) {
	got := sanitizeForLog("line\nbreak\rhere")
	if got != "linebreakhere" {
		t.Errorf("expected newlines stripped, got '%s'", got)
	}
}
