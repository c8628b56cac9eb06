package alert

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/Erebuzzz/tea-tracker/models"
)

type recordingSender struct {
	to      string
	subject string
	body    string
	fail    bool
}

func (r *recordingSender) Send(to string, subject string, htmlBody string) error {
	if r.fail {
		return errors.New("relay refused")
	}
	r.to, r.subject, r.body = to, subject, htmlBody
	return nil
}

func testConfig() *models.Config {
	var config models.Config
	config = config.New()
	return &config
}

func TestSendAlertPreflight(t *testing.T) {
	controller := New(testConfig(), &recordingSender{})
	req := httptest.NewRequest(http.MethodOptions, "/api/alert", nil)
	rec := httptest.NewRecorder()

	controller.SendAlert(rec, req)

	if rec.Code != http.StatusNoContent {
		t.Fatalf("preflight status = %d, want 204", rec.Code)
	}
	if rec.Header().Get("Access-Control-Allow-Origin") != "*" || rec.Header().Get("Access-Control-Allow-Methods") != "POST" {
		t.Fatalf("missing CORS headers: %v", rec.Header())
	}
}

func TestSendAlertRejectsWrongMethod(t *testing.T) {
	controller := New(testConfig(), &recordingSender{})
	req := httptest.NewRequest(http.MethodGet, "/api/alert", nil)
	rec := httptest.NewRecorder()

	controller.SendAlert(rec, req)

	if rec.Code != http.StatusMethodNotAllowed {
		t.Fatalf("GET status = %d, want 405", rec.Code)
	}
}

func TestSendAlertRejectsMissingFields(t *testing.T) {
	controller := New(testConfig(), &recordingSender{})
	for _, body := range []string{
		`{}`,
		`{"email":"a@example.test","subject":"hi"}`,
		`{"subject":"hi","message":"text"}`,
		`not json`,
	} {
		req := httptest.NewRequest(http.MethodPost, "/api/alert", strings.NewReader(body))
		rec := httptest.NewRecorder()

		controller.SendAlert(rec, req)

		if rec.Code != http.StatusBadRequest {
			t.Fatalf("body %q: status = %d, want 400", body, rec.Code)
		}
	}
}

func TestSendAlertDeliversEmail(t *testing.T) {
	sender := &recordingSender{}
	controller := New(testConfig(), sender)
	req := httptest.NewRequest(http.MethodPost, "/api/alert",
		strings.NewReader(`{"email":"a@example.test","subject":"Check in","message":"How is the plan going?"}`))
	rec := httptest.NewRecorder()

	controller.SendAlert(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "Alert email sent successfully") {
		t.Fatalf("unexpected body: %s", rec.Body.String())
	}
	if sender.to != "a@example.test" || sender.subject != "Check in" {
		t.Fatalf("sender got to=%q subject=%q", sender.to, sender.subject)
	}
	if !strings.Contains(sender.body, "How is the plan going?") {
		t.Fatalf("message missing from body: %s", sender.body)
	}
}

func TestSendAlertRelayFailure(t *testing.T) {
	controller := New(testConfig(), &recordingSender{fail: true})
	req := httptest.NewRequest(http.MethodPost, "/api/alert",
		strings.NewReader(`{"email":"a@example.test","subject":"s","message":"m"}`))
	rec := httptest.NewRecorder()

	controller.SendAlert(rec, req)

	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d, want 500", rec.Code)
	}
}
