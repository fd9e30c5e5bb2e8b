package http

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/kapilthakare-cyberpunk/telegram-voice-assistant/internal/config"
	"github.com/kapilthakare-cyberpunk/telegram-voice-assistant/internal/contacts"
	"github.com/kapilthakare-cyberpunk/telegram-voice-assistant/internal/correction"
	"github.com/kapilthakare-cyberpunk/telegram-voice-assistant/internal/pipeline"
)

type stubDeliverer struct {
	connected bool
	sendErr   error
	messageID int
	lastText  string
}

func (d *stubDeliverer) Connected() bool { return d.connected }

func (d *stubDeliverer) Send(ctx context.Context, handle, text string) (int, error) {
	if d.sendErr != nil {
		return 0, d.sendErr
	}
	d.lastText = text
	return d.messageID, nil
}

func newTestServer(t *testing.T, token string, d pipeline.Deliverer) (*httptest.Server, *contacts.Directory) {
	t.Helper()

	cfg := config.Default()
	cfg.Server.Token = token

	dir := contacts.New()
	if _, err := dir.Create("Rahul", "@rahul_k", "", nil, ""); err != nil {
		t.Fatalf("Create: %v", err)
	}

	pl := pipeline.New(correction.NewFixer(), dir, d, nil)
	s := NewServer(cfg, pl, dir, nil, d)

	srv := httptest.NewServer(s.BuildMux())
	t.Cleanup(srv.Close)
	return srv, dir
}

func postJSON(t *testing.T, url, token string, body interface{}) *http.Response {
	t.Helper()
	data, err := json.Marshal(body)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	req, err := http.NewRequest(http.MethodPost, url, bytes.NewReader(data))
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("do request: %v", err)
	}
	return resp
}

func decodeBody(t *testing.T, resp *http.Response) map[string]interface{} {
	t.Helper()
	defer resp.Body.Close()
	var out map[string]interface{}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	return out
}

// TestHealth verifies the unauthenticated health endpoint reports
// connection state and contact count.
func TestHealth(t *testing.T) {
	srv, _ := newTestServer(t, "secret", &stubDeliverer{connected: true})

	resp, err := http.Get(srv.URL + "/health")
	if err != nil {
		t.Fatalf("GET /health: %v", err)
	}
	body := decodeBody(t, resp)

	if resp.StatusCode != http.StatusOK {
		t.Errorf("status = %d, want 200", resp.StatusCode)
	}
	if body["status"] != "ok" {
		t.Errorf("status field = %v", body["status"])
	}
	if body["telegram_connected"] != true {
		t.Errorf("telegram_connected = %v, want true", body["telegram_connected"])
	}
	if body["grammar_ai"] != "none" {
		t.Errorf("grammar_ai = %v, want none", body["grammar_ai"])
	}
	if body["contacts"] != float64(1) {
		t.Errorf("contacts = %v, want 1", body["contacts"])
	}
}

// TestConfigEndpoint verifies the masked config is served and carries no
// credential material.
func TestConfigEndpoint(t *testing.T) {
	srv, _ := newTestServer(t, "secret", &stubDeliverer{})

	req, _ := http.NewRequest(http.MethodGet, srv.URL+"/config", nil)
	req.Header.Set("Authorization", "Bearer secret")
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("GET /config: %v", err)
	}
	body := decodeBody(t, resp)

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}
	server, ok := body["server"].(map[string]interface{})
	if !ok {
		t.Fatalf("server section missing: %v", body)
	}
	if server["host"] != "127.0.0.1" {
		t.Errorf("host = %v, want 127.0.0.1", server["host"])
	}
	if raw, err := json.Marshal(body); err == nil && bytes.Contains(raw, []byte("secret")) {
		t.Error("config response leaks the API token")
	}
}

// TestAuth verifies protected endpoints reject missing and wrong tokens.
func TestAuth(t *testing.T) {
	srv, _ := newTestServer(t, "secret", &stubDeliverer{connected: true})

	resp := postJSON(t, srv.URL+"/message/preview", "", map[string]string{"text": "hi"})
	resp.Body.Close()
	if resp.StatusCode != http.StatusUnauthorized {
		t.Errorf("no token: status = %d, want 401", resp.StatusCode)
	}

	resp = postJSON(t, srv.URL+"/message/preview", "wrong", map[string]string{"text": "hi"})
	resp.Body.Close()
	if resp.StatusCode != http.StatusUnauthorized {
		t.Errorf("wrong token: status = %d, want 401", resp.StatusCode)
	}

	resp = postJSON(t, srv.URL+"/message/preview", "secret", map[string]string{"text": "hi"})
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("valid token: status = %d, want 200", resp.StatusCode)
	}
}

// TestPreview verifies correction and resolution without delivery.
func TestPreview(t *testing.T) {
	srv, _ := newTestServer(t, "", &stubDeliverer{connected: true})

	resp := postJSON(t, srv.URL+"/message/preview", "", map[string]string{
		"text": "send to rahul can you send me teh files tommorow",
	})
	body := decodeBody(t, resp)

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}
	if body["corrected"] != "can you send me the files tomorrow." {
		t.Errorf("corrected = %v", body["corrected"])
	}
	if body["recipient"] != "Rahul" {
		t.Errorf("recipient = %v, want Rahul", body["recipient"])
	}
	if body["recipient_handle"] != "@rahul_k" {
		t.Errorf("recipient_handle = %v, want @rahul_k", body["recipient_handle"])
	}
}

// TestSend verifies the happy-path delivery response.
func TestSend(t *testing.T) {
	d := &stubDeliverer{connected: true, messageID: 99}
	srv, _ := newTestServer(t, "", d)

	resp := postJSON(t, srv.URL+"/message/send", "", map[string]string{
		"text": "tell rahul the deploy is done",
	})
	body := decodeBody(t, resp)

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200: %v", resp.StatusCode, body)
	}
	if body["sent"] != true {
		t.Errorf("sent = %v, want true", body["sent"])
	}
	if body["message_id"] != float64(99) {
		t.Errorf("message_id = %v, want 99", body["message_id"])
	}
	if d.lastText != "the deploy is done." {
		t.Errorf("delivered text = %q", d.lastText)
	}
}

// TestSend_UnknownRecipient verifies a 404 with the preview still echoed.
func TestSend_UnknownRecipient(t *testing.T) {
	srv, _ := newTestServer(t, "", &stubDeliverer{connected: true})

	resp := postJSON(t, srv.URL+"/message/send", "", map[string]string{
		"text": "tell stranger the news",
	})
	body := decodeBody(t, resp)

	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", resp.StatusCode)
	}
	if body["sent"] != false {
		t.Errorf("sent = %v, want false", body["sent"])
	}
	if body["corrected"] == "" {
		t.Error("corrected text missing from error response")
	}
}

// TestSend_NotConnected verifies a 503 when the delivery client is offline.
func TestSend_NotConnected(t *testing.T) {
	srv, _ := newTestServer(t, "", &stubDeliverer{connected: false})

	resp := postJSON(t, srv.URL+"/message/send", "", map[string]string{
		"text": "tell rahul hi",
	})
	resp.Body.Close()
	if resp.StatusCode != http.StatusServiceUnavailable {
		t.Errorf("status = %d, want 503", resp.StatusCode)
	}
}

// TestSend_DeliveryFailure verifies transport failures map to 502.
func TestSend_DeliveryFailure(t *testing.T) {
	srv, _ := newTestServer(t, "", &stubDeliverer{connected: true, sendErr: errors.New("flood wait")})

	resp := postJSON(t, srv.URL+"/message/send", "", map[string]string{
		"text": "tell rahul hi",
	})
	resp.Body.Close()
	if resp.StatusCode != http.StatusBadGateway {
		t.Errorf("status = %d, want 502", resp.StatusCode)
	}
}

// TestContactsCRUD exercises create, list, and delete over the API.
func TestContactsCRUD(t *testing.T) {
	srv, _ := newTestServer(t, "", &stubDeliverer{})

	resp := postJSON(t, srv.URL+"/contacts", "", map[string]interface{}{
		"name":    "Priya Sharma",
		"handle":  "@priya_designs",
		"aliases": []string{"priya"},
	})
	body := decodeBody(t, resp)
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("create: status = %d, want 201: %v", resp.StatusCode, body)
	}
	id, _ := body["id"].(string)
	if id != "priya_sharma" {
		t.Errorf("created id = %q, want priya_sharma", id)
	}

	// Duplicate rejected.
	resp = postJSON(t, srv.URL+"/contacts", "", map[string]interface{}{
		"name":   "Priya Sharma",
		"handle": "@someone_else",
	})
	resp.Body.Close()
	if resp.StatusCode != http.StatusConflict {
		t.Errorf("duplicate create: status = %d, want 409", resp.StatusCode)
	}

	// List includes both contacts.
	listResp, err := http.Get(srv.URL + "/contacts")
	if err != nil {
		t.Fatalf("GET /contacts: %v", err)
	}
	listBody := decodeBody(t, listResp)
	if got := len(listBody["contacts"].([]interface{})); got != 2 {
		t.Errorf("contact count = %d, want 2", got)
	}

	// Delete.
	req, _ := http.NewRequest(http.MethodDelete, srv.URL+"/contacts/"+id, nil)
	delResp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("DELETE: %v", err)
	}
	delResp.Body.Close()
	if delResp.StatusCode != http.StatusOK {
		t.Errorf("delete: status = %d, want 200", delResp.StatusCode)
	}

	// Deleting again is a 404.
	req, _ = http.NewRequest(http.MethodDelete, srv.URL+"/contacts/"+id, nil)
	delResp, err = http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("DELETE: %v", err)
	}
	delResp.Body.Close()
	if delResp.StatusCode != http.StatusNotFound {
		t.Errorf("delete missing: status = %d, want 404", delResp.StatusCode)
	}
}

// TestHistoryDisabled verifies /history answers 501 when no store is wired.
func TestHistoryDisabled(t *testing.T) {
	srv, _ := newTestServer(t, "", &stubDeliverer{})

	resp, err := http.Get(srv.URL + "/history")
	if err != nil {
		t.Fatalf("GET /history: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusNotImplemented {
		t.Errorf("status = %d, want 501", resp.StatusCode)
	}
}

// TestSend_MissingText verifies input validation.
func TestSend_MissingText(t *testing.T) {
	srv, _ := newTestServer(t, "", &stubDeliverer{connected: true})

	resp := postJSON(t, srv.URL+"/message/send", "", map[string]string{})
	resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", resp.StatusCode)
	}
}
