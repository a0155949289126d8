package webservice

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/gin-gonic/gin"

	"mirrorctl/input"
	"mirrorctl/session"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func TestLoadConfigMissingFileUsesDefaults(t *testing.T) {
	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "nope.yaml"))
	if err != nil {
		t.Fatal(err)
	}
	def := DefaultConfig()
	if cfg.HTTPAddr != def.HTTPAddr || cfg.Session.Version != def.Session.Version {
		t.Errorf("missing config file changed defaults: %+v", cfg)
	}
}

func TestLoadConfigOverrides(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	body := `
http_addr: ":9000"
server_url: "http://example.com/server"
session:
  serial: "emulator-5554"
  encoder: "OMX.google.h264.encoder"
  max_size: 1280
`
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.HTTPAddr != ":9000" {
		t.Errorf("HTTPAddr = %q", cfg.HTTPAddr)
	}
	if cfg.Session.Serial != "emulator-5554" || cfg.Session.MaxSize != 1280 {
		t.Errorf("session overrides not applied: %+v", cfg.Session)
	}
	// Untouched keys keep their defaults.
	if cfg.Session.Version != "3.3.3" {
		t.Errorf("Version = %q, want default", cfg.Session.Version)
	}
	if _, ok := cfg.fetcher().(*session.HTTPFetcher); !ok {
		t.Errorf("fetcher = %T, want HTTPFetcher when server_url is set", cfg.fetcher())
	}
}

func TestStateEndpoint(t *testing.T) {
	wm, err := NewWebMaster(DefaultConfig())
	if err != nil {
		t.Fatal(err)
	}
	router := wm.Router()

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/session/state", nil)
	router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	var resp map[string]any
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	if resp["state"] != "idle" {
		t.Errorf("state = %v, want idle", resp["state"])
	}
	if _, ok := resp["stream_width"]; ok {
		t.Error("stream size reported while idle")
	}
}

func TestStopEndpointIdle(t *testing.T) {
	wm, err := NewWebMaster(DefaultConfig())
	if err != nil {
		t.Fatal(err)
	}
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/session/stop", nil)
	wm.Router().ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("stop while idle: status = %d", w.Code)
	}
}

func TestDispatchInputDroppedWhileIdle(t *testing.T) {
	wm, err := NewWebMaster(DefaultConfig())
	if err != nil {
		t.Fatal(err)
	}
	contacts := input.NewContacts()

	msgs := []inputMessage{
		{Type: "pointer", Phase: "down", X: 10, Y: 10, Buttons: 1, Pressure: 1,
			Bounds: boundsJSON{Width: 300, Height: 600}},
		{Type: "key", Key: "Backspace", Action: "down"},
		{Type: "text", Text: "hello"},
		{Type: "back"},
		{Type: "pointer", Phase: "hover"},        // unknown phase
		{Type: "key", Key: "F5", Action: "down"}, // unmapped key
	}
	for _, msg := range msgs {
		if err := wm.dispatchInput(contacts, msg); err != nil {
			t.Errorf("dispatchInput(%s) = %v, want silent drop", msg.Type, err)
		}
	}
	if contacts.Active() != 0 {
		t.Errorf("contacts tracked without stream geometry: %d", contacts.Active())
	}
}

func TestErrorKinds(t *testing.T) {
	cases := []struct {
		err  error
		want string
	}{
		{&session.InvalidStateError{}, "invalid_state"},
		{&session.DeploymentError{Stage: "fetch"}, "deployment"},
		{&session.NegotiationError{}, "negotiation"},
		{&session.DecoderUnavailableError{}, "decoder_unavailable"},
		{&session.ProtocolError{Message: "boom"}, "protocol"},
	}
	for _, tc := range cases {
		if got := errorKind(tc.err); got != tc.want {
			t.Errorf("errorKind(%T) = %q, want %q", tc.err, got, tc.want)
		}
	}
}
