package http_test

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	httpadapter "github.com/aretw0/stepform/pkg/adapters/http"
	"github.com/aretw0/stepform/pkg/adapters/memory"
	"github.com/aretw0/stepform/pkg/domain"
	"github.com/aretw0/stepform/pkg/dsl"
	"github.com/aretw0/stepform/pkg/observability"
	"github.com/aretw0/stepform/pkg/registry"
	"github.com/aretw0/stepform/pkg/runner"
	"github.com/aretw0/stepform/pkg/session"
)

type response struct {
	SessionID string `json:"session_id"`
	Resumed   bool   `json:"resumed"`
	runner.RichResponse
}

// newServer serves two forms:
//
//	signup:   account{name: text, required, min 3}, confirm{ok: boolean}
//	feedback: only{note: text}
func newServer(t *testing.T, opts ...httpadapter.Option) *httptest.Server {
	t.Helper()
	reg := registry.NewRegistry()
	for _, b := range []*dsl.Builder{signup(), feedback()} {
		bp, err := b.Build()
		require.NoError(t, err)
		reg.Register(bp)
	}
	mgr := session.NewManager(memory.NewStore())
	srv := httptest.NewServer(httpadapter.NewHandler(reg, mgr, opts...))
	t.Cleanup(srv.Close)
	return srv
}

func signup() *dsl.Builder {
	b := dsl.New("signup")
	b.Step("account").Text("name").Label("Name").Required().Length(3, 0)
	b.Step("confirm").Bool("ok").Label("OK")
	return b
}

func feedback() *dsl.Builder {
	b := dsl.New("feedback")
	b.Step("only").Text("note")
	return b
}

func do(t *testing.T, method, url, body string) (int, []byte) {
	t.Helper()
	req, err := http.NewRequestWithContext(t.Context(), method, url, strings.NewReader(body))
	require.NoError(t, err)
	res, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer res.Body.Close()
	data, err := io.ReadAll(res.Body)
	require.NoError(t, err)
	return res.StatusCode, data
}

func decode(t *testing.T, data []byte) response {
	t.Helper()
	var r response
	require.NoError(t, json.Unmarshal(data, &r), string(data))
	return r
}

func event(t *testing.T, srv *httptest.Server, id string, ev domain.Event) response {
	t.Helper()
	body, err := json.Marshal(ev)
	require.NoError(t, err)
	code, data := do(t, http.MethodPost, srv.URL+"/sessions/"+id+"/events", string(body))
	require.Equal(t, http.StatusOK, code, string(data))
	return decode(t, data)
}

func TestHealthAndInfo(t *testing.T) {
	srv := newServer(t, httpadapter.WithVersion("1.2.3"))

	code, body := do(t, http.MethodGet, srv.URL+"/health", "")
	assert.Equal(t, http.StatusOK, code)
	assert.JSONEq(t, `{"status":"ok"}`, string(body))

	code, body = do(t, http.MethodGet, srv.URL+"/info", "")
	assert.Equal(t, http.StatusOK, code)
	assert.JSONEq(t, `{"version":"1.2.3","forms":["feedback","signup"]}`, string(body))
}

func TestForms(t *testing.T) {
	srv := newServer(t)

	code, body := do(t, http.MethodGet, srv.URL+"/forms/signup", "")
	require.Equal(t, http.StatusOK, code)
	assert.JSONEq(t, `{"name":"signup","steps":[
		{"id":"account","controls":["name"]},
		{"id":"confirm","controls":["ok"]}]}`, string(body))

	code, _ = do(t, http.MethodGet, srv.URL+"/forms/missing", "")
	assert.Equal(t, http.StatusNotFound, code)
}

func TestSessionLifecycle(t *testing.T) {
	srv := newServer(t)

	code, body := do(t, http.MethodPost, srv.URL+"/sessions", `{"form":"signup","session_id":"s1"}`)
	require.Equal(t, http.StatusCreated, code, string(body))
	created := decode(t, body)
	assert.Equal(t, "s1", created.SessionID)
	assert.Equal(t, "account", created.Frame.Header.StepID)

	code, body = do(t, http.MethodPost, srv.URL+"/sessions", `{"form":"signup","session_id":"s1"}`)
	require.Equal(t, http.StatusOK, code)
	assert.True(t, decode(t, body).Resumed)

	resp := event(t, srv, "s1", domain.SelectionChange("name", "ada"))
	require.NotNil(t, resp.Diff)
	assert.Equal(t, "ada", resp.Snapshot.Values["name"])

	resp = event(t, srv, "s1", domain.Event{Type: domain.EventAdvance})
	assert.Equal(t, "confirm", resp.Frame.Header.StepID)
	assert.True(t, resp.Diff.Full)

	code, body = do(t, http.MethodGet, srv.URL+"/sessions/s1", "")
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, "confirm", decode(t, body).Frame.Header.StepID, "progress is persisted")

	event(t, srv, "s1", domain.Event{Type: domain.EventAdvance})
	resp = event(t, srv, "s1", domain.SubmitRequested())
	assert.True(t, resp.Terminal)
	require.NotNil(t, resp.Result)
	assert.Equal(t, "ada", resp.Result.ByPath()["name"])

	code, body = do(t, http.MethodGet, srv.URL+"/sessions", "")
	require.Equal(t, http.StatusOK, code)
	assert.JSONEq(t, `["s1"]`, string(body))

	code, _ = do(t, http.MethodDelete, srv.URL+"/sessions/s1", "")
	assert.Equal(t, http.StatusNoContent, code)
	code, _ = do(t, http.MethodGet, srv.URL+"/sessions/s1", "")
	assert.Equal(t, http.StatusNotFound, code)
}

func TestCreateSession_Errors(t *testing.T) {
	srv := newServer(t)
	code, _ := do(t, http.MethodPost, srv.URL+"/sessions", `{"form":"feedback","session_id":"s1"}`)
	require.Equal(t, http.StatusCreated, code)

	tests := []struct {
		name string
		body string
		want int
	}{
		{"Malformed", `{"form":`, http.StatusBadRequest},
		{"Missing Form", `{}`, http.StatusBadRequest},
		{"Unknown Form", `{"form":"nope"}`, http.StatusNotFound},
		{"Session Of Another Form", `{"form":"signup","session_id":"s1"}`, http.StatusConflict},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			code, body := do(t, http.MethodPost, srv.URL+"/sessions", tt.body)
			assert.Equal(t, tt.want, code, string(body))
			assert.Contains(t, string(body), `"error"`)
		})
	}
}

func TestPostEvent_Errors(t *testing.T) {
	srv := newServer(t)
	code, body := do(t, http.MethodPost, srv.URL+"/sessions", `{"form":"signup"}`)
	require.Equal(t, http.StatusCreated, code)
	id := decode(t, body).SessionID
	require.NotEmpty(t, id)

	tests := []struct {
		name string
		id   string
		body string
		want int
	}{
		{"Unknown Session", "nope", `{"type":"advance"}`, http.StatusNotFound},
		{"Malformed", id, `{"type":`, http.StatusBadRequest},
		{"Missing Type", id, `{}`, http.StatusBadRequest},
		{"Oversized", id, `"` + strings.Repeat("x", runner.DefaultMaxInputSize) + `"`, http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			code, body := do(t, http.MethodPost, srv.URL+"/sessions/"+tt.id+"/events", tt.body)
			assert.Equal(t, tt.want, code, string(body))
		})
	}

	t.Run("Refusals Are Notices", func(t *testing.T) {
		resp := event(t, srv, id, domain.Event{Type: domain.EventRetreat})
		assert.Equal(t, "Already at the first step.", resp.Notice)

		resp = event(t, srv, id, domain.Event{Type: domain.EventAdvance})
		assert.Contains(t, resp.Notice, "Step incomplete")
		assert.Equal(t, "account", resp.Frame.Header.StepID)
	})

	t.Run("Bare Value Answers The Focused Control", func(t *testing.T) {
		code, body := do(t, http.MethodPost, srv.URL+"/sessions/"+id+"/events", `"bob"`)
		require.Equal(t, http.StatusOK, code)
		assert.Equal(t, "bob", decode(t, body).Snapshot.Values["name"])
	})
}

func TestMetricsEndpoint(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := observability.NewMetrics(reg)
	srv := newServer(t, httpadapter.WithMetrics(reg), httpadapter.WithLifecycleHooks(m.Hooks()))

	code, _ := do(t, http.MethodPost, srv.URL+"/sessions", `{"form":"signup","session_id":"m1"}`)
	require.Equal(t, http.StatusCreated, code)
	event(t, srv, "m1", domain.SelectionChange("name", "x"))

	code, body := do(t, http.MethodGet, srv.URL+"/metrics", "")
	require.Equal(t, http.StatusOK, code)
	assert.Contains(t, string(body), `stepform_edits_total{form="signup",outcome="rejected"} 1`)
}

func TestCORSPreflight(t *testing.T) {
	srv := newServer(t)
	req, err := http.NewRequestWithContext(t.Context(), http.MethodOptions, srv.URL+"/sessions", bytes.NewReader(nil))
	require.NoError(t, err)
	res, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer res.Body.Close()
	assert.Equal(t, http.StatusOK, res.StatusCode)
	assert.Equal(t, "*", res.Header.Get("Access-Control-Allow-Origin"))
}
