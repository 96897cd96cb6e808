package middleware_test

import (
	"bytes"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/reoring/schemareg"
	"github.com/reoring/schemareg/middleware"
)

func newRegistry(t *testing.T) *schemareg.Registry {
	t.Helper()
	reg := schemareg.NewRegistry()
	schema, err := schemareg.DecodeJSON([]byte(`{"type": "object", "required": ["name"], "properties": {"name": {"type": "string"}}}`))
	require.NoError(t, err)
	require.NoError(t, reg.Create(schemareg.Definition{Key: "user", Schema: schema, Filename: "user.json"}))
	return reg
}

// echoHandler returns the decoded value's name and the restored body.
func echoHandler(t *testing.T) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		v, ok := middleware.ValueFromContext(r.Context())
		require.True(t, ok)
		body, err := io.ReadAll(r.Body)
		require.NoError(t, err)
		_, _ = w.Write([]byte(v.(map[string]any)["name"].(string) + "|" + string(body)))
	})
}

func serve(h http.Handler, body string) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body)))
	return rec
}

func TestValidate_PassesConformingBody(t *testing.T) {
	h := middleware.Validate(newRegistry(t), schemareg.EngineJSONSchema, "user", middleware.Options{})(echoHandler(t))
	rec := serve(h, `{"name": "ann"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, `ann|{"name": "ann"}`, rec.Body.String())
}

func TestValidate_RejectsNonConformingBody(t *testing.T) {
	h := middleware.Validate(newRegistry(t), schemareg.EngineJSONSchema, "user", middleware.Options{})(echoHandler(t))
	rec := serve(h, `{"name": 1}`)
	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	require.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	require.Contains(t, rec.Body.String(), `"success":false`)
	require.Contains(t, rec.Body.String(), `"instancePath":"/name"`)
}

func TestValidate_BadRequests(t *testing.T) {
	reg := newRegistry(t)
	h := middleware.Validate(reg, schemareg.EngineJSONSchema, "user", middleware.Options{MaxBodyBytes: 64})(echoHandler(t))

	rec := serve(h, `{"name": `)
	require.Equal(t, http.StatusBadRequest, rec.Code)

	rec = serve(h, `{"name": "a", "name": "b"}`)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	require.Contains(t, rec.Body.String(), `"code":"duplicate_key"`)

	rec = serve(h, `{"name": "`+strings.Repeat("x", 100)+`"}`)
	require.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)

	q := "payload"
	hq := middleware.Validate(reg, schemareg.EngineJSONSchema, "user", middleware.Options{Call: schemareg.CallOptions{Query: &q}})(echoHandler(t))
	rec = serve(hq, `{"other": {}}`)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	require.Contains(t, rec.Body.String(), `"code":"query_miss"`)
}

func TestValidate_UnknownValidatorIsServerError(t *testing.T) {
	h := middleware.Validate(newRegistry(t), schemareg.EngineJSONSchema, "nope", middleware.Options{})(echoHandler(t))
	rec := serve(h, `{}`)
	require.Equal(t, http.StatusInternalServerError, rec.Code)
	require.Contains(t, rec.Body.String(), `"code":"unknown_validator"`)
}

func TestNewWithKeyFunc(t *testing.T) {
	v := middleware.NewWithKeyFunc(newRegistry(t), schemareg.EngineJSONSchema,
		func(r *http.Request) string { return r.URL.Query().Get("schema") }, middleware.Options{})
	req := httptest.NewRequest(http.MethodPost, "/?schema=user", bytes.NewBufferString(`{"name": "bo"}`))
	out, status, payload := v.Check(req)
	require.Nil(t, payload)
	require.Equal(t, http.StatusOK, status)
	got, ok := middleware.ValueFromContext(out.Context())
	require.True(t, ok)
	require.Equal(t, map[string]any{"name": "bo"}, got)
}

func TestValueFromContext_Null(t *testing.T) {
	ctx := middleware.ContextWithValue(httptest.NewRequest(http.MethodGet, "/", nil).Context(), nil)
	v, ok := middleware.ValueFromContext(ctx)
	require.True(t, ok)
	require.Nil(t, v)
}
