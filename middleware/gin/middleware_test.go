package ginmw_test

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"

	"github.com/reoring/schemareg"
	"github.com/reoring/schemareg/middleware"
	ginmw "github.com/reoring/schemareg/middleware/gin"
)

func newServer(t *testing.T) *gin.Engine {
	t.Helper()
	schema, err := schemareg.DecodeJSON([]byte(`{"type":"object","required":["id"],"properties":{"id":{"type":"string"}}}`))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	reg := schemareg.NewRegistry()
	if err := reg.Create(schemareg.Definition{Key: "item", Schema: schema, Filename: "item.json"}); err != nil {
		t.Fatalf("create: %v", err)
	}
	gin.SetMode(gin.TestMode)
	e := gin.New()
	e.POST("/items", ginmw.ValidateJSON(reg, schemareg.EngineJSONSchema, "item", middleware.Options{}), func(c *gin.Context) {
		v, ok := ginmw.GetValue(c)
		if !ok {
			c.Status(http.StatusInternalServerError)
			return
		}
		c.JSON(http.StatusOK, v)
	})
	return e
}

func TestValidateJSON(t *testing.T) {
	e := newServer(t)
	cases := []struct {
		body string
		want int
	}{
		{`{"id":"a1"}`, http.StatusOK},
		{`{"id":1}`, http.StatusUnprocessableEntity},
		{`{"id":"a","id":"b"}`, http.StatusBadRequest},
	}
	for _, tc := range cases {
		req := httptest.NewRequest(http.MethodPost, "/items", strings.NewReader(tc.body))
		req.Header.Set("Content-Type", "application/json")
		rec := httptest.NewRecorder()
		e.ServeHTTP(rec, req)
		if rec.Code != tc.want {
			t.Fatalf("%s: status %d, want %d (%s)", tc.body, rec.Code, tc.want, rec.Body.String())
		}
		if tc.want == http.StatusOK && !strings.Contains(rec.Body.String(), `"a1"`) {
			t.Fatalf("decoded value not passed on: %s", rec.Body.String())
		}
	}
}
