package response

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
)

func TestEnvelopes(t *testing.T) {
	ok, err := json.Marshal(Success(http.StatusOK, map[string]int{"n": 1}))
	if err != nil {
		t.Fatal(err)
	}
	if string(ok) != `{"status":"success","status_code":200,"data":{"n":1}}` {
		t.Errorf("success = %s", ok)
	}

	failed, err := json.Marshal(Error(http.StatusNotFound, "Invoice not found"))
	if err != nil {
		t.Fatal(err)
	}
	if string(failed) != `{"status":"error","status_code":404,"error":"Invoice not found"}` {
		t.Errorf("error = %s", failed)
	}
}

func TestAbortStopsChain(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	reached := false
	r.GET("/", func(c *gin.Context) { Abort(c, http.StatusForbidden, "nope") }, func(c *gin.Context) { reached = true })

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))

	if w.Code != http.StatusForbidden || reached {
		t.Errorf("status = %d, next handler reached = %v", w.Code, reached)
	}
	var body Response
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil || body.Error != "nope" || body.Status != "error" {
		t.Errorf("body = %s (%v)", w.Body.String(), err)
	}
}
