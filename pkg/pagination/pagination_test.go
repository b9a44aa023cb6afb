package pagination

import (
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
)

func TestParse(t *testing.T) {
	gin.SetMode(gin.TestMode)
	tests := []struct {
		query string
		want  Params
	}{
		{"", Params{Page: 1, Limit: 20, Offset: 0}},
		{"?page=3&limit=5", Params{Page: 3, Limit: 5, Offset: 10}},
		{"?page=0&limit=-4", Params{Page: 1, Limit: 20, Offset: 0}},
		{"?page=x&limit=y", Params{Page: 1, Limit: 20, Offset: 0}},
		{"?page=2&limit=500", Params{Page: 2, Limit: 100, Offset: 100}},
	}
	for _, tt := range tests {
		c, _ := gin.CreateTestContext(httptest.NewRecorder())
		c.Request = httptest.NewRequest("GET", "/"+tt.query, nil)
		if got := Parse(c); got != tt.want {
			t.Errorf("Parse(%q) = %+v, want %+v", tt.query, got, tt.want)
		}
	}
}

func TestListing(t *testing.T) {
	items := []string{"a", "b"}
	got := New(2, 5).Listing("invoices", items, 11)

	if got["total"] != int64(11) || got["page"] != 2 || got["limit"] != 5 || got["total_pages"] != 3 {
		t.Errorf("Listing = %v", got)
	}
	if _, ok := got["invoices"].([]string); !ok {
		t.Errorf("items missing under key: %v", got)
	}
	if empty := New(1, 20).Listing("logs", []string{}, 0); empty["total_pages"] != 0 {
		t.Errorf("empty total_pages = %v", empty["total_pages"])
	}
}
