package gis

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/woozymasta/lotinfo/internal/config"

	"golang.org/x/time/rate"
)

const lotFeatures = `{
  "displayFieldName": "gtm_ind_fiscal",
  "features": [
    {"attributes": {"gtm_ind_fiscal": "53081003", "x_coord": 673648.491, "y_coord": "7186491.014", "gtm_sigla_zoneamento": "ZR1 ", "gtm_mtr_area_terreno": 1000, "obs": null}},
    {"attributes": {"gtm_ind_fiscal": "53081003", "x_coord": 1, "y_coord": 2}}
  ]
}`

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	cfg := config.Default().GIS
	cfg.BaseURL = server.URL + "/MapServer/"
	cfg.RateLimit = 0

	hc := server.Client()
	hc.Timeout = 5 * time.Second
	return NewClient(cfg, WithHTTPClient(hc))
}

func TestClientFirst(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/MapServer/15/query" {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
		q := r.URL.Query()
		if got := q.Get("where"); got != "gtm_ind_fiscal = '53081003'" {
			t.Errorf("where = %q", got)
		}
		if q.Get("outFields") != "*" || q.Get("f") != "json" {
			t.Errorf("unexpected query: %s", r.URL.RawQuery)
		}
		if ua := r.Header.Get("User-Agent"); ua != "lotinfo/1.0" {
			t.Errorf("User-Agent = %q", ua)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = fmt.Fprint(w, lotFeatures)
	})

	rec, err := client.First(context.Background(), 15, "53081003")
	if err != nil {
		t.Fatalf("First error: %v", err)
	}

	wantOrder := []string{"gtm_ind_fiscal", "x_coord", "y_coord", "gtm_sigla_zoneamento", "gtm_mtr_area_terreno", "obs"}
	fields := rec.Fields()
	if len(fields) != len(wantOrder) {
		t.Fatalf("got %d fields, want %d", len(fields), len(wantOrder))
	}
	for i, name := range wantOrder {
		if fields[i].Name != name {
			t.Errorf("field %d = %q, want %q", i, fields[i].Name, name)
		}
	}

	if x, err := rec.Float("x_coord"); err != nil || x != 673648.491 {
		t.Errorf("Float(x_coord) = %v, %v", x, err)
	}
	if y, err := rec.Float("y_coord"); err != nil || y != 7186491.014 {
		t.Errorf("Float(y_coord) = %v, %v", y, err)
	}
	if got := rec.String("gtm_mtr_area_terreno"); got != "1000" {
		t.Errorf("String(area) = %q, want verbatim number", got)
	}
	if _, err := rec.Float("obs"); !errors.Is(err, ErrMissingField) {
		t.Errorf("Float(obs) error = %v, want ErrMissingField", err)
	}
	if !rec.Has("obs") || rec.String("obs") != "" {
		t.Errorf("null field should be present and render empty")
	}
}

func TestClientAll(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/MapServer/20/query" {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
		_, _ = fmt.Fprint(w, lotFeatures)
	})

	records, err := client.All(context.Background(), 20, "53081003")
	if err != nil {
		t.Fatalf("All error: %v", err)
	}
	if len(records) != 2 || records[1].Len() != 3 {
		t.Fatalf("unexpected records: %+v", records)
	}
}

func TestClientEmpty(t *testing.T) {
	cases := []struct {
		name string
		body string
	}{
		{"empty features", `{"features": []}`},
		{"no features key", `{"fields": []}`},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				_, _ = fmt.Fprint(w, tc.body)
			})

			if _, err := client.First(context.Background(), 15, "1"); !errors.Is(err, ErrNotFound) {
				t.Errorf("First error = %v, want ErrNotFound", err)
			}

			records, err := client.All(context.Background(), 20, "1")
			if err != nil || records == nil || len(records) != 0 {
				t.Errorf("All = %v, %v; want empty non-nil slice", records, err)
			}
		})
	}
}

func TestClientFirstEmptyAttributes(t *testing.T) {
	cases := []struct {
		name string
		body string
	}{
		{"empty object", `{"features": [{"attributes": {}}]}`},
		{"null", `{"features": [{"attributes": null}]}`},
		{"missing", `{"features": [{}]}`},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				_, _ = fmt.Fprint(w, tc.body)
			})

			if _, err := client.First(context.Background(), 15, "1"); !errors.Is(err, ErrNotFound) {
				t.Errorf("First error = %v, want ErrNotFound", err)
			}
		})
	}
}

func TestClientErrors(t *testing.T) {
	cases := []struct {
		name    string
		handler http.HandlerFunc
		check   func(error) bool
	}{
		{
			name: "server error",
			handler: func(w http.ResponseWriter, r *http.Request) {
				http.Error(w, "boom", http.StatusInternalServerError)
			},
			check: func(err error) bool {
				var se *StatusError
				return errors.As(err, &se) && se.Code == http.StatusInternalServerError && se.Layer == 15
			},
		},
		{
			name: "malformed json",
			handler: func(w http.ResponseWriter, r *http.Request) {
				_, _ = fmt.Fprint(w, `{"features": [`)
			},
			check: func(err error) bool {
				return err != nil && strings.Contains(err.Error(), "decode response")
			},
		},
		{
			name: "attributes not an object",
			handler: func(w http.ResponseWriter, r *http.Request) {
				_, _ = fmt.Fprint(w, `{"features": [{"attributes": [1, 2]}]}`)
			},
			check: func(err error) bool {
				return err != nil && strings.Contains(err.Error(), "expected object")
			},
		},
		{
			name: "service error payload",
			handler: func(w http.ResponseWriter, r *http.Request) {
				_, _ = fmt.Fprint(w, `{"error": {"code": 400, "message": "Invalid query", "details": ["bad where"]}}`)
			},
			check: func(err error) bool {
				var se *ServiceError
				return errors.As(err, &se) && se.Code == 400 && se.Layer == 15 &&
					strings.Contains(se.Error(), "bad where")
			},
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			client := newTestClient(t, tc.handler)
			_, err := client.First(context.Background(), 15, "1")
			if !tc.check(err) {
				t.Fatalf("unexpected error: %v", err)
			}
			if errors.Is(err, ErrNotFound) {
				t.Fatalf("failure must be distinguishable from not found: %v", err)
			}
		})
	}
}

func TestClientTransportError(t *testing.T) {
	server := httptest.NewServer(http.NotFoundHandler())
	cfg := config.Default().GIS
	cfg.BaseURL = server.URL
	server.Close()

	if _, err := NewClient(cfg).First(context.Background(), 15, "1"); err == nil {
		t.Fatal("expected an error from a closed server")
	}
}

func TestClientRateLimitHonoursContext(t *testing.T) {
	var calls atomic.Int32
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		_, _ = fmt.Fprint(w, `{"features": []}`)
	})
	WithLimiter(rate.NewLimiter(rate.Every(time.Hour), 1))(client)

	if _, err := client.All(context.Background(), 20, "1"); err != nil {
		t.Fatalf("first call: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	if _, err := client.All(ctx, 20, "1"); err == nil {
		t.Fatal("expected the limiter to give up when the context ends")
	}
	if n := calls.Load(); n != 1 {
		t.Fatalf("server saw %d calls, want 1", n)
	}
}

func TestWhereEquals(t *testing.T) {
	cases := []struct {
		name  string
		value string
		want  string
	}{
		{"plain", "53.081.003.000-5", "gtm_ind_fiscal = '53.081.003.000-5'"},
		{"quote is doubled", "1' OR '1'='1", "gtm_ind_fiscal = '1'' OR ''1''=''1'"},
		{"empty", "", "gtm_ind_fiscal = ''"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := WhereEquals("gtm_ind_fiscal", tc.value); got != tc.want {
				t.Fatalf("WhereEquals(%q) = %q; want %q", tc.value, got, tc.want)
			}
		})
	}
}

func TestQueryURL(t *testing.T) {
	cfg := config.Default().GIS
	cfg.BaseURL = "https://example.org/MapServer/"
	got := NewClient(cfg).QueryURL(15, "a b")

	want := "https://example.org/MapServer/15/query?f=json&outFields=%2A&where=gtm_ind_fiscal+%3D+%27a+b%27"
	if got != want {
		t.Fatalf("QueryURL = %q\nwant       %q", got, want)
	}
}
