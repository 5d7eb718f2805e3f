package record

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/SeakMengs/CertEditor/pkg/certedit"
)

func TestHTTPProviderGet(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/students/abc123456789":
			w.Write([]byte(`{"id":"abc123456789","firstName":"Amit","lastName":"Shah"}`))
		case "/students/wrapped":
			w.Write([]byte(`{"success":true,"data":{"firstName":"Priya","lastName":"Nair"}}`))
		case "/students/broken":
			w.WriteHeader(http.StatusInternalServerError)
		case "/students/garbage":
			w.Write([]byte(`not json`))
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	p := NewHTTPProvider(srv.URL+"/", time.Second, nil)

	tests := []struct {
		id       string
		expected certedit.Record
		err      error
		wantErr  bool
	}{
		{id: "abc123456789", expected: certedit.Record{ID: "abc123456789", FirstName: "Amit", LastName: "Shah"}},
		{id: "wrapped", expected: certedit.Record{ID: "wrapped", FirstName: "Priya", LastName: "Nair"}},
		{id: "missing", err: ErrRecordNotFound, wantErr: true},
		{id: "broken", wantErr: true},
		{id: "garbage", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.id, func(t *testing.T) {
			got, err := p.Get(context.Background(), tt.id)
			if tt.wantErr {
				if err == nil {
					t.Fatal("expected an error")
				}
				if tt.err != nil && !errors.Is(err, tt.err) {
					t.Errorf("expected %v, got %v", tt.err, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.expected {
				t.Errorf("expected %+v, got %+v", tt.expected, got)
			}
		})
	}
}

func TestHTTPProviderDisabled(t *testing.T) {
	p := NewHTTPProvider("", time.Second, nil)
	if _, err := p.Get(context.Background(), "1"); !errors.Is(err, ErrLookupDisabled) {
		t.Errorf("expected ErrLookupDisabled, got %v", err)
	}
}
