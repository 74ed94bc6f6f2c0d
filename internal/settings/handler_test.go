package settings

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"reflect"
	"testing"

	"github.com/vectorsoft/leadgate/pkg/logging"
)

type memStore struct {
	current *CompanySettings
	saveErr error
}

func (m *memStore) Current(ctx context.Context) (*CompanySettings, error) {
	if m.current == nil {
		return nil, ErrNotFound
	}
	return m.current, nil
}

func (m *memStore) Save(ctx context.Context, cs *CompanySettings) error {
	if m.saveErr != nil {
		return m.saveErr
	}
	m.current = cs
	return nil
}

func TestSaveThenGetRoundTrip(t *testing.T) {
	store := &memStore{}
	handler := NewHandler(store, logging.Default())

	body, _ := json.Marshal(SaveRequest{
		CompanyName: "Acme",
		Services:    "A\nB\n\nC",
		CaseStudies: "One\n\nTwo",
	})
	req := httptest.NewRequest(http.MethodPost, "/settings", bytes.NewReader(body))
	w := httptest.NewRecorder()
	handler.Save(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}

	getReq := httptest.NewRequest(http.MethodGet, "/settings", nil)
	getW := httptest.NewRecorder()
	handler.Get(getW, getReq)

	var got CompanySettings
	if err := json.NewDecoder(getW.Body).Decode(&got); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if want := []string{"A", "B", "C"}; !reflect.DeepEqual(got.Services, want) {
		t.Errorf("services = %v, want %v (blanks dropped, order preserved)", got.Services, want)
	}
	if want := []string{"One", "Two"}; !reflect.DeepEqual(got.CaseStudies, want) {
		t.Errorf("caseStudies = %v, want %v", got.CaseStudies, want)
	}
}

func TestGetReturnsNullWhenUnset(t *testing.T) {
	handler := NewHandler(&memStore{}, logging.Default())

	req := httptest.NewRequest(http.MethodGet, "/settings", nil)
	w := httptest.NewRecorder()
	handler.Get(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	if body := w.Body.String(); body != "null\n" {
		t.Errorf("expected null body, got %q", body)
	}
}

func TestSaveInvalidJSON(t *testing.T) {
	handler := NewHandler(&memStore{}, logging.Default())
	req := httptest.NewRequest(http.MethodPost, "/settings", bytes.NewReader([]byte("{")))
	w := httptest.NewRecorder()
	handler.Save(w, req)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", w.Code)
	}
}

func TestSplitLines(t *testing.T) {
	tests := []struct {
		in   string
		want []string
	}{
		{"A\nB\n\nC", []string{"A", "B", "C"}},
		{"", nil},
		{"\n\n", nil},
		{"  padded  \nB", []string{"padded", "B"}},
	}
	for _, tt := range tests {
		if got := SplitLines(tt.in); !reflect.DeepEqual(got, tt.want) {
			t.Errorf("SplitLines(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}
