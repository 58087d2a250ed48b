package httpc

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestGetJSON(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"viewers":2}`))
	}))
	defer srv.Close()

	var got struct {
		Viewers int `json:"viewers"`
	}
	if err := GetJSON(context.Background(), srv.URL, &got); err != nil {
		t.Fatalf("GetJSON: %v", err)
	}
	if got.Viewers != 2 {
		t.Errorf("Expected 2 viewers, got %d", got.Viewers)
	}
}

func TestPutJSON(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPut {
			t.Errorf("Expected PUT, got %s", r.Method)
		}
		var body map[string]float64
		json.NewDecoder(r.Body).Decode(&body)
		if body["focusRadius"] == 0 {
			w.WriteHeader(http.StatusBadRequest)
			w.Write([]byte(`{"error":"tracking: invalid focusRadius"}`))
			return
		}
		w.Write([]byte(`{}`))
	}))
	defer srv.Close()

	if err := PutJSON(context.Background(), srv.URL, map[string]float64{"focusRadius": 120}, nil); err != nil {
		t.Errorf("PutJSON: %v", err)
	}

	err := PutJSON(context.Background(), srv.URL, map[string]float64{"focusRadius": 0}, nil)
	var se *StatusError
	if !errors.As(err, &se) {
		t.Fatalf("Expected StatusError, got %v", err)
	}
	if se.Code != http.StatusBadRequest {
		t.Errorf("Expected 400, got %d", se.Code)
	}
}
