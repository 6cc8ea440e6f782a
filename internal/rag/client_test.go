package rag

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestGenerate_TextOnly(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/generate/text" {
			t.Fatalf("unexpected path %s", r.URL.Path)
		}
		var req generateReq
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatalf("decode: %v", err)
		}
		if req.Text != "hello" || req.ImageBase64 != "" {
			t.Fatalf("unexpected payload: %+v", req)
		}
		_ = json.NewEncoder(w).Encode(generateResp{Response: "hi"})
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "")
	out, err := c.Generate(context.Background(), "hello", "")
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if out != "hi" {
		t.Fatalf("unexpected answer: %q", out)
	}
}

func TestGenerate_VisionPreferred(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/generate/vision":
			_ = json.NewEncoder(w).Encode(generateResp{Response: "vision answer"})
		default:
			t.Fatalf("text endpoint should not be hit, got %s", r.URL.Path)
		}
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "")
	out, err := c.Generate(context.Background(), "what is this", "aGVsbG8=")
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if out != "vision answer" {
		t.Fatalf("unexpected answer: %q", out)
	}
}

func TestGenerate_VisionFailureFallsBackToText(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/generate/vision":
			http.Error(w, "boom", http.StatusInternalServerError)
		case "/generate/text":
			_ = json.NewEncoder(w).Encode(generateResp{Response: "text fallback"})
		default:
			t.Fatalf("unexpected path %s", r.URL.Path)
		}
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "")
	out, err := c.Generate(context.Background(), "what is this", "aGVsbG8=")
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if out != "text fallback" {
		t.Fatalf("unexpected answer: %q", out)
	}
}

func TestGenerate_ServiceError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(generateResp{Error: "model overloaded"})
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "")
	if _, err := c.Generate(context.Background(), "hello", ""); err == nil {
		t.Fatalf("expected an error from the service payload")
	}
}

func TestAuthorizationHeader(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("Authorization"); got != "Bearer sekrit" {
			t.Fatalf("unexpected auth header %q", got)
		}
		_ = json.NewEncoder(w).Encode(generateResp{Response: "ok"})
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "sekrit")
	if _, err := c.Generate(context.Background(), "hello", ""); err != nil {
		t.Fatalf("generate: %v", err)
	}
}
