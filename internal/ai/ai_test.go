package ai

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/shopspring/decimal"
)

func price(s string) *decimal.Decimal {
	d := decimal.RequireFromString(s)
	return &d
}

func TestRulesAdvise(t *testing.T) {
	tests := []struct {
		name     string
		q        Question
		wantErr  error
		contains string
	}{
		{
			name:    "price required",
			q:       Question{ProductName: "Laptop", Income: decimal.NewFromInt(3000)},
			wantErr: ErrPriceUnknown,
		},
		{
			name:     "affordable now",
			q:        Question{ProductName: "Headphones", ProductPrice: price("200"), Income: decimal.NewFromInt(3000), Expenses: decimal.NewFromInt(2000)},
			contains: "Affordable",
		},
		{
			name:     "needs saving",
			q:        Question{ProductName: "Laptop", ProductPrice: price("2500"), Income: decimal.NewFromInt(3000), Expenses: decimal.NewFromInt(2000)},
			contains: "3 months",
		},
		{
			name:     "overspending",
			q:        Question{ProductName: "Car", ProductPrice: price("20000"), Income: decimal.NewFromInt(1000), Expenses: decimal.NewFromInt(1500)},
			contains: "Not affordable",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a, err := NewRules().Advise(context.Background(), tt.q)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("err = %v, want %v", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("Advise: %v", err)
			}
			if !a.Price.Equal(*tt.q.ProductPrice) {
				t.Errorf("price = %s", a.Price)
			}
			if !strings.Contains(a.Output, tt.contains) {
				t.Errorf("output %q does not contain %q", a.Output, tt.contains)
			}
		})
	}
}

func TestOpenAIAdvise(t *testing.T) {
	var gotModel string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/chat/completions" {
			http.NotFound(w, r)
			return
		}
		var req struct {
			Model string `json:"model"`
		}
		_ = json.NewDecoder(r.Body).Decode(&req)
		gotModel = req.Model

		content := "```json\n{\"estimatedPrice\": 1299.999, \"explanation\": \"About 4 months.\", \"analysis\": \"**Wait** a little.\"}\n```"
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"id":      "chatcmpl-1",
			"object":  "chat.completion",
			"model":   req.Model,
			"choices": []map[string]any{{"index": 0, "message": map[string]any{"role": "assistant", "content": content}}},
		})
	}))
	defer srv.Close()

	advisor := NewOpenAI("test-key", srv.URL+"/v1", "test-model")
	a, err := advisor.Advise(context.Background(), Question{ProductName: "Laptop", Income: decimal.NewFromInt(3000)})
	if err != nil {
		t.Fatalf("Advise: %v", err)
	}
	if gotModel != "test-model" {
		t.Errorf("model = %q", gotModel)
	}
	if !a.Price.Equal(decimal.RequireFromString("1300")) {
		t.Errorf("price = %s, want 1300", a.Price)
	}
	if a.Output != "**Wait** a little." || a.Explanation != "About 4 months." {
		t.Errorf("unexpected answer %+v", a)
	}
}

func TestOpenAIUserPriceWins(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"choices": []map[string]any{{"message": map[string]any{"role": "assistant", "content": `{"estimatedPrice": 5, "explanation": "x", "analysis": "y"}`}}},
		})
	}))
	defer srv.Close()

	a, err := NewOpenAI("k", srv.URL+"/v1", "").Advise(context.Background(), Question{ProductName: "Phone", ProductPrice: price("800")})
	if err != nil {
		t.Fatalf("Advise: %v", err)
	}
	if !a.Price.Equal(decimal.NewFromInt(800)) {
		t.Fatalf("price = %s, want 800", a.Price)
	}
}

func TestOllamaAdvise(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/generate" {
			http.NotFound(w, r)
			return
		}
		var req ollamaRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Stream || req.Format != "json" {
			http.Error(w, "bad request", http.StatusBadRequest)
			return
		}
		_ = json.NewEncoder(w).Encode(ollamaResponse{
			Model:    req.Model,
			Response: `{"estimatedPrice": 499, "explanation": "Two months.", "analysis": "Save for **two** months."}`,
			Done:     true,
		})
	}))
	defer srv.Close()

	a, err := NewOllama(srv.URL+"/", "llama").Advise(context.Background(), Question{ProductName: "Console"})
	if err != nil {
		t.Fatalf("Advise: %v", err)
	}
	if !a.Price.Equal(decimal.NewFromInt(499)) || !strings.Contains(a.Output, "two") {
		t.Fatalf("unexpected answer %+v", a)
	}
}

func TestOllamaErrors(t *testing.T) {
	tests := []struct {
		name    string
		handler http.HandlerFunc
		wantBad bool
	}{
		{"server error", func(w http.ResponseWriter, r *http.Request) { http.Error(w, "model not found", http.StatusNotFound) }, false},
		{"empty response", func(w http.ResponseWriter, r *http.Request) { _, _ = w.Write([]byte(`{"response":"","done":true}`)) }, true},
		{"no price", func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(`{"response":"{\"analysis\":\"hmm\"}","done":true}`))
		}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(tt.handler)
			defer srv.Close()
			_, err := NewOllama(srv.URL, "m").Advise(context.Background(), Question{ProductName: "x"})
			if err == nil {
				t.Fatal("expected an error")
			}
			if errors.Is(err, ErrBadReply) != tt.wantBad {
				t.Fatalf("errors.Is(ErrBadReply) = %v for %v", !tt.wantBad, err)
			}
		})
	}
}

func TestNewSelectsProvider(t *testing.T) {
	for provider, want := range map[string]string{"": "rules", "rules": "rules", "openai": "openai", "ollama": "ollama"} {
		a, err := New(Settings{Provider: provider, OpenAIAPIKey: "k", OllamaURL: "http://localhost:11434"})
		if err != nil || a.Name() != want {
			t.Errorf("New(%q) = %v, %v", provider, a, err)
		}
	}
	if _, err := New(Settings{Provider: "bard"}); err == nil {
		t.Error("expected error for unknown provider")
	}
}
