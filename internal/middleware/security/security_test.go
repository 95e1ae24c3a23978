package security

import (
	"crypto/tls"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestClientIP(t *testing.T) {
	d := NewDetector()
	tests := []struct {
		name, remote, xff, xri, want string
	}{
		{"direct", "203.0.113.9:5000", "", "", "203.0.113.9"},
		{"untrusted peer ignores XFF", "203.0.113.9:5000", "1.1.1.1", "", "203.0.113.9"},
		{"trusted proxy XFF", "10.0.0.2:80", "198.51.100.7, 10.0.0.2", "", "198.51.100.7"},
		{"trusted proxy X-Real-IP", "127.0.0.1:80", "", "198.51.100.8", "198.51.100.8"},
		{"garbage XFF falls back", "192.168.1.1:80", "not-an-ip", "", "192.168.1.1"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest(http.MethodGet, "/", nil)
			r.RemoteAddr = tt.remote
			if tt.xff != "" {
				r.Header.Set("X-Forwarded-For", tt.xff)
			}
			if tt.xri != "" {
				r.Header.Set("X-Real-IP", tt.xri)
			}
			if got := d.ClientIP(r); got != tt.want {
				t.Errorf("ClientIP = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestAddTrustedProxy(t *testing.T) {
	d := NewDetector()
	r := httptest.NewRequest(http.MethodGet, "/", nil)
	r.RemoteAddr = "203.0.113.9:443"
	r.Header.Set("X-Forwarded-For", "198.51.100.7")

	if got := d.ClientIP(r); got != "203.0.113.9" {
		t.Fatalf("before AddTrustedProxy: ClientIP = %q", got)
	}
	if err := d.AddTrustedProxy("203.0.113.0/24"); err != nil {
		t.Fatalf("AddTrustedProxy: %v", err)
	}
	if got := d.ClientIP(r); got != "198.51.100.7" {
		t.Fatalf("after AddTrustedProxy: ClientIP = %q", got)
	}
	if err := d.AddTrustedProxy("edge-proxy"); err == nil {
		t.Fatal("expected error for non-CIDR proxy")
	}
}

func TestIsSuspicious(t *testing.T) {
	d := NewDetector()
	tests := []struct {
		target, agent string
		want          bool
	}{
		{"/api/transactions?q=food", "Go-http-client/1.1", false},
		{"/.env", "", true},
		{"/api/transactions?q=union%20select", "", true},
		{"/api/transactions?q=UNION+SELECT", "", true},
		{"/wp-admin/", "", true},
		{"/api/auth/login", "sqlmap/1.7", true},
	}
	for _, tt := range tests {
		r := httptest.NewRequest(http.MethodGet, tt.target, nil)
		r.Header.Set("User-Agent", tt.agent)
		if got := d.IsSuspicious(r); got != tt.want {
			t.Errorf("IsSuspicious(%s, %q) = %v", tt.target, tt.agent, got)
		}
	}
}

func TestHeaders(t *testing.T) {
	h := Headers(DefaultHeadersConfig())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/", nil))
	if rr.Header().Get("X-Content-Type-Options") != "nosniff" || rr.Header().Get("Cache-Control") != "no-store" {
		t.Fatalf("headers = %v", rr.Header())
	}
	if rr.Header().Get("Strict-Transport-Security") != "" {
		t.Fatal("HSTS must not be sent over plain HTTP")
	}

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.TLS = &tls.ConnectionState{}
	rr = httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	if rr.Header().Get("Strict-Transport-Security") == "" {
		t.Fatal("HSTS missing over TLS")
	}
}
