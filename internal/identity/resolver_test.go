package identity

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestStaticResolver(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/api/tasks", nil)

	if id, err := (StaticResolver{UserID: "dev-user"}).Resolve(req); err != nil || id != "dev-user" {
		t.Fatalf("resolve = %q, %v", id, err)
	}
	if _, err := (StaticResolver{}).Resolve(req); err != ErrUnauthenticated {
		t.Fatalf("empty resolver err = %v, want ErrUnauthenticated", err)
	}
}

func TestBearerToken(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	if _, ok := BearerToken(req); ok {
		t.Fatal("expected no token without header")
	}

	req.Header.Set("Authorization", "Basic abc")
	if _, ok := BearerToken(req); ok {
		t.Fatal("expected no token for non-bearer scheme")
	}

	req.Header.Set("Authorization", "Bearer   ")
	if _, ok := BearerToken(req); ok {
		t.Fatal("expected no token for blank credential")
	}

	req.Header.Set("Authorization", "Bearer tok-123")
	token, ok := BearerToken(req)
	if !ok || token != "tok-123" {
		t.Fatalf("token = %q ok=%v", token, ok)
	}
}
