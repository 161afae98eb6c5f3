package service_test

import (
	"errors"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/kmenon/spendlens-go/internal/domain"
	"github.com/kmenon/spendlens-go/internal/service"
)

func TestIssueAndResolveLink(t *testing.T) {
	links := service.NewLinkService("test-secret", time.Hour, "https://dash.example.com")

	link, err := links.IssueLink("42")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.HasPrefix(link, "https://dash.example.com/?token=") {
		t.Fatalf("unexpected link shape: %s", link)
	}

	u, err := url.Parse(link)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	userID, err := links.ResolveToken(u.Query().Get("token"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if userID != "42" {
		t.Errorf("expected user 42, got %q", userID)
	}
}

func TestResolveExpiredToken(t *testing.T) {
	links := service.NewLinkService("test-secret", -time.Minute, "https://dash.example.com")

	link, err := links.IssueLink("42")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	u, _ := url.Parse(link)

	_, err = links.ResolveToken(u.Query().Get("token"))
	var unauthorized *domain.ErrUnauthorized
	if !errors.As(err, &unauthorized) {
		t.Fatalf("expected ErrUnauthorized, got %v", err)
	}
}

func TestResolveTokenWrongSecret(t *testing.T) {
	issuer := service.NewLinkService("secret-a", time.Hour, "https://dash.example.com")
	verifier := service.NewLinkService("secret-b", time.Hour, "https://dash.example.com")

	link, _ := issuer.IssueLink("42")
	u, _ := url.Parse(link)

	if _, err := verifier.ResolveToken(u.Query().Get("token")); err == nil {
		t.Error("expected rejection of token signed with another secret")
	}
}

func TestResolveGarbageToken(t *testing.T) {
	links := service.NewLinkService("test-secret", time.Hour, "https://dash.example.com")
	if _, err := links.ResolveToken("not-a-jwt"); err == nil {
		t.Error("expected rejection of malformed token")
	}
}

func TestIssueLinkRequiresUser(t *testing.T) {
	links := service.NewLinkService("test-secret", time.Hour, "https://dash.example.com")
	if _, err := links.IssueLink(""); err == nil {
		t.Error("expected error for empty user id")
	}
}
