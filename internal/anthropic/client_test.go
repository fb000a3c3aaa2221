package anthropic

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestCreateMessage(t *testing.T) {
	var got MessagesRequest
	var headers http.Header

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/messages" {
			t.Errorf("path = %q", r.URL.Path)
		}
		headers = r.Header.Clone()
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Errorf("decoding request: %v", err)
		}
		fmt.Fprint(w, `{"id":"msg_1","content":[{"type":"text","text":"{\"a\":"},{"type":"text","text":"1}"}],"stop_reason":"end_turn"}`)
	}))
	defer srv.Close()

	c := NewClientWithBaseURL("sk-test", srv.URL)
	text, err := c.CreateMessage(context.Background(), MessagesRequest{
		Model:       "claude-3-5-sonnet-20241022",
		MaxTokens:   1500,
		Temperature: 0.4,
		Messages:    []Message{{Role: "user", Content: "analyze"}},
	})
	if err != nil {
		t.Fatalf("CreateMessage: %v", err)
	}

	if text != `{"a":1}` {
		t.Errorf("text = %q", text)
	}
	if headers.Get("x-api-key") != "sk-test" {
		t.Errorf("x-api-key = %q", headers.Get("x-api-key"))
	}
	if headers.Get("anthropic-version") != apiVersion {
		t.Errorf("anthropic-version = %q", headers.Get("anthropic-version"))
	}
	if got.MaxTokens != 1500 || got.Temperature != 0.4 {
		t.Errorf("request params = %d/%v", got.MaxTokens, got.Temperature)
	}
}

func TestCreateMessage_APIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		fmt.Fprint(w, `{"type":"error","error":{"type":"authentication_error","message":"invalid x-api-key"}}`)
	}))
	defer srv.Close()

	c := NewClientWithBaseURL("bad", srv.URL)
	_, err := c.CreateMessage(context.Background(), MessagesRequest{Model: "m", MaxTokens: 10})
	if err == nil {
		t.Fatal("expected error")
	}
	if !strings.Contains(err.Error(), "authentication_error") {
		t.Errorf("error = %q", err)
	}
}

func TestCreateMessage_NoText(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"id":"msg_1","content":[]}`)
	}))
	defer srv.Close()

	c := NewClientWithBaseURL("sk-test", srv.URL)
	_, err := c.CreateMessage(context.Background(), MessagesRequest{Model: "m", MaxTokens: 10})
	if !errors.Is(err, ErrNoText) {
		t.Errorf("err = %v, want ErrNoText", err)
	}
}

func TestCreateMessage_ContextCanceled(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
	}))
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	c := NewClientWithBaseURL("sk-test", srv.URL)
	_, err := c.CreateMessage(ctx, MessagesRequest{Model: "m", MaxTokens: 10})
	if !errors.Is(err, context.Canceled) {
		t.Errorf("err = %v, want context.Canceled", err)
	}
}
