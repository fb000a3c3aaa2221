package ollama

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

// tagsJSON builds a /api/tags response with the given model names.
func tagsJSON(names ...string) []byte {
	type entry struct {
		Name string `json:"name"`
	}
	type resp struct {
		Models []entry `json:"models"`
	}
	r := resp{}
	for _, n := range names {
		r.Models = append(r.Models, entry{Name: n})
	}
	b, _ := json.Marshal(r)
	return b
}

func TestIsRunning_Up(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write(tagsJSON("llama3.1:latest"))
	}))
	defer srv.Close()

	c := New(srv.URL)
	if !c.IsRunning(context.Background()) {
		t.Error("IsRunning() = false, want true")
	}
}

func TestIsRunning_Down(t *testing.T) {
	// Point at a closed server to simulate connection refused.
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close()

	c := New(srv.URL)
	if c.IsRunning(context.Background()) {
		t.Error("IsRunning() = true, want false")
	}
}

func TestListModels(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write(tagsJSON("llama3.1:latest", "qwen2.5:7b"))
	}))
	defer srv.Close()

	c := New(srv.URL)
	models, err := c.ListModels(context.Background())
	if err != nil {
		t.Fatalf("ListModels: %v", err)
	}

	want := []string{"llama3.1:latest", "qwen2.5:7b"}
	if len(models) != len(want) {
		t.Fatalf("got %d models, want %d", len(models), len(want))
	}
	for i, w := range want {
		if models[i] != w {
			t.Errorf("models[%d] = %q, want %q", i, models[i], w)
		}
	}
}

func TestHasModel(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write(tagsJSON("llama3.1:latest", "qwen2.5:7b"))
	}))
	defer srv.Close()

	c := New(srv.URL)
	if !c.HasModel(context.Background(), "llama3.1") {
		t.Error("HasModel(llama3.1) = false, want true")
	}
	if !c.HasModel(context.Background(), "qwen2.5:7b") {
		t.Error("HasModel(qwen2.5:7b) = false, want true")
	}
	if c.HasModel(context.Background(), "llama3") {
		t.Error("HasModel(llama3) = true, want false")
	}
}

func TestChat_PlainText(t *testing.T) {
	var reqBody chatRequest

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/chat" {
			http.NotFound(w, r)
			return
		}
		json.NewDecoder(r.Body).Decode(&reqBody)
		json.NewEncoder(w).Encode(chatResponse{
			Message: Message{Role: "assistant", Content: "Home loans start at 8.5%."},
		})
	}))
	defer srv.Close()

	c := New(srv.URL)
	result, err := c.Chat(context.Background(), "llama3.1", []Message{
		{Role: "system", Content: "You are a loan advisor."},
		{Role: "user", Content: "Home loan rate?"},
	}, nil, &Options{Temperature: 0.4, TopP: 0.9, NumPredict: 512})
	if err != nil {
		t.Fatalf("Chat: %v", err)
	}

	if result != "Home loans start at 8.5%." {
		t.Errorf("result = %q", result)
	}
	if reqBody.Stream {
		t.Error("stream = true, want false")
	}
	if reqBody.Format != nil {
		t.Errorf("format = %v, want nil", reqBody.Format)
	}
	if reqBody.Options == nil || reqBody.Options.NumPredict != 512 || reqBody.Options.Temperature != 0.4 {
		t.Errorf("options = %+v", reqBody.Options)
	}
}

func TestChat_JSONSchema(t *testing.T) {
	var capturedFormat any

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var reqBody chatRequest
		json.NewDecoder(r.Body).Decode(&reqBody)
		capturedFormat = reqBody.Format

		json.NewEncoder(w).Encode(chatResponse{
			Message: Message{Role: "assistant", Content: `{"strategy":"save more"}`},
		})
	}))
	defer srv.Close()

	c := New(srv.URL)
	schema := map[string]any{
		"type":       "object",
		"properties": map[string]any{"strategy": map[string]any{"type": "string"}},
		"required":   []string{"strategy"},
	}

	result, err := c.Chat(context.Background(), "llama3.1", []Message{
		{Role: "user", Content: "analyze"},
	}, schema, nil)
	if err != nil {
		t.Fatalf("Chat: %v", err)
	}

	formatMap, ok := capturedFormat.(map[string]any)
	if !ok {
		t.Fatalf("format = %T, want map (schema object)", capturedFormat)
	}
	if formatMap["type"] != "object" {
		t.Errorf("format.type = %v, want %q", formatMap["type"], "object")
	}

	var parsed map[string]any
	if err := json.Unmarshal([]byte(result), &parsed); err != nil {
		t.Errorf("response is not valid JSON: %v", err)
	}
}

func TestChat_ErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	c := New(srv.URL)
	if _, err := c.Chat(context.Background(), "missing", nil, nil, nil); err == nil {
		t.Fatal("expected error for 404")
	}
}

func TestPullModel_Progress(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/pull" {
			http.NotFound(w, r)
			return
		}

		var reqBody pullRequest
		json.NewDecoder(r.Body).Decode(&reqBody)
		if reqBody.Name != "llama3.1" {
			t.Errorf("pull model = %q, want %q", reqBody.Name, "llama3.1")
		}

		// Stream progress lines as newline-delimited JSON.
		enc := json.NewEncoder(w)
		enc.Encode(PullProgress{Status: "downloading", Total: 1000, Completed: 500})
		enc.Encode(PullProgress{Status: "downloading", Total: 1000, Completed: 1000})
		enc.Encode(PullProgress{Status: "success"})
	}))
	defer srv.Close()

	c := New(srv.URL)
	var progressCount int
	err := c.PullModel(context.Background(), "llama3.1", func(p PullProgress) {
		progressCount++
	})
	if err != nil {
		t.Fatalf("PullModel: %v", err)
	}

	if progressCount != 3 {
		t.Errorf("received %d progress updates, want 3", progressCount)
	}
}
