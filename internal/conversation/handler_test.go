package conversation

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/vectorsoft/leadgate/pkg/logging"
)

func newChatHandler(t *testing.T, llm LLMClient) *Handler {
	t.Helper()
	engine, _, _ := newTestEngine(t, llm, nil)
	return NewHandler(engine, logging.Default())
}

func TestChatHandlerSuccess(t *testing.T) {
	handler := newChatHandler(t, &fakeLLM{responses: []LLMResponse{{Text: "hi!"}}})

	body, _ := json.Marshal(ChatRequest{Message: "hello"})
	req := httptest.NewRequest(http.MethodPost, "/chat", bytes.NewReader(body))
	w := httptest.NewRecorder()
	handler.Chat(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}

	var resp map[string]any
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp["response"] != "hi!" {
		t.Errorf("unexpected response: %v", resp)
	}
	if resp["leadId"] != nil {
		t.Errorf("leadId must be null for anonymous chats, got %v", resp["leadId"])
	}
}

func TestChatHandlerMissingMessage(t *testing.T) {
	handler := newChatHandler(t, &fakeLLM{})

	req := httptest.NewRequest(http.MethodPost, "/chat", strings.NewReader(`{"message":"  "}`))
	w := httptest.NewRecorder()
	handler.Chat(w, req)

	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", w.Code)
	}
}

func TestChatHandlerInvalidJSON(t *testing.T) {
	handler := newChatHandler(t, &fakeLLM{})

	req := httptest.NewRequest(http.MethodPost, "/chat", strings.NewReader("{"))
	w := httptest.NewRecorder()
	handler.Chat(w, req)

	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", w.Code)
	}
}

func TestChatHandlerLLMFailure(t *testing.T) {
	handler := newChatHandler(t, &fakeLLM{errs: []error{errors.New("down")}})

	req := httptest.NewRequest(http.MethodPost, "/chat", strings.NewReader(`{"message":"hello"}`))
	w := httptest.NewRecorder()
	handler.Chat(w, req)

	if w.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", w.Code)
	}
	var resp map[string]string
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp["error"] == "" {
		t.Error("expected generic error message")
	}
}
