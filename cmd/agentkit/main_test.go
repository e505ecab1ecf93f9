package main

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
)

// isolate runs the test in an empty directory with no provider credentials
// and quiet logging.
func isolate(t *testing.T) {
	t.Helper()
	t.Chdir(t.TempDir())
	for _, k := range []string{
		"OPEN_ROUTER_API_KEY", "OPENAI_API_KEY", "ANTHROPIC_API_KEY", "GOOGLE_API_KEY", "CUSTOM_API_KEY",
		"PROVIDER", "MODEL", "HISTORY_FILE", "METRICS_ADDR", "CACHE_MODE", "RPM_LIMIT", "REDIS_URL",
		"CUSTOM_BASE_URL", "CUSTOM_MODEL", "GATEWAY_BASE_URL", "OPENAI_BASE_URL",
	} {
		t.Setenv(k, "")
	}
	t.Setenv("LOG_LEVEL", "error")
}

func run(t *testing.T, stdin string, args ...string) (code int, stdout, stderr string) {
	t.Helper()
	var out, errOut bytes.Buffer
	code = execute(context.Background(), args, strings.NewReader(stdin), &out, &errOut)
	return code, out.String(), errOut.String()
}

// upstream is an OpenAI-compatible server that replies with bodies in order
// and records every request body.
type upstream struct {
	*httptest.Server

	mu       sync.Mutex
	bodies   []string
	requests []map[string]any
	messages [][]any
}

func newUpstream(t *testing.T, bodies ...string) *upstream {
	t.Helper()
	u := &upstream{bodies: bodies}
	u.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req map[string]any
		_ = json.NewDecoder(r.Body).Decode(&req)
		msgs, _ := req["messages"].([]any)

		u.mu.Lock()
		i := len(u.messages)
		u.requests = append(u.requests, req)
		u.messages = append(u.messages, msgs)
		if i >= len(u.bodies) {
			i = len(u.bodies) - 1
		}
		body := u.bodies[i]
		u.mu.Unlock()

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(u.Close)
	return u
}

func (u *upstream) calls() int {
	u.mu.Lock()
	defer u.mu.Unlock()
	return len(u.messages)
}

func answer(content string) string {
	c, _ := json.Marshal(content)
	return `{"id":"chatcmpl-a","object":"chat.completion","created":0,"model":"m",
		"choices":[{"index":0,"finish_reason":"stop","message":{"role":"assistant","content":` + string(c) + `}}],
		"usage":{"prompt_tokens":3,"completion_tokens":2,"total_tokens":5}}`
}

func toolCall(id, name, args string) string {
	a, _ := json.Marshal(args)
	return `{"id":"chatcmpl-t","object":"chat.completion","created":0,"model":"m",
		"choices":[{"index":0,"finish_reason":"tool_calls","message":{"role":"assistant","content":null,
		"tool_calls":[{"id":"` + id + `","type":"function","function":{"name":"` + name + `","arguments":` + string(a) + `}}]}}],
		"usage":{"prompt_tokens":3,"completion_tokens":2,"total_tokens":5}}`
}

// useGateway points the gateway profile at u.
func useGateway(t *testing.T, u *upstream) {
	t.Helper()
	t.Setenv("GATEWAY_BASE_URL", u.URL+"/v1")
	t.Setenv("OPEN_ROUTER_API_KEY", "sk-or-test")
}

func TestModels_FreeOnly(t *testing.T) {
	isolate(t)

	code, out, stderr := run(t, "", "models", "--free")
	if code != 0 {
		t.Fatalf("exit %d: %s", code, stderr)
	}
	if !strings.Contains(out, "Free models:") || !strings.Contains(out, "llama_4_maverick") {
		t.Errorf("missing free table:\n%s", out)
	}
	if strings.Contains(out, "Paid models:") {
		t.Errorf("paid table printed with --free:\n%s", out)
	}
}

func TestCheck_ReportsProvidersAndPresets(t *testing.T) {
	isolate(t)
	t.Setenv("OPENAI_API_KEY", "sk-test")

	code, out, stderr := run(t, "", "check")
	if code != 0 {
		t.Fatalf("exit %d: %s", code, stderr)
	}
	for _, want := range []string{"DIRECT: configured", "GATEWAY: not configured", "OPEN_ROUTER_API_KEY", "math", "weather", "general"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}

func TestAsk(t *testing.T) {
	isolate(t)
	u := newUpstream(t, answer("Paris."))
	useGateway(t, u)

	code, out, stderr := run(t, "", "ask", "Capital", "of", "France?")
	if code != 0 {
		t.Fatalf("exit %d: %s", code, stderr)
	}
	if strings.TrimSpace(out) != "Paris." {
		t.Errorf("stdout = %q", out)
	}
	if u.calls() != 1 || len(u.messages[0]) != 1 {
		t.Errorf("ask must send exactly one message, got %v", u.messages)
	}
}

func TestAsk_MissingCredential(t *testing.T) {
	isolate(t)

	code, _, stderr := run(t, "", "ask", "hi")
	if code != 1 {
		t.Fatalf("exit %d, want 1", code)
	}
	if !strings.Contains(stderr, "OPEN_ROUTER_API_KEY") {
		t.Errorf("stderr should name the missing variable: %s", stderr)
	}
}

func TestAsk_ZeroTemperature(t *testing.T) {
	isolate(t)
	u := newUpstream(t, answer("ok"))
	useGateway(t, u)

	if code, _, stderr := run(t, "", "ask", "--temperature", "0", "hi"); code != 0 {
		t.Fatalf("exit %d: %s", code, stderr)
	}
	got, ok := u.requests[0]["temperature"]
	if !ok || got != float64(0) {
		t.Errorf("temperature = %#v (present=%v), want 0", got, ok)
	}
}

func TestAsk_CustomProviderWithModelFlag(t *testing.T) {
	isolate(t)
	u := newUpstream(t, answer("local reply"))
	t.Setenv("CUSTOM_BASE_URL", u.URL+"/v1")
	t.Setenv("CUSTOM_API_KEY", "k")

	code, out, stderr := run(t, "", "ask", "--provider", "custom", "--model", "my-model", "hi")
	if code != 0 {
		t.Fatalf("exit %d: %s", code, stderr)
	}
	if strings.TrimSpace(out) != "local reply" {
		t.Errorf("stdout = %q", out)
	}
	if u.calls() != 1 || u.requests[0]["model"] != "my-model" {
		t.Errorf("requests = %v", u.requests)
	}
}

func TestUnknownProvider(t *testing.T) {
	isolate(t)

	code, _, stderr := run(t, "", "ask", "--provider", "azure", "hi")
	if code != 1 {
		t.Fatalf("exit %d, want 1", code)
	}
	if !strings.Contains(stderr, "unknown provider") {
		t.Errorf("stderr = %s", stderr)
	}
}

func TestChat_HistoryRoundTrip(t *testing.T) {
	isolate(t)
	u := newUpstream(t, answer("Hi Ana."), answer("Your name is Ana."))
	useGateway(t, u)

	path := filepath.Join(t.TempDir(), "session.json")

	if code, _, stderr := run(t, "", "chat", "--history-out", path, "I am Ana"); code != 0 {
		t.Fatalf("first turn exit %d: %s", code, stderr)
	}
	code, out, stderr := run(t, "", "chat", "--history-in", path, "--history-out", path, "What is my name?")
	if code != 0 {
		t.Fatalf("second turn exit %d: %s", code, stderr)
	}
	if !strings.Contains(out, "Your name is Ana.") {
		t.Errorf("stdout = %q", out)
	}

	if got := len(u.messages[1]); got != 3 {
		t.Errorf("second request carried %d messages, want 3", got)
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read history: %v", err)
	}
	var entries []map[string]string
	if err := json.Unmarshal(raw, &entries); err != nil {
		t.Fatalf("decode history: %v", err)
	}
	if len(entries) != 4 {
		t.Fatalf("history has %d entries, want 4", len(entries))
	}
}

func TestChat_MissingHistoryIn(t *testing.T) {
	isolate(t)
	useGateway(t, newUpstream(t, answer("x")))

	code, _, _ := run(t, "", "chat", "--history-in", "nope.json", "hi")
	if code != 1 {
		t.Fatalf("exit %d, want 1", code)
	}
}

func TestChat_HistoryFileCreatedOnFirstUse(t *testing.T) {
	isolate(t)
	useGateway(t, newUpstream(t, answer("hello")))
	t.Setenv("HISTORY_FILE", "session.json")

	if code, _, stderr := run(t, "", "chat", "hi"); code != 0 {
		t.Fatalf("exit %d: %s", code, stderr)
	}
	if _, err := os.Stat("session.json"); err != nil {
		t.Fatalf("history file not written: %v", err)
	}
}

func TestChat_REPL(t *testing.T) {
	isolate(t)
	u := newUpstream(t, answer("pong"))
	useGateway(t, u)

	stdin := "ping\n/history\n/bogus\n/clear\n/history\n/exit\nnever sent\n"
	code, out, stderr := run(t, stdin, "chat")
	if code != 0 {
		t.Fatalf("exit %d: %s", code, stderr)
	}

	for _, want := range []string{"pong", "[user] ping", "[assistant] pong", "unknown command /bogus", "history cleared"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
	if u.calls() != 1 {
		t.Errorf("upstream calls = %d, want 1", u.calls())
	}
}

func TestCompare(t *testing.T) {
	isolate(t)
	useGateway(t, newUpstream(t, answer("same")))

	code, out, stderr := run(t, "", "compare", "--models", "llama_4_maverick,mistral_small", "hi")
	if code != 0 {
		t.Fatalf("exit %d: %s", code, stderr)
	}
	if !strings.Contains(out, "=== llama_4_maverick ===") || !strings.Contains(out, "=== mistral_small ===") {
		t.Errorf("stdout = %q", out)
	}
}

func TestAgent_Math(t *testing.T) {
	isolate(t)
	u := newUpstream(t, toolCall("call_1", "calculate", `{"expression":"15*8+23"}`), answer("It is 143."))
	t.Setenv("OPENAI_BASE_URL", u.URL+"/v1")
	t.Setenv("OPENAI_API_KEY", "sk-test")

	code, out, stderr := run(t, "", "agent", "--show-tools", "math", "What", "is", "15*8+23?")
	if code != 0 {
		t.Fatalf("exit %d: %s", code, stderr)
	}
	if !strings.Contains(out, "[tool] calculate") || !strings.Contains(out, "143") {
		t.Errorf("stdout = %q", out)
	}
	if !strings.Contains(out, "It is 143.") {
		t.Errorf("final output missing: %q", out)
	}
}

func TestAgent_UnknownPreset(t *testing.T) {
	isolate(t)

	code, _, stderr := run(t, "", "agent", "astrologer", "hi")
	if code != 1 {
		t.Fatalf("exit %d, want 1", code)
	}
	if !strings.Contains(stderr, "astrologer") {
		t.Errorf("stderr = %s", stderr)
	}
}
