package metrics

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestNew(t *testing.T) {
	m := New()

	if m == nil {
		t.Fatal("New returned nil")
	}

	if m.registry == nil {
		t.Error("Registry is nil")
	}

	if m.RPCRequestsTotal == nil {
		t.Error("RPCRequestsTotal is nil")
	}
	if m.ToolInvocationsTotal == nil {
		t.Error("ToolInvocationsTotal is nil")
	}
	if m.ToolInvocationDuration == nil {
		t.Error("ToolInvocationDuration is nil")
	}
	if m.InitializerFailuresTotal == nil {
		t.Error("InitializerFailuresTotal is nil")
	}
	if m.ToolsRegistered == nil {
		t.Error("ToolsRegistered is nil")
	}
}

func TestHandler(t *testing.T) {
	m := New()

	m.RPCRequestsTotal.WithLabelValues("mcp_list_tools", "ok").Inc()
	m.ToolInvocationsTotal.WithLabelValues("tavily_search", "success").Inc()
	m.ToolInvocationDuration.WithLabelValues("tavily_search").Observe(0.1)
	m.InitializerFailuresTotal.Inc()
	m.ToolsRegistered.Set(4)

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("unexpected status code: %d", rec.Code)
	}

	body := rec.Body.String()
	for _, name := range []string{
		"rpc_requests_total",
		"tool_invocations_total",
		"tool_invocation_duration_seconds",
		"tool_initializer_failures_total",
		"tools_registered",
	} {
		if !strings.Contains(body, name) {
			t.Errorf("metrics output missing %s", name)
		}
	}
}

func TestRegistry(t *testing.T) {
	m := New()
	if m.Registry() != m.registry {
		t.Error("Registry() returned a different registry")
	}
}
