package rpc

import (
	"context"
	"encoding/json"
	"fmt"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/toolgate-io/toolgate/pkg/tool"
)

func testRegistry(t *testing.T) *tool.Registry {
	t.Helper()
	r := tool.NewRegistry(zerolog.Nop())

	echo := tool.Registration{
		Name: "echo",
		Descriptor: tool.Descriptor{
			Name:        "echo",
			Description: "Echoes its input back.",
			Inputs: []tool.InputParam{
				{Name: "message", Description: "The message to echo.", Type: "string", Required: true},
			},
			Output: tool.OutputSchema{Type: "object", Description: "The echoed message."},
		},
		Execute: func(ctx context.Context, inputs map[string]interface{}) tool.Outcome {
			return tool.Success(map[string]interface{}{"message": inputs["message"]})
		},
	}
	require.NoError(t, r.Register(echo))

	failing := tool.Registration{
		Name: "failing",
		Descriptor: tool.Descriptor{
			Name:        "failing",
			Description: "Always reports a business failure.",
			Output:      tool.OutputSchema{Type: "object"},
		},
		Execute: func(ctx context.Context, inputs map[string]interface{}) tool.Outcome {
			return tool.Failure("backend said no")
		},
	}
	require.NoError(t, r.Register(failing))

	panicking := tool.Registration{
		Name: "panicking",
		Descriptor: tool.Descriptor{
			Name:        "panicking",
			Description: "Panics on every invocation.",
			Output:      tool.OutputSchema{Type: "object"},
		},
		Execute: func(ctx context.Context, inputs map[string]interface{}) tool.Outcome {
			panic("boom")
		},
	}
	require.NoError(t, r.Register(panicking))

	return r
}

func dispatch(t *testing.T, d *Dispatcher, raw string) *Response {
	t.Helper()
	req, rpcErr := ParseRequest([]byte(raw))
	require.Nil(t, rpcErr)
	return d.Dispatch(context.Background(), req)
}

func outcomeOf(t *testing.T, resp *Response) tool.Outcome {
	t.Helper()
	outcome, ok := resp.Result.(tool.Outcome)
	require.True(t, ok, "result is not a tool outcome: %T", resp.Result)
	return outcome
}

// TestDispatcher_ListTools tests that mcp_list_tools returns every registered
// descriptor in registration order
func TestDispatcher_ListTools(t *testing.T) {
	d := NewDispatcher(testRegistry(t), nil, zerolog.Nop())

	resp := dispatch(t, d, `{"jsonrpc":"2.0","method":"mcp_list_tools","id":1}`)

	require.Nil(t, resp.Error)
	assert.Equal(t, "2.0", resp.JSONRPC)
	assert.Equal(t, json.RawMessage(`1`), resp.ID)

	descriptors, ok := resp.Result.([]tool.Descriptor)
	require.True(t, ok)
	require.Len(t, descriptors, 3)
	assert.Equal(t, "echo", descriptors[0].Name)
	assert.Equal(t, "failing", descriptors[1].Name)
	assert.Equal(t, "panicking", descriptors[2].Name)
}

// TestDispatcher_UnknownMethod tests the -32601 response for unknown methods
func TestDispatcher_UnknownMethod(t *testing.T) {
	d := NewDispatcher(testRegistry(t), nil, zerolog.Nop())

	resp := dispatch(t, d, `{"jsonrpc":"2.0","method":"mcp_delete_tool","id":7}`)

	require.NotNil(t, resp.Error)
	assert.Equal(t, MethodNotFound, resp.Error.Code)
	assert.Equal(t, "Method 'mcp_delete_tool' not found.", resp.Error.Message)
	assert.Equal(t, json.RawMessage(`7`), resp.ID)
}

// TestDispatcher_CallTool_ParamValidation tests the protocol-level checks on
// mcp_call_tool params
func TestDispatcher_CallTool_ParamValidation(t *testing.T) {
	d := NewDispatcher(testRegistry(t), nil, zerolog.Nop())

	cases := []struct {
		name    string
		raw     string
		code    int
		message string
	}{
		{
			name:    "params is a list",
			raw:     `{"jsonrpc":"2.0","method":"mcp_call_tool","params":["echo"],"id":1}`,
			code:    InvalidParams,
			message: "Invalid params: 'params' must be an object for mcp_call_tool.",
		},
		{
			name:    "params missing",
			raw:     `{"jsonrpc":"2.0","method":"mcp_call_tool","id":1}`,
			code:    InvalidParams,
			message: "Invalid params: 'params' must be an object for mcp_call_tool.",
		},
		{
			name:    "tool_id missing",
			raw:     `{"jsonrpc":"2.0","method":"mcp_call_tool","params":{"inputs":{}},"id":1}`,
			code:    InvalidParams,
			message: "Invalid params: 'tool_id' is missing or not a string.",
		},
		{
			name:    "tool_id not a string",
			raw:     `{"jsonrpc":"2.0","method":"mcp_call_tool","params":{"tool_id":12,"inputs":{}},"id":1}`,
			code:    InvalidParams,
			message: "Invalid params: 'tool_id' is missing or not a string.",
		},
		{
			name:    "inputs missing",
			raw:     `{"jsonrpc":"2.0","method":"mcp_call_tool","params":{"tool_id":"echo"},"id":1}`,
			code:    InvalidParams,
			message: "Invalid params: 'inputs' is missing or not an object.",
		},
		{
			name:    "inputs null",
			raw:     `{"jsonrpc":"2.0","method":"mcp_call_tool","params":{"tool_id":"echo","inputs":null},"id":1}`,
			code:    InvalidParams,
			message: "Invalid params: 'inputs' is missing or not an object.",
		},
		{
			name:    "inputs is a list",
			raw:     `{"jsonrpc":"2.0","method":"mcp_call_tool","params":{"tool_id":"echo","inputs":["hi"]},"id":1}`,
			code:    InvalidParams,
			message: "Invalid params: 'inputs' is missing or not an object.",
		},
		{
			name:    "unknown tool",
			raw:     `{"jsonrpc":"2.0","method":"mcp_call_tool","params":{"tool_id":"a","inputs":{}},"id":1}`,
			code:    MethodNotFound,
			message: "Tool with id 'a' is not available.",
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			resp := dispatch(t, d, tc.raw)
			require.NotNil(t, resp.Error)
			assert.Equal(t, tc.code, resp.Error.Code)
			assert.Equal(t, tc.message, resp.Error.Message)
			assert.Nil(t, resp.Result)
		})
	}
}

// TestDispatcher_CallTool_Success tests that a successful invocation wraps
// the tool output untouched
func TestDispatcher_CallTool_Success(t *testing.T) {
	d := NewDispatcher(testRegistry(t), nil, zerolog.Nop())

	resp := dispatch(t, d, `{"jsonrpc":"2.0","method":"mcp_call_tool","params":{"tool_id":"echo","inputs":{"message":"hello"}},"id":"req-1"}`)

	require.Nil(t, resp.Error)
	assert.Equal(t, json.RawMessage(`"req-1"`), resp.ID)

	outcome := outcomeOf(t, resp)
	assert.Equal(t, tool.StatusSuccess, outcome.Status)
	assert.Nil(t, outcome.Error)
	assert.Equal(t, map[string]interface{}{"message": "hello"}, outcome.Output)
}

// TestDispatcher_CallTool_BusinessFailure tests that a failure outcome rides
// inside a success envelope, not the JSON-RPC error field
func TestDispatcher_CallTool_BusinessFailure(t *testing.T) {
	d := NewDispatcher(testRegistry(t), nil, zerolog.Nop())

	resp := dispatch(t, d, `{"jsonrpc":"2.0","method":"mcp_call_tool","params":{"tool_id":"failing","inputs":{}},"id":2}`)

	require.Nil(t, resp.Error)
	outcome := outcomeOf(t, resp)
	assert.Equal(t, tool.StatusFailure, outcome.Status)
	assert.Nil(t, outcome.Output)
	require.NotNil(t, outcome.Error)
	assert.Equal(t, "backend said no", *outcome.Error)
}

// TestDispatcher_CallTool_SchemaViolation tests that inputs violating the
// declared schema surface as a failure outcome
func TestDispatcher_CallTool_SchemaViolation(t *testing.T) {
	d := NewDispatcher(testRegistry(t), nil, zerolog.Nop())

	resp := dispatch(t, d, `{"jsonrpc":"2.0","method":"mcp_call_tool","params":{"tool_id":"echo","inputs":{"wrong":"field"}},"id":3}`)

	require.Nil(t, resp.Error)
	outcome := outcomeOf(t, resp)
	assert.Equal(t, tool.StatusFailure, outcome.Status)
	require.NotNil(t, outcome.Error)
	assert.Contains(t, *outcome.Error, "invalid input")
}

// TestDispatcher_CallTool_PanicRecovery tests that a panicking tool yields a
// well-formed generic failure outcome
func TestDispatcher_CallTool_PanicRecovery(t *testing.T) {
	d := NewDispatcher(testRegistry(t), nil, zerolog.Nop())

	resp := dispatch(t, d, `{"jsonrpc":"2.0","method":"mcp_call_tool","params":{"tool_id":"panicking","inputs":{}},"id":4}`)

	require.Nil(t, resp.Error)
	outcome := outcomeOf(t, resp)
	assert.Equal(t, tool.StatusFailure, outcome.Status)
	require.NotNil(t, outcome.Error)
	assert.Equal(t, "Internal error during 'panicking' execution.", *outcome.Error)
}

// TestDispatcher_IDEcho tests that string, numeric, and null ids are echoed
// back byte for byte
func TestDispatcher_IDEcho(t *testing.T) {
	d := NewDispatcher(testRegistry(t), nil, zerolog.Nop())

	for _, id := range []string{`1`, `"abc"`, `null`, `0`, `-7`} {
		t.Run(fmt.Sprintf("id=%s", id), func(t *testing.T) {
			resp := dispatch(t, d, fmt.Sprintf(`{"jsonrpc":"2.0","method":"mcp_list_tools","id":%s}`, id))
			assert.Equal(t, json.RawMessage(id), resp.ID)
		})
	}
}

// TestParseRequest tests envelope parsing and its error codes
func TestParseRequest(t *testing.T) {
	t.Run("valid", func(t *testing.T) {
		req, rpcErr := ParseRequest([]byte(`{"jsonrpc":"2.0","method":"mcp_list_tools","id":1}`))
		require.Nil(t, rpcErr)
		assert.Equal(t, "mcp_list_tools", req.Method)
	})

	t.Run("defaults jsonrpc version", func(t *testing.T) {
		req, rpcErr := ParseRequest([]byte(`{"method":"mcp_list_tools","id":1}`))
		require.Nil(t, rpcErr)
		assert.Equal(t, "2.0", req.JSONRPC)
	})

	t.Run("malformed json", func(t *testing.T) {
		_, rpcErr := ParseRequest([]byte(`{"jsonrpc":`))
		require.NotNil(t, rpcErr)
		assert.Equal(t, ParseError, rpcErr.Code)
	})

	t.Run("missing method", func(t *testing.T) {
		_, rpcErr := ParseRequest([]byte(`{"jsonrpc":"2.0","id":1}`))
		require.NotNil(t, rpcErr)
		assert.Equal(t, InvalidRequest, rpcErr.Code)
	})
}
