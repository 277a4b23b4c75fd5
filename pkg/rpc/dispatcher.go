package rpc

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/rs/zerolog"

	"github.com/toolgate-io/toolgate/internal/metrics"
	"github.com/toolgate-io/toolgate/pkg/tool"
)

// Dispatcher resolves JSON-RPC methods to registry operations. It owns the
// two-tier error model: protocol faults surface through the JSON-RPC error
// field, while tool-level failures travel inside a success envelope as a
// failure-status outcome.
type Dispatcher struct {
	registry *tool.Registry
	metrics  *metrics.Metrics
	logger   zerolog.Logger
}

// NewDispatcher creates a dispatcher over the given registry. Metrics may be
// nil when instrumentation is disabled.
func NewDispatcher(registry *tool.Registry, m *metrics.Metrics, logger zerolog.Logger) *Dispatcher {
	return &Dispatcher{
		registry: registry,
		metrics:  m,
		logger:   logger.With().Str("component", "rpc-dispatcher").Logger(),
	}
}

// Dispatch routes a parsed request to the matching action and always returns
// a response carrying the request's id verbatim.
func (d *Dispatcher) Dispatch(ctx context.Context, req *Request) *Response {
	var resp *Response

	switch req.Method {
	case MethodListTools:
		resp = successResponse(req.ID, d.registry.Descriptors())
	case MethodCallTool:
		resp = d.callTool(ctx, req)
	default:
		d.logger.Warn().Str("method", req.Method).Msg("Unknown RPC method")
		resp = errorResponse(req.ID, MethodNotFound, fmt.Sprintf("Method '%s' not found.", req.Method))
	}

	d.trackRequest(req.Method, resp)
	return resp
}

func (d *Dispatcher) callTool(ctx context.Context, req *Request) *Response {
	params, ok := decodeParamsObject(req.Params)
	if !ok {
		return errorResponse(req.ID, InvalidParams,
			"Invalid params: 'params' must be an object for mcp_call_tool.")
	}

	toolID, ok := params["tool_id"].(string)
	if !ok || toolID == "" {
		return errorResponse(req.ID, InvalidParams,
			"Invalid params: 'tool_id' is missing or not a string.")
	}

	rawInputs, present := params["inputs"]
	inputs, isObject := rawInputs.(map[string]interface{})
	if !present || rawInputs == nil || !isObject {
		return errorResponse(req.ID, InvalidParams,
			"Invalid params: 'inputs' is missing or not an object.")
	}

	execute, found := d.registry.Executor(toolID)
	if !found {
		d.logger.Warn().Str("tool", toolID).Msg("Unknown tool requested")
		return errorResponse(req.ID, MethodNotFound,
			fmt.Sprintf("Tool with id '%s' is not available.", toolID))
	}

	if err := d.registry.ValidateInputs(toolID, inputs); err != nil {
		return successResponse(req.ID, tool.Failure("%s", err.Error()))
	}

	outcome := d.invoke(ctx, toolID, execute, inputs)
	return successResponse(req.ID, outcome)
}

// invoke runs the executor and downgrades any escaped panic into a generic
// failure outcome so a misbehaving tool never breaks the transport envelope.
func (d *Dispatcher) invoke(ctx context.Context, toolID string, execute tool.ExecuteFunc, inputs map[string]interface{}) (outcome tool.Outcome) {
	start := time.Now()

	defer func() {
		if r := recover(); r != nil {
			d.logger.Error().
				Str("tool", toolID).
				Interface("panic", r).
				Msg("Tool execution panicked")
			outcome = tool.Failure("Internal error during '%s' execution.", toolID)
		}

		duration := time.Since(start)
		d.logger.Debug().
			Str("tool", toolID).
			Str("status", string(outcome.Status)).
			Dur("duration", duration).
			Msg("Tool invocation completed")

		if d.metrics != nil {
			d.metrics.ToolInvocationsTotal.WithLabelValues(toolID, string(outcome.Status)).Inc()
			d.metrics.ToolInvocationDuration.WithLabelValues(toolID).Observe(duration.Seconds())
		}
	}()

	d.logger.Info().Str("tool", toolID).Msg("Invoking tool")
	outcome = execute(ctx, inputs)
	return outcome
}

func (d *Dispatcher) trackRequest(method string, resp *Response) {
	if d.metrics == nil {
		return
	}

	code := "ok"
	if resp.Error != nil {
		code = strconv.Itoa(resp.Error.Code)
	}
	d.metrics.RPCRequestsTotal.WithLabelValues(method, code).Inc()
}

// decodeParamsObject reports whether raw params decode to a JSON object.
// Arrays, scalars, null, and absent params all fail the check.
func decodeParamsObject(raw json.RawMessage) (map[string]interface{}, bool) {
	if len(raw) == 0 {
		return nil, false
	}

	var params map[string]interface{}
	if err := json.Unmarshal(raw, &params); err != nil {
		return nil, false
	}
	if params == nil {
		return nil, false
	}
	return params, true
}
