// Package usecases implements the gateway core: the validate-dispatch-
// respond pipeline and the streaming protocol message handling, shared
// by both transport bindings.
package usecases

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/FreePeak/db-mcp-gateway/internal/domain"
	"github.com/FreePeak/db-mcp-gateway/internal/infrastructure/catalog"
	"github.com/FreePeak/db-mcp-gateway/internal/infrastructure/logging"
)

const protocolVersion = "2024-11-05"

// GatewayService routes inbound calls through the catalog. It holds no
// mutable state; concurrent invocations are fully independent.
type GatewayService struct {
	name    string
	version string
	catalog *catalog.Catalog
	logger  *logging.Logger
}

// GatewayConfig contains configuration for the GatewayService.
type GatewayConfig struct {
	Name    string
	Version string
	Catalog *catalog.Catalog
	Logger  *logging.Logger
}

// NewGatewayService creates a new GatewayService over an immutable catalog.
func NewGatewayService(config GatewayConfig) *GatewayService {
	logger := config.Logger
	if logger == nil {
		logger = logging.Default()
	}

	return &GatewayService{
		name:    config.Name,
		version: config.Version,
		catalog: config.Catalog,
		logger:  logger,
	}
}

// ServerInfo returns the gateway identity.
func (s *GatewayService) ServerInfo() (string, string) {
	return s.name, s.version
}

// ListTools enumerates the catalog's tool definitions.
func (s *GatewayService) ListTools() []*domain.Tool {
	return s.catalog.Tools()
}

// ListResources enumerates the catalog's resource definitions.
func (s *GatewayService) ListResources() []*domain.Resource {
	return s.catalog.Resources()
}

// ExecuteTool runs the invocation pipeline for one call: catalog lookup,
// input validation, handler invocation, outcome normalization. Handler
// failures are wrapped, never retried and never inspected.
func (s *GatewayService) ExecuteTool(ctx context.Context, name string, args map[string]interface{}) (interface{}, error) {
	tool, ok := s.catalog.Tool(name)
	if !ok {
		return nil, domain.NewUnknownToolError(name)
	}

	if args == nil {
		args = map[string]interface{}{}
	}

	violations, err := s.catalog.ValidateInput(name, args)
	if err != nil {
		return nil, domain.NewInvalidInputError([]domain.FieldViolation{
			{Field: "", Message: err.Error()},
		})
	}
	if len(violations) > 0 {
		s.logger.Debug("input validation failed", logging.Fields{
			"tool":       name,
			"violations": len(violations),
		})
		return nil, domain.NewInvalidInputError(violations)
	}

	result, err := tool.Handler(ctx, args)
	if err != nil {
		s.logger.Error("tool handler failed", logging.Fields{
			"tool":  name,
			"error": err.Error(),
		})
		return nil, domain.NewHandlerError(err)
	}

	return result, nil
}

// ReadResource returns the contents of a catalog resource.
func (s *GatewayService) ReadResource(ctx context.Context, uri string) (*domain.ResourceContents, error) {
	resource, ok := s.catalog.Resource(uri)
	if !ok {
		return nil, domain.NewUnknownResourceError(uri)
	}

	contents, err := resource.Handler(ctx)
	if err != nil {
		s.logger.Error("resource handler failed", logging.Fields{
			"resource": uri,
			"error":    err.Error(),
		})
		return nil, domain.NewHandlerError(err)
	}

	return contents, nil
}

// HandleMessage processes one streaming protocol frame and returns the
// reply, or nil for notifications. Both the streaming and the
// synchronous binding hand frames to this single entry point.
func (s *GatewayService) HandleMessage(ctx context.Context, rawMessage json.RawMessage) interface{} {
	var request JSONRPCRequest
	if err := json.Unmarshal(rawMessage, &request); err != nil {
		return createErrorResponse(nil, -32700, "Parse error")
	}

	if request.JSONRPC != jsonRPCVersion {
		return createErrorResponse(request.ID, -32600, "Invalid JSON-RPC version")
	}

	switch request.Method {
	case "initialize":
		return s.processInitialize(request)
	case "ping":
		return createResponse(request.ID, struct{}{})
	case "tools/list":
		return s.processToolsList(request)
	case "tools/call":
		return s.processToolsCall(ctx, request)
	case "resources/list":
		return s.processResourcesList(request)
	case "resources/read":
		return s.processResourcesRead(ctx, request)
	case "notifications/initialized":
		return nil
	default:
		return createErrorResponse(request.ID, -32601, fmt.Sprintf("Method '%s' not found", request.Method))
	}
}

func (s *GatewayService) processInitialize(request JSONRPCRequest) interface{} {
	result := map[string]interface{}{
		"protocolVersion": protocolVersion,
		"serverInfo": map[string]string{
			"name":    s.name,
			"version": s.version,
		},
		"capabilities": map[string]interface{}{
			"tools":     map[string]bool{"listChanged": false},
			"resources": map[string]bool{"listChanged": false},
		},
	}
	return createResponse(request.ID, result)
}

func (s *GatewayService) processToolsList(request JSONRPCRequest) interface{} {
	tools := s.catalog.Tools()

	toolList := make([]map[string]interface{}, len(tools))
	for i, tool := range tools {
		toolList[i] = map[string]interface{}{
			"name":        tool.Name,
			"description": tool.Description,
			"inputSchema": tool.InputSchema,
		}
	}

	return createResponse(request.ID, map[string]interface{}{"tools": toolList})
}

func (s *GatewayService) processToolsCall(ctx context.Context, request JSONRPCRequest) interface{} {
	params, ok := request.Params.(map[string]interface{})
	if !ok {
		return createErrorResponse(request.ID, -32602, "Invalid params")
	}

	toolName, ok := params["name"].(string)
	if !ok || toolName == "" {
		return createErrorResponse(request.ID, -32602, "Missing or invalid 'name' parameter")
	}

	arguments, _ := params["arguments"].(map[string]interface{})

	result, err := s.ExecuteTool(ctx, toolName, arguments)
	if err != nil {
		return toolCallError(request.ID, err)
	}

	text, err := json.Marshal(result)
	if err != nil {
		return createErrorResponse(request.ID, -32603, "Internal error: encoding result failed")
	}

	return createResponse(request.ID, map[string]interface{}{
		"content": []interface{}{
			map[string]interface{}{
				"type": "text",
				"text": string(text),
			},
		},
	})
}

func (s *GatewayService) processResourcesList(request JSONRPCRequest) interface{} {
	resources := s.catalog.Resources()

	resourceList := make([]map[string]interface{}, len(resources))
	for i, resource := range resources {
		resourceList[i] = map[string]interface{}{
			"uri":         resource.URI,
			"name":        resource.Name,
			"description": resource.Description,
			"mimeType":    resource.MIMEType,
		}
	}

	return createResponse(request.ID, map[string]interface{}{"resources": resourceList})
}

func (s *GatewayService) processResourcesRead(ctx context.Context, request JSONRPCRequest) interface{} {
	params, ok := request.Params.(map[string]interface{})
	if !ok {
		return createErrorResponse(request.ID, -32602, "Invalid params")
	}

	uri, ok := params["uri"].(string)
	if !ok || uri == "" {
		return createErrorResponse(request.ID, -32602, "Missing or invalid 'uri' parameter")
	}

	contents, err := s.ReadResource(ctx, uri)
	if err != nil {
		return toolCallError(request.ID, err)
	}

	return createResponse(request.ID, map[string]interface{}{
		"contents": []interface{}{
			map[string]interface{}{
				"uri":      contents.URI,
				"mimeType": contents.MIMEType,
				"text":     contents.Text,
			},
		},
	})
}

// toolCallError converts a pipeline error into a JSON-RPC error, keeping
// the gateway status code and any field violations as error data.
func toolCallError(id interface{}, err error) interface{} {
	var inputErr *domain.InvalidInputError
	if errors.As(err, &inputErr) {
		return createErrorResponseWithData(id, inputErr.Err.Code, inputErr.Err.Message, map[string]interface{}{
			"violations": inputErr.Violations,
		})
	}

	var gatewayErr *domain.Error
	if errors.As(err, &gatewayErr) {
		return createErrorResponse(id, gatewayErr.Code, gatewayErr.Message)
	}

	return createErrorResponse(id, -32603, "Internal error")
}
