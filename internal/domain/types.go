// Package domain defines the core entities and error taxonomy for the gateway.
package domain

import (
	"context"
	"time"
)

// ToolHandler fulfills a single tool invocation. Input has already been
// validated against the tool's schema when the handler runs.
type ToolHandler func(ctx context.Context, args map[string]interface{}) (interface{}, error)

// ResourceHandler produces the contents of a readable resource.
type ResourceHandler func(ctx context.Context) (*ResourceContents, error)

// Tool describes one remotely invocable operation exposed by the gateway.
// Immutable after catalog construction.
type Tool struct {
	Name        string
	Description string
	InputSchema map[string]interface{}
	Handler     ToolHandler
}

// Resource describes one readable artifact exposed by the gateway.
type Resource struct {
	URI         string
	Name        string
	Description string
	MIMEType    string
	Handler     ResourceHandler
}

// ResourceContents is the materialized content of a resource.
type ResourceContents struct {
	URI      string
	MIMEType string
	Text     string
}

// SessionInfo is the metadata of one live streaming session.
type SessionInfo struct {
	ID        string
	UserAgent string
	CreatedAt time.Time
}
