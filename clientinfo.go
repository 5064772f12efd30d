package nativecheckout

import (
	"context"
	"net/http"
	"strings"
)

// ClientInfo describes the browser client driving the checkout page. The
// session forwards the user agent to the native experience in the props
// reply.
type ClientInfo struct {
	// Information about the client making this request
	//
	// Example: Mozilla/5.0 (iPhone; CPU iPhone OS 17_0 like Mac OS X)
	UserAgent string
	// The preferred locale for content like messages and errors
	//
	// Example: en-US
	AcceptLanguage string
	// Unique key for each request for tracing purposes
	//
	// Example: request_id_123
	RequestID string
}

// ClientInfoFromRequest captures client metadata from the checkout page request.
func ClientInfoFromRequest(r *http.Request) *ClientInfo {
	return &ClientInfo{
		UserAgent:      strings.TrimSpace(r.Header.Get("User-Agent")),
		AcceptLanguage: strings.TrimSpace(r.Header.Get("Accept-Language")),
		RequestID:      strings.TrimSpace(r.Header.Get("Request-Id")),
	}
}

type clientInfoKey struct{}

// ContextWithClientInfo stores client metadata for later retrieval by
// session handlers.
func ContextWithClientInfo(ctx context.Context, info *ClientInfo) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	if info == nil {
		return ctx
	}
	return context.WithValue(ctx, clientInfoKey{}, info)
}

// ClientInfoFromContext extracts the client metadata previously stored in the context.
func ClientInfoFromContext(ctx context.Context) *ClientInfo {
	if ctx == nil {
		return nil
	}
	if info, ok := ctx.Value(clientInfoKey{}).(*ClientInfo); ok {
		return info
	}
	return nil
}
