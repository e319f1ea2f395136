package ctx

import (
	"context"
	"net/http"

	uuid "github.com/satori/go.uuid"
	"github.com/valyala/fasthttp"
)

type key int

const (
	HeaderUUIDAPI = "X-CTX-CarbonAPI-UUID"

	uuidKey key = 0
)

func ifaceToString(v interface{}) string {
	if s, ok := v.(string); ok {
		return s
	}
	return ""
}

func getCtxString(ctx context.Context, k key) string {
	return ifaceToString(ctx.Value(k))
}

func GetUUID(ctx context.Context) string {
	return getCtxString(ctx, uuidKey)
}

func SetUUID(ctx context.Context, v string) context.Context {
	return context.WithValue(ctx, uuidKey, v)
}

// WithNewUUID stores a fresh v4 uuid in ctx.
func WithNewUUID(ctx context.Context) context.Context {
	return SetUUID(ctx, uuid.NewV4().String())
}

func MarshalCtx(ctx context.Context, request *http.Request, uuidKey string) *http.Request {
	if id := GetUUID(ctx); id != "" {
		request.Header.Add(uuidKey, id)
	}

	return request
}

func FastHTTPMarshalCtx(ctx context.Context, request *fasthttp.Request, uuidKey string) *fasthttp.Request {
	if id := GetUUID(ctx); id != "" {
		request.Header.Add(uuidKey, id)
	}

	return request
}
