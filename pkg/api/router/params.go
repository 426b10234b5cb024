package router

import (
	"errors"
	"fmt"
	"strings"

	"github.com/valyala/fasthttp"
)

var errEmptyBody = errors.New("empty request body")

// caller identity headers
const (
	HeaderUserID   = "X-User-ID"
	HeaderUserName = "X-User-Name"
)

func PathParam(ctx *fasthttp.RequestCtx, name string) string {
	if v := ctx.UserValue(name); v != nil {
		if s, ok := v.(string); ok {
			return strings.TrimSpace(s)
		}
		return fmt.Sprint(v)
	}
	return ""
}

func Header(ctx *fasthttp.RequestCtx, key string) string {
	return strings.TrimSpace(string(ctx.Request.Header.Peek(key)))
}

func Query(ctx *fasthttp.RequestCtx, key string) string {
	return strings.TrimSpace(string(ctx.QueryArgs().Peek(key)))
}

// QueryBool reports whether key is set to a truthy value ("1", "true", "yes").
func QueryBool(ctx *fasthttp.RequestCtx, key string) bool {
	switch strings.ToLower(Query(ctx, key)) {
	case "1", "true", "yes":
		return true
	}
	return false
}

// Caller returns the caller id and display name from the identity headers,
// writing a 401 when the id is missing.
func Caller(ctx *fasthttp.RequestCtx) (userID, displayName string, ok bool) {
	userID = Header(ctx, HeaderUserID)
	if userID == "" {
		WriteJSONError(ctx, fasthttp.StatusUnauthorized, "missing "+HeaderUserID+" header")
		return "", "", false
	}
	displayName = Header(ctx, HeaderUserName)
	if displayName == "" {
		displayName = userID
	}
	return userID, displayName, true
}

// ClientIP prefers X-Forwarded-For's first hop over the socket address.
func ClientIP(ctx *fasthttp.RequestCtx) string {
	if xf := Header(ctx, "X-Forwarded-For"); xf != "" {
		if i := strings.IndexByte(xf, ','); i >= 0 {
			return strings.TrimSpace(xf[:i])
		}
		return xf
	}
	return ctx.RemoteIP().String()
}
