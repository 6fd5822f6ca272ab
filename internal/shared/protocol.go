package shared

// Query parameters read by every image endpoint.
const (
	ParamDescriptor = "d"
	ParamSize       = "s"

	DefaultDescriptor = "{}"
	DefaultSize       = 16
)

// Routes served by sr-server.
const (
	RouteGetMoney = "/get_money.png"
	RouteSetMoney = "/set_money.png"
	RouteHealth   = "/healthz"
)

const (
	ContentTypePNG  = "image/png"
	ContentTypeText = "text/plain; charset=utf-8"

	HeaderRequestID = "X-Request-Id"
)

// NoCacheHeaders are attached to every image response. Two different
// payloads can share a URL, so nothing between client and server may cache.
var NoCacheHeaders = map[string]string{
	"Cache-Control": "no-store, no-cache, must-revalidate, max-age=0",
	"Pragma":        "no-cache",
	"Expires":       "0",
}

// Transport-level error bodies (HTTP 400).
const (
	MsgInvalidSize       = "Invalid size 's'"
	MsgInvalidDescriptor = "Invalid JSON in 'd'"
)

// Money API payload keys and business error messages. Business errors are
// returned inside the image, not as HTTP errors.
const (
	KeyUsername = "username"
	KeyMoney    = "money"
	KeyAmount   = "amount"
	KeyError    = "error"

	ErrMissingUsername = "missing username"
	ErrInvalidAmount   = "invalid amount"
)
