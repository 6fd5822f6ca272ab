package server

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"siderequest/internal/payload"
	"siderequest/internal/pixcodec"
	"siderequest/internal/shared"
)

// BusinessFunc turns a decoded descriptor into the payload sent back in
// the image. Business failures (a missing username, say) belong in the
// returned payload; a non-nil error is an infrastructure failure.
type BusinessFunc func(ctx context.Context, desc payload.Object) (payload.Object, error)

type API struct {
	Money   *Money
	Encoder *pixcodec.Encoder
	Log     *slog.Logger

	DefaultSize int // used when 's' is absent; 0 means shared.DefaultSize
	MaxSize     int // 0 = unlimited
}

func (a *API) logger() *slog.Logger {
	if a.Log == nil {
		return slog.Default()
	}
	return a.Log
}

func (a *API) encoder() *pixcodec.Encoder {
	if a.Encoder == nil {
		return &pixcodec.Encoder{}
	}
	return a.Encoder
}

func writeText(w http.ResponseWriter, code int, msg string) {
	w.Header().Set("Content-Type", shared.ContentTypeText)
	w.WriteHeader(code)
	_, _ = w.Write([]byte(msg))
}

func noCache(h http.Header) {
	for k, v := range shared.NoCacheHeaders {
		h.Set(k, v)
	}
}

// parseSize accepts a base-10 integer, surrounding blanks allowed, that is
// positive, within MaxSize and never above pixcodec.MaxSide.
func (a *API) parseSize(q map[string][]string) (int, bool) {
	vals, present := q[shared.ParamSize]
	if !present {
		if a.DefaultSize > 0 {
			return a.DefaultSize, true
		}
		return shared.DefaultSize, true
	}
	var raw string
	if len(vals) > 0 {
		raw = vals[0]
	}
	n, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil || n <= 0 {
		return 0, false
	}
	if n > pixcodec.MaxSide || (a.MaxSize > 0 && n > a.MaxSize) {
		return 0, false
	}
	return n, true
}

// Side adapts fn to an image endpoint. It reads the descriptor from 'd'
// and the side length from 's', rejects bad input with 400 before fn
// runs, and renders fn's result as a PNG.
func (a *API) Side(fn BusinessFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		noCache(w.Header())
		if r.Method != http.MethodGet && r.Method != http.MethodHead {
			writeText(w, http.StatusMethodNotAllowed, "method not allowed")
			return
		}

		q := r.URL.Query()
		size, ok := a.parseSize(q)
		if !ok {
			writeText(w, http.StatusBadRequest, shared.MsgInvalidSize)
			return
		}

		text := shared.DefaultDescriptor
		if q.Has(shared.ParamDescriptor) {
			text = q.Get(shared.ParamDescriptor)
		}
		desc, err := payload.Parse(text)
		if err != nil {
			writeText(w, http.StatusBadRequest, shared.MsgInvalidDescriptor)
			return
		}

		result, err := fn(r.Context(), desc)
		if err != nil {
			a.logger().Error("business function failed",
				"path", r.URL.Path, "request_id", RequestID(r.Context()), "err", err)
			writeText(w, http.StatusInternalServerError, "internal error")
			return
		}

		img, err := a.encoder().EncodePNG(result, size)
		if err != nil {
			a.logger().Error("png encode failed",
				"path", r.URL.Path, "request_id", RequestID(r.Context()), "size", size, "err", err)
			writeText(w, http.StatusInternalServerError, "internal error")
			return
		}
		if enc := payload.Marshal(result); len(enc) > pixcodec.Capacity(size) {
			a.logger().Debug("payload truncated",
				"path", r.URL.Path, "bytes", len(enc), "capacity", pixcodec.Capacity(size))
		}

		w.Header().Set("Content-Type", shared.ContentTypePNG)
		w.Header().Set("Content-Length", strconv.Itoa(len(img)))
		w.WriteHeader(http.StatusOK)
		if r.Method == http.MethodHead {
			return
		}
		_, _ = w.Write(img)
	}
}

func (a *API) Health(w http.ResponseWriter, r *http.Request) {
	writeText(w, http.StatusOK, "ok")
}

// Handler mounts every route behind the request logging middleware.
func (a *API) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc(shared.RouteGetMoney, a.Side(a.Money.Get))
	mux.HandleFunc(shared.RouteSetMoney, a.Side(a.Money.Set))
	mux.HandleFunc(shared.RouteHealth, a.Health)
	return a.WithRequestLog(mux)
}
