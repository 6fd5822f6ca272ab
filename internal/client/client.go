// Package client calls siderequest image endpoints and decodes the
// payload carried in the returned PNG.
package client

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"siderequest/internal/payload"
	"siderequest/internal/pixcodec"
	"siderequest/internal/shared"
)

// ErrRejected is returned when the server answers with a non-200 status,
// which happens for an invalid size or descriptor.
var ErrRejected = errors.New("client: request rejected")

// maxBody caps how much of a response is read.
const maxBody = 32 << 20

type Client struct {
	ServerURL string
	HTTP      *http.Client
}

func New(serverURL string) *Client {
	return &Client{
		ServerURL: serverURL,
		HTTP:      &http.Client{Timeout: 20 * time.Second},
	}
}

// URL builds the request URL for route. size <= 0 leaves 's' out so the
// server default applies.
func (c *Client) URL(route string, desc payload.Object, size int) string {
	q := url.Values{}
	q.Set(shared.ParamDescriptor, string(payload.Marshal(desc)))
	if size > 0 {
		q.Set(shared.ParamSize, strconv.Itoa(size))
	}
	return strings.TrimRight(c.ServerURL, "/") + route + "?" + q.Encode()
}

// Call sends desc to route and decodes the image. When the payload did not
// fit the image the error wraps pixcodec.ErrTruncated and raw holds the
// prefix that arrived.
func (c *Client) Call(ctx context.Context, route string, desc payload.Object, size int) (obj payload.Object, raw []byte, err error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.URL(route, desc, size), nil)
	if err != nil {
		return nil, nil, err
	}
	resp, err := c.HTTP.Do(req)
	if err != nil {
		return nil, nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBody))
	if err != nil {
		return nil, nil, err
	}
	if resp.StatusCode != http.StatusOK {
		return nil, nil, fmt.Errorf("%w: %d %s", ErrRejected, resp.StatusCode, strings.TrimSpace(string(body)))
	}
	return pixcodec.DecodePNG(bytes.NewReader(body))
}

// GetMoney returns the decoded /get_money.png payload for username.
func (c *Client) GetMoney(ctx context.Context, username string, size int) (payload.Object, error) {
	obj, _, err := c.Call(ctx, shared.RouteGetMoney, payload.Object{payload.KV(shared.KeyUsername, username)}, size)
	return obj, err
}

// SetMoney stores amount for username and returns the decoded payload.
func (c *Client) SetMoney(ctx context.Context, username string, amount int64, size int) (payload.Object, error) {
	desc := payload.Object{
		payload.KV(shared.KeyUsername, username),
		payload.KV(shared.KeyAmount, amount),
	}
	obj, _, err := c.Call(ctx, shared.RouteSetMoney, desc, size)
	return obj, err
}
