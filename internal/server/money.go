package server

import (
	"context"
	"math"
	"strconv"
	"strings"

	"siderequest/internal/payload"
	"siderequest/internal/shared"
)

// Money implements the balance endpoints on top of a Store.
type Money struct {
	Store Store
}

func errorPayload(msg string) payload.Object {
	return payload.Object{payload.KV(shared.KeyError, msg)}
}

func balancePayload(username string, money int64) payload.Object {
	return payload.Object{
		payload.KV(shared.KeyUsername, username),
		payload.KV(shared.KeyMoney, money),
	}
}

// username returns the descriptor's non-empty string username.
func username(desc payload.Object) (string, bool) {
	u, ok := desc.String(shared.KeyUsername)
	return u, ok && u != ""
}

// Get returns {"username", "money"}; unknown users have a zero balance.
func (m *Money) Get(ctx context.Context, desc payload.Object) (payload.Object, error) {
	u, ok := username(desc)
	if !ok {
		return errorPayload(shared.ErrMissingUsername), nil
	}
	money, _, err := m.Store.Get(ctx, u)
	if err != nil {
		return nil, err
	}
	return balancePayload(u, money), nil
}

// Set stores the descriptor's amount (default 0) as the user's balance.
func (m *Money) Set(ctx context.Context, desc payload.Object) (payload.Object, error) {
	u, ok := username(desc)
	if !ok {
		return errorPayload(shared.ErrMissingUsername), nil
	}
	amount, ok := desc.Int(shared.KeyAmount)
	if !ok {
		raw, present := desc.Get(shared.KeyAmount)
		amount, ok = coerceAmount(raw, present)
	}
	if !ok {
		return errorPayload(shared.ErrInvalidAmount), nil
	}
	if err := m.Store.Put(ctx, u, amount); err != nil {
		return nil, err
	}
	return balancePayload(u, amount), nil
}

// coerceAmount converts non-integer amounts into a balance: floats
// (truncated toward zero), booleans and decimal strings. An absent amount
// is 0.
func coerceAmount(v any, present bool) (int64, bool) {
	if !present {
		return 0, true
	}
	switch t := v.(type) {
	case float64:
		if math.IsNaN(t) || t < math.MinInt64 || t >= math.MaxInt64 {
			return 0, false
		}
		return int64(t), true
	case bool:
		if t {
			return 1, true
		}
		return 0, true
	case string:
		n, err := strconv.ParseInt(strings.TrimSpace(t), 10, 64)
		if err != nil {
			return 0, false
		}
		return n, true
	}
	return 0, false
}
