// Package message defines the JSON-RPC 2.0 wire shapes exchanged between
// the session and its peer, and the bookkeeping records the session keeps
// per in-flight call.
//
// Every shape here is carried as a codec.Value tree rather than a Go struct
// with `msgpack` tags: request/notification/response framing is a small,
// fixed set of string-keyed members (jsonrpc, method, params, id, result,
// error), and building them directly as codec.Value avoids a redundant
// struct<->Value conversion step on the hot path between the session and
// the wire.
package message

import (
	"strconv"

	"wsrpc/codec"
)

// Version is the literal JSON-RPC version string carried on every frame.
const Version = "2.0"

// NewRequest builds the codec.Value for a request frame: method, optional
// params, and an id. Per the wire format, id is always present on a
// request — notifications are built with NewNotification instead.
func NewRequest(method string, params codec.Value, id codec.Value) codec.Value {
	m := map[string]codec.Value{
		"jsonrpc": codec.StringValue(Version),
		"method":  codec.StringValue(method),
		"id":      id,
	}
	if params.Kind != codec.KindUndefined {
		m["params"] = params
	}
	return codec.MapValue(m)
}

// NewNotification builds the codec.Value for a notification frame. The id
// member is omitted entirely — not set to nil — matching the wire format's
// distinction between "no id field" and "id: null".
func NewNotification(method string, params codec.Value) codec.Value {
	m := map[string]codec.Value{
		"jsonrpc": codec.StringValue(Version),
		"method":  codec.StringValue(method),
	}
	if params.Kind != codec.KindUndefined {
		m["params"] = params
	}
	return codec.MapValue(m)
}

// Response is a decoded inbound frame shaped as a JSON-RPC response: it
// carries either a result or an error, keyed by an id (which may be absent
// or null for un-correlated frames).
type Response struct {
	ID     codec.Value
	HasID  bool
	Result codec.Value
	Error  *RPCError
}

// RPCError mirrors the JSON-RPC 2.0 error object.
type RPCError struct {
	Code    int64
	Message string
	Data    codec.Value
	HasData bool
}

// ParseResponse extracts a Response from a decoded frame. A frame lacking
// both `result` and `error` is still a valid Response with neither set —
// the session treats that as an empty success result.
func ParseResponse(v codec.Value) Response {
	var resp Response
	if v.Kind != codec.KindMap {
		return resp
	}
	if id, ok := v.Map["id"]; ok {
		resp.ID = id
		resp.HasID = id.Kind != codec.KindNil
	}
	if result, ok := v.Map["result"]; ok {
		resp.Result = result
	}
	if errVal, ok := v.Map["error"]; ok && errVal.Kind == codec.KindMap {
		e := &RPCError{}
		if code, ok := errVal.Map["code"]; ok {
			e.Code = code.Int
		}
		if msg, ok := errVal.Map["message"]; ok {
			e.Message = msg.Str
		}
		if data, ok := errVal.Map["data"]; ok {
			e.Data = data
			e.HasData = true
		}
		resp.Error = e
	}
	return resp
}

// IDKey normalizes a JSON-RPC id (string or number) to a single comparable
// key, per the design note in spec.md §9: the correlation table must not
// key on the raw dynamic id value, to make caller-supplied and generated
// ids collide-detectable and hashable uniformly.
func IDKey(id codec.Value) (string, bool) {
	switch id.Kind {
	case codec.KindString:
		return "s:" + id.Str, true
	case codec.KindInt:
		return "i:" + strconv.FormatInt(id.Int, 10), true
	default:
		return "", false
	}
}
