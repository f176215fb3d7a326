package message

import (
	"testing"
	"time"

	"wsrpc/codec"
)

func TestNewRequestShape(t *testing.T) {
	v := NewRequest("user.login", codec.MapValue(map[string]codec.Value{"u": codec.StringValue("a")}), codec.StringValue("1"))
	if v.Kind != codec.KindMap {
		t.Fatalf("expected a map, got %v", v.Kind)
	}
	if v.Map["jsonrpc"].Str != Version {
		t.Fatalf("jsonrpc field mismatch")
	}
	if v.Map["method"].Str != "user.login" {
		t.Fatalf("method field mismatch")
	}
	if v.Map["id"].Str != "1" {
		t.Fatalf("id field mismatch")
	}
	if _, ok := v.Map["params"]; !ok {
		t.Fatalf("params field missing")
	}
}

func TestNewNotificationHasNoIDField(t *testing.T) {
	v := NewNotification("user.logout", codec.MapValue(map[string]codec.Value{"u": codec.IntValue(123)}))
	if _, ok := v.Map["id"]; ok {
		t.Fatalf("notification must not carry an id field")
	}
}

func TestParseResponseSuccess(t *testing.T) {
	v := codec.MapValue(map[string]codec.Value{
		"jsonrpc": codec.StringValue(Version),
		"result":  codec.MapValue(map[string]codec.Value{"token": codec.StringValue("T")}),
		"id":      codec.StringValue("1"),
	})
	resp := ParseResponse(v)
	if resp.Error != nil {
		t.Fatalf("expected no error, got %+v", resp.Error)
	}
	if resp.Result.Map["token"].Str != "T" {
		t.Fatalf("result mismatch: %+v", resp.Result)
	}
}

func TestParseResponseError(t *testing.T) {
	v := codec.MapValue(map[string]codec.Value{
		"jsonrpc": codec.StringValue(Version),
		"error": codec.MapValue(map[string]codec.Value{
			"code":    codec.IntValue(-32601),
			"message": codec.StringValue("no such method"),
		}),
		"id": codec.StringValue("1"),
	})
	resp := ParseResponse(v)
	if resp.Error == nil {
		t.Fatal("expected an error")
	}
	if resp.Error.Code != -32601 || resp.Error.Message != "no such method" {
		t.Fatalf("unexpected error fields: %+v", resp.Error)
	}
}

func TestIDKeyDistinguishesStringAndInt(t *testing.T) {
	k1, ok := IDKey(codec.StringValue("1"))
	if !ok {
		t.Fatal("expected ok")
	}
	k2, ok := IDKey(codec.IntValue(1))
	if !ok {
		t.Fatal("expected ok")
	}
	if k1 == k2 {
		t.Fatalf("string id %q and int id %q must not collide", k1, k2)
	}
}

func TestPendingRequestCompletesOnce(t *testing.T) {
	cancelCalls := 0
	p := NewPendingRequest(codec.StringValue("1"), time.Now(), func() { cancelCalls++ })
	p.Complete(codec.StringValue("ok"))
	p.Complete(codec.StringValue("ignored")) // second completion must be a no-op
	p.Fail(&CallError{Kind: KindTimeout})     // likewise

	result, err := p.Result()
	if err != nil {
		t.Fatalf("expected success result, got error %+v", err)
	}
	if result.Str != "ok" {
		t.Fatalf("expected first completion to win, got %+v", result)
	}
	if cancelCalls != 1 {
		t.Fatalf("expected exactly one timer cancellation, got %d", cancelCalls)
	}
}

func TestStreamSubscriptionDropsAfterClose(t *testing.T) {
	calls := 0
	sub := &StreamSubscription{
		ID:      codec.StringValue("s1"),
		Handler: func(codec.Value) { calls++ },
	}
	sub.Dispatch(codec.IntValue(1))
	sub.Closed = true
	sub.Dispatch(codec.IntValue(2))
	if calls != 1 {
		t.Fatalf("expected 1 dispatch before close, got %d", calls)
	}
}
