package interceptor

import (
	"context"
	"errors"
	"testing"

	"wsrpc/codec"
	"wsrpc/message"
)

func echoHandler(ctx context.Context, call *Call) error {
	return nil
}

func failingHandler(ctx context.Context, call *Call) error {
	return errors.New("boom")
}

func TestLoggingPassesThroughSuccess(t *testing.T) {
	handler := Logging()(echoHandler)
	call := &Call{Method: "Arith.Add", Params: codec.Nil}
	if err := handler(context.Background(), call); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
}

func TestLoggingPropagatesError(t *testing.T) {
	handler := Logging()(failingHandler)
	call := &Call{Method: "Arith.Add"}
	if err := handler(context.Background(), call); err == nil {
		t.Fatal("expected error to propagate through Logging")
	}
}

func TestRateLimitAllowsWithinBurst(t *testing.T) {
	handler := RateLimit(1, 2)(echoHandler)
	call := &Call{Method: "Arith.Add"}

	for i := 0; i < 2; i++ {
		if err := handler(context.Background(), call); err != nil {
			t.Fatalf("request %d should pass, got error: %v", i, err)
		}
	}
}

func TestRateLimitRejectsBeyondBurst(t *testing.T) {
	handler := RateLimit(1, 2)(echoHandler)
	call := &Call{Method: "Arith.Add"}

	for i := 0; i < 2; i++ {
		if err := handler(context.Background(), call); err != nil {
			t.Fatalf("request %d should pass, got error: %v", i, err)
		}
	}

	err := handler(context.Background(), call)
	if err == nil {
		t.Fatal("expected third request to be rate limited")
	}
	var callErr *message.CallError
	if !errors.As(err, &callErr) {
		t.Fatalf("expected *message.CallError, got %T", err)
	}
	if callErr.Kind != message.KindRateLimited {
		t.Fatalf("expected KindRateLimited, got %v", callErr.Kind)
	}
}

func TestChainOrdersOuterToInner(t *testing.T) {
	var order []string
	trace := func(name string) Interceptor {
		return func(next HandlerFunc) HandlerFunc {
			return func(ctx context.Context, call *Call) error {
				order = append(order, name+":before")
				err := next(ctx, call)
				order = append(order, name+":after")
				return err
			}
		}
	}

	chained := Chain(trace("A"), trace("B"))
	handler := chained(echoHandler)
	if err := handler(context.Background(), &Call{Method: "x"}); err != nil {
		t.Fatal(err)
	}

	want := []string{"A:before", "B:before", "B:after", "A:after"}
	if len(order) != len(want) {
		t.Fatalf("expected order %v, got %v", want, order)
	}
	for i := range want {
		if order[i] != want[i] {
			t.Fatalf("expected order %v, got %v", want, order)
		}
	}
}

func TestLoggingAndRateLimitChained(t *testing.T) {
	chained := Chain(Logging(), RateLimit(1, 1))
	handler := chained(echoHandler)
	call := &Call{Method: "Arith.Add"}

	if err := handler(context.Background(), call); err != nil {
		t.Fatalf("first call should pass: %v", err)
	}
	if err := handler(context.Background(), call); err == nil {
		t.Fatal("second call should be rate limited")
	}
}
