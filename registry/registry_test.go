package registry

import "testing"

func TestStaticResolverResolve(t *testing.T) {
	want := []Endpoint{
		{Addr: "ws://a.invalid", Weight: 1},
		{Addr: "ws://b.invalid", Weight: 2},
	}
	r := StaticResolver{Endpoints: want}

	got, err := r.Resolve("any-service")
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if len(got) != len(want) {
		t.Fatalf("expected %d endpoints, got %d", len(want), len(got))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("endpoint %d: expected %+v, got %+v", i, want[i], got[i])
		}
	}
}

func TestStaticResolverWatchClosesImmediately(t *testing.T) {
	r := StaticResolver{Endpoints: []Endpoint{{Addr: "ws://a.invalid"}}}
	ch := r.Watch("any-service")

	select {
	case _, ok := <-ch:
		if ok {
			t.Fatal("expected watch channel to be closed, not deliver a value")
		}
	default:
		t.Fatal("expected watch channel to already be closed")
	}
}

// exercised via client.Config.Balancer/Resolver wiring: a session configured
// with a StaticResolver and any Balancer activates resolverActive() and
// dials through Resolve+Pick instead of Config.URL directly.
func TestStaticResolverSatisfiesResolver(t *testing.T) {
	var _ Resolver = StaticResolver{}
}
