package codec

import (
	"bytes"
	"math"
	"testing"
	"time"
)

func roundTrip(t *testing.T, v Value) Value {
	t.Helper()
	b, err := Marshal(v)
	if err != nil {
		t.Fatalf("Marshal failed: %v", err)
	}
	got, err := Unmarshal(b)
	if err != nil {
		t.Fatalf("Unmarshal failed: %v", err)
	}
	return got
}

func TestRoundTripScalars(t *testing.T) {
	cases := []Value{
		Nil,
		BoolValue(true),
		BoolValue(false),
		IntValue(0),
		IntValue(42),
		IntValue(-42),
		FloatValue(3.5),
		StringValue("hello"),
		StringValue(""),
		BinValue([]byte{1, 2, 3}),
	}
	for _, v := range cases {
		got := roundTrip(t, v)
		if got.Kind != v.Kind {
			t.Fatalf("kind mismatch for %+v: got %v want %v", v, got.Kind, v.Kind)
		}
		switch v.Kind {
		case KindBool:
			if got.Bool != v.Bool {
				t.Fatalf("bool mismatch: got %v want %v", got.Bool, v.Bool)
			}
		case KindInt:
			if got.Int != v.Int {
				t.Fatalf("int mismatch: got %v want %v", got.Int, v.Int)
			}
		case KindFloat:
			if got.Float != v.Float {
				t.Fatalf("float mismatch: got %v want %v", got.Float, v.Float)
			}
		case KindString:
			if got.Str != v.Str {
				t.Fatalf("string mismatch: got %q want %q", got.Str, v.Str)
			}
		case KindBin:
			if !bytes.Equal(got.Bin, v.Bin) {
				t.Fatalf("bin mismatch: got %v want %v", got.Bin, v.Bin)
			}
		}
	}
}

func TestRoundTripArrayAndMap(t *testing.T) {
	arr := ArrayValue([]Value{IntValue(1), StringValue("two"), BoolValue(true)})
	got := roundTrip(t, arr)
	if got.Kind != KindArray || len(got.Array) != 3 {
		t.Fatalf("array round-trip failed: %+v", got)
	}
	if got.Array[0].Int != 1 || got.Array[1].Str != "two" || got.Array[2].Bool != true {
		t.Fatalf("array element mismatch: %+v", got.Array)
	}

	m := MapValue(map[string]Value{
		"a": IntValue(1),
		"b": StringValue("x"),
		"c": Undefined, // elided entirely
	})
	got = roundTrip(t, m)
	if got.Kind != KindMap {
		t.Fatalf("expected map, got %v", got.Kind)
	}
	if len(got.Map) != 2 {
		t.Fatalf("expected undefined member to be elided, got %d members: %+v", len(got.Map), got.Map)
	}
	if _, ok := got.Map["c"]; ok {
		t.Fatalf("member 'c' should have been elided")
	}
}

func TestRoundTripDate(t *testing.T) {
	cases := []time.Time{
		time.Unix(1700000000, 0).UTC(),                // whole seconds, fixext4
		time.Unix(1700000000, 123456000).UTC(),         // sub-second, fixext8
		time.Unix(1<<35, 500).UTC(),                    // seconds beyond 34 bits, ext8-12
		time.Unix(-100, 0).UTC(),
	}
	for _, tm := range cases {
		got := roundTrip(t, DateValue(tm))
		if got.Kind != KindDate {
			t.Fatalf("expected date, got %v", got.Kind)
		}
		if got.Date.UnixMilli() != tm.UnixMilli() {
			t.Fatalf("date mismatch to millisecond precision: got %v want %v", got.Date, tm)
		}
	}
}

func TestIntegerWidthBoundaries(t *testing.T) {
	cases := []struct {
		v      int64
		length int
	}{
		{0, 1},
		{127, 1},
		{128, 2},
		{255, 2},
		{256, 3},
		{65535, 3},
		{65536, 5},
		{4294967295, 5},
		{4294967296, 9},
		{(1 << 53) - 1, 9},
		{-1, 1},
		{-32, 1},
		{-33, 2},
		{-128, 2},
		{-129, 3},
		{-32768, 3},
		{-32769, 5},
		{-2147483648, 5},
		{-2147483649, 9},
		{-((1 << 53) - 1), 9},
	}
	for _, c := range cases {
		b, err := Marshal(IntValue(c.v))
		if err != nil {
			t.Fatalf("Marshal(%d) failed: %v", c.v, err)
		}
		if len(b) != c.length {
			t.Fatalf("Marshal(%d): got length %d, want %d (bytes: % X)", c.v, len(b), c.length, b)
		}
		got, err := Unmarshal(b)
		if err != nil {
			t.Fatalf("Unmarshal failed for %d: %v", c.v, err)
		}
		if got.Int != c.v {
			t.Fatalf("round-trip mismatch: got %d want %d", got.Int, c.v)
		}
	}
}

func TestNonFiniteFloatUsesNineBytes(t *testing.T) {
	for _, f := range []float64{
		1.5, -1.5, math.Inf(1), math.Inf(-1), math.NaN(),
	} {
		b, err := Marshal(FloatValue(f))
		if err != nil {
			t.Fatalf("Marshal failed: %v", err)
		}
		if len(b) != 9 || b[0] != 0xCB {
			t.Fatalf("float %v: expected 9 bytes tagged 0xCB, got % X", f, b)
		}
	}
}

func TestASCIIStringHeaderSizes(t *testing.T) {
	cases := []struct {
		n      int
		header int
	}{
		{0, 1}, {31, 1}, {32, 2}, {255, 2}, {256, 3}, {65535, 3}, {65536, 5},
	}
	for _, c := range cases {
		s := make([]byte, c.n)
		for i := range s {
			s[i] = 'a'
		}
		b, err := Marshal(StringValue(string(s)))
		if err != nil {
			t.Fatalf("Marshal failed: %v", err)
		}
		want := c.n + c.header
		if len(b) != want {
			t.Fatalf("n=%d: got %d bytes, want %d (header=%d)", c.n, len(b), want, c.header)
		}
	}
}

func TestDecodeRejects0xC1(t *testing.T) {
	if _, err := Unmarshal([]byte{0xC1}); err == nil {
		t.Fatal("expected an error for tag 0xC1")
	}
}

func TestDecodeTruncatedInput(t *testing.T) {
	full, err := Marshal(StringValue("hello world"))
	if err != nil {
		t.Fatalf("Marshal failed: %v", err)
	}
	for cut := 1; cut < len(full); cut++ {
		_, err := Unmarshal(full[:cut])
		if err == nil {
			t.Fatalf("expected an 'incomplete' error when truncated at %d bytes", cut)
		}
	}
}

func TestDecodeMapNonStringKeyFails(t *testing.T) {
	// fixmap with 1 entry: key is a positive fixint (1), not a string.
	data := []byte{0x81, 0x01, 0x01}
	if _, err := Unmarshal(data); err == nil {
		t.Fatal("expected a type-mismatch error for a non-string map key")
	}
}

func TestDecodeEmptyInputFails(t *testing.T) {
	if _, err := Unmarshal(nil); err == nil {
		t.Fatal("expected an error decoding empty input")
	}
}

func TestMultipleEncodeDecode(t *testing.T) {
	values := []any{IntValue(1), StringValue("two"), BoolValue(true)}
	b, err := Encode(values, EncodeOptions{Multiple: true})
	if err != nil {
		t.Fatalf("Encode(multiple) failed: %v", err)
	}
	got, err := Decode(b, DecodeOptions{Multiple: true})
	if err != nil {
		t.Fatalf("Decode(multiple) failed: %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("expected 3 values, got %d", len(got))
	}
	if got[0].Int != 1 || got[1].Str != "two" || got[2].Bool != true {
		t.Fatalf("unexpected values: %+v", got)
	}
}

func TestToValueStruct(t *testing.T) {
	type Args struct {
		A int    `msgpack:"a"`
		B string `msgpack:"b"`
		C int    `msgpack:"-"`
	}
	v, err := ToValue(Args{A: 1, B: "x", C: 99}, EncodeOptions{})
	if err != nil {
		t.Fatalf("ToValue failed: %v", err)
	}
	if v.Kind != KindMap || len(v.Map) != 2 {
		t.Fatalf("expected a 2-member map, got %+v", v)
	}
	if v.Map["a"].Int != 1 || v.Map["b"].Str != "x" {
		t.Fatalf("unexpected map contents: %+v", v.Map)
	}
}

func TestInvalidTypeReplacement(t *testing.T) {
	ch := make(chan int)
	opts := EncodeOptions{
		InvalidTypeReplacement: func(v any) (Value, bool) {
			return StringValue("unserializable"), true
		},
	}
	b, err := Encode(ch, opts)
	if err != nil {
		t.Fatalf("Encode with replacement failed: %v", err)
	}
	got, err := Unmarshal(b)
	if err != nil {
		t.Fatalf("Unmarshal failed: %v", err)
	}
	if got.Kind != KindString || got.Str != "unserializable" {
		t.Fatalf("expected replacement string, got %+v", got)
	}
}
