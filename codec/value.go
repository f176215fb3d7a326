package codec

import "time"

// Kind tags a Value with the MessagePack-level type it carries. §9 of the
// spec calls for exactly this: a tagged variant in place of the source's
// untyped union, dispatched on the tag rather than on runtime type
// inspection.
type Kind int

const (
	KindNil Kind = iota
	KindBool
	KindInt
	KindFloat
	KindString
	KindBin
	KindArray
	KindMap
	KindDate
	KindExt
	// KindUndefined marks a map member that must be elided entirely rather
	// than encoded as nil. JSON-RPC params/results built from Go structs
	// have no built-in "undefined" — callers that need elision construct a
	// Map and set the member to Undefined explicitly.
	KindUndefined
)

// Ext is an extension-typed payload. Any ext type other than 0xFF (Date, see
// Value's Date case) round-trips as one of these, uninterpreted.
type Ext struct {
	Type int8
	Data []byte
}

// Value is the supported MessagePack value universe: nil, bool, int, float,
// string, bin, array, map, Date, and uninterpreted ext. A Map's iteration
// order is not guaranteed — callers must not depend on member order.
type Value struct {
	Kind Kind

	Bool   bool
	Int    int64
	Float  float64
	Str    string
	Bin    []byte
	Array  []Value
	Map    map[string]Value
	Date   time.Time
	ExtVal Ext
}

// Nil is the MessagePack nil value.
var Nil = Value{Kind: KindNil}

// Undefined, used only as a Map member value, signals that the member is
// elided from the encoded map entirely (it does not produce a MessagePack
// nil). This is the typed-variant analogue of the source's JS `undefined`.
var Undefined = Value{Kind: KindUndefined}

func BoolValue(b bool) Value { return Value{Kind: KindBool, Bool: b} }
func IntValue(i int64) Value { return Value{Kind: KindInt, Int: i} }
func FloatValue(f float64) Value { return Value{Kind: KindFloat, Float: f} }
func StringValue(s string) Value { return Value{Kind: KindString, Str: s} }
func BinValue(b []byte) Value { return Value{Kind: KindBin, Bin: b} }
func ArrayValue(v []Value) Value { return Value{Kind: KindArray, Array: v} }
func MapValue(m map[string]Value) Value { return Value{Kind: KindMap, Map: m} }
func DateValue(t time.Time) Value { return Value{Kind: KindDate, Date: t} }
func ExtValue(typ int8, data []byte) Value {
	return Value{Kind: KindExt, ExtVal: Ext{Type: typ, Data: data}}
}
