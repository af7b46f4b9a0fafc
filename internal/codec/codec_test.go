package codec

import (
	"sort"
	"testing"
)

func TestEncodeIntKeyPreservesOrder(t *testing.T) {
	values := []int32{-1000000, -5, -1, 0, 1, 5, 1000000}
	var keys []Key
	for _, v := range values {
		keys = append(keys, encodeIntKey(v))
	}
	for i := 1; i < len(keys); i++ {
		if !keys[i-1].Less(keys[i]) {
			t.Fatalf("expected key(%d) < key(%d), got bytes %v >= %v", values[i-1], values[i], keys[i-1], keys[i])
		}
	}
}

func TestEncodeFloatKeyPreservesOrder(t *testing.T) {
	values := []float32{-100.5, -1.25, -0.001, 0, 0.001, 1.25, 100.5}
	var keys []Key
	for _, v := range values {
		keys = append(keys, encodeFloatKey(v))
	}
	for i := 1; i < len(keys); i++ {
		if !keys[i-1].Less(keys[i]) {
			t.Fatalf("expected key(%v) < key(%v), got %v >= %v", values[i-1], values[i], keys[i-1], keys[i])
		}
	}
}

func TestEncodeDateKeyPreservesOrder(t *testing.T) {
	values := []uint32{0, 1, 365, 20000, 1 << 20}
	var keys []Key
	for _, v := range values {
		keys = append(keys, encodeDateKey(v))
	}
	for i := 1; i < len(keys); i++ {
		if !keys[i-1].Less(keys[i]) {
			t.Fatalf("expected date key ordering violated at index %d", i)
		}
	}
}

func TestEncodeVarcharKeyPreservesPrefixOrder(t *testing.T) {
	words := []string{"alpha", "banana", "cherry", "date", "zzzzz"}
	sorted := append([]string(nil), words...)
	sort.Strings(sorted)
	if !sort.StringsAreSorted(sorted) {
		t.Fatal("test setup broken")
	}

	var keys []Key
	for _, w := range sorted {
		keys = append(keys, encodeVarcharKey(w))
	}
	for i := 1; i < len(keys); i++ {
		if !(keys[i-1].Less(keys[i]) || keys[i-1].Equal(keys[i])) {
			t.Fatalf("expected key(%q) <= key(%q)", sorted[i-1], sorted[i])
		}
	}
}

func TestVarcharKeysSharingPrefixAreEqualNotErrors(t *testing.T) {
	a := encodeVarcharKey("identical-prefix-but-longer-a")
	b := encodeVarcharKey("identical-prefix-but-longer-b")
	if !a.Equal(b) {
		t.Fatal("expected keys sharing an 8-byte prefix to compare equal")
	}
}

func TestEncodeRecordDecodeRecordRoundTrip(t *testing.T) {
	schema := Schema{
		{Name: "id", Type: ColumnType{Kind: KindInt}},
		{Name: "name", Type: ColumnType{Kind: KindVarchar, Size: 16}},
		{Name: "score", Type: ColumnType{Kind: KindFloat}},
		{Name: "joined", Type: ColumnType{Kind: KindDate}},
		{Name: "pos", Type: ColumnType{Kind: KindArrayFloat}},
	}

	values := []Value{
		IntValue(-42),
		VarcharValue("hello"),
		FloatValue(3.5),
		DateValue(19000),
		PointValue(1.5, -2.25),
	}

	raw, err := EncodeRecord(schema, values)
	if err != nil {
		t.Fatalf("EncodeRecord: %v", err)
	}
	if len(raw) != schema.RecordSize() {
		t.Fatalf("expected %d bytes, got %d", schema.RecordSize(), len(raw))
	}
	if raw[0] != TombstoneLive {
		t.Fatalf("expected fresh record to be live")
	}

	tombstoned, decoded, err := DecodeRecord(schema, raw)
	if err != nil {
		t.Fatalf("DecodeRecord: %v", err)
	}
	if tombstoned {
		t.Fatal("expected live record")
	}
	for i := range values {
		if decoded[i] != values[i] {
			t.Fatalf("column %d: expected %+v, got %+v", i, values[i], decoded[i])
		}
	}
}

func TestMarkTombstonedFlipsLeadingByte(t *testing.T) {
	schema := Schema{{Name: "id", Type: ColumnType{Kind: KindInt}}}
	raw, _ := EncodeRecord(schema, []Value{IntValue(1)})

	MarkTombstoned(raw)
	if !IsTombstoned(raw) {
		t.Fatal("expected record to report tombstoned after MarkTombstoned")
	}

	tombstoned, _, err := DecodeRecord(schema, raw)
	if err != nil {
		t.Fatalf("DecodeRecord: %v", err)
	}
	if !tombstoned {
		t.Fatal("expected DecodeRecord to see the tombstone")
	}
}

func TestExtractKeyMatchesEncodeKeyOfSameColumn(t *testing.T) {
	schema := Schema{
		{Name: "id", Type: ColumnType{Kind: KindInt}},
		{Name: "name", Type: ColumnType{Kind: KindVarchar, Size: 8}},
	}
	values := []Value{IntValue(77), VarcharValue("abcdefgh")}
	raw, err := EncodeRecord(schema, values)
	if err != nil {
		t.Fatalf("EncodeRecord: %v", err)
	}

	key, err := ExtractKey(schema, raw, 0)
	if err != nil {
		t.Fatalf("ExtractKey: %v", err)
	}
	want := EncodeKey(values[0])
	if key != want {
		t.Fatalf("expected %v, got %v", want, key)
	}

	key, err = ExtractKey(schema, raw, 1)
	if err != nil {
		t.Fatalf("ExtractKey: %v", err)
	}
	want = EncodeKey(values[1])
	if key != want {
		t.Fatalf("expected %v, got %v", want, key)
	}
}

func TestCoerceValueRejectsTypeMismatch(t *testing.T) {
	if _, err := CoerceValue("not-a-number", ColumnType{Kind: KindInt}); err == nil {
		t.Fatal("expected error coercing a string into INT")
	}
	if _, err := CoerceValue(42.0, ColumnType{Kind: KindVarchar, Size: 8}); err == nil {
		t.Fatal("expected error coercing a number into VARCHAR")
	}
}

func TestCoerceValueAcceptsMatchingTypes(t *testing.T) {
	v, err := CoerceValue(3.0, ColumnType{Kind: KindInt})
	if err != nil {
		t.Fatalf("CoerceValue: %v", err)
	}
	if v.Int != 3 {
		t.Fatalf("expected Int 3, got %d", v.Int)
	}

	v, err = CoerceValue("2024-01-15", ColumnType{Kind: KindDate})
	if err != nil {
		t.Fatalf("CoerceValue: %v", err)
	}
	if v.ToAny().(string) != "2024-01-15" {
		t.Fatalf("expected round-tripped date string, got %v", v.ToAny())
	}
}

func TestParseColumnTypeRoundTrip(t *testing.T) {
	cases := []string{"INT", "FLOAT", "DATE", "VARCHAR[32]", "ARRAY[FLOAT]"}
	for _, c := range cases {
		ct, err := ParseColumnType(c)
		if err != nil {
			t.Fatalf("ParseColumnType(%q): %v", c, err)
		}
		if ct.String() != c {
			t.Fatalf("expected String() %q, got %q", c, ct.String())
		}
	}
}
