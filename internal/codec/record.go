package codec

import (
	"encoding/binary"
	"fmt"
	"math"
)

// Tombstone byte values. A record's first byte marks whether the slot
// still holds a live row or has been logically deleted; the heap never
// shrinks a file on DELETE, only flips this byte.
const (
	TombstoneLive    byte = 0
	TombstoneDeleted byte = 1
)

// EncodeRecord packs values into a record's fixed-width wire format:
// one tombstone byte (TombstoneLive, since this is always a fresh
// insert) followed by each column's fixed-width encoding in schema order.
func EncodeRecord(schema Schema, values []Value) ([]byte, error) {
	if len(values) != len(schema) {
		return nil, fmt.Errorf("codec: expected %d values, got %d", len(schema), len(values))
	}

	buf := make([]byte, schema.RecordSize())
	buf[0] = TombstoneLive

	off := 1
	for i, col := range schema {
		w := col.Type.Width()
		if err := encodeColumn(buf[off:off+w], col.Type, values[i]); err != nil {
			return nil, fmt.Errorf("codec: column %q: %w", col.Name, err)
		}
		off += w
	}
	return buf, nil
}

func encodeColumn(dst []byte, ct ColumnType, v Value) error {
	if v.Kind != ct.Kind {
		return fmt.Errorf("value kind %v does not match column type %v", v.Kind, ct.Kind)
	}
	switch ct.Kind {
	case KindInt:
		binary.LittleEndian.PutUint32(dst, uint32(v.Int))
	case KindFloat:
		binary.LittleEndian.PutUint32(dst, math.Float32bits(v.Float))
	case KindDate:
		binary.LittleEndian.PutUint32(dst, v.Date)
	case KindVarchar:
		if len(v.Str) > len(dst) {
			return fmt.Errorf("varchar value longer than column size %d", len(dst))
		}
		copy(dst, v.Str)
		for i := len(v.Str); i < len(dst); i++ {
			dst[i] = 0
		}
	case KindArrayFloat:
		binary.LittleEndian.PutUint32(dst[0:4], math.Float32bits(v.Point[0]))
		binary.LittleEndian.PutUint32(dst[4:8], math.Float32bits(v.Point[1]))
	default:
		return fmt.Errorf("unknown column kind %v", ct.Kind)
	}
	return nil
}

// DecodeRecord unpacks a raw record into its tombstone state and typed
// column values.
func DecodeRecord(schema Schema, raw []byte) (tombstoned bool, values []Value, err error) {
	if len(raw) != schema.RecordSize() {
		return false, nil, fmt.Errorf("codec: record is %d bytes, schema expects %d", len(raw), schema.RecordSize())
	}

	tombstoned = raw[0] != TombstoneLive
	values = make([]Value, len(schema))

	off := 1
	for i, col := range schema {
		w := col.Type.Width()
		values[i] = decodeColumn(raw[off:off+w], col.Type)
		off += w
	}
	return tombstoned, values, nil
}

func decodeColumn(src []byte, ct ColumnType) Value {
	switch ct.Kind {
	case KindInt:
		return IntValue(int32(binary.LittleEndian.Uint32(src)))
	case KindFloat:
		return FloatValue(math.Float32frombits(binary.LittleEndian.Uint32(src)))
	case KindDate:
		return DateValue(binary.LittleEndian.Uint32(src))
	case KindVarchar:
		return VarcharValue(trimTrailingNul(src))
	case KindArrayFloat:
		x := math.Float32frombits(binary.LittleEndian.Uint32(src[0:4]))
		y := math.Float32frombits(binary.LittleEndian.Uint32(src[4:8]))
		return PointValue(x, y)
	default:
		return Value{}
	}
}

func trimTrailingNul(src []byte) string {
	n := len(src)
	for n > 0 && src[n-1] == 0 {
		n--
	}
	return string(src[:n])
}

// ExtractKey reads the column at keyColumn out of an already-encoded
// record and returns its index key, without fully decoding the record.
func ExtractKey(schema Schema, raw []byte, keyColumn int) (Key, error) {
	if keyColumn < 0 || keyColumn >= len(schema) {
		return Key{}, fmt.Errorf("codec: key column index %d out of range", keyColumn)
	}
	if len(raw) != schema.RecordSize() {
		return Key{}, fmt.Errorf("codec: record is %d bytes, schema expects %d", len(raw), schema.RecordSize())
	}

	off := 1 + schema.Offset(keyColumn)
	col := schema[keyColumn]
	w := col.Type.Width()
	v := decodeColumn(raw[off:off+w], col.Type)
	return EncodeKey(v), nil
}

// IsTombstoned reports a record's tombstone state without decoding the
// rest of it.
func IsTombstoned(raw []byte) bool {
	return len(raw) > 0 && raw[0] != TombstoneLive
}

// MarkTombstoned flips a record's leading byte in place to logically
// delete it; the heap calls this on its in-memory copy before writing it
// back over the same offset.
func MarkTombstoned(raw []byte) {
	if len(raw) > 0 {
		raw[0] = TombstoneDeleted
	}
}
