package ubjson

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"math"
	"reflect"
	"sort"
)

// Marshal encodes v as Universal Binary JSON. v is walked the same
// way encoding/json walks a value: structs via their `json` tags
// (',omitempty' honored), maps with string keys (sorted for
// deterministic output), slices/arrays, and the primitive types JSON
// itself supports. NaN/Inf floats are encoded as the UBJSON null
// marker, matching spec §4.6 step 5's "NaN is emitted as JSON null".
func Marshal(v any) ([]byte, error) {
	buf := &bytes.Buffer{}
	if err := encodeValue(buf, reflect.ValueOf(v)); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func encodeValue(buf *bytes.Buffer, v reflect.Value) error {
	if !v.IsValid() {
		buf.WriteByte('Z')
		return nil
	}
	for v.Kind() == reflect.Ptr || v.Kind() == reflect.Interface {
		if v.IsNil() {
			buf.WriteByte('Z')
			return nil
		}
		v = v.Elem()
	}

	switch v.Kind() {
	case reflect.Bool:
		if v.Bool() {
			buf.WriteByte('T')
		} else {
			buf.WriteByte('F')
		}
		return nil
	case reflect.String:
		return encodeString(buf, v.String())
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return encodeInt(buf, v.Int())
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return encodeInt(buf, int64(v.Uint()))
	case reflect.Float32, reflect.Float64:
		return encodeFloat(buf, v.Float())
	case reflect.Slice, reflect.Array:
		if v.Kind() == reflect.Slice && v.IsNil() {
			buf.WriteByte('Z')
			return nil
		}
		buf.WriteByte('[')
		for i := 0; i < v.Len(); i++ {
			if err := encodeValue(buf, v.Index(i)); err != nil {
				return err
			}
		}
		buf.WriteByte(']')
		return nil
	case reflect.Map:
		keys := v.MapKeys()
		strKeys := make([]string, len(keys))
		for i, k := range keys {
			strKeys[i] = fmt.Sprintf("%v", k.Interface())
		}
		order := make([]int, len(keys))
		for i := range order {
			order[i] = i
		}
		sort.Slice(order, func(a, b int) bool { return strKeys[order[a]] < strKeys[order[b]] })

		buf.WriteByte('{')
		for _, idx := range order {
			if err := encodeKey(buf, strKeys[idx]); err != nil {
				return err
			}
			if err := encodeValue(buf, v.MapIndex(keys[idx])); err != nil {
				return err
			}
		}
		buf.WriteByte('}')
		return nil
	case reflect.Struct:
		return encodeStruct(buf, v)
	default:
		return fmt.Errorf("ubjson: unsupported kind %s", v.Kind())
	}
}

func encodeStruct(buf *bytes.Buffer, v reflect.Value) error {
	buf.WriteByte('{')
	t := v.Type()
	for i := 0; i < t.NumField(); i++ {
		field := t.Field(i)
		if field.PkgPath != "" {
			continue // unexported
		}
		name, omitempty, skip := parseJSONTag(field)
		if skip {
			continue
		}
		fv := v.Field(i)
		if omitempty && isEmptyValue(fv) {
			continue
		}
		if err := encodeKey(buf, name); err != nil {
			return err
		}
		if err := encodeValue(buf, fv); err != nil {
			return err
		}
	}
	buf.WriteByte('}')
	return nil
}

func parseJSONTag(field reflect.StructField) (name string, omitempty bool, skip bool) {
	tag := field.Tag.Get("json")
	if tag == "-" {
		return "", false, true
	}
	name = field.Name
	if tag == "" {
		return name, false, false
	}
	parts := bytes.Split([]byte(tag), []byte(","))
	if len(parts[0]) > 0 {
		name = string(parts[0])
	}
	for _, p := range parts[1:] {
		if string(p) == "omitempty" {
			omitempty = true
		}
	}
	return name, omitempty, false
}

func isEmptyValue(v reflect.Value) bool {
	switch v.Kind() {
	case reflect.Ptr, reflect.Interface:
		return v.IsNil()
	case reflect.Slice, reflect.Map, reflect.Array:
		return v.Len() == 0
	case reflect.String:
		return v.Len() == 0
	case reflect.Bool:
		return !v.Bool()
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return v.Int() == 0
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return v.Uint() == 0
	case reflect.Float32, reflect.Float64:
		return v.Float() == 0
	}
	return false
}

func encodeKey(buf *bytes.Buffer, key string) error {
	if err := encodeLength(buf, len(key)); err != nil {
		return err
	}
	buf.WriteString(key)
	return nil
}

func encodeString(buf *bytes.Buffer, s string) error {
	buf.WriteByte('S')
	return encodeKey(buf, s)
}

// encodeLength writes the most compact integer marker+value UBJSON
// uses for string/object-key lengths and array counts.
func encodeLength(buf *bytes.Buffer, n int) error {
	return encodeInt(buf, int64(n))
}

func encodeInt(buf *bytes.Buffer, n int64) error {
	switch {
	case n >= math.MinInt8 && n <= math.MaxInt8:
		buf.WriteByte('i')
		buf.WriteByte(byte(int8(n)))
	case n >= 0 && n <= math.MaxUint8:
		buf.WriteByte('U')
		buf.WriteByte(byte(uint8(n)))
	case n >= math.MinInt16 && n <= math.MaxInt16:
		buf.WriteByte('I')
		binary.Write(buf, binary.BigEndian, int16(n))
	case n >= math.MinInt32 && n <= math.MaxInt32:
		buf.WriteByte('l')
		binary.Write(buf, binary.BigEndian, int32(n))
	default:
		buf.WriteByte('L')
		binary.Write(buf, binary.BigEndian, n)
	}
	return nil
}

func encodeFloat(buf *bytes.Buffer, f float64) error {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		buf.WriteByte('Z')
		return nil
	}
	if f == math.Trunc(f) && f >= math.MinInt32 && f <= math.MaxInt32 {
		return encodeInt(buf, int64(f))
	}
	if float64(float32(f)) == f {
		buf.WriteByte('d')
		return binary.Write(buf, binary.BigEndian, float32(f))
	}
	buf.WriteByte('D')
	return binary.Write(buf, binary.BigEndian, f)
}
