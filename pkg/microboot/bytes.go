package microboot

// ByteValue coerces a caller-supplied value into a byte slice. The
// original tooling's makeArray tolerated ints, strings or sequences;
// here the boundary is explicit: callers normally pass []byte directly,
// and this constructor exists for the convenience shapes that arrive
// as plain ints instead — such as pkg/gencmd's CLI-supplied block size,
// which must fit in the wire format's single-byte BlockSize field
// before any command is generated from it.
func ByteValue(v interface{}) ([]byte, error) {
	switch t := v.(type) {
	case []byte:
		return t, nil
	case byte:
		return []byte{t}, nil
	case int:
		if t < 0 || t > 255 {
			return nil, newErr(KindRange, "byte value out of range (%d)", t)
		}
		return []byte{byte(t)}, nil
	default:
		return nil, newErr(KindRange, "value cannot be interpreted as bytes (%T)", v)
	}
}
