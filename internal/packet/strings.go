package packet

import (
	"encoding/binary"
	"unicode/utf8"
)

// appendString appends an MQTT string (2-byte big-endian length prefix,
// UTF-8 bytes) to dst.
func appendString(dst []byte, s string) []byte {
	dst = binary.BigEndian.AppendUint16(dst, uint16(len(s)))
	return append(dst, s...)
}

// appendUint16 appends a big-endian uint16 to dst.
func appendUint16(dst []byte, v uint16) []byte {
	return binary.BigEndian.AppendUint16(dst, v)
}

// appendBinary appends an MQTT binary blob (2-byte big-endian length prefix,
// raw bytes) to dst. Used for the CONNECT will payload.
func appendBinary(dst []byte, b []byte) []byte {
	dst = binary.BigEndian.AppendUint16(dst, uint16(len(b)))
	return append(dst, b...)
}

// decodeString reads an MQTT string from the start of buf.
//
// buf must already be known to hold a complete packet (the caller slices to
// RemainingLength before calling any per-type decoder), so a short buffer
// here is a malformed packet, not an incomplete one.
func decodeString(buf []byte) (string, int, error) {
	if len(buf) < 2 {
		return "", 0, ErrInvalidString
	}
	n := int(binary.BigEndian.Uint16(buf))
	if len(buf) < 2+n {
		return "", 0, ErrInvalidString
	}
	b := buf[2 : 2+n]
	if !utf8.Valid(b) {
		return "", 0, ErrInvalidString
	}
	return string(b), 2 + n, nil
}

func decodeBinary(buf []byte) ([]byte, int, error) {
	if len(buf) < 2 {
		return nil, 0, ErrInvalidString
	}
	n := int(binary.BigEndian.Uint16(buf))
	if len(buf) < 2+n {
		return nil, 0, ErrInvalidString
	}
	return buf[2 : 2+n], 2 + n, nil
}
