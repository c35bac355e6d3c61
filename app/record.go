package main

import (
	"encoding/binary"
	"math"
	"unicode/utf8"
)

// Serial type constants for the record format
const (
	SerialTypeNull    = 0
	SerialTypeInt8    = 1
	SerialTypeInt16   = 2
	SerialTypeInt24   = 3
	SerialTypeInt32   = 4
	SerialTypeInt48   = 5
	SerialTypeInt64   = 6
	SerialTypeFloat64 = 7
	SerialTypeZero    = 8 // schema format 4+
	SerialTypeOne     = 9 // schema format 4+
	// SerialType >= 12 and even: BLOB with (N-12)/2 bytes
	// SerialType >= 13 and odd: TEXT with (N-13)/2 bytes
)

// parseRecord decodes a record payload into its ordered column values.
// The payload starts with a varint giving the total header length (the
// header includes that varint), followed by one serial-type varint per
// column, followed by the packed column bodies.
func parseRecord(payload []byte) ([]Value, error) {
	headerSize, n, err := readVarint(payload)
	if err != nil {
		return nil, NewDatabaseError("parse_record_header", err, nil)
	}
	if headerSize < uint64(n) || headerSize > uint64(len(payload)) {
		return nil, NewDatabaseError("parse_record_header", ErrInvalidRecord, map[string]interface{}{
			"header_size":  headerSize,
			"payload_size": len(payload),
		})
	}

	var serialTypes []uint64
	offset := n
	for offset < int(headerSize) {
		serialType, m, err := readVarint(payload[offset:int(headerSize)])
		if err != nil {
			return nil, NewDatabaseError("parse_serial_type", err, map[string]interface{}{
				"header_offset": offset,
			})
		}
		serialTypes = append(serialTypes, serialType)
		offset += m
	}

	values := make([]Value, 0, len(serialTypes))
	body := payload[headerSize:]
	bodyOffset := 0
	for i, serialType := range serialTypes {
		value, consumed, err := decodeSerialValue(serialType, body[bodyOffset:])
		if err != nil {
			return nil, NewDatabaseError("decode_column", err, map[string]interface{}{
				"column_index": i,
				"serial_type":  serialType,
			})
		}
		values = append(values, value)
		bodyOffset += consumed
	}

	return values, nil
}

// decodeSerialValue decodes a single column from the record body according
// to its serial type, returning the value and the bytes consumed.
// Integer widths 24 and 48 are sign-extended to 64 bits.
func decodeSerialValue(serialType uint64, body []byte) (Value, int, error) {
	switch {
	case serialType >= 12 && serialType%2 == 0:
		length := int((serialType - 12) / 2)
		if len(body) < length {
			return Value{}, 0, ErrInsufficientData
		}
		return BlobValue(body[:length]), length, nil
	case serialType >= 13:
		length := int((serialType - 13) / 2)
		if len(body) < length {
			return Value{}, 0, ErrInsufficientData
		}
		if !utf8.Valid(body[:length]) {
			return Value{}, 0, ErrInvalidRecord
		}
		return TextValue(string(body[:length])), length, nil
	}

	switch serialType {
	case SerialTypeNull:
		return NullValue(), 0, nil
	case SerialTypeInt8:
		if len(body) < 1 {
			return Value{}, 0, ErrInsufficientData
		}
		return IntValue(int64(int8(body[0]))), 1, nil
	case SerialTypeInt16:
		if len(body) < 2 {
			return Value{}, 0, ErrInsufficientData
		}
		return IntValue(int64(int16(binary.BigEndian.Uint16(body)))), 2, nil
	case SerialTypeInt24:
		if len(body) < 3 {
			return Value{}, 0, ErrInsufficientData
		}
		v := int64(body[0])<<16 | int64(body[1])<<8 | int64(body[2])
		if v&0x800000 != 0 {
			v -= 1 << 24
		}
		return IntValue(v), 3, nil
	case SerialTypeInt32:
		if len(body) < 4 {
			return Value{}, 0, ErrInsufficientData
		}
		return IntValue(int64(int32(binary.BigEndian.Uint32(body)))), 4, nil
	case SerialTypeInt48:
		if len(body) < 6 {
			return Value{}, 0, ErrInsufficientData
		}
		v := int64(binary.BigEndian.Uint32(body))<<16 | int64(binary.BigEndian.Uint16(body[4:]))
		if v&0x800000000000 != 0 {
			v -= 1 << 48
		}
		return IntValue(v), 6, nil
	case SerialTypeInt64:
		if len(body) < 8 {
			return Value{}, 0, ErrInsufficientData
		}
		return IntValue(int64(binary.BigEndian.Uint64(body))), 8, nil
	case SerialTypeFloat64:
		if len(body) < 8 {
			return Value{}, 0, ErrInsufficientData
		}
		return FloatValue(math.Float64frombits(binary.BigEndian.Uint64(body))), 8, nil
	case SerialTypeZero:
		return IntValue(0), 0, nil
	case SerialTypeOne:
		return IntValue(1), 0, nil
	default:
		// 10 and 11 are reserved
		return Value{}, 0, ErrReservedSerialType
	}
}
