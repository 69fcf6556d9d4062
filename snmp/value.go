package snmp

import (
	"fmt"
)

// Value is one protocol-native variable value.
type Value interface {
	// append writes the full TLV of the value to buf.
	append(buf []byte) ([]byte, error)
	String() string
}

// Integer is the Integer32 type.
type Integer int64

// OctetString is an opaque text value.
type OctetString string

// Gauge32 is a non-wrapping unsigned value.
type Gauge32 uint32

// Counter32 is a wrapping unsigned value.
type Counter32 uint32

// TimeTicks is elapsed time in centiseconds.
type TimeTicks uint32

// Null is the placeholder value carried by request varbinds.
type Null struct{}

// EndOfMibView marks an exhausted tree walk (v2c exception value).
type EndOfMibView struct{}

// ObjectID is an oid used in value position.
type ObjectID OID

// Unknown keeps the raw octets of a value type the codec does not model.
type Unknown struct {
	Tag byte
	Raw []byte
}

func (v Integer) append(buf []byte) ([]byte, error) {
	return appendInt(buf, tagInteger, int64(v)), nil
}

func (v OctetString) append(buf []byte) ([]byte, error) {
	return appendTLV(buf, tagOctetString, []byte(v)), nil
}

func (v Gauge32) append(buf []byte) ([]byte, error) {
	return appendUint(buf, tagGauge32, uint32(v)), nil
}

func (v Counter32) append(buf []byte) ([]byte, error) {
	return appendUint(buf, tagCounter32, uint32(v)), nil
}

func (v TimeTicks) append(buf []byte) ([]byte, error) {
	return appendUint(buf, tagTimeTicks, uint32(v)), nil
}

func (Null) append(buf []byte) ([]byte, error) {
	return appendTLV(buf, tagNull, nil), nil
}

func (EndOfMibView) append(buf []byte) ([]byte, error) {
	return appendTLV(buf, tagEndOfMibView, nil), nil
}

func (v ObjectID) append(buf []byte) ([]byte, error) {
	return appendOID(buf, OID(v))
}

func (v Unknown) append(buf []byte) ([]byte, error) {
	return appendTLV(buf, v.Tag, v.Raw), nil
}

func (v Integer) String() string     { return fmt.Sprintf("%d", int64(v)) }
func (v OctetString) String() string { return string(v) }
func (v Gauge32) String() string     { return fmt.Sprintf("%d", uint32(v)) }
func (v Counter32) String() string   { return fmt.Sprintf("%d", uint32(v)) }
func (v TimeTicks) String() string   { return fmt.Sprintf("%d", uint32(v)) }
func (Null) String() string          { return "null" }
func (EndOfMibView) String() string  { return "endOfMibView" }
func (v ObjectID) String() string    { return OID(v).String() }
func (v Unknown) String() string     { return fmt.Sprintf("unknown(%#x)", v.Tag) }

func decodeValue(tag byte, content []byte) (Value, error) {
	switch tag {
	case tagInteger:
		v, err := decodeInt(content)
		if err != nil {
			return nil, err
		}
		return Integer(v), nil
	case tagOctetString:
		return OctetString(content), nil
	case tagNull:
		return Null{}, nil
	case tagOID:
		oid, err := decodeOID(content)
		if err != nil {
			return nil, err
		}
		return ObjectID(oid), nil
	case tagGauge32:
		v, err := decodeUint(content)
		if err != nil {
			return nil, err
		}
		return Gauge32(v), nil
	case tagCounter32:
		v, err := decodeUint(content)
		if err != nil {
			return nil, err
		}
		return Counter32(v), nil
	case tagTimeTicks:
		v, err := decodeUint(content)
		if err != nil {
			return nil, err
		}
		return TimeTicks(v), nil
	case tagEndOfMibView:
		return EndOfMibView{}, nil
	default:
		raw := make([]byte, len(content))
		copy(raw, content)
		return Unknown{Tag: tag, Raw: raw}, nil
	}
}
