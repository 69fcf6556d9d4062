package snmp

import (
	"fmt"
)

// ASN.1 BER universal tags used by SNMPv1/v2c messages.
const (
	tagInteger     = 0x02
	tagOctetString = 0x04
	tagNull        = 0x05
	tagOID         = 0x06
	tagSequence    = 0x30

	tagIPAddress = 0x40
	tagCounter32 = 0x41
	tagGauge32   = 0x42
	tagTimeTicks = 0x43

	tagNoSuchObject   = 0x80
	tagNoSuchInstance = 0x81
	tagEndOfMibView   = 0x82
)

func appendLength(buf []byte, n int) []byte {
	if n < 0x80 {
		return append(buf, byte(n))
	}
	if n <= 0xff {
		return append(buf, 0x81, byte(n))
	}
	if n <= 0xffff {
		return append(buf, 0x82, byte(n>>8), byte(n))
	}
	return append(buf, 0x83, byte(n>>16), byte(n>>8), byte(n))
}

func appendTLV(buf []byte, tag byte, content []byte) []byte {
	buf = append(buf, tag)
	buf = appendLength(buf, len(content))
	return append(buf, content...)
}

// appendInt encodes a signed integer in the minimal two's complement form.
func appendInt(buf []byte, tag byte, v int64) []byte {
	n := 1
	for x := v; x > 127; x >>= 8 {
		n++
	}
	for x := v; x < -128; x >>= 8 {
		n++
	}
	content := make([]byte, n)
	for i := 0; i < n; i++ {
		content[n-1-i] = byte(v >> (uint(i) * 8))
	}
	return appendTLV(buf, tag, content)
}

// appendUint encodes an unsigned 32-bit value, with a leading zero octet
// when the high bit would otherwise flag it negative.
func appendUint(buf []byte, tag byte, v uint32) []byte {
	content := make([]byte, 0, 5)
	started := false
	for i := 3; i >= 0; i-- {
		b := byte(v >> (uint(i) * 8))
		if b != 0 {
			started = true
		}
		if started || i == 0 {
			content = append(content, b)
		}
	}
	if content[0]&0x80 != 0 {
		content = append([]byte{0}, content...)
	}
	return appendTLV(buf, tag, content)
}

func appendOID(buf []byte, oid OID) ([]byte, error) {
	if len(oid) < 2 {
		return nil, fmt.Errorf("snmp: oid needs at least two components, got %v", oid)
	}
	if oid[0] > 2 || oid[1] > 39 {
		return nil, fmt.Errorf("snmp: bad leading oid arcs %d.%d", oid[0], oid[1])
	}
	content := []byte{byte(oid[0]*40 + oid[1])}
	for _, arc := range oid[2:] {
		content = appendBase128(content, arc)
	}
	return appendTLV(buf, tagOID, content), nil
}

func appendBase128(buf []byte, v uint32) []byte {
	if v == 0 {
		return append(buf, 0)
	}
	var tmp [5]byte
	n := 0
	for v > 0 {
		tmp[n] = byte(v & 0x7f)
		v >>= 7
		n++
	}
	for i := n - 1; i >= 0; i-- {
		b := tmp[i]
		if i > 0 {
			b |= 0x80
		}
		buf = append(buf, b)
	}
	return buf
}

// readTLV splits one tag-length-value triple off data.
func readTLV(data []byte) (tag byte, content, rest []byte, err error) {
	if len(data) < 2 {
		err = fmt.Errorf("snmp: truncated tlv")
		return
	}
	tag = data[0]
	length := int(data[1])
	offset := 2

	if length&0x80 != 0 {
		numBytes := length & 0x7f
		if numBytes == 0 || numBytes > 3 {
			err = fmt.Errorf("snmp: unsupported length form %#x", data[1])
			return
		}
		if len(data) < 2+numBytes {
			err = fmt.Errorf("snmp: truncated length")
			return
		}
		length = 0
		for i := 0; i < numBytes; i++ {
			length = length<<8 | int(data[2+i])
		}
		offset = 2 + numBytes
	}

	if len(data) < offset+length {
		err = fmt.Errorf("snmp: value length %d exceeds message size", length)
		return
	}
	content = data[offset : offset+length]
	rest = data[offset+length:]
	return
}

func decodeInt(content []byte) (int64, error) {
	if len(content) == 0 || len(content) > 8 {
		return 0, fmt.Errorf("snmp: bad integer length %d", len(content))
	}
	v := int64(0)
	if content[0]&0x80 != 0 {
		v = -1
	}
	for _, b := range content {
		v = v<<8 | int64(b)
	}
	return v, nil
}

func decodeUint(content []byte) (uint32, error) {
	if len(content) == 0 || len(content) > 5 {
		return 0, fmt.Errorf("snmp: bad unsigned length %d", len(content))
	}
	if len(content) == 5 && content[0] != 0 {
		return 0, fmt.Errorf("snmp: unsigned value overflows 32 bits")
	}
	v := uint64(0)
	for _, b := range content {
		v = v<<8 | uint64(b)
	}
	return uint32(v), nil
}

func decodeOID(content []byte) (OID, error) {
	if len(content) == 0 {
		return nil, fmt.Errorf("snmp: empty oid content")
	}
	oid := make(OID, 0, len(content)+1)
	oid = append(oid, uint32(content[0])/40, uint32(content[0])%40)

	var arc uint32
	inArc := false
	for _, b := range content[1:] {
		arc = arc<<7 | uint32(b&0x7f)
		if b&0x80 == 0 {
			oid = append(oid, arc)
			arc = 0
			inArc = false
		} else {
			inArc = true
		}
	}
	if inArc {
		return nil, fmt.Errorf("snmp: truncated oid arc")
	}
	return oid, nil
}
