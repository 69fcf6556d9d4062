package snmp

import (
	"fmt"
)

// Protocol versions carried in the message header.
const (
	Version1  = 0
	Version2c = 1
)

// PDU type tags.
const (
	TagGetRequest     = 0xa0
	TagGetNextRequest = 0xa1
	TagGetResponse    = 0xa2
	TagSetRequest     = 0xa3
	TagGetBulkRequest = 0xa5
)

// Error status codes.
const (
	NoError    = 0
	TooBig     = 1
	NoSuchName = 2
	BadValue   = 3
	ReadOnly   = 4
	GenErr     = 5
)

// VarBind is one (name, value) pair of a PDU.
type VarBind struct {
	Name  OID
	Value Value
}

// Message is a decoded SNMPv1/v2c message with a single PDU.
type Message struct {
	Version     int
	Community   string
	PDUType     byte
	RequestID   int32
	ErrorStatus int
	ErrorIndex  int
	VarBinds    []VarBind
}

func (m *Message) String() string {
	var kind string
	switch m.PDUType {
	case TagGetRequest:
		kind = "get"
	case TagGetNextRequest:
		kind = "getnext"
	case TagGetResponse:
		kind = "response"
	case TagSetRequest:
		kind = "set"
	case TagGetBulkRequest:
		kind = "getbulk"
	default:
		kind = fmt.Sprintf("pdu(%#x)", m.PDUType)
	}
	return fmt.Sprintf("v%d %s req_id %d, %d varbinds", m.Version+1, kind, m.RequestID, len(m.VarBinds))
}

// Response builds the reply skeleton for a request: same version, community
// and request id, response type, clean status and no varbinds.
func (m *Message) Response() *Message {
	return &Message{
		Version:   m.Version,
		Community: m.Community,
		PDUType:   TagGetResponse,
		RequestID: m.RequestID,
	}
}

// Decode parses one datagram. Unsupported versions and malformed octets are
// errors; the PDU type is decoded as-is and judged by the caller.
func Decode(data []byte) (*Message, error) {
	tag, content, _, err := readTLV(data)
	if err != nil {
		return nil, err
	}
	if tag != tagSequence {
		return nil, fmt.Errorf("snmp: message is not a sequence (tag %#x)", tag)
	}

	tag, verContent, rest, err := readTLV(content)
	if err != nil {
		return nil, err
	}
	if tag != tagInteger {
		return nil, fmt.Errorf("snmp: bad version field (tag %#x)", tag)
	}
	version, err := decodeInt(verContent)
	if err != nil {
		return nil, err
	}
	if version != Version1 && version != Version2c {
		return nil, fmt.Errorf("snmp: unsupported version %d", version)
	}

	tag, community, rest, err := readTLV(rest)
	if err != nil {
		return nil, err
	}
	if tag != tagOctetString {
		return nil, fmt.Errorf("snmp: bad community field (tag %#x)", tag)
	}

	pduTag, pduContent, _, err := readTLV(rest)
	if err != nil {
		return nil, err
	}
	if pduTag < TagGetRequest || pduTag > TagGetBulkRequest {
		return nil, fmt.Errorf("snmp: bad pdu tag %#x", pduTag)
	}

	msg := &Message{
		Version:   int(version),
		Community: string(community),
		PDUType:   pduTag,
	}

	tag, reqContent, rest, err := readTLV(pduContent)
	if err != nil {
		return nil, err
	}
	if tag != tagInteger {
		return nil, fmt.Errorf("snmp: bad request-id field (tag %#x)", tag)
	}
	reqID, err := decodeInt(reqContent)
	if err != nil {
		return nil, err
	}
	msg.RequestID = int32(reqID)

	tag, errStat, rest, err := readTLV(rest)
	if err != nil {
		return nil, err
	}
	if tag != tagInteger {
		return nil, fmt.Errorf("snmp: bad error-status field (tag %#x)", tag)
	}
	status, err := decodeInt(errStat)
	if err != nil {
		return nil, err
	}
	msg.ErrorStatus = int(status)

	tag, errIdx, rest, err := readTLV(rest)
	if err != nil {
		return nil, err
	}
	if tag != tagInteger {
		return nil, fmt.Errorf("snmp: bad error-index field (tag %#x)", tag)
	}
	index, err := decodeInt(errIdx)
	if err != nil {
		return nil, err
	}
	msg.ErrorIndex = int(index)

	tag, bindings, _, err := readTLV(rest)
	if err != nil {
		return nil, err
	}
	if tag != tagSequence {
		return nil, fmt.Errorf("snmp: varbind list is not a sequence (tag %#x)", tag)
	}

	for len(bindings) > 0 {
		var vb []byte
		tag, vb, bindings, err = readTLV(bindings)
		if err != nil {
			return nil, err
		}
		if tag != tagSequence {
			return nil, fmt.Errorf("snmp: varbind is not a sequence (tag %#x)", tag)
		}

		tag, oidContent, valRest, err := readTLV(vb)
		if err != nil {
			return nil, err
		}
		if tag != tagOID {
			return nil, fmt.Errorf("snmp: varbind name is not an oid (tag %#x)", tag)
		}
		name, err := decodeOID(oidContent)
		if err != nil {
			return nil, err
		}

		tag, valContent, _, err := readTLV(valRest)
		if err != nil {
			return nil, err
		}
		value, err := decodeValue(tag, valContent)
		if err != nil {
			return nil, err
		}

		msg.VarBinds = append(msg.VarBinds, VarBind{Name: name, Value: value})
	}

	return msg, nil
}

// Encode serializes the message into one datagram.
func (m *Message) Encode() ([]byte, error) {
	var bindings []byte
	for _, vb := range m.VarBinds {
		name, err := appendOID(nil, vb.Name)
		if err != nil {
			return nil, err
		}
		value := vb.Value
		if value == nil {
			value = Null{}
		}
		pair, err := value.append(name)
		if err != nil {
			return nil, err
		}
		bindings = appendTLV(bindings, tagSequence, pair)
	}

	pdu := appendInt(nil, tagInteger, int64(m.RequestID))
	pdu = appendInt(pdu, tagInteger, int64(m.ErrorStatus))
	pdu = appendInt(pdu, tagInteger, int64(m.ErrorIndex))
	pdu = appendTLV(pdu, tagSequence, bindings)

	body := appendInt(nil, tagInteger, int64(m.Version))
	body = appendTLV(body, tagOctetString, []byte(m.Community))
	body = appendTLV(body, m.PDUType, pdu)

	return appendTLV(nil, tagSequence, body), nil
}
