package modbus

import (
	"encoding/binary"
	"fmt"
)

const (
	FuncCodeReadCoils            = 1
	FuncCodeReadDiscreteInputs   = 2
	FuncCodeReadHoldingRegisters = 3
	FuncCodeReadInputRegisters   = 4

	ExceptionCodeIllegalFunction                    = 1
	ExceptionCodeIllegalDataAddress                 = 2
	ExceptionCodeIllegalDataValue                   = 3
	ExceptionCodeServerDeviceFailure                = 4
	ExceptionCodeAcknowledge                        = 5
	ExceptionCodeServerDeviceBusy                   = 6
	ExceptionCodeMemoryParityError                  = 8
	ExceptionCodeGatewayPathUnavailable             = 10
	ExceptionCodeGatewayTargetDeviceFailedToRespond = 11

	rtuMinSize       = 4
	rtuMaxSize       = 256
	rtuExceptionSize = 5

	tcpHeaderSize = 7
	tcpMaxLength  = 260
)

// ModbusError is an exception reply from the device.
type ModbusError struct {
	FunctionCode  byte
	ExceptionCode byte
}

func (e *ModbusError) Error() string {
	var name string
	switch e.ExceptionCode {
	case ExceptionCodeIllegalFunction:
		name = "illegal function"
	case ExceptionCodeIllegalDataAddress:
		name = "illegal data address"
	case ExceptionCodeIllegalDataValue:
		name = "illegal data value"
	case ExceptionCodeServerDeviceFailure:
		name = "server device failure"
	case ExceptionCodeServerDeviceBusy:
		name = "server device busy"
	case ExceptionCodeGatewayPathUnavailable:
		name = "gateway path unavailable"
	case ExceptionCodeGatewayTargetDeviceFailedToRespond:
		name = "gateway target device failed to respond"
	default:
		name = "unknown"
	}
	return fmt.Sprintf("modbus: exception %d (%s), function %#.2x", e.ExceptionCode, name, e.FunctionCode&0x7f)
}

type ProtocolDataUnit struct {
	SlaveId      byte
	FunctionCode byte
	Data         []byte
}

func (pdu *ProtocolDataUnit) String() string {
	var name string

	switch pdu.FunctionCode {
	case FuncCodeReadCoils:
		name = fmt.Sprintf("read coils, addr %#x, num %d", binary.BigEndian.Uint16(pdu.Data[0:]), binary.BigEndian.Uint16(pdu.Data[2:]))
	case FuncCodeReadDiscreteInputs:
		name = fmt.Sprintf("read discrete inputs, addr %#x, num %d", binary.BigEndian.Uint16(pdu.Data[0:]), binary.BigEndian.Uint16(pdu.Data[2:]))
	case FuncCodeReadHoldingRegisters:
		name = fmt.Sprintf("read holding registers, addr %#x, num %d", binary.BigEndian.Uint16(pdu.Data[0:]), binary.BigEndian.Uint16(pdu.Data[2:]))
	case FuncCodeReadInputRegisters:
		name = fmt.Sprintf("read input registers, addr %#x, num %d", binary.BigEndian.Uint16(pdu.Data[0:]), binary.BigEndian.Uint16(pdu.Data[2:]))
	default:
		name = "unknown"
	}

	return fmt.Sprintf("id: %d, fn: %#.2x %s", pdu.SlaveId, pdu.FunctionCode, name)
}

// Exception returns the device error carried by a reply pdu, if any.
func (pdu *ProtocolDataUnit) Exception() error {
	if pdu.FunctionCode&0x80 == 0 {
		return nil
	}
	if len(pdu.Data) == 0 {
		return fmt.Errorf("modbus: exception reply without a code")
	}
	return &ModbusError{FunctionCode: pdu.FunctionCode, ExceptionCode: pdu.Data[0]}
}

func readRequest(slaveId byte, functionCode byte, addr, count uint16) *ProtocolDataUnit {
	data := make([]byte, 4)
	binary.BigEndian.PutUint16(data, addr)
	binary.BigEndian.PutUint16(data[2:], count)
	return &ProtocolDataUnit{SlaveId: slaveId, FunctionCode: functionCode, Data: data}
}

func ReadCoils(slaveId byte, addr, count uint16) *ProtocolDataUnit {
	return readRequest(slaveId, FuncCodeReadCoils, addr, count)
}

func ReadDiscreteInputs(slaveId byte, addr, count uint16) *ProtocolDataUnit {
	return readRequest(slaveId, FuncCodeReadDiscreteInputs, addr, count)
}

func ReadHoldingRegisters(slaveId byte, addr, count uint16) *ProtocolDataUnit {
	return readRequest(slaveId, FuncCodeReadHoldingRegisters, addr, count)
}

func ReadInputRegisters(slaveId byte, addr, count uint16) *ProtocolDataUnit {
	return readRequest(slaveId, FuncCodeReadInputRegisters, addr, count)
}

// DecodeRegisters parses a register read reply into word values.
func DecodeRegisters(pdu *ProtocolDataUnit) ([]uint16, error) {
	if err := pdu.Exception(); err != nil {
		return nil, err
	}
	if len(pdu.Data) == 0 {
		return nil, fmt.Errorf("modbus: empty reply")
	}
	size := int(pdu.Data[0])
	if size%2 != 0 || len(pdu.Data) < 1+size {
		return nil, fmt.Errorf("modbus: reply claims %d bytes, has %d", size, len(pdu.Data)-1)
	}

	values := make([]uint16, size/2)
	for i := range values {
		values[i] = binary.BigEndian.Uint16(pdu.Data[1+2*i:])
	}
	return values, nil
}

// DecodeBits parses a coil or discrete input read reply.
func DecodeBits(pdu *ProtocolDataUnit, count uint16) ([]bool, error) {
	if err := pdu.Exception(); err != nil {
		return nil, err
	}
	if len(pdu.Data) == 0 {
		return nil, fmt.Errorf("modbus: empty reply")
	}
	size := int(pdu.Data[0])
	if len(pdu.Data) < 1+size || int(count) > size*8 {
		return nil, fmt.Errorf("modbus: reply claims %d bytes for %d bits", size, count)
	}

	values := make([]bool, count)
	for i := range values {
		values[i] = pdu.Data[1+i/8]&(1<<(uint(i)&7)) != 0
	}
	return values, nil
}

func (pdu *ProtocolDataUnit) MakeRtu() (adu []byte, err error) {
	length := len(pdu.Data) + 4
	if length > rtuMaxSize {
		err = fmt.Errorf("modbus: length of data '%v' must not be bigger than '%v'", length, rtuMaxSize)
		return
	}
	adu = make([]byte, length)

	adu[0] = pdu.SlaveId
	adu[1] = pdu.FunctionCode
	copy(adu[2:], pdu.Data)

	var crc crc
	crc.reset().pushBytes(adu[0 : length-2])
	checksum := crc.value()

	adu[length-1] = byte(checksum >> 8)
	adu[length-2] = byte(checksum)
	return
}

func FromRtu(adu []byte) (pdu *ProtocolDataUnit, err error) {
	length := len(adu)
	if length < rtuMinSize {
		err = fmt.Errorf("modbus: frame of %d bytes is too short", length)
		return
	}

	var crc crc
	crc.reset().pushBytes(adu[0 : length-2])
	checksum := uint16(adu[length-1])<<8 | uint16(adu[length-2])

	if checksum != crc.value() {
		err = fmt.Errorf("modbus: response crc '%v' does not match expected '%v'", checksum, crc.value())
		return
	}

	pdu = &ProtocolDataUnit{}
	pdu.SlaveId = adu[0]
	pdu.FunctionCode = adu[1]
	pdu.Data = adu[2 : length-2]
	return
}

func (pdu *ProtocolDataUnit) MakeTCP(transactionId uint16) (adu []byte) {
	adu = make([]byte, tcpHeaderSize+1+len(pdu.Data))

	// Transaction identifier
	binary.BigEndian.PutUint16(adu, transactionId)
	// Protocol identifier
	binary.BigEndian.PutUint16(adu[2:], 0)
	// Length = sizeof(SlaveId) + sizeof(FunctionCode) + Data
	length := uint16(1 + 1 + len(pdu.Data))
	binary.BigEndian.PutUint16(adu[4:], length)
	adu[6] = pdu.SlaveId
	adu[7] = pdu.FunctionCode
	copy(adu[8:], pdu.Data)
	return
}

func FromTCP(adu []byte) (transactionId uint16, pdu *ProtocolDataUnit, err error) {
	if len(adu) < tcpHeaderSize+1 {
		err = fmt.Errorf("modbus: frame of %d bytes is too short", len(adu))
		return
	}
	transactionId = binary.BigEndian.Uint16(adu)
	// Read length value in the header
	length := binary.BigEndian.Uint16(adu[4:])
	pduLength := len(adu) - tcpHeaderSize

	if pduLength <= 0 || pduLength != int(length-1) {
		err = fmt.Errorf("modbus: length in response '%v' does not match pdu data length '%v'", length-1, pduLength)
		return
	}

	pdu = &ProtocolDataUnit{}
	pdu.SlaveId = adu[6]
	pdu.FunctionCode = adu[tcpHeaderSize]
	pdu.Data = adu[tcpHeaderSize+1:]
	return
}
