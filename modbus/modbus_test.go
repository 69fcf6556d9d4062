package modbus

import (
	"testing"
)

func TestFromRtu(t *testing.T) {
	pdu, err := FromRtu([]byte{0x1, 0x3, 0x2, 0x0, 0xeb, 0xf8, 0x0b})

	if err != nil {
		t.Fatalf("error %v", err)
	}

	if pdu.FunctionCode != 3 {
		t.Fatalf("got function %d, expected %d", pdu.FunctionCode, 3)
	}

	values, err := DecodeRegisters(pdu)
	if err != nil {
		t.Fatalf("error %v", err)
	}
	if len(values) != 1 || values[0] != 235 {
		t.Fatalf("got values %v", values)
	}

	if _, err = FromRtu([]byte{0x2, 0x3, 0x2, 0x0, 0xeb, 0xf8, 0x0b}); err == nil {
		t.Fatal("invalid crc passed")
	}

	if _, err = FromRtu([]byte{0x2, 0x3}); err == nil {
		t.Fatal("short frame passed")
	}
}

func TestRtuRoundTrip(t *testing.T) {
	req := ReadHoldingRegisters(1, 0x0001, 1)

	adu, err := req.MakeRtu()
	if err != nil {
		t.Fatalf("error %v", err)
	}
	if len(adu) != 8 {
		t.Fatalf("adu length %d", len(adu))
	}

	pdu, err := FromRtu(adu)
	if err != nil {
		t.Fatalf("error %v", err)
	}
	if pdu.SlaveId != 1 || pdu.FunctionCode != FuncCodeReadHoldingRegisters {
		t.Errorf("got %v", pdu)
	}
}

func TestTcpRoundTrip(t *testing.T) {
	req := ReadInputRegisters(3, 0x10, 2)

	adu := req.MakeTCP(77)

	trId, pdu, err := FromTCP(adu)
	if err != nil {
		t.Fatalf("error %v", err)
	}
	if trId != 77 {
		t.Errorf("tr_id %d", trId)
	}
	if pdu.SlaveId != 3 || pdu.FunctionCode != FuncCodeReadInputRegisters {
		t.Errorf("got %v", pdu)
	}

	if _, _, err := FromTCP(adu[:5]); err == nil {
		t.Error("short frame passed")
	}
}

func TestException(t *testing.T) {
	pdu := &ProtocolDataUnit{SlaveId: 1, FunctionCode: 0x83, Data: []byte{ExceptionCodeIllegalDataAddress}}

	if _, err := DecodeRegisters(pdu); err == nil {
		t.Fatal("exception not detected")
	}

	err := pdu.Exception()
	me, ok := err.(*ModbusError)
	if !ok {
		t.Fatalf("got %T", err)
	}
	if me.ExceptionCode != ExceptionCodeIllegalDataAddress {
		t.Errorf("code %d", me.ExceptionCode)
	}
}

func TestDecodeBits(t *testing.T) {
	pdu := &ProtocolDataUnit{SlaveId: 1, FunctionCode: FuncCodeReadCoils, Data: []byte{1, 0x05}}

	values, err := DecodeBits(pdu, 3)
	if err != nil {
		t.Fatalf("error %v", err)
	}

	for i, want := range []bool{true, false, true} {
		if values[i] != want {
			t.Errorf("bit %d: %v", i, values[i])
		}
	}

	if _, err := DecodeBits(pdu, 20); err == nil {
		t.Error("bit count over reply size passed")
	}
}
