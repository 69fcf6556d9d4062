package modbus

import (
	"testing"
	"time"

	"github.com/tbrandon/mbserver"
)

const testServerAddr = "127.0.0.1:15502"

func startTestServer(t *testing.T) *mbserver.Server {
	t.Helper()

	serv := mbserver.NewServer()
	if err := serv.ListenTCP(testServerAddr); err != nil {
		t.Fatalf("can't start server: %v", err)
	}
	t.Cleanup(serv.Close)
	return serv
}

func TestClientReadRegisters(t *testing.T) {
	serv := startTestServer(t)
	serv.HoldingRegisters[1] = 235
	serv.InputRegisters[16] = 0xbeef

	client := NewClient(NewTCP(testServerAddr, time.Second))
	defer client.Close()

	values, err := client.ReadHoldingRegisters(1, 1, 1)
	if err != nil {
		t.Fatalf("error %v", err)
	}
	if len(values) != 1 || values[0] != 235 {
		t.Fatalf("got %v", values)
	}

	values, err = client.ReadInputRegisters(1, 16, 1)
	if err != nil {
		t.Fatalf("error %v", err)
	}
	if values[0] != 0xbeef {
		t.Fatalf("got %v", values)
	}

	if !client.Transport().Connected() {
		t.Error("transport should stay connected between reads")
	}
}

func TestClientReadBits(t *testing.T) {
	serv := startTestServer(t)
	serv.Coils[7] = 1

	client := NewClient(NewTCP(testServerAddr, time.Second))
	defer client.Close()

	values, err := client.ReadCoils(1, 7, 1)
	if err != nil {
		t.Fatalf("error %v", err)
	}
	if !values[0] {
		t.Error("coil 7 should be on")
	}

	values, err = client.ReadDiscreteInputs(1, 7, 1)
	if err != nil {
		t.Fatalf("error %v", err)
	}
	if values[0] {
		t.Error("discrete input 7 should be off")
	}
}

func TestClientConnectFailure(t *testing.T) {
	client := NewClient(NewTCP("127.0.0.1:1", 200*time.Millisecond))
	defer client.Close()

	if _, err := client.ReadHoldingRegisters(1, 0, 1); err == nil {
		t.Fatal("read from unreachable endpoint passed")
	}
	if client.Transport().Connected() {
		t.Error("transport should not report connected")
	}
}
