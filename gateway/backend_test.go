package gateway

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tbrandon/mbserver"

	"github.com/kvolkov/snmp_gate/modbus"
)

const backendTestAddr = "127.0.0.1:15503"

func startBackend(t *testing.T) (*mbserver.Server, *Backend) {
	t.Helper()

	serv := mbserver.NewServer()
	require.NoError(t, serv.ListenTCP(backendTestAddr))
	t.Cleanup(serv.Close)

	client := modbus.NewClient(modbus.NewTCP(backendTestAddr, time.Second))
	backend := NewBackendWithClient(client, nil)
	t.Cleanup(func() { backend.Close() })

	return serv, backend
}

func TestBackendReadRegisters(t *testing.T) {
	serv, backend := startBackend(t)
	serv.HoldingRegisters[1] = 235
	serv.InputRegisters[4] = 1200

	raw, err := backend.ReadRaw(&RegisterSpec{
		Unit: 1, Address: 1, Function: modbus.FuncCodeReadHoldingRegisters, DataType: Uint16,
	})
	require.NoError(t, err)
	assert.Equal(t, uint32(235), raw)

	raw, err = backend.ReadRaw(&RegisterSpec{
		Unit: 1, Address: 4, Function: modbus.FuncCodeReadInputRegisters, DataType: Uint16,
	})
	require.NoError(t, err)
	assert.Equal(t, uint32(1200), raw)

	assert.True(t, backend.Connected())
}

func TestBackendReadBits(t *testing.T) {
	serv, backend := startBackend(t)
	serv.Coils[3] = 1

	raw, err := backend.ReadRaw(&RegisterSpec{
		Unit: 1, Address: 3, Function: modbus.FuncCodeReadCoils, DataType: Uint16,
	})
	require.NoError(t, err)
	assert.Equal(t, uint32(1), raw)

	raw, err = backend.ReadRaw(&RegisterSpec{
		Unit: 1, Address: 3, Function: modbus.FuncCodeReadDiscreteInputs, DataType: Uint16,
	})
	require.NoError(t, err)
	assert.Equal(t, uint32(0), raw)
}

func TestBackendReadTwoWords(t *testing.T) {
	serv, backend := startBackend(t)

	// 100000 split high word first over two registers
	serv.HoldingRegisters[10] = 0x0001
	serv.HoldingRegisters[11] = 0x86a0

	raw, err := backend.ReadRaw(&RegisterSpec{
		Unit: 1, Address: 10, Function: modbus.FuncCodeReadHoldingRegisters, DataType: Uint32,
	})
	require.NoError(t, err)
	assert.Equal(t, uint32(100000), raw)
}

func TestBackendReadFloat32(t *testing.T) {
	serv, backend := startBackend(t)

	bits := math.Float32bits(23.5)
	serv.HoldingRegisters[20] = uint16(bits >> 16)
	serv.HoldingRegisters[21] = uint16(bits)

	raw, err := backend.ReadRaw(&RegisterSpec{
		Unit: 1, Address: 20, Function: modbus.FuncCodeReadHoldingRegisters, DataType: Float32,
	})
	require.NoError(t, err)

	got := convertRaw(raw, Float32)
	require.True(t, got.isFloat)
	assert.InDelta(t, 23.5, got.f, 1e-6)
}

func TestBackendUnreachable(t *testing.T) {
	client := modbus.NewClient(modbus.NewTCP("127.0.0.1:1", 200*time.Millisecond))
	backend := NewBackendWithClient(client, nil)
	defer backend.Close()

	_, err := backend.ReadRaw(&RegisterSpec{
		Unit: 1, Address: 0, Function: modbus.FuncCodeReadHoldingRegisters, DataType: Uint16,
	})
	require.Error(t, err)
	assert.False(t, backend.Connected())
}

func TestBackendUnknownFunction(t *testing.T) {
	backend := NewBackendWithClient(modbus.NewClient(modbus.NewTCP(backendTestAddr, time.Second)), nil)
	defer backend.Close()

	_, err := backend.ReadRaw(&RegisterSpec{Unit: 1, Address: 0, Function: 0x10, DataType: Uint16})
	assert.Error(t, err)
}
