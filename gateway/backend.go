package gateway

import (
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/kvolkov/snmp_gate/config"
	"github.com/kvolkov/snmp_gate/modbus"
)

// Backend owns the single connection to the configured device and turns
// register specs into raw values. The underlying transport connects lazily
// on the first read and reconnects after a failure; access is serialized
// because the modbus link can carry only one transaction at a time.
type Backend struct {
	client *modbus.Client
	logger *zap.SugaredLogger

	mu sync.Mutex
}

// NewBackend builds the transport for the configured backend kind.
func NewBackend(cfg *config.ModbusConfig, logger *zap.SugaredLogger) (*Backend, error) {
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}

	var tr modbus.Transport
	switch cfg.Kind {
	case config.BackendTCP:
		t := modbus.NewTCP(cfg.TCP.Addr(), cfg.TCP.Timeout)
		t.Logger = logger.Named("tcp")
		tr = t
	case config.BackendRTU:
		s := modbus.NewSerial(cfg.RTU.Device, cfg.RTU.BaudRate, cfg.RTU.DataBits, cfg.RTU.StopBits,
			cfg.RTU.Parity, cfg.RTU.Timeout)
		s.Logger = logger.Named("serial")
		tr = s
	default:
		return nil, fmt.Errorf("gateway: unknown backend kind %q", cfg.Kind)
	}

	return &Backend{client: modbus.NewClient(tr), logger: logger}, nil
}

// NewBackendWithClient wires an existing client, used by tests.
func NewBackendWithClient(client *modbus.Client, logger *zap.SugaredLogger) *Backend {
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	return &Backend{client: client, logger: logger}
}

func (b *Backend) Connected() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.client.Transport().Connected()
}

func (b *Backend) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.client.Close()
}

// ReadRaw reads one value. Bit selectors yield 0/1; 32-bit and float types
// span two consecutive registers combined high word first.
func (b *Backend) ReadRaw(spec *RegisterSpec) (uint32, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	switch spec.Function {
	case modbus.FuncCodeReadCoils:
		bits, err := b.client.ReadCoils(spec.Unit, spec.Address, 1)
		if err != nil {
			return 0, err
		}
		return bitValue(bits)
	case modbus.FuncCodeReadDiscreteInputs:
		bits, err := b.client.ReadDiscreteInputs(spec.Unit, spec.Address, 1)
		if err != nil {
			return 0, err
		}
		return bitValue(bits)
	case modbus.FuncCodeReadHoldingRegisters:
		values, err := b.client.ReadHoldingRegisters(spec.Unit, spec.Address, spec.DataType.Words())
		if err != nil {
			return 0, err
		}
		return wordValue(values, spec.DataType)
	case modbus.FuncCodeReadInputRegisters:
		values, err := b.client.ReadInputRegisters(spec.Unit, spec.Address, spec.DataType.Words())
		if err != nil {
			return 0, err
		}
		return wordValue(values, spec.DataType)
	default:
		return 0, fmt.Errorf("gateway: unsupported function code %d", spec.Function)
	}
}

func bitValue(bits []bool) (uint32, error) {
	if len(bits) < 1 {
		return 0, fmt.Errorf("gateway: empty bit reply")
	}
	if bits[0] {
		return 1, nil
	}
	return 0, nil
}

func wordValue(values []uint16, dataType DataType) (uint32, error) {
	if int(dataType.Words()) > len(values) {
		return 0, fmt.Errorf("gateway: got %d registers, need %d", len(values), dataType.Words())
	}
	if dataType.Words() == 2 {
		return uint32(values[0])<<16 | uint32(values[1]), nil
	}
	return uint32(values[0]), nil
}
