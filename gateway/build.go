package gateway

import (
	"fmt"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/kvolkov/snmp_gate/config"
	"github.com/kvolkov/snmp_gate/modbus"
	"github.com/kvolkov/snmp_gate/snmp"
)

// BuildRegistry turns the validated configuration into the ordered registry.
// The uptime entries capture started as their birth time.
func BuildRegistry(cfg *config.Config, reader Reader, started time.Time, logger *zap.SugaredLogger, metrics *Metrics) (*Registry, error) {
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}

	offsetMinutes, err := config.ParseTimezoneOffset(cfg.SNMP.TimezoneOffset)
	if err != nil {
		return nil, err
	}

	handlers := make([]Handler, 0, len(cfg.SystemOIDs)+len(cfg.ModbusOIDs))

	for i := range cfg.SystemOIDs {
		h, err := buildSystemHandler(&cfg.SystemOIDs[i], started, offsetMinutes)
		if err != nil {
			return nil, err
		}
		logger.Infof("register %s -> %s (%s)", h.OID(), h.Describe(), cfg.SystemOIDs[i].Type)
		handlers = append(handlers, h)
	}

	for i := range cfg.ModbusOIDs {
		h, err := buildModbusHandler(&cfg.ModbusOIDs[i], cfg.SNMP.ErrorValue, reader, logger)
		if err != nil {
			return nil, err
		}
		h.SetMetrics(metrics)
		if h.spec != nil {
			logger.Infof("register %s -> %s (unit %d, register %#x, function %s)",
				h.OID(), h.Describe(), h.spec.Unit, h.spec.Address, cfg.ModbusOIDs[i].Register.Function)
		} else {
			logger.Infof("register %s -> %s (communication status)", h.OID(), h.Describe())
		}
		handlers = append(handlers, h)
	}

	return NewRegistry(handlers)
}

func buildSystemHandler(decl *config.SystemOID, started time.Time, offsetMinutes int) (Handler, error) {
	oid, err := snmp.ParseOID(decl.OID)
	if err != nil {
		return nil, err
	}

	switch decl.Type {
	case config.SystemUptime:
		return NewUptimeHandler(oid, decl.Description, started), nil
	case config.SystemUTCTime:
		return NewUTCTimeHandler(oid, decl.Description, offsetMinutes), nil
	case config.SystemFixed:
		var value snmp.Value
		switch decl.SNMPType {
		case "Integer", "Integer32":
			n, err := strconv.ParseInt(decl.Value, 10, 64)
			if err != nil {
				return nil, fmt.Errorf("gateway: system oid %s: %w", decl.OID, err)
			}
			value = snmp.Integer(n)
		default:
			value = snmp.OctetString(decl.Value)
		}
		return NewFixedHandler(oid, decl.Description, value), nil
	default:
		return nil, fmt.Errorf("gateway: system oid %s: unknown type %q", decl.OID, decl.Type)
	}
}

func buildModbusHandler(decl *config.ModbusOID, errorValue int64, reader Reader, logger *zap.SugaredLogger) (*ModbusHandler, error) {
	oid, err := snmp.ParseOID(decl.OID)
	if err != nil {
		return nil, err
	}

	kind, err := parseValueKind(decl.SNMPType)
	if err != nil {
		return nil, fmt.Errorf("gateway: oid %s: %w", decl.OID, err)
	}

	processing, err := parseProcessing(&decl.Processing)
	if err != nil {
		return nil, fmt.Errorf("gateway: oid %s: %w", decl.OID, err)
	}

	var spec *RegisterSpec
	if decl.Register != nil {
		spec, err = parseRegisterSpec(decl.Register)
		if err != nil {
			return nil, fmt.Errorf("gateway: oid %s: %w", decl.OID, err)
		}
	} else if processing.Kind != CommunicationStatus {
		return nil, fmt.Errorf("gateway: oid %s: register spec is required", decl.OID)
	}

	scaleFactor := decl.ScaleFactor
	if scaleFactor == 0 {
		scaleFactor = 1
	}

	return NewModbusHandler(oid, decl.Description, spec, processing, kind, scaleFactor,
		errorValue, reader, logger.Named("entry")), nil
}

func parseValueKind(name string) (ValueKind, error) {
	switch name {
	case "", "Integer", "Integer32":
		return KindInteger, nil
	case "OctetString":
		return KindOctetString, nil
	case "Gauge32":
		return KindGauge32, nil
	case "Counter32":
		return KindCounter32, nil
	default:
		return 0, fmt.Errorf("unknown snmp type %q", name)
	}
}

func parseProcessing(decl *config.ProcessingConfig) (Processing, error) {
	switch decl.Type {
	case config.ProcessingDirect:
		return Processing{Kind: Direct}, nil
	case config.ProcessingMultiply:
		return Processing{
			Kind:          Multiply,
			Coefficient:   decl.Coefficient,
			Offset:        decl.Offset,
			DecimalPlaces: decl.DecimalPlaces,
		}, nil
	case config.ProcessingCommStatus:
		return Processing{Kind: CommunicationStatus}, nil
	default:
		return Processing{}, fmt.Errorf("unknown processing type %q", decl.Type)
	}
}

func parseRegisterSpec(decl *config.RegisterConfig) (*RegisterSpec, error) {
	addr, err := decl.ParseAddress()
	if err != nil {
		return nil, err
	}

	var function byte
	switch decl.Function {
	case "", config.FunctionHolding:
		function = modbus.FuncCodeReadHoldingRegisters
	case config.FunctionInput:
		function = modbus.FuncCodeReadInputRegisters
	case config.FunctionCoil:
		function = modbus.FuncCodeReadCoils
	case config.FunctionDiscrete:
		function = modbus.FuncCodeReadDiscreteInputs
	default:
		return nil, fmt.Errorf("unknown function %q", decl.Function)
	}

	var dataType DataType
	switch decl.DataType {
	case "int16":
		dataType = Int16
	case "", "uint16":
		dataType = Uint16
	case "int32":
		dataType = Int32
	case "uint32":
		dataType = Uint32
	case "float32":
		dataType = Float32
	default:
		return nil, fmt.Errorf("unknown data type %q", decl.DataType)
	}

	return &RegisterSpec{
		Unit:     byte(decl.Unit),
		Address:  addr,
		Function: function,
		DataType: dataType,
	}, nil
}
