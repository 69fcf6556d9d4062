package config

import (
	"fmt"
	"strconv"
	"time"

	"github.com/spf13/viper"

	"github.com/kvolkov/snmp_gate/snmp"
)

// Entry kind and enum strings accepted in the config file.
const (
	BackendTCP = "tcp"
	BackendRTU = "rtu"

	SystemFixed   = "fixed_value"
	SystemUptime  = "uptime"
	SystemUTCTime = "utc_time"

	ProcessingDirect     = "direct"
	ProcessingMultiply   = "multiply"
	ProcessingCommStatus = "communication_status"

	FunctionHolding  = "holding"
	FunctionInput    = "input"
	FunctionCoil     = "coil"
	FunctionDiscrete = "discrete"
)

type Config struct {
	SNMP   SNMPConfig   `mapstructure:"snmp"`
	HTTP   HTTPConfig   `mapstructure:"http"`
	Modbus ModbusConfig `mapstructure:"modbus"`

	SystemOIDs []SystemOID `mapstructure:"system_oids"`
	ModbusOIDs []ModbusOID `mapstructure:"modbus_oids"`
}

type SNMPConfig struct {
	Listen         string        `mapstructure:"listen"`
	Community      string        `mapstructure:"community"`
	TimezoneOffset string        `mapstructure:"timezone_offset"`
	StartupDelay   time.Duration `mapstructure:"startup_delay"`
	ErrorValue     int64         `mapstructure:"error_value"`
	UndefinedValue int64         `mapstructure:"undefined_value"`
}

type HTTPConfig struct {
	Listen string `mapstructure:"listen"`
}

type ModbusConfig struct {
	Kind string    `mapstructure:"kind"`
	TCP  TCPConfig `mapstructure:"tcp"`
	RTU  RTUConfig `mapstructure:"rtu"`
}

type TCPConfig struct {
	Host    string        `mapstructure:"host"`
	Port    int           `mapstructure:"port"`
	Timeout time.Duration `mapstructure:"timeout"`
}

func (c *TCPConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

type RTUConfig struct {
	Device   string        `mapstructure:"device"`
	BaudRate int           `mapstructure:"baud_rate"`
	DataBits int           `mapstructure:"data_bits"`
	Parity   string        `mapstructure:"parity"`
	StopBits int           `mapstructure:"stop_bits"`
	Timeout  time.Duration `mapstructure:"timeout"`
}

// SystemOID declares one computed or fixed entry.
type SystemOID struct {
	OID         string `mapstructure:"oid"`
	Description string `mapstructure:"description"`
	Type        string `mapstructure:"type"`
	SNMPType    string `mapstructure:"snmp_type"`
	Value       string `mapstructure:"value"`
}

// ModbusOID declares one backend-mapped entry.
type ModbusOID struct {
	OID         string           `mapstructure:"oid"`
	Description string           `mapstructure:"description"`
	SNMPType    string           `mapstructure:"snmp_type"`
	ScaleFactor float64          `mapstructure:"scale_factor"`
	Register    *RegisterConfig  `mapstructure:"register"`
	Processing  ProcessingConfig `mapstructure:"processing"`
}

// RegisterConfig addresses one value on the backend. Address accepts
// decimal or 0x-prefixed hex, the way register maps are usually written.
type RegisterConfig struct {
	Unit     int    `mapstructure:"unit"`
	Address  string `mapstructure:"address"`
	Function string `mapstructure:"function"`
	DataType string `mapstructure:"data_type"`
}

func (r *RegisterConfig) ParseAddress() (uint16, error) {
	addr, err := strconv.ParseUint(r.Address, 0, 16)
	if err != nil {
		return 0, fmt.Errorf("config: bad register address %q: %w", r.Address, err)
	}
	return uint16(addr), nil
}

type ProcessingConfig struct {
	Type          string  `mapstructure:"type"`
	Coefficient   float64 `mapstructure:"coefficient"`
	Offset        float64 `mapstructure:"offset"`
	DecimalPlaces int     `mapstructure:"decimal_places"`
}

// ParseTimezoneOffset parses the "+HH" / "-HH" offset notation into minutes.
func ParseTimezoneOffset(s string) (int, error) {
	if len(s) != 3 || (s[0] != '+' && s[0] != '-') {
		return 0, fmt.Errorf("config: bad timezone offset %q, want e.g. \"+08\"", s)
	}
	hours, err := strconv.Atoi(s[1:])
	if err != nil {
		return 0, fmt.Errorf("config: bad timezone offset %q: %w", s, err)
	}
	minutes := hours * 60
	if s[0] == '-' {
		minutes = -minutes
	}
	return minutes, nil
}

// Load reads and validates the YAML config. Any problem is fatal for
// startup, never a runtime condition.
func Load(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")

	v.SetDefault("snmp.listen", "0.0.0.0:1161")
	v.SetDefault("snmp.community", "public")
	v.SetDefault("snmp.timezone_offset", "+00")
	v.SetDefault("snmp.startup_delay", "0s")
	v.SetDefault("snmp.error_value", -99998)
	v.SetDefault("snmp.undefined_value", -99997)
	v.SetDefault("http.listen", ":8080")
	v.SetDefault("modbus.kind", BackendTCP)
	v.SetDefault("modbus.tcp.port", 502)
	v.SetDefault("modbus.tcp.timeout", "3s")
	v.SetDefault("modbus.rtu.baud_rate", 9600)
	v.SetDefault("modbus.rtu.data_bits", 8)
	v.SetDefault("modbus.rtu.parity", "N")
	v.SetDefault("modbus.rtu.stop_bits", 1)
	v.SetDefault("modbus.rtu.timeout", "3s")

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := config.validate(); err != nil {
		return nil, err
	}
	return &config, nil
}

func (c *Config) validate() error {
	if _, err := ParseTimezoneOffset(c.SNMP.TimezoneOffset); err != nil {
		return err
	}

	switch c.Modbus.Kind {
	case BackendTCP:
		if c.Modbus.TCP.Host == "" {
			return fmt.Errorf("config: modbus.tcp.host is required for tcp backend")
		}
	case BackendRTU:
		if c.Modbus.RTU.Device == "" {
			return fmt.Errorf("config: modbus.rtu.device is required for rtu backend")
		}
		switch c.Modbus.RTU.Parity {
		case "N", "E", "O":
		default:
			return fmt.Errorf("config: bad parity %q", c.Modbus.RTU.Parity)
		}
	default:
		return fmt.Errorf("config: unknown modbus kind %q", c.Modbus.Kind)
	}

	for i := range c.SystemOIDs {
		if err := c.SystemOIDs[i].validate(); err != nil {
			return err
		}
	}
	for i := range c.ModbusOIDs {
		if err := c.ModbusOIDs[i].validate(); err != nil {
			return err
		}
	}
	return nil
}

func (s *SystemOID) validate() error {
	if _, err := snmp.ParseOID(s.OID); err != nil {
		return fmt.Errorf("config: system oid %q: %w", s.OID, err)
	}

	switch s.Type {
	case SystemFixed:
		if s.Value == "" {
			return fmt.Errorf("config: system oid %s: fixed_value needs a value", s.OID)
		}
	case SystemUptime, SystemUTCTime:
	default:
		return fmt.Errorf("config: system oid %s: unknown type %q", s.OID, s.Type)
	}

	if s.SNMPType == "" {
		s.SNMPType = "OctetString"
	}
	switch s.SNMPType {
	case "Integer", "Integer32", "OctetString", "TimeTicks":
	default:
		return fmt.Errorf("config: system oid %s: unknown snmp type %q", s.OID, s.SNMPType)
	}

	if s.SNMPType == "Integer" || s.SNMPType == "Integer32" {
		if s.Type == SystemFixed {
			if _, err := strconv.ParseInt(s.Value, 10, 64); err != nil {
				return fmt.Errorf("config: system oid %s: value %q is not an integer", s.OID, s.Value)
			}
		}
	}
	return nil
}

func (m *ModbusOID) validate() error {
	if _, err := snmp.ParseOID(m.OID); err != nil {
		return fmt.Errorf("config: oid %q: %w", m.OID, err)
	}

	if m.SNMPType == "" {
		m.SNMPType = "Integer32"
	}
	switch m.SNMPType {
	case "Integer", "Integer32", "OctetString", "Gauge32", "Counter32":
	default:
		return fmt.Errorf("config: oid %s: unknown snmp type %q", m.OID, m.SNMPType)
	}
	if m.ScaleFactor == 0 {
		m.ScaleFactor = 1
	}

	switch m.Processing.Type {
	case ProcessingDirect:
	case ProcessingMultiply:
		if m.Processing.DecimalPlaces < 0 {
			return fmt.Errorf("config: oid %s: negative decimal_places", m.OID)
		}
		if m.Processing.Coefficient == 0 {
			m.Processing.Coefficient = 1
		}
	case ProcessingCommStatus:
		if m.Register != nil {
			return fmt.Errorf("config: oid %s: communication_status must not address a register", m.OID)
		}
		return nil
	default:
		return fmt.Errorf("config: oid %s: unknown processing type %q", m.OID, m.Processing.Type)
	}

	if m.Register == nil {
		return fmt.Errorf("config: oid %s: register spec is required for %s processing", m.OID, m.Processing.Type)
	}
	if m.Register.Unit == 0 {
		m.Register.Unit = 1
	}
	if m.Register.Unit < 0 || m.Register.Unit > 255 {
		return fmt.Errorf("config: oid %s: bad unit %d", m.OID, m.Register.Unit)
	}
	if _, err := m.Register.ParseAddress(); err != nil {
		return fmt.Errorf("config: oid %s: %w", m.OID, err)
	}

	if m.Register.Function == "" {
		m.Register.Function = FunctionHolding
	}
	switch m.Register.Function {
	case FunctionHolding, FunctionInput, FunctionCoil, FunctionDiscrete:
	default:
		return fmt.Errorf("config: oid %s: unknown function %q", m.OID, m.Register.Function)
	}

	if m.Register.DataType == "" {
		m.Register.DataType = "uint16"
	}
	switch m.Register.DataType {
	case "int16", "uint16", "int32", "uint32", "float32":
	default:
		return fmt.Errorf("config: oid %s: unknown data type %q", m.OID, m.Register.DataType)
	}
	return nil
}
