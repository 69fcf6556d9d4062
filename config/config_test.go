package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleConfig = `
snmp:
  listen: "0.0.0.0:1161"
  community: public
  timezone_offset: "+08"
  startup_delay: 2s
  error_value: -99998
  undefined_value: -99997

http:
  listen: ":8080"

modbus:
  kind: tcp
  tcp:
    host: 192.168.1.10
    port: 502
    timeout: 3s

system_oids:
  - oid: 1.3.6.1.2.1.1.1.0
    description: device description
    type: fixed_value
    snmp_type: OctetString
    value: snmp-modbus gateway
  - oid: 1.3.6.1.2.1.1.3.0
    description: uptime
    type: uptime
    snmp_type: TimeTicks
  - oid: 1.3.6.1.4.1.9999.100.1
    description: local time
    type: utc_time

modbus_oids:
  - oid: 1.3.6.1.4.1.9999.1.1
    description: temperature
    snmp_type: Integer32
    register:
      unit: 1
      address: "0x0001"
      function: holding
      data_type: uint16
    processing:
      type: multiply
      coefficient: 0.1
      offset: 0
      decimal_places: 1
  - oid: 1.3.6.1.4.1.9999.1.9
    description: link state
    processing:
      type: communication_status
`

func writeConfig(t *testing.T, text string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "config.yml")
	require.NoError(t, os.WriteFile(path, []byte(text), 0o644))
	return path
}

func TestLoad(t *testing.T) {
	cfg, err := Load(writeConfig(t, sampleConfig))
	require.NoError(t, err)

	assert.Equal(t, "0.0.0.0:1161", cfg.SNMP.Listen)
	assert.Equal(t, "public", cfg.SNMP.Community)
	assert.Equal(t, 2*time.Second, cfg.SNMP.StartupDelay)
	assert.Equal(t, int64(-99998), cfg.SNMP.ErrorValue)
	assert.Equal(t, int64(-99997), cfg.SNMP.UndefinedValue)
	assert.Equal(t, BackendTCP, cfg.Modbus.Kind)
	assert.Equal(t, "192.168.1.10:502", cfg.Modbus.TCP.Addr())

	require.Len(t, cfg.SystemOIDs, 3)
	assert.Equal(t, SystemFixed, cfg.SystemOIDs[0].Type)
	// utc_time defaults to OctetString
	assert.Equal(t, "OctetString", cfg.SystemOIDs[2].SNMPType)

	require.Len(t, cfg.ModbusOIDs, 2)
	temp := cfg.ModbusOIDs[0]
	require.NotNil(t, temp.Register)
	addr, err := temp.Register.ParseAddress()
	require.NoError(t, err)
	assert.Equal(t, uint16(1), addr)
	assert.Equal(t, 0.1, temp.Processing.Coefficient)
	assert.Equal(t, float64(1), temp.ScaleFactor)

	status := cfg.ModbusOIDs[1]
	assert.Nil(t, status.Register)
	assert.Equal(t, ProcessingCommStatus, status.Processing.Type)
	assert.Equal(t, "Integer32", status.SNMPType)
}

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load(writeConfig(t, "modbus:\n  kind: rtu\n  rtu:\n    device: /dev/ttyUSB0\n"))
	require.NoError(t, err)

	assert.Equal(t, "0.0.0.0:1161", cfg.SNMP.Listen)
	assert.Equal(t, "+00", cfg.SNMP.TimezoneOffset)
	assert.Equal(t, 9600, cfg.Modbus.RTU.BaudRate)
	assert.Equal(t, "N", cfg.Modbus.RTU.Parity)
	assert.Equal(t, 3*time.Second, cfg.Modbus.RTU.Timeout)
}

func TestLoadRejects(t *testing.T) {
	cases := map[string]string{
		"missing tcp host":  "modbus:\n  kind: tcp\n",
		"unknown kind":      "modbus:\n  kind: udp\n",
		"bad parity":        "modbus:\n  kind: rtu\n  rtu:\n    device: /dev/ttyUSB0\n    parity: X\n",
		"bad timezone":      "snmp:\n  timezone_offset: \"+0800\"\nmodbus:\n  kind: tcp\n  tcp:\n    host: h\n",
		"bad oid":           "modbus:\n  kind: tcp\n  tcp:\n    host: h\nmodbus_oids:\n  - oid: 1.x.3\n    processing:\n      type: direct\n    register:\n      address: \"1\"\n",
		"missing register":  "modbus:\n  kind: tcp\n  tcp:\n    host: h\nmodbus_oids:\n  - oid: 1.3.6.1\n    processing:\n      type: direct\n",
		"bad address":       "modbus:\n  kind: tcp\n  tcp:\n    host: h\nmodbus_oids:\n  - oid: 1.3.6.1\n    processing:\n      type: direct\n    register:\n      address: \"0xzz\"\n",
		"bad function":      "modbus:\n  kind: tcp\n  tcp:\n    host: h\nmodbus_oids:\n  - oid: 1.3.6.1\n    processing:\n      type: direct\n    register:\n      address: \"1\"\n      function: write\n",
		"bad data type":     "modbus:\n  kind: tcp\n  tcp:\n    host: h\nmodbus_oids:\n  - oid: 1.3.6.1\n    processing:\n      type: direct\n    register:\n      address: \"1\"\n      data_type: int64\n",
		"bad processing":    "modbus:\n  kind: tcp\n  tcp:\n    host: h\nmodbus_oids:\n  - oid: 1.3.6.1\n    processing:\n      type: divide\n    register:\n      address: \"1\"\n",
		"bad system type":   "modbus:\n  kind: tcp\n  tcp:\n    host: h\nsystem_oids:\n  - oid: 1.3.6.1\n    type: birthday\n",
		"fixed no value":    "modbus:\n  kind: tcp\n  tcp:\n    host: h\nsystem_oids:\n  - oid: 1.3.6.1\n    type: fixed_value\n",
		"fixed bad integer": "modbus:\n  kind: tcp\n  tcp:\n    host: h\nsystem_oids:\n  - oid: 1.3.6.1\n    type: fixed_value\n    snmp_type: Integer\n    value: abc\n",
	}

	for name, text := range cases {
		_, err := Load(writeConfig(t, text))
		assert.Error(t, err, name)
	}
}

func TestParseTimezoneOffset(t *testing.T) {
	minutes, err := ParseTimezoneOffset("+08")
	require.NoError(t, err)
	assert.Equal(t, 480, minutes)

	minutes, err = ParseTimezoneOffset("-05")
	require.NoError(t, err)
	assert.Equal(t, -300, minutes)

	for _, s := range []string{"", "08", "+8", "+0800", "+ab"} {
		_, err := ParseTimezoneOffset(s)
		assert.Error(t, err, s)
	}
}
