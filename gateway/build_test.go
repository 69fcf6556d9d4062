package gateway

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kvolkov/snmp_gate/config"
	"github.com/kvolkov/snmp_gate/snmp"
)

func testConfig() *config.Config {
	return &config.Config{
		SNMP: config.SNMPConfig{
			Community:      "public",
			TimezoneOffset: "+03",
			ErrorValue:     -99998,
			UndefinedValue: -99997,
		},
		SystemOIDs: []config.SystemOID{
			{OID: "1.3.6.1.2.1.1.1.0", Description: "name", Type: config.SystemFixed, Value: "gw-01"},
			{OID: "1.3.6.1.2.1.1.3.0", Description: "uptime", Type: config.SystemUptime},
			{OID: "1.3.6.1.4.1.9999.3.1", Description: "local time", Type: config.SystemUTCTime},
			{OID: "1.3.6.1.4.1.9999.3.2", Description: "sites", Type: config.SystemFixed, SNMPType: "Integer32", Value: "4"},
		},
		ModbusOIDs: []config.ModbusOID{
			{
				OID:         "1.3.6.1.4.1.9999.1.1",
				Description: "temperature",
				SNMPType:    "Integer32",
				ScaleFactor: 10,
				Register:    &config.RegisterConfig{Unit: 1, Address: "0x01", Function: config.FunctionHolding, DataType: "int16"},
				Processing:  config.ProcessingConfig{Type: config.ProcessingMultiply, Coefficient: 0.1, DecimalPlaces: 1},
			},
			{
				OID:         "1.3.6.1.4.1.9999.2.1",
				Description: "plc link",
				SNMPType:    "Integer32",
				Processing:  config.ProcessingConfig{Type: config.ProcessingCommStatus},
			},
		},
	}
}

func TestBuildRegistry(t *testing.T) {
	reader := &fakeReader{values: map[uint16]uint32{1: 235}}

	reg, err := BuildRegistry(testConfig(), reader, time.Now(), nil, nil)
	require.NoError(t, err)
	assert.Equal(t, 6, reg.Len())

	h, ok := reg.Exact(snmp.MustParseOID("1.3.6.1.2.1.1.1.0"))
	require.True(t, ok)
	assert.Equal(t, snmp.OctetString("gw-01"), h.Produce(snmp.Version2c))

	h, ok = reg.Exact(snmp.MustParseOID("1.3.6.1.4.1.9999.3.2"))
	require.True(t, ok)
	assert.Equal(t, snmp.Integer(4), h.Produce(snmp.Version2c))

	// 235 raw -> 23.5 -> scale factor 10 -> 235 on the wire
	h, ok = reg.Exact(snmp.MustParseOID("1.3.6.1.4.1.9999.1.1"))
	require.True(t, ok)
	assert.Equal(t, snmp.Integer(235), h.Produce(snmp.Version2c))

	h, ok = reg.Exact(snmp.MustParseOID("1.3.6.1.4.1.9999.2.1"))
	require.True(t, ok)
	assert.Equal(t, snmp.Integer(1), h.Produce(snmp.Version2c))
}

func TestBuildRegistryBadTimezone(t *testing.T) {
	cfg := testConfig()
	cfg.SNMP.TimezoneOffset = "+0800"

	_, err := BuildRegistry(cfg, nil, time.Now(), nil, nil)
	assert.Error(t, err)
}

func TestBuildRegistryDuplicateOid(t *testing.T) {
	cfg := testConfig()
	cfg.ModbusOIDs = append(cfg.ModbusOIDs, cfg.ModbusOIDs[0])

	_, err := BuildRegistry(cfg, &fakeReader{}, time.Now(), nil, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "duplicate oid")
}
