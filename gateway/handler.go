package gateway

import (
	"fmt"
	"time"

	"github.com/kvolkov/snmp_gate/snmp"
)

// Handler is one registered oid: it produces the current value on every
// request, nothing is cached between polls.
type Handler interface {
	OID() snmp.OID
	Describe() string
	Produce(version int) snmp.Value
}

// FixedHandler serves an immutable value.
type FixedHandler struct {
	oid         snmp.OID
	description string
	value       snmp.Value
}

func NewFixedHandler(oid snmp.OID, description string, value snmp.Value) *FixedHandler {
	return &FixedHandler{oid: oid, description: description, value: value}
}

func (h *FixedHandler) OID() snmp.OID            { return h.oid }
func (h *FixedHandler) Describe() string         { return h.description }
func (h *FixedHandler) Produce(_ int) snmp.Value { return h.value }

// UptimeHandler serves the elapsed time since registration in centiseconds.
type UptimeHandler struct {
	oid         snmp.OID
	description string
	started     time.Time
}

func NewUptimeHandler(oid snmp.OID, description string, started time.Time) *UptimeHandler {
	return &UptimeHandler{oid: oid, description: description, started: started}
}

func (h *UptimeHandler) OID() snmp.OID    { return h.oid }
func (h *UptimeHandler) Describe() string { return h.description }

func (h *UptimeHandler) Produce(_ int) snmp.Value {
	return snmp.TimeTicks(uint32(time.Since(h.started) / (10 * time.Millisecond)))
}

// UTCTimeHandler serves the current time in a fixed utc offset, formatted
// as YYYYMMDDTHHMMSS±HH.
type UTCTimeHandler struct {
	oid           snmp.OID
	description   string
	offsetMinutes int
	label         string
}

func NewUTCTimeHandler(oid snmp.OID, description string, offsetMinutes int) *UTCTimeHandler {
	sign := "+"
	hours := offsetMinutes / 60
	if hours < 0 {
		sign = "-"
		hours = -hours
	}
	return &UTCTimeHandler{
		oid:           oid,
		description:   description,
		offsetMinutes: offsetMinutes,
		label:         fmt.Sprintf("%s%02d", sign, hours),
	}
}

func (h *UTCTimeHandler) OID() snmp.OID    { return h.oid }
func (h *UTCTimeHandler) Describe() string { return h.description }

func (h *UTCTimeHandler) Produce(_ int) snmp.Value {
	zone := time.FixedZone("", h.offsetMinutes*60)
	now := time.Now().In(zone)
	return snmp.OctetString(now.Format("20060102T150405") + h.label)
}
