package gateway

import (
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/kvolkov/snmp_gate/snmp"
)

// RegisterSpec addresses one raw value on the backend.
type RegisterSpec struct {
	Unit     byte
	Address  uint16
	Function byte
	DataType DataType
}

// Reader performs one coordinate-addressed read against the backend.
type Reader interface {
	ReadRaw(spec *RegisterSpec) (uint32, error)
}

// EntryStatus is the observability snapshot of one backend entry.
type EntryStatus struct {
	LastValue string    `json:"last_value,omitempty"`
	LastError string    `json:"last_error,omitempty"`
	LastSeen  time.Time `json:"last_seen,omitempty"`
}

// ModbusHandler binds an oid to a backend register. A nil spec makes the
// entry a communication status indicator that always reports up without
// touching the backend.
type ModbusHandler struct {
	oid         snmp.OID
	description string
	spec        *RegisterSpec
	processing  Processing
	kind        ValueKind
	scaleFactor float64
	errorValue  int64
	reader      Reader
	logger      *zap.SugaredLogger
	metrics     *Metrics

	mu     sync.Mutex
	status EntryStatus
}

func NewModbusHandler(oid snmp.OID, description string, spec *RegisterSpec, processing Processing,
	kind ValueKind, scaleFactor float64, errorValue int64, reader Reader, logger *zap.SugaredLogger) *ModbusHandler {
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	return &ModbusHandler{
		oid:         oid,
		description: description,
		spec:        spec,
		processing:  processing,
		kind:        kind,
		scaleFactor: scaleFactor,
		errorValue:  errorValue,
		reader:      reader,
		logger:      logger,
	}
}

func (h *ModbusHandler) OID() snmp.OID    { return h.oid }
func (h *ModbusHandler) Describe() string { return h.description }

func (h *ModbusHandler) SetMetrics(m *Metrics) { h.metrics = m }

// Status reports the last produced value and error.
func (h *ModbusHandler) Status() EntryStatus {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.status
}

func (h *ModbusHandler) record(value string, err error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.status.LastValue = value
	h.status.LastSeen = time.Now()
	if err != nil {
		h.status.LastError = err.Error()
	} else {
		h.status.LastError = ""
	}
}

// Produce reads the backend and runs the value pipeline. Every failure
// collapses to the read-failure sentinel encoded as an integer; it never
// propagates past the handler.
func (h *ModbusHandler) Produce(_ int) snmp.Value {
	if h.spec == nil {
		// communication status entry, constant up
		value, err := encodeValue(intNumber(1), h.kind, h.scaleFactor)
		if err != nil {
			return snmp.Integer(h.errorValue)
		}
		h.record("1", nil)
		return value
	}

	raw, err := h.reader.ReadRaw(h.spec)
	if err != nil {
		h.logger.Errorf("read failed for %s (%s): %v", h.oid, h.description, err)
		h.record("", err)
		if h.metrics != nil {
			h.metrics.BackendErrors.Inc()
		}
		return snmp.Integer(h.errorValue)
	}

	processed := h.processing.apply(convertRaw(raw, h.spec.DataType))

	value, err := encodeValue(processed, h.kind, h.scaleFactor)
	if err != nil {
		h.logger.Errorf("can't encode %s for %s: %v", processed, h.oid, err)
		h.record("", err)
		return snmp.Integer(h.errorValue)
	}

	h.logger.Debugf("%s = %s (raw %d)", h.oid, processed, raw)
	h.record(processed.String(), nil)
	return value
}
