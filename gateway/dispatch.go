package gateway

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/kvolkov/snmp_gate/snmp"
)

// Dispatcher resolves one decoded request at a time against the registry.
// It keeps no per-request state; the registry is read-only and the backend
// serializes its own access, so a single dispatcher instance serves the
// whole process.
type Dispatcher struct {
	registry       *Registry
	community      string
	undefinedValue int64
	logger         *zap.SugaredLogger
	metrics        *Metrics
}

func NewDispatcher(registry *Registry, community string, undefinedValue int64, logger *zap.SugaredLogger, metrics *Metrics) *Dispatcher {
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	return &Dispatcher{
		registry:       registry,
		community:      community,
		undefinedValue: undefinedValue,
		logger:         logger,
		metrics:        metrics,
	}
}

// Process decodes one datagram, dispatches it and encodes the reply.
// A decode failure is an error (the datagram is dropped and logged by the
// caller); a community mismatch drops the datagram silently with nil, nil.
func (d *Dispatcher) Process(data []byte) ([]byte, error) {
	msg, err := snmp.Decode(data)
	if err != nil {
		if d.metrics != nil {
			d.metrics.DecodeErrors.Inc()
		}
		return nil, err
	}

	if d.community != "" && msg.Community != d.community {
		d.logger.Warnf("dropping request with community %q", msg.Community)
		if d.metrics != nil {
			d.metrics.DroppedTotal.Inc()
		}
		return nil, nil
	}

	ans := d.Handle(msg)

	data, err = ans.Encode()
	if err != nil {
		return nil, fmt.Errorf("can't encode reply: %w", err)
	}
	return data, nil
}

// Handle runs the request state machine: exact lookups for a get, successor
// lookups for a getnext, a general error for everything else. Failures of
// individual bindings are already sentinel values by the time they leave the
// handlers, so the reply status stays clean for get requests.
func (d *Dispatcher) Handle(msg *snmp.Message) *snmp.Message {
	d.logger.Debugf("request: %s", msg)
	ans := msg.Response()

	switch msg.PDUType {
	case snmp.TagGetRequest:
		d.count("get")
		for _, vb := range msg.VarBinds {
			if h, ok := d.registry.Exact(vb.Name); ok {
				ans.VarBinds = append(ans.VarBinds, snmp.VarBind{Name: vb.Name, Value: h.Produce(msg.Version)})
			} else {
				d.logger.Warnf("unknown oid %s", vb.Name)
				ans.VarBinds = append(ans.VarBinds, snmp.VarBind{Name: vb.Name, Value: snmp.Integer(d.undefinedValue)})
			}
		}

	case snmp.TagGetNextRequest:
		d.count("getnext")
		for i, vb := range msg.VarBinds {
			h, ok := d.registry.Successor(vb.Name)
			if !ok {
				// end of space: echo the oid back and flag the position
				if msg.Version == snmp.Version1 {
					ans.ErrorStatus = snmp.NoSuchName
					ans.ErrorIndex = i + 1
					ans.VarBinds = append(ans.VarBinds, vb)
				} else {
					ans.VarBinds = append(ans.VarBinds, snmp.VarBind{Name: vb.Name, Value: snmp.EndOfMibView{}})
				}
				continue
			}
			ans.VarBinds = append(ans.VarBinds, snmp.VarBind{Name: h.OID(), Value: h.Produce(msg.Version)})
		}

	default:
		d.count("other")
		d.logger.Warnf("unsupported request type %#x", msg.PDUType)
		ans.ErrorStatus = snmp.GenErr
	}

	d.logger.Debugf("answer: %s", ans)
	return ans
}

func (d *Dispatcher) count(kind string) {
	if d.metrics != nil {
		d.metrics.RequestsTotal.WithLabelValues(kind).Inc()
	}
}
