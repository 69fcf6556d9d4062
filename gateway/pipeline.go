package gateway

import (
	"fmt"
	"math"
	"strconv"

	"github.com/kvolkov/snmp_gate/snmp"
)

// DataType is the raw width/signedness of a register value.
type DataType int

const (
	Uint16 DataType = iota
	Int16
	Uint32
	Int32
	Float32
)

func (d DataType) String() string {
	switch d {
	case Int16:
		return "int16"
	case Uint32:
		return "uint32"
	case Int32:
		return "int32"
	case Float32:
		return "float32"
	default:
		return "uint16"
	}
}

// Words is the number of 16-bit registers the type spans.
func (d DataType) Words() uint16 {
	switch d {
	case Uint32, Int32, Float32:
		return 2
	default:
		return 1
	}
}

// ProcessingKind selects the business transform applied to the typed value.
type ProcessingKind int

const (
	Direct ProcessingKind = iota
	Multiply
	CommunicationStatus
)

// Processing is the business transform of one entry.
type Processing struct {
	Kind          ProcessingKind
	Coefficient   float64
	Offset        float64
	DecimalPlaces int
}

// ValueKind is the protocol-native type an entry encodes to.
type ValueKind int

const (
	KindInteger ValueKind = iota
	KindOctetString
	KindGauge32
	KindCounter32
)

// number carries a value through the pipeline keeping the integer/float
// distinction, which decides truncation and text formatting later on.
type number struct {
	i       int64
	f       float64
	isFloat bool
}

func intNumber(v int64) number     { return number{i: v} }
func floatNumber(v float64) number { return number{f: v, isFloat: true} }

func (n number) Float() float64 {
	if n.isFloat {
		return n.f
	}
	return float64(n.i)
}

func (n number) String() string {
	if n.isFloat {
		return strconv.FormatFloat(n.f, 'g', -1, 64)
	}
	return strconv.FormatInt(n.i, 10)
}

// convertRaw reinterprets the raw register value per the configured type.
// An unknown type falls back to uint16 semantics.
func convertRaw(raw uint32, dataType DataType) number {
	switch dataType {
	case Int16:
		if raw > 32767 {
			return intNumber(int64(raw) - 65536)
		}
		return intNumber(int64(raw))
	case Int32:
		if raw > 2147483647 {
			return intNumber(int64(raw) - 4294967296)
		}
		return intNumber(int64(raw))
	case Uint32:
		return intNumber(int64(raw))
	case Float32:
		return floatNumber(float64(math.Float32frombits(raw)))
	default:
		return intNumber(int64(raw))
	}
}

// apply runs the business transform. Multiply rounds half-to-even, and only
// when decimal places are requested: decimal_places = 0 keeps the full float
// precision on purpose, truncation happens at encoding time.
func (p *Processing) apply(v number) number {
	switch p.Kind {
	case Multiply:
		value := v.Float()*p.Coefficient + p.Offset
		if p.DecimalPlaces > 0 {
			pow := math.Pow(10, float64(p.DecimalPlaces))
			value = math.RoundToEven(value*pow) / pow
		}
		return floatNumber(value)
	case CommunicationStatus:
		return intNumber(1)
	default:
		return v
	}
}

// encodeValue builds the protocol value. Floats aimed at a numeric type are
// scaled and truncated to an integer; floats aimed at text keep two fraction
// digits. A value outside the unsigned 32-bit types' range is an error and
// collapses to the read-failure sentinel upstream.
func encodeValue(v number, kind ValueKind, scaleFactor float64) (snmp.Value, error) {
	integral := v.i
	if v.isFloat {
		scaled := v.f * scaleFactor
		if math.IsNaN(scaled) || math.IsInf(scaled, 0) {
			return nil, fmt.Errorf("gateway: value %v is not encodable", scaled)
		}
		integral = int64(scaled)
	}

	switch kind {
	case KindOctetString:
		if v.isFloat {
			return snmp.OctetString(strconv.FormatFloat(v.f, 'f', 2, 64)), nil
		}
		return snmp.OctetString(strconv.FormatInt(v.i, 10)), nil
	case KindGauge32:
		if integral < 0 || integral > math.MaxUint32 {
			return nil, fmt.Errorf("gateway: value %d out of gauge range", integral)
		}
		return snmp.Gauge32(uint32(integral)), nil
	case KindCounter32:
		if integral < 0 || integral > math.MaxUint32 {
			return nil, fmt.Errorf("gateway: value %d out of counter range", integral)
		}
		return snmp.Counter32(uint32(integral)), nil
	default:
		return snmp.Integer(integral), nil
	}
}
