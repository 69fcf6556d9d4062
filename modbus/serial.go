package modbus

import (
	"encoding/binary"
	"fmt"
	"io"
	"time"

	"github.com/goburrow/serial"
	"go.uber.org/zap"
)

const (
	serialIdleTimeout = 60 * time.Second
)

// SerialPort talks Modbus RTU over one serial line.
type SerialPort struct {
	serial.Config

	Logger      *zap.SugaredLogger
	IdleTimeout time.Duration

	port         io.ReadWriteCloser
	lastActivity time.Time
	closeTimer   *time.Timer
}

func NewSerial(device string, baudrate, databits, stopbits int, parity string, timeout time.Duration) (s *SerialPort) {
	s = &SerialPort{}
	s.Address = device
	s.BaudRate = baudrate
	s.DataBits = databits
	s.Parity = parity
	s.StopBits = stopbits
	s.Timeout = timeout
	s.Logger = zap.NewNop().Sugar()
	s.IdleTimeout = serialIdleTimeout
	return
}

func (mb *SerialPort) connect() error {
	if mb.port == nil {
		port, err := serial.Open(&mb.Config)
		if err != nil {
			return err
		}
		mb.port = port
	}
	return nil
}

func (mb *SerialPort) Connected() bool {
	return mb.port != nil
}

func (mb *SerialPort) Close() (err error) {
	if mb.port != nil {
		err = mb.port.Close()
		mb.port = nil
	}
	return
}

func (mb *SerialPort) startCloseTimer() {
	if mb.IdleTimeout <= 0 {
		return
	}
	if mb.closeTimer == nil {
		mb.closeTimer = time.AfterFunc(mb.IdleTimeout, mb.closeIdle)
	} else {
		mb.closeTimer.Reset(mb.IdleTimeout)
	}
}

// closeIdle closes the connection if last activity is passed behind IdleTimeout.
func (mb *SerialPort) closeIdle() {
	if mb.IdleTimeout <= 0 {
		return
	}
	idle := time.Now().Sub(mb.lastActivity)
	if idle >= mb.IdleTimeout {
		mb.Logger.Debugf("closing connection due to idle timeout: %v", idle)
		mb.Close()
	}
}

// Round sends one request pdu and reads the matching reply.
func (mb *SerialPort) Round(pdu *ProtocolDataUnit) (*ProtocolDataUnit, error) {
	aduRequest, err := pdu.MakeRtu()
	if err != nil {
		return nil, err
	}

	aduResponse, err := mb.send(aduRequest)
	if err != nil {
		// leave the port in a defined state for the next attempt
		mb.Close()
		return nil, err
	}

	ans, err := FromRtu(aduResponse)
	if err != nil {
		return nil, err
	}
	if ans.SlaveId != pdu.SlaveId {
		return nil, fmt.Errorf("modbus: reply from unit %d, expected %d", ans.SlaveId, pdu.SlaveId)
	}
	return ans, nil
}

func (mb *SerialPort) send(aduRequest []byte) (aduResponse []byte, err error) {
	// Make sure port is connected
	if err = mb.connect(); err != nil {
		return
	}
	// Start the timer to close when idle
	mb.lastActivity = time.Now()
	mb.startCloseTimer()

	// Send the request
	mb.Logger.Debugf("sending % x", aduRequest)
	if _, err = mb.port.Write(aduRequest); err != nil {
		return
	}
	function := aduRequest[1]
	functionFail := aduRequest[1] & 0x80
	bytesToRead := calculateResponseLength(aduRequest)
	time.Sleep(mb.calculateDelay(len(aduRequest) + bytesToRead))

	var n int
	var n1 int
	var data [rtuMaxSize]byte
	// We first read the minimum length and then read either the full package
	// or the error package, depending on the error status (byte 2 of the response)
	n, err = io.ReadAtLeast(mb.port, data[:], rtuMinSize)
	if err != nil {
		return
	}
	if data[1] == function {
		// read the rest of the reply
		if n < bytesToRead {
			if bytesToRead > rtuMinSize && bytesToRead <= rtuMaxSize {
				if bytesToRead > n {
					n1, err = io.ReadFull(mb.port, data[n:bytesToRead])
					n += n1
				}
			}
		}
	} else if data[1] == functionFail {
		// for an exception we need to read 5 bytes
		if n < rtuExceptionSize {
			n1, err = io.ReadFull(mb.port, data[n:rtuExceptionSize])
		}
		n += n1
	}

	if err != nil {
		return
	}
	aduResponse = data[:n]
	mb.Logger.Debugf("received % x", aduResponse)
	return
}

// calculateDelay roughly calculates time needed for the next frame.
// See MODBUS over Serial Line - Specification and Implementation Guide (page 13).
func (mb *SerialPort) calculateDelay(chars int) time.Duration {
	var characterDelay, frameDelay int // us

	if mb.BaudRate <= 0 || mb.BaudRate > 19200 {
		characterDelay = 750
		frameDelay = 1750
	} else {
		characterDelay = 15000000 / mb.BaudRate
		frameDelay = 35000000 / mb.BaudRate
	}
	return time.Duration(characterDelay*chars+frameDelay) * time.Microsecond
}

func calculateResponseLength(adu []byte) int {
	length := rtuMinSize
	switch adu[1] {
	case FuncCodeReadDiscreteInputs,
		FuncCodeReadCoils:
		count := int(binary.BigEndian.Uint16(adu[4:]))
		length += 1 + count/8
		if count%8 != 0 {
			length++
		}
	case FuncCodeReadInputRegisters,
		FuncCodeReadHoldingRegisters:
		count := int(binary.BigEndian.Uint16(adu[4:]))
		length += 1 + count*2
	default:
	}
	return length
}
