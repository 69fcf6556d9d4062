package modbus

import (
	"encoding/binary"
	"fmt"
	"io"
	"net"
	"time"

	"go.uber.org/zap"
)

// TCPTransport talks Modbus TCP to one endpoint over a persistent
// connection. The connection is opened on first use; any i/o error drops it
// so that the next round reconnects.
type TCPTransport struct {
	Addr    string
	Timeout time.Duration
	Logger  *zap.SugaredLogger

	conn net.Conn
	trId uint16
}

func NewTCP(addr string, timeout time.Duration) *TCPTransport {
	return &TCPTransport{
		Addr:    addr,
		Timeout: timeout,
		Logger:  zap.NewNop().Sugar(),
	}
}

func (t *TCPTransport) connect() error {
	if t.conn != nil {
		return nil
	}
	conn, err := net.DialTimeout("tcp", t.Addr, t.Timeout)
	if err != nil {
		return err
	}
	t.Logger.Debugf("connected to %s", t.Addr)
	t.conn = conn
	return nil
}

func (t *TCPTransport) Connected() bool {
	return t.conn != nil
}

func (t *TCPTransport) Close() error {
	if t.conn == nil {
		return nil
	}
	err := t.conn.Close()
	t.conn = nil
	return err
}

func (t *TCPTransport) drop() {
	if t.conn != nil {
		t.conn.Close()
		t.conn = nil
	}
}

// Round sends one request pdu and reads the matching reply.
func (t *TCPTransport) Round(pdu *ProtocolDataUnit) (*ProtocolDataUnit, error) {
	if err := t.connect(); err != nil {
		return nil, err
	}

	t.trId++
	adu := pdu.MakeTCP(t.trId)

	if err := t.conn.SetDeadline(time.Now().Add(t.Timeout)); err != nil {
		t.drop()
		return nil, err
	}

	t.Logger.Debugf("sending % x", adu)
	if _, err := t.conn.Write(adu); err != nil {
		t.drop()
		return nil, err
	}

	var header [tcpHeaderSize]byte
	if _, err := io.ReadFull(t.conn, header[:]); err != nil {
		t.drop()
		return nil, err
	}
	length := int(binary.BigEndian.Uint16(header[4:]))
	if length < 2 || tcpHeaderSize+length-1 > tcpMaxLength {
		t.drop()
		return nil, fmt.Errorf("modbus: bad frame length %d", length)
	}

	adu = make([]byte, tcpHeaderSize+length-1)
	copy(adu, header[:])
	if _, err := io.ReadFull(t.conn, adu[tcpHeaderSize:]); err != nil {
		t.drop()
		return nil, err
	}
	t.Logger.Debugf("received % x", adu)

	trId, ans, err := FromTCP(adu)
	if err != nil {
		t.drop()
		return nil, err
	}
	if trId != t.trId {
		t.drop()
		return nil, fmt.Errorf("modbus: transaction id %d, expected %d", trId, t.trId)
	}
	return ans, nil
}
