package modbus

// Transport is one persistent link to a backend: the RTU serial line or a
// Modbus TCP connection.
type Transport interface {
	Round(pdu *ProtocolDataUnit) (*ProtocolDataUnit, error)
	Connected() bool
	Close() error
}

// Client issues read transactions over a Transport.
type Client struct {
	tr Transport
}

func NewClient(tr Transport) *Client {
	return &Client{tr: tr}
}

func (c *Client) Transport() Transport {
	return c.tr
}

func (c *Client) ReadHoldingRegisters(slaveId byte, addr, count uint16) ([]uint16, error) {
	ans, err := c.tr.Round(ReadHoldingRegisters(slaveId, addr, count))
	if err != nil {
		return nil, err
	}
	return DecodeRegisters(ans)
}

func (c *Client) ReadInputRegisters(slaveId byte, addr, count uint16) ([]uint16, error) {
	ans, err := c.tr.Round(ReadInputRegisters(slaveId, addr, count))
	if err != nil {
		return nil, err
	}
	return DecodeRegisters(ans)
}

func (c *Client) ReadCoils(slaveId byte, addr, count uint16) ([]bool, error) {
	ans, err := c.tr.Round(ReadCoils(slaveId, addr, count))
	if err != nil {
		return nil, err
	}
	return DecodeBits(ans, count)
}

func (c *Client) ReadDiscreteInputs(slaveId byte, addr, count uint16) ([]bool, error) {
	ans, err := c.tr.Round(ReadDiscreteInputs(slaveId, addr, count))
	if err != nil {
		return nil, err
	}
	return DecodeBits(ans, count)
}

func (c *Client) Close() error {
	return c.tr.Close()
}
