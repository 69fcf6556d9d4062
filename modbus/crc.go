package modbus

// crc computes the CRC-16/MODBUS checksum of the pushed bytes.
type crc struct {
	sum uint16
}

func (c *crc) reset() *crc {
	c.sum = 0xffff
	return c
}

func (c *crc) pushBytes(bs []byte) *crc {
	for _, b := range bs {
		c.sum ^= uint16(b)
		for i := 0; i < 8; i++ {
			if c.sum&1 != 0 {
				c.sum = c.sum>>1 ^ 0xa001
			} else {
				c.sum >>= 1
			}
		}
	}
	return c
}

func (c *crc) value() uint16 {
	return c.sum
}
