package main

import (
	"errors"
	"net"
)

// ListenUDP answers one datagram with one datagram until the socket is
// closed. Anything that can't be answered is dropped; a request must
// never crash the agent.
func (app *App) ListenUDP(addr string) error {
	conn, err := net.ListenPacket("udp", addr)
	if err != nil {
		return err
	}
	app.udpConn = conn

	buf := make([]byte, 65535)
	for {
		n, peer, err := conn.ReadFrom(buf)
		if err != nil {
			if errors.Is(err, net.ErrClosed) {
				return nil
			}
			app.Logger.Errorf("udp read: %v", err)
			continue
		}

		ans, err := app.dispatcher.Process(buf[:n])
		if err != nil {
			app.Logger.Warnf("dropping datagram from %s: %v", peer, err)
			continue
		}
		if ans == nil {
			continue
		}

		if _, err := conn.WriteTo(ans, peer); err != nil {
			app.Logger.Errorf("udp write to %s: %v", peer, err)
		}
	}
}
