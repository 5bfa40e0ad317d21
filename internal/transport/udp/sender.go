// SPDX-License-Identifier: MIT
package udp

import (
	"fmt"
	"net"
	"sync"

	applog "spectra/internal/log"
)

// Sender writes datagrams to a single target address.
type Sender struct {
	conn   *net.UDPConn
	mu     sync.Mutex // Protects conn during Close.
	closed bool
	log    *applog.Logger
}

// NewSender dials targetAddress ("host:port"). UDP dialing only fixes the
// peer; nothing is sent until Send.
func NewSender(targetAddress string) (*Sender, error) {
	udpAddr, err := net.ResolveUDPAddr("udp", targetAddress)
	if err != nil {
		return nil, fmt.Errorf("resolve udp target %q: %w", targetAddress, err)
	}
	conn, err := net.DialUDP("udp", nil, udpAddr)
	if err != nil {
		return nil, fmt.Errorf("dial udp target %q: %w", targetAddress, err)
	}

	s := &Sender{conn: conn, log: applog.Named("udp")}
	s.log.Infof("sending to %s", conn.RemoteAddr())
	return s, nil
}

// Send transmits data as one datagram. Safe for concurrent use.
func (s *Sender) Send(data []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return net.ErrClosed
	}
	if _, err := s.conn.Write(data); err != nil {
		return fmt.Errorf("send udp packet: %w", err)
	}
	return nil
}

// Close closes the connection. Further Sends fail with net.ErrClosed.
func (s *Sender) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true
	if err := s.conn.Close(); err != nil {
		return fmt.Errorf("close udp connection: %w", err)
	}
	return nil
}
