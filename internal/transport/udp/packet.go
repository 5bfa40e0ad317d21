// SPDX-License-Identifier: MIT
package udp

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"math"
)

/*
Packet layout, big endian:

	|<- 4 ->|<--- 8 --->|<- 2 ->|<---- N * 4 ---->|
	+-------+-----------+-------+-----------------+
	|  seq  | timestamp | count |  bar values     |
	| u32   | i64 (ns)  | u16   |  N * float32    |
	+-------+-----------+-------+-----------------+
*/

const headerSize = 4 + 8 + 2

// MaxValues is the largest bar count a packet can carry.
const MaxValues = math.MaxUint16

var ErrShortPacket = errors.New("udp: short packet")

// Packet is one decoded datagram.
type Packet struct {
	Seq       uint32
	Timestamp int64 // Unix nanoseconds of the frame.
	Values    []float32
}

// EncodePacket appends the encoding of p to buf (which is reset first).
func EncodePacket(buf *bytes.Buffer, p Packet) error {
	if len(p.Values) > MaxValues {
		return fmt.Errorf("udp: %d values exceed packet limit %d", len(p.Values), MaxValues)
	}
	buf.Reset()
	buf.Grow(headerSize + 4*len(p.Values))

	var hdr [headerSize]byte
	binary.BigEndian.PutUint32(hdr[0:4], p.Seq)
	binary.BigEndian.PutUint64(hdr[4:12], uint64(p.Timestamp))
	binary.BigEndian.PutUint16(hdr[12:14], uint16(len(p.Values)))
	buf.Write(hdr[:])

	var word [4]byte
	for _, v := range p.Values {
		binary.BigEndian.PutUint32(word[:], math.Float32bits(v))
		buf.Write(word[:])
	}
	return nil
}

// DecodePacket parses a datagram produced by EncodePacket.
func DecodePacket(data []byte) (Packet, error) {
	if len(data) < headerSize {
		return Packet{}, ErrShortPacket
	}
	p := Packet{
		Seq:       binary.BigEndian.Uint32(data[0:4]),
		Timestamp: int64(binary.BigEndian.Uint64(data[4:12])),
	}
	count := int(binary.BigEndian.Uint16(data[12:14]))
	body := data[headerSize:]
	if len(body) < 4*count {
		return Packet{}, fmt.Errorf("%w: header says %d values, body holds %d bytes", ErrShortPacket, count, len(body))
	}

	p.Values = make([]float32, count)
	for i := range p.Values {
		p.Values[i] = math.Float32frombits(binary.BigEndian.Uint32(body[4*i:]))
	}
	return p, nil
}
