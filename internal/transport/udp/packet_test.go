// SPDX-License-Identifier: MIT
package udp

import (
	"bytes"
	"errors"
	"slices"
	"testing"
)

func TestPacketRoundTrip(t *testing.T) {
	var buf bytes.Buffer
	in := Packet{Seq: 9, Timestamp: -5, Values: []float32{0, 0.5, 1, 3.25}}
	if err := EncodePacket(&buf, in); err != nil {
		t.Fatal(err)
	}
	if buf.Len() != headerSize+16 {
		t.Errorf("encoded %d bytes, want %d", buf.Len(), headerSize+16)
	}

	out, err := DecodePacket(buf.Bytes())
	if err != nil {
		t.Fatal(err)
	}
	if out.Seq != in.Seq || out.Timestamp != in.Timestamp || !slices.Equal(out.Values, in.Values) {
		t.Errorf("DecodePacket() = %+v, want %+v", out, in)
	}
}

func TestPacketLayout(t *testing.T) {
	var buf bytes.Buffer
	_ = EncodePacket(&buf, Packet{Seq: 1, Timestamp: 2, Values: []float32{1}})
	want := []byte{
		0, 0, 0, 1, // seq
		0, 0, 0, 0, 0, 0, 0, 2, // timestamp
		0, 1, // count
		0x3f, 0x80, 0, 0, // 1.0
	}
	if !bytes.Equal(buf.Bytes(), want) {
		t.Errorf("encoded % x, want % x", buf.Bytes(), want)
	}
}

func TestDecodePacketShort(t *testing.T) {
	if _, err := DecodePacket([]byte{1, 2, 3}); !errors.Is(err, ErrShortPacket) {
		t.Errorf("short header error = %v", err)
	}

	var buf bytes.Buffer
	_ = EncodePacket(&buf, Packet{Values: []float32{1, 2}})
	truncated := buf.Bytes()[:buf.Len()-1]
	if _, err := DecodePacket(truncated); !errors.Is(err, ErrShortPacket) {
		t.Errorf("truncated body error = %v", err)
	}
}

func TestEncodePacketReusesBuffer(t *testing.T) {
	var buf bytes.Buffer
	values := make([]float32, 64)
	_ = EncodePacket(&buf, Packet{Values: values})

	allocs := testing.AllocsPerRun(100, func() {
		_ = EncodePacket(&buf, Packet{Values: values})
	})
	if allocs > 0 {
		t.Errorf("EncodePacket allocated %.1f times with a warm buffer", allocs)
	}
}
