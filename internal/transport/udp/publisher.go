// SPDX-License-Identifier: MIT
package udp

import (
	"bytes"
	"errors"
	"sync"
	"time"

	applog "spectra/internal/log"
	"spectra/internal/transport"
)

// Publisher periodically pulls the latest frame from a FrameSource, packs the
// bar values (see EncodePacket) and sends them with a Sender. Pulling on a
// fixed tick decouples the network rate from the audio rate.
type Publisher struct {
	sender   *Sender
	source   transport.FrameSource
	interval time.Duration
	log      *applog.Logger

	ticker   *time.Ticker
	doneChan chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup
	mu       sync.Mutex // Protects ticker and doneChan during Start/Stop.

	sequenceNum uint32
	lastFrame   uint64 // Seq of the last frame sent.

	// Reused between ticks.
	values       []float32
	packetBuffer *bytes.Buffer
}

// NewPublisher creates a publisher. interval <= 0 defaults to 16ms (~60Hz).
func NewPublisher(interval time.Duration, sender *Sender, source transport.FrameSource) (*Publisher, error) {
	if sender == nil {
		return nil, errors.New("udp publisher: sender cannot be nil")
	}
	if source == nil {
		return nil, errors.New("udp publisher: frame source cannot be nil")
	}

	l := applog.Named("udp")
	if interval <= 0 {
		interval = 16 * time.Millisecond
		l.Warnf("invalid interval, defaulting to %s", interval)
	}

	return &Publisher{
		sender:       sender,
		source:       source,
		interval:     interval,
		log:          l,
		packetBuffer: new(bytes.Buffer),
	}, nil
}

// Start launches the publishing goroutine. Calling Start while running is a
// no-op.
func (p *Publisher) Start() {
	p.mu.Lock()
	if p.ticker != nil {
		p.mu.Unlock()
		p.log.Warnf("publisher already running")
		return
	}
	p.ticker = time.NewTicker(p.interval)
	p.doneChan = make(chan struct{})
	p.stopOnce = sync.Once{}
	ticker, done := p.ticker, p.doneChan
	p.mu.Unlock()

	p.wg.Add(1)
	go func() {
		defer p.wg.Done()
		p.log.Debugf("publisher started (interval %s)", p.interval)
		for {
			select {
			case <-ticker.C:
				p.publish()
			case <-done:
				return
			}
		}
	}()
}

// Stop ends the publishing goroutine and waits for it. Safe to call more
// than once.
func (p *Publisher) Stop() error {
	p.mu.Lock()
	if p.ticker == nil {
		p.mu.Unlock()
		return nil
	}
	p.stopOnce.Do(func() {
		close(p.doneChan)
		p.ticker.Stop()
		p.ticker = nil
	})
	p.mu.Unlock()

	p.wg.Wait()
	return nil
}

// publish sends the current frame unless it was already sent or nothing has
// been processed yet.
func (p *Publisher) publish() {
	// --- 1. Fetch ---
	frame := p.source.Frame()
	if frame.Seq == 0 || frame.Seq == p.lastFrame {
		return
	}
	p.lastFrame = frame.Seq

	// --- 2. Convert ---
	p.values = p.values[:0]
	for _, b := range frame.Bars {
		p.values = append(p.values, b.Value)
	}

	// --- 3. Pack ---
	p.sequenceNum++
	err := EncodePacket(p.packetBuffer, Packet{
		Seq:       p.sequenceNum,
		Timestamp: frame.Timestamp.UnixNano(),
		Values:    p.values,
	})
	if err != nil {
		p.log.Errorf("pack frame %d: %v", frame.Seq, err)
		return
	}

	// --- 4. Send ---
	if err := p.sender.Send(p.packetBuffer.Bytes()); err != nil {
		p.log.Debugf("packet %d: %v", p.sequenceNum, err)
		return
	}
	p.log.Debugf("sent packet %d (%d bytes)", p.sequenceNum, p.packetBuffer.Len())
}

// Close stops the publisher and closes its sender.
func (p *Publisher) Close() error {
	if err := p.Stop(); err != nil {
		return err
	}
	return p.sender.Close()
}

var _ interface{ Close() error } = (*Publisher)(nil)
