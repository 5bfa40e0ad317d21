// SPDX-License-Identifier: MIT
package tui

import (
	"context"
	"errors"
	"fmt"
	"time"

	"spectra/internal/audio"

	tea "github.com/charmbracelet/bubbletea"
)

// PickDevice runs the device picker full screen and returns the choice.
func PickDevice(fetch func() ([]audio.Device, error)) (DeviceChoice, error) {
	p := tea.NewProgram(NewDeviceListModel(fetch), tea.WithAltScreen())
	final, err := p.Run()
	if err != nil {
		return DeviceChoice{}, fmt.Errorf("device picker: %w", err)
	}
	m, ok := final.(DeviceListModel)
	if !ok {
		return DeviceChoice{}, fmt.Errorf("device picker: unexpected model %T", final)
	}
	if m.err != nil {
		return DeviceChoice{}, m.err
	}
	return m.choice, nil
}

// RunSpectrum shows the live spectrum until the user quits, ctx is cancelled
// or done delivers the stream's exit error. The stream error is returned.
func RunSpectrum(ctx context.Context, ctrl Controller, refresh time.Duration, title string, done <-chan error) error {
	p := tea.NewProgram(NewSpectrumModel(ctrl, refresh, title), tea.WithAltScreen())

	go func() {
		select {
		case err := <-done:
			p.Send(StreamDoneMsg{Err: err})
		case <-ctx.Done():
			p.Quit()
		}
	}()

	final, err := p.Run()
	if err != nil && !errors.Is(err, tea.ErrProgramKilled) {
		return fmt.Errorf("spectrum view: %w", err)
	}
	if m, ok := final.(SpectrumModel); ok {
		return m.Err()
	}
	return nil
}
