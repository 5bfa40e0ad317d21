// SPDX-License-Identifier: MIT
/*
Package audio provides the mono sample sources that feed the spectrum
pipeline:
  - Capture reads a PortAudio input device
  - FileSource decodes WAV, MP3 and Ogg Vorbis files, paced in real time
  - SineSource synthesizes a test tone

All of them implement stream.Source. Capture downmixes interleaved
channels, tees the signal to an optional Recorder and applies a noise Gate.

Thread Safety:
  - Gate and Recorder may be reconfigured while audio is flowing
  - Capture callbacks run on the PortAudio thread and only hand fresh
    buffers downstream
*/
package audio
