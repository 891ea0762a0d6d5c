// ABOUTME: Audio output package for playing mixed PCM
// ABOUTME: Provides the pull-based Output interface and device implementations
// Package output provides audio playback devices that pull PCM from a reader.
//
// Backends mix or decode into an io.Reader; an Output pulls from that reader
// on its own audio thread. Implementations:
//   - Oto: cross-platform output via github.com/ebitengine/oto/v3 (default)
//   - Malgo: miniaudio via github.com/gen2brain/malgo
//   - PortAudio: build with -tags portaudio
//   - Null: no device, data is pulled explicitly with Drain
//
// Example:
//
//	out := output.NewOto()
//	err := out.Open(audio.Format{SampleRate: 44100, Channels: 2, BitDepth: 16}, mixer)
package output
