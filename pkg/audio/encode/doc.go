// ABOUTME: Audio container encoding package
// ABOUTME: Wraps raw PCM samples in the container formats backends load natively
// Package encode synthesizes backend-native containers around raw PCM.
//
// The mixing backend hands its loader a RIFF/WAVE image built around the raw
// sample bytes. Builders reuse a scratch buffer between calls and fall back
// to a one-off allocation for samples that do not fit.
//
// Example:
//
//	w := encode.NewWAV(64 * 1024)
//	img, err := w.Encode(audio.Format{SampleRate: 11025, Channels: 1, BitDepth: 16}, pcm)
package encode
