// ABOUTME: Audio decoding package
// ABOUTME: Decodes raw PCM and WAVE containers to normalized samples
// Package decode turns PCM data into normalized float32 samples.
//
// Two inputs are supported:
//   - Raw PCM as stored by the sample cache (8-bit unsigned, 16/24-bit signed LE)
//   - RIFF/WAVE containers, via github.com/go-audio/wav
//
// Example:
//
//	clip, err := decode.WAV(bytes.NewReader(img))
//	fmt.Println(clip.Format.SampleRate, clip.Frames())
package decode
