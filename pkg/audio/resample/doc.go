// ABOUTME: Audio resampling package using linear interpolation
// ABOUTME: Steps through mono source data at a variable playback rate
// Package resample provides per-voice sample rate conversion.
//
// A Resampler walks a source at an adjustable ratio so a voice's playback
// frequency can change while it plays (FREQUENCY and doppler updates).
//
// Example:
//
//	r := resample.New(11025, 44100)
//	for {
//	    s, ok := r.Next(samples)
//	    if !ok { break }
//	}
package resample
