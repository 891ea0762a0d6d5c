// Package sfx implements the sound-effect buffer engine.
//
// An Engine owns a bounded pool of Buffers, one per simultaneously playable
// channel, and drives each through the Empty, Loaded, Playing and Stopped
// states on top of a Backend. Buffer and listener properties use the same
// numeric ids as the dynamic driver ABI.
//
// Example:
//
//	engine := sfx.NewEngine(backend, sfx.Config{MaxBuffers: 32})
//	buf, err := engine.Create(0, 16, 11025)
//	if err != nil {
//		log.Fatal(err)
//	}
//	engine.Load(buf, sample)
//	engine.Play(buf)
//
// Listener changes are staged and reach the backend as one snapshot when
// ListenerUpdate is issued.
package sfx
