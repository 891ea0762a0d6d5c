// ABOUTME: Per-buffer voice state of the mixer
// ABOUTME: Gains, spatialization and the streaming refill path
package mixer

import (
	"math"

	"github.com/Resonate-Protocol/audiodriver/pkg/audio"
	"github.com/Resonate-Protocol/audiodriver/pkg/audio/decode"
	"github.com/Resonate-Protocol/audiodriver/pkg/audio/resample"
	"github.com/Resonate-Protocol/audiodriver/pkg/sfx"
)

// speedOfSound in meters per second
const speedOfSound = 343.0

// voice is the mixer's private state for one buffer
type voice struct {
	buf *sfx.Buffer

	clip   []float32 // mono source for sample voices
	stream *streamState
	rate   int
	res    *resample.Resampler

	playing  bool
	finished bool
	repeat   bool
	is3D     bool

	volume    float32 // linear gain
	pan       float32
	freqScale float32
	doppler   float32
	relative  bool
	minDist   float32
	maxDist   float32
	position  [3]float32
	velocity  [3]float32

	left, right, mono float32
}

func newVoice(b *sfx.Buffer) *voice {
	v := &voice{
		buf:       b,
		repeat:    b.Has(sfx.FlagRepeat),
		is3D:      b.Has(sfx.Flag3D),
		volume:    1,
		freqScale: 1,
		doppler:   1,
		minDist:   1,
		maxDist:   1000,
	}
	v.left, v.right = audio.PanGains(0)
	v.mono = 1
	return v
}

// inputRate is the source rate after frequency scaling and doppler
func (v *voice) inputRate() int {
	r := int(float32(v.rate)*v.freqScale*v.doppler + 0.5)
	if r < 1 {
		return 1
	}
	return r
}

// update recomputes gains and pitch against the listener
func (v *voice) update(l *sfx.ListenerState) {
	att, pan, doppler := float32(1), v.pan, float32(1)
	if v.is3D {
		att, pan, doppler = v.spatialize(l)
	}

	left, right := audio.PanGains(pan)
	v.left = v.volume * att * left
	v.right = v.volume * att * right
	v.mono = v.volume * att
	v.doppler = doppler

	if v.res != nil {
		v.res.SetInputRate(v.inputRate())
	}
}

func (v *voice) spatialize(l *sfx.ListenerState) (att, pan, doppler float32) {
	rel := v.position
	relVel := v.velocity
	if !v.relative {
		for i := range rel {
			rel[i] -= l.Position[i]
			relVel[i] -= l.Velocity[i]
		}
	}

	dist := math.Sqrt(float64(rel[0]*rel[0] + rel[1]*rel[1] + rel[2]*rel[2]))
	att = distanceGain(float32(dist), v.minDist, v.maxDist)
	if dist == 0 {
		return att, 0, 1
	}

	yaw := float64(l.Orientation[0]) * math.Pi / 180
	angle := math.Atan2(float64(rel[1]), float64(rel[0])) - yaw
	pan = float32(-math.Sin(angle))

	// positive radial speed means the source is moving away
	radial := float64(relVel[0]*rel[0]+relVel[1]*rel[1]+relVel[2]*rel[2]) / dist
	radial *= float64(l.Doppler)
	c := speedOfSound * float64(l.UnitsPerMeter)
	doppler = 1
	if c+radial > 0 {
		doppler = float32(math.Max(0.5, math.Min(2, c/(c+radial))))
	}
	return att, pan, doppler
}

// distanceGain is linear between minDist (full) and maxDist (silent)
func distanceGain(dist, minDist, maxDist float32) float32 {
	if dist <= minDist {
		return 1
	}
	if dist >= maxDist {
		return 0
	}
	return 1 - (dist-minDist)/(maxDist-minDist)
}

// streamState feeds a STREAM voice from its sample's callback through a ring
type streamState struct {
	ring     *audio.Ring
	sample   *sfx.Sample
	decoder  *decode.PCMDecoder
	bytesPer int
	raw      []byte
	pcm      []float32
}

func (st *streamState) reset() {
	st.ring.Reset()
	st.pcm = st.pcm[:0]
}

// fill tops up decoded source samples for the next frames output frames
func (st *streamState) fill(v *voice, frames int) []float32 {
	need := int(float64(frames)*v.res.Ratio()) + 2
	for len(st.pcm)-int(v.res.Position()) < need {
		if free := st.ring.Free(); free >= st.bytesPer {
			chunk := st.raw[:free-free%st.bytesPer]
			if n := st.sample.Fill(v.buf, chunk); n > 0 {
				st.ring.Write(chunk[:n])
			}
		}

		avail := st.ring.Available()
		avail -= avail % st.bytesPer
		if avail == 0 {
			break
		}
		k := st.ring.Read(st.raw[:avail])
		st.pcm = st.decoder.DecodeInto(st.pcm, st.raw[:k])
	}

	v.buf.UpdateRing(st.ring.Len(), st.ring.Cursor(), st.ring.Written())
	return st.pcm
}

// consume drops source samples the resampler has moved past
func (st *streamState) consume(v *voice) {
	used := int(v.res.Position())
	if used <= 0 {
		return
	}
	if used > len(st.pcm) {
		used = len(st.pcm)
	}
	st.pcm = append(st.pcm[:0], st.pcm[used:]...)
	v.res.Consume(used)
}
