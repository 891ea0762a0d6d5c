// ABOUTME: Staged listener state
// ABOUTME: Changes accumulate until ListenerUpdate commits them as one snapshot
package sfx

// ListenerState is the full 3D listener snapshot handed to a backend
type ListenerState struct {
	PrimaryBits   int
	PrimaryRate   int
	UnitsPerMeter float32
	Doppler       float32
	Position      [3]float32
	Velocity      [3]float32
	Orientation   [2]float32 // yaw, pitch
	Reverb        [NumReverbParams]float32
}

// DefaultListener returns the listener state before any change
func DefaultListener() ListenerState {
	return ListenerState{UnitsPerMeter: 1, Doppler: 1}
}

// ListenerMask records which listener properties changed
type ListenerMask uint32

// Has reports whether p changed
func (m ListenerMask) Has(p ListenerProperty) bool {
	return m&(1<<uint(p)) != 0
}

func (m *ListenerMask) add(p ListenerProperty) {
	*m |= 1 << uint(p)
}

// stage applies one property to s. ok is false for unsupported properties or
// short vectors.
func (s *ListenerState) stage(prop ListenerProperty, values []float32) bool {
	switch prop {
	case ListenerPrimaryFormat:
		if len(values) < 2 {
			return false
		}
		s.PrimaryBits = int(values[0])
		s.PrimaryRate = int(values[1])
	case ListenerUnitsPerMeter:
		if len(values) < 1 || values[0] <= 0 {
			return false
		}
		s.UnitsPerMeter = values[0]
	case ListenerDoppler:
		if len(values) < 1 {
			return false
		}
		s.Doppler = values[0]
	case ListenerPosition:
		if len(values) < 3 {
			return false
		}
		copy(s.Position[:], values)
	case ListenerVelocity:
		if len(values) < 3 {
			return false
		}
		copy(s.Velocity[:], values)
	case ListenerOrientation:
		if len(values) < 2 {
			return false
		}
		copy(s.Orientation[:], values)
	case ListenerReverb:
		if len(values) < NumReverbParams {
			return false
		}
		copy(s.Reverb[:], values)
	default:
		return false
	}
	return true
}
