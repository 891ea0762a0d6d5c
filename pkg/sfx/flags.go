// ABOUTME: Buffer flags and property identifiers
// ABOUTME: Numeric values match the dynamic driver ABI
package sfx

// Flag is a buffer flag bit
type Flag uint32

// Buffer flags
const (
	FlagPlaying  Flag = 0x1
	Flag3D       Flag = 0x2
	FlagRepeat   Flag = 0x4
	FlagDontStop Flag = 0x8
	FlagStream   Flag = 0x10
	FlagReload   Flag = 0x10000
)

// createMask holds the flags a caller may pass to Create
const createMask = Flag3D | FlagRepeat | FlagDontStop | FlagStream

// Property identifies a buffer property
type Property int

// Buffer properties
const (
	BufferVolume       Property = 0 // 0..1, negative is attenuation
	BufferFrequency    Property = 1 // 1 is the sample rate
	BufferPan          Property = 2 // -1..1, 2D buffers only
	BufferMinDistance  Property = 3
	BufferMaxDistance  Property = 4
	BufferPosition     Property = 5
	BufferVelocity     Property = 6
	BufferRelativeMode Property = 7
)

// ListenerProperty identifies a listener property
type ListenerProperty int

// Listener properties
const (
	ListenerUpdate        ListenerProperty = 0
	ListenerPrimaryFormat ListenerProperty = 1 // bits, rate
	ListenerUnitsPerMeter ListenerProperty = 2
	ListenerDoppler       ListenerProperty = 3
	ListenerPosition      ListenerProperty = 4
	ListenerVelocity      ListenerProperty = 5
	ListenerOrientation   ListenerProperty = 6 // yaw, pitch in degrees
	ListenerReverb        ListenerProperty = 7
)

// Reverb parameter indices for ListenerReverb
const (
	ReverbVolume = iota
	ReverbSpace
	ReverbDecay
	ReverbDamping
	NumReverbParams
)

// InfoID identifies a backend capability query
type InfoID int

// Capability queries
const (
	InfoDisableChannelRefresh InfoID = 1
	InfoAnySampleRateAccepted InfoID = 2
)
