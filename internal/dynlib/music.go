// ABOUTME: Music and CD sub-interface adapters for dynamic drivers
// ABOUTME: Translate music.Music and music.CD calls to DM_* exports
package dynlib

import (
	"bytes"
	"fmt"
	"unsafe"

	"github.com/Resonate-Protocol/audiodriver/pkg/music"
)

// Music adapts DM_Music_* exports
type Music struct {
	musicInit  func() int32
	update     func()
	set        func(int32, float32)
	get        func(int32, unsafe.Pointer) int32
	pause      func(int32)
	stop       func()
	songBuffer func(uint32) uintptr
	play       func(int32) int32
	playFile   func(string, int32) int32
}

var (
	_ music.Music      = (*Music)(nil)
	_ music.Identifier = (*Music)(nil)
)

// idSize is the scratch space offered to *_Get for string answers
const idSize = 256

// getProperty calls a *_Get export with a scratch buffer and returns both
// the integer answer and any NUL-terminated string written into the buffer
func getProperty(get func(int32, unsafe.Pointer) int32, prop music.Property) (int, string) {
	var scratch [idSize]byte
	v := int(get(int32(prop), unsafe.Pointer(&scratch[0])))
	n := bytes.IndexByte(scratch[:], 0)
	if n < 0 {
		n = len(scratch)
	}
	return v, string(scratch[:n])
}

func (m *Music) bindings() []binding {
	return []binding{
		{musicGate, &m.musicInit},
		{"DM_Music_Update", &m.update},
		{"DM_Music_Get", &m.get},
		{"DM_Music_Set", &m.set},
		{"DM_Music_Pause", &m.pause},
		{"DM_Music_Stop", &m.stop},
		{"DM_Music_SongBuffer", &m.songBuffer},
		{"DM_Music_Play", &m.play},
		{"DM_Music_PlayFile", &m.playFile},
	}
}

// Init calls DM_Music_Init
func (m *Music) Init() (err error) {
	defer recoverInto(&err, musicGate)
	if m.musicInit() == 0 {
		return fmt.Errorf("%s reported failure", musicGate)
	}
	return nil
}

// Update calls DM_Music_Update
func (m *Music) Update() {
	defer recoverLog("DM_Music_Update")
	m.update()
}

// Set calls DM_Music_Set
func (m *Music) Set(prop music.Property, value float32) {
	defer recoverLog("DM_Music_Set")
	m.set(int32(prop), value)
}

// Get calls DM_Music_Get. For PropertyID the driver answers with a string,
// so the value is only the call's success; Identify returns the string.
func (m *Music) Get(prop music.Property) (v int, ok bool) {
	defer recoverLog("DM_Music_Get")
	v, _ = getProperty(m.get, prop)
	return v, true
}

// Identify returns the id string DM_Music_Get writes for PropertyID
func (m *Music) Identify() (id string) {
	defer recoverLog("DM_Music_Get")
	_, id = getProperty(m.get, music.PropertyID)
	return id
}

// Pause calls DM_Music_Pause
func (m *Music) Pause(pause bool) {
	defer recoverLog("DM_Music_Pause")
	m.pause(boolArg(pause))
}

// Stop calls DM_Music_Stop
func (m *Music) Stop() {
	defer recoverLog("DM_Music_Stop")
	m.stop()
}

// SongBuffer returns the driver's song buffer, or nil when it has none
func (m *Music) SongBuffer(size int) (buf []byte) {
	defer recoverLog("DM_Music_SongBuffer")
	p := m.songBuffer(uint32(size))
	if p == 0 {
		return nil
	}
	return unsafe.Slice((*byte)(unsafe.Pointer(p)), size)
}

// Play calls DM_Music_Play
func (m *Music) Play(looped bool) (err error) {
	defer recoverInto(&err, "DM_Music_Play")
	if m.play(boolArg(looped)) == 0 {
		return fmt.Errorf("DM_Music_Play reported failure")
	}
	return nil
}

// PlayFile calls DM_Music_PlayFile
func (m *Music) PlayFile(path string, looped bool) (err error) {
	defer recoverInto(&err, "DM_Music_PlayFile")
	if m.playFile(path, boolArg(looped)) == 0 {
		return fmt.Errorf("DM_Music_PlayFile(%s) reported failure", path)
	}
	return nil
}

// CD adapts DM_CDAudio_* exports
type CD struct {
	cdInit func() int32
	update func()
	set    func(int32, float32)
	get    func(int32, unsafe.Pointer) int32
	pause  func(int32)
	stop   func()
	play   func(int32, int32) int32
}

var (
	_ music.CD         = (*CD)(nil)
	_ music.Identifier = (*CD)(nil)
)

func (c *CD) bindings() []binding {
	return []binding{
		{cdGate, &c.cdInit},
		{"DM_CDAudio_Update", &c.update},
		{"DM_CDAudio_Set", &c.set},
		{"DM_CDAudio_Get", &c.get},
		{"DM_CDAudio_Pause", &c.pause},
		{"DM_CDAudio_Stop", &c.stop},
		{"DM_CDAudio_Play", &c.play},
	}
}

// Init calls DM_CDAudio_Init
func (c *CD) Init() (err error) {
	defer recoverInto(&err, cdGate)
	if c.cdInit() == 0 {
		return fmt.Errorf("%s reported failure", cdGate)
	}
	return nil
}

// Update calls DM_CDAudio_Update
func (c *CD) Update() {
	defer recoverLog("DM_CDAudio_Update")
	c.update()
}

// Set calls DM_CDAudio_Set
func (c *CD) Set(prop music.Property, value float32) {
	defer recoverLog("DM_CDAudio_Set")
	c.set(int32(prop), value)
}

// Get calls DM_CDAudio_Get; see Music.Get for PropertyID
func (c *CD) Get(prop music.Property) (v int, ok bool) {
	defer recoverLog("DM_CDAudio_Get")
	v, _ = getProperty(c.get, prop)
	return v, true
}

// Identify returns the id string DM_CDAudio_Get writes for PropertyID
func (c *CD) Identify() (id string) {
	defer recoverLog("DM_CDAudio_Get")
	_, id = getProperty(c.get, music.PropertyID)
	return id
}

// Pause calls DM_CDAudio_Pause
func (c *CD) Pause(pause bool) {
	defer recoverLog("DM_CDAudio_Pause")
	c.pause(boolArg(pause))
}

// Stop calls DM_CDAudio_Stop
func (c *CD) Stop() {
	defer recoverLog("DM_CDAudio_Stop")
	c.stop()
}

// Play calls DM_CDAudio_Play
func (c *CD) Play(track int, looped bool) (err error) {
	defer recoverInto(&err, "DM_CDAudio_Play")
	if c.play(int32(track), boolArg(looped)) == 0 {
		return fmt.Errorf("DM_CDAudio_Play(%d) reported failure", track)
	}
	return nil
}
