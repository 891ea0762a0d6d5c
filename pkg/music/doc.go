// Package music unifies the Music and CD sub-interfaces of a driver into one
// logical "now playing" song.
//
// A Song may define an embedded track, an external file and a CD track. The
// Aggregator picks the first source, in preference order, that the song
// defines and the active driver supports. Embedded tracks go to the driver's
// song buffer when it has one, or are staged to a rotated temporary file and
// played from there.
package music
