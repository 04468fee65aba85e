// Package sound plays WAV files through the system audio device with oto.
// Each playback loops a file a number of times and can be cancelled by its
// handle.
package sound
