package midimerge

import (
	"errors"
	"fmt"
)

var (
	ErrFileNotFound       = errors.New("midi file not found")
	ErrParse              = errors.New("not a valid standard midi file")
	ErrInsufficientTracks = errors.New("midi file must have at least two tracks")
	ErrSerialization      = errors.New("could not write midi file")
)

// TracksError is returned by Convert when the file has too few tracks to be
// merged. It matches ErrInsufficientTracks with errors.Is.
type TracksError struct {
	Have int
}

func (e *TracksError) Error() string {
	return fmt.Sprintf("%v (found %d)", ErrInsufficientTracks, e.Have)
}

func (e *TracksError) Is(target error) bool {
	return target == ErrInsufficientTracks
}
