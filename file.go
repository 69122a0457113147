package midimerge

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"

	"gitlab.com/gomidi/midi/v2/smf"
)

// Load reads a Standard MIDI File from path.
func Load(path string) (*smf.SMF, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v: %w", ErrFileNotFound, path, err)
	}
	if !info.Mode().IsRegular() {
		return nil, fmt.Errorf("%w: %v is not a regular file", ErrFileNotFound, path)
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v: %w", ErrFileNotFound, path, err)
	}
	defer f.Close()
	s, err := smf.ReadFrom(bufio.NewReader(f))
	if err != nil {
		return nil, fmt.Errorf("%w: %v: %w", ErrParse, path, err)
	}
	return s, nil
}

// Save writes s to path. The file is first written next to path under a
// temporary name and renamed over path only after it was completely written,
// so a failed save never leaves a truncated file behind.
func Save(s *smf.SMF, path string) (err error) {
	if s == nil {
		return fmt.Errorf("%w: %v: no midi data", ErrSerialization, path)
	}
	out := *s
	out.Tracks = make([]smf.Track, len(s.Tracks))
	for i, t := range s.Tracks {
		out.Tracks[i] = closeTrack(t)
	}
	dir, name := filepath.Split(path)
	if dir == "" {
		dir = "."
	}
	tmp, err := os.CreateTemp(dir, "."+name+".*.tmp")
	if err != nil {
		return fmt.Errorf("%w: %v: %w", ErrSerialization, path, err)
	}
	defer func() {
		if err != nil {
			tmp.Close()
			os.Remove(tmp.Name())
		}
	}()
	w := bufio.NewWriter(tmp)
	if _, err = out.WriteTo(w); err != nil {
		return fmt.Errorf("%w: %v: %w", ErrSerialization, path, err)
	}
	if err = w.Flush(); err != nil {
		return fmt.Errorf("%w: %v: %w", ErrSerialization, path, err)
	}
	if err = tmp.Chmod(0644); err != nil {
		return fmt.Errorf("%w: %v: %w", ErrSerialization, path, err)
	}
	if err = tmp.Sync(); err != nil {
		return fmt.Errorf("%w: %v: %w", ErrSerialization, path, err)
	}
	if err = tmp.Close(); err != nil {
		return fmt.Errorf("%w: %v: %w", ErrSerialization, path, err)
	}
	if err = os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("%w: %v: %w", ErrSerialization, path, err)
	}
	return nil
}

// closeTrack returns a copy of track with exactly one end of track marker, as
// its last event. Markers found in the middle of the track are removed and
// their delta is added to the event that follows.
func closeTrack(track smf.Track) smf.Track {
	ret := make(smf.Track, 0, len(track)+1)
	var carry uint32
	for _, ev := range track {
		if isEndOfTrack(ev.Message) {
			carry += ev.Delta
			continue
		}
		ev.Delta += carry
		carry = 0
		ret = append(ret, ev)
	}
	ret.Close(carry)
	return ret
}

func isEndOfTrack(msg smf.Message) bool {
	return len(msg) >= 2 && msg[0] == 0xFF && msg[1] == 0x2F
}

// TrackName returns the first track name found in track, or "" if it has none.
func TrackName(track smf.Track) string {
	var name string
	for _, ev := range track {
		if ev.Message.GetMetaTrackName(&name) {
			return name
		}
	}
	return ""
}

// Converter holds a loaded MIDI file through its conversion. It is only ever
// created complete by Open.
type Converter struct {
	path       string
	smf        *smf.SMF
	trackNames []string
}

// TrackNameDiff describes a track whose name differs from the reference file
// given to Converter.Compare. Missing tracks have an empty name on that side.
type TrackNameDiff struct {
	Index int    `yaml:"index" json:"index"`
	Have  string `yaml:"have" json:"have"`
	Want  string `yaml:"want" json:"want"`
}

// Open loads the MIDI file at path.
func Open(path string) (*Converter, error) {
	s, err := Load(path)
	if err != nil {
		return nil, err
	}
	return newConverter(path, s), nil
}

func newConverter(path string, s *smf.SMF) *Converter {
	names := make([]string, len(s.Tracks))
	for i, t := range s.Tracks {
		names[i] = TrackName(t)
	}
	return &Converter{path: path, smf: s, trackNames: names}
}

func (c *Converter) Path() string { return c.path }

func (c *Converter) SMF() *smf.SMF { return c.smf }

// TrackNames returns the track names as they were when the file was opened.
func (c *Converter) TrackNames() []string {
	return append([]string(nil), c.trackNames...)
}

// Convert merges the first two tracks, see Convert.
func (c *Converter) Convert() error {
	if err := Convert(c.smf); err != nil {
		return fmt.Errorf("%v: %w", c.path, err)
	}
	return nil
}

// Save writes the converted file to path.
func (c *Converter) Save(path string) error {
	return Save(c.smf, path)
}

// Compare lists the tracks whose names differ from the tracks of the file at
// referencePath, typically a file exported by the target DAW.
func (c *Converter) Compare(referencePath string) ([]TrackNameDiff, error) {
	ref, err := Load(referencePath)
	if err != nil {
		return nil, err
	}
	want := make([]string, len(ref.Tracks))
	for i, t := range ref.Tracks {
		want[i] = TrackName(t)
	}
	have := make([]string, len(c.smf.Tracks))
	for i, t := range c.smf.Tracks {
		have[i] = TrackName(t)
	}
	var diffs []TrackNameDiff
	for i := 0; i < max(len(have), len(want)); i++ {
		var h, w string
		if i < len(have) {
			h = have[i]
		}
		if i < len(want) {
			w = want[i]
		}
		if h != w || i >= len(have) || i >= len(want) {
			diffs = append(diffs, TrackNameDiff{Index: i, Have: h, Want: w})
		}
	}
	return diffs, nil
}

// ConvertFile converts the MIDI file at input and writes the result to output.
// Nothing is written when loading or converting fails.
func ConvertFile(input, output string) error {
	c, err := Open(input)
	if err != nil {
		return err
	}
	if err := c.Convert(); err != nil {
		return err
	}
	return c.Save(output)
}
