// Package report describes the contents of a MIDI file, mostly to check what a
// conversion did.
package report

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"

	"github.com/vsariola/midimerge"
	"gitlab.com/gomidi/midi/v2/smf"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"gopkg.in/yaml.v3"
)

type (
	Summary struct {
		Path       string                    `yaml:"path" json:"path"`
		Format     uint16                    `yaml:"format" json:"format"`
		Resolution uint16                    `yaml:"resolution,omitempty" json:"resolution,omitempty"`
		TimeFormat string                    `yaml:"timeformat" json:"timeformat"`
		Tracks     []Track                   `yaml:"tracks" json:"tracks"`
		Diffs      []midimerge.TrackNameDiff `yaml:"diffs,omitempty" json:"diffs,omitempty"`
	}

	Track struct {
		Index   int            `yaml:"index" json:"index"`
		Name    string         `yaml:"name,omitempty" json:"name,omitempty"`
		Events  int            `yaml:"events" json:"events"`
		Kinds   map[string]int `yaml:"kinds,omitempty" json:"kinds,omitempty"`
		EndTick int64          `yaml:"endtick" json:"endtick"`
	}
)

// Summarize counts the events of each track of s.
func Summarize(path string, s *smf.SMF) Summary {
	ret := Summary{Path: path, Format: s.Format(), Tracks: make([]Track, 0, len(s.Tracks))}
	if s.TimeFormat != nil {
		ret.TimeFormat = s.TimeFormat.String()
	}
	if ticks, ok := s.TimeFormat.(smf.MetricTicks); ok {
		ret.Resolution = ticks.Resolution()
	}
	for i, t := range s.Tracks {
		tr := Track{Index: i, Name: midimerge.TrackName(t), Events: len(t), Kinds: map[string]int{}}
		for _, te := range midimerge.AbsoluteTimes(t) {
			tr.Kinds[midimerge.Classify(te.Event.Message).String()]++
			tr.EndTick = te.Tick
		}
		ret.Tracks = append(ret.Tracks, tr)
	}
	return ret
}

func (s Summary) YAML() ([]byte, error) {
	b, err := yaml.Marshal(s)
	if err != nil {
		return nil, fmt.Errorf("could not marshal the summary as yaml: %v", err)
	}
	return b, nil
}

func (s Summary) JSON() ([]byte, error) {
	b, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("could not marshal the summary as json: %v", err)
	}
	return b, nil
}

// WriteText writes a human readable version of the summary to w.
func (s Summary) WriteText(w io.Writer) error {
	caser := cases.Title(language.English)
	if _, err := fmt.Fprintf(w, "%s: format %d, %s, %d tracks\n", s.Path, s.Format, s.TimeFormat, len(s.Tracks)); err != nil {
		return err
	}
	for _, t := range s.Tracks {
		name := t.Name
		if name == "" {
			name = "(unnamed)"
		}
		if _, err := fmt.Fprintf(w, "  track %d %s: %d events, ends at tick %d\n", t.Index, name, t.Events, t.EndTick); err != nil {
			return err
		}
		kinds := make([]string, 0, len(t.Kinds))
		for k := range t.Kinds {
			kinds = append(kinds, k)
		}
		sort.Strings(kinds)
		for _, k := range kinds {
			if _, err := fmt.Fprintf(w, "    %s: %d\n", caser.String(k), t.Kinds[k]); err != nil {
				return err
			}
		}
	}
	for _, d := range s.Diffs {
		if _, err := fmt.Fprintf(w, "  track %d name differs from reference: %q, want %q\n", d.Index, d.Have, d.Want); err != nil {
			return err
		}
	}
	return nil
}
