// Package midimerge rewrites a two-track Standard MIDI File so that the note
// content of the first two tracks lives in track 1 and track 0 only carries
// meta information.
//
// MuseScore 4 stores notes in the first track of its MIDI exports, while FL
// Studio reads the first track as a conductor track. Merging the first two
// tracks by absolute time makes the file import as expected.
package midimerge

import (
	"cmp"

	"gitlab.com/gomidi/midi/v2/smf"
	"golang.org/x/exp/slices"
)

type (
	// Kind tells apart the different classes of events in a track.
	Kind int

	// TimedEvent is an event together with its absolute position in ticks
	// from the start of the track it came from.
	TimedEvent struct {
		Tick  int64
		Event smf.Event
	}
)

const (
	Invalid Kind = iota
	Channel
	SysEx
	Meta
)

var kindNames = [...]string{Invalid: "invalid", Channel: "channel", SysEx: "sysex", Meta: "meta"}

func (k Kind) String() string {
	if k < 0 || int(k) >= len(kindNames) {
		return kindNames[Invalid]
	}
	return kindNames[k]
}

// Classify returns the kind of msg based on its status byte.
func Classify(msg smf.Message) Kind {
	if len(msg) == 0 {
		return Invalid
	}
	switch status := msg[0]; {
	case status == 0xFF:
		return Meta
	case status == 0xF0 || status == 0xF7:
		return SysEx
	case status >= 0x80 && status < 0xF0:
		return Channel
	}
	return Invalid
}

// AbsoluteTimes accumulates the delta times of track. The result has one entry
// per event, in the original order. The track is not modified.
func AbsoluteTimes(track smf.Track) []TimedEvent {
	ret := make([]TimedEvent, 0, len(track))
	var tick int64
	for _, ev := range track {
		tick += int64(ev.Delta)
		ret = append(ret, TimedEvent{Tick: tick, Event: ev})
	}
	return ret
}

// DeltaTimes builds a track from timed events, deriving each delta from the
// previous event's tick. The first delta is the tick of the first event.
func DeltaTimes(timed []TimedEvent) smf.Track {
	track := make(smf.Track, 0, len(timed))
	var last int64
	for _, t := range timed {
		track = append(track, smf.Event{Delta: uint32(t.Tick - last), Message: t.Event.Message})
		last = t.Tick
	}
	return track
}

// MergeTracks merges two tracks so that every event keeps its absolute time.
// Events falling on the same tick keep their relative order, with the events
// of a placed before the events of b.
func MergeTracks(a, b smf.Track) smf.Track {
	return mergeTimed(AbsoluteTimes(a), AbsoluteTimes(b))
}

func mergeTimed(a, b []TimedEvent) smf.Track {
	merged := make([]TimedEvent, 0, len(a)+len(b))
	merged = append(merged, a...)
	merged = append(merged, b...)
	slices.SortStableFunc(merged, func(x, y TimedEvent) int {
		return cmp.Compare(x.Tick, y.Tick)
	})
	return DeltaTimes(merged)
}

// MetaEvents returns the meta events of track in their original order, with
// their original delta times.
func MetaEvents(track smf.Track) smf.Track {
	ret := smf.Track{}
	for _, ev := range track {
		if Classify(ev.Message) == Meta {
			ret = append(ret, ev)
		}
	}
	return ret
}

// Convert moves the performance data of track 0 into track 1. Track 0 is left
// with only its meta events, and track 1 is replaced by the merge of the non
// meta events of track 0 with all the events of track 1. Tracks after the
// second are not touched.
func Convert(s *smf.SMF) error {
	if s == nil || len(s.Tracks) < 2 {
		n := 0
		if s != nil {
			n = len(s.Tracks)
		}
		return &TracksError{Have: n}
	}
	first := s.Tracks[0]
	var performance []TimedEvent
	for _, t := range AbsoluteTimes(first) {
		if Classify(t.Event.Message) != Meta {
			performance = append(performance, t)
		}
	}
	merged := mergeTimed(performance, AbsoluteTimes(s.Tracks[1]))
	s.Tracks[0] = MetaEvents(first)
	s.Tracks[1] = merged
	return nil
}
