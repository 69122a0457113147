package midimerge_test

import (
	"errors"
	"reflect"
	"testing"

	"github.com/vsariola/midimerge"
	"gitlab.com/gomidi/midi/v2"
	"gitlab.com/gomidi/midi/v2/smf"
)

func ev(delta uint32, msg []byte) smf.Event {
	return smf.Event{Delta: delta, Message: smf.Message(msg)}
}

var (
	tempo = smf.MetaTempo(120)
	onC4  = midi.NoteOn(0, 60, 100)
	offC4 = midi.NoteOff(0, 60)
	onE4  = midi.NoteOn(0, 64, 100)
	offE4 = midi.NoteOff(0, 64)
)

func scenario() *smf.SMF {
	s := smf.New()
	s.TimeFormat = smf.MetricTicks(480)
	s.Tracks = []smf.Track{
		{ev(0, tempo), ev(0, onC4), ev(480, offC4)},
		{ev(0, onE4), ev(240, offE4)},
	}
	return s
}

func TestConvertScenario(t *testing.T) {
	s := scenario()
	if err := midimerge.Convert(s); err != nil {
		t.Fatalf("Convert failed: %v", err)
	}
	expected0 := smf.Track{ev(0, tempo)}
	expected1 := smf.Track{ev(0, onC4), ev(0, onE4), ev(240, offE4), ev(240, offC4)}
	if !reflect.DeepEqual(s.Tracks[0], expected0) {
		t.Fatalf("track 0 mismatch, got %v, expected %v", s.Tracks[0], expected0)
	}
	if !reflect.DeepEqual(s.Tracks[1], expected1) {
		t.Fatalf("track 1 mismatch, got %v, expected %v", s.Tracks[1], expected1)
	}
	if s.TimeFormat != smf.MetricTicks(480) {
		t.Fatalf("time format changed to %v", s.TimeFormat)
	}
}

func TestAbsoluteTimesRoundTrip(t *testing.T) {
	tracks := []smf.Track{
		{},
		{ev(0, tempo)},
		{ev(17, onC4), ev(0, onE4), ev(480, offC4), ev(3, offE4), ev(96000, tempo)},
		{ev(1, onC4), ev(1, offC4), ev(1, onC4), ev(1, offC4)},
	}
	for i, track := range tracks {
		timed := midimerge.AbsoluteTimes(track)
		if len(timed) != len(track) {
			t.Fatalf("track %d: got %d timed events, expected %d", i, len(timed), len(track))
		}
		got := midimerge.DeltaTimes(timed)
		if !reflect.DeepEqual(got, track) && !(len(got) == 0 && len(track) == 0) {
			t.Fatalf("track %d: round trip changed the track, got %v, expected %v", i, got, track)
		}
	}
}

func TestAbsoluteTimes(t *testing.T) {
	track := smf.Track{ev(10, onC4), ev(0, onE4), ev(5, offC4)}
	got := midimerge.AbsoluteTimes(track)
	ticks := []int64{}
	for _, te := range got {
		ticks = append(ticks, te.Tick)
	}
	if expected := []int64{10, 10, 15}; !reflect.DeepEqual(ticks, expected) {
		t.Fatalf("got ticks %v, expected %v", ticks, expected)
	}
	if track[2].Delta != 5 {
		t.Fatalf("AbsoluteTimes modified its input")
	}
}

func span(track smf.Track) int64 {
	var tick int64
	for _, e := range track {
		tick += int64(e.Delta)
	}
	return tick
}

func TestMergeTracksKeepsEveryEvent(t *testing.T) {
	a := smf.Track{ev(0, tempo), ev(100, onC4), ev(380, offC4), ev(20, tempo)}
	b := smf.Track{ev(50, onE4), ev(1000, offE4)}
	merged := midimerge.MergeTracks(a, b)
	if len(merged) != len(a)+len(b) {
		t.Fatalf("merged track has %d events, expected %d", len(merged), len(a)+len(b))
	}
	if got, expected := span(merged), max(span(a), span(b)); got != expected {
		t.Fatalf("merged span %d, expected %d", got, expected)
	}
	timed := midimerge.AbsoluteTimes(merged)
	expectedTicks := []int64{0, 50, 100, 480, 500, 1050}
	for i, te := range timed {
		if te.Tick != expectedTicks[i] {
			t.Fatalf("event %d at tick %d, expected %d", i, te.Tick, expectedTicks[i])
		}
	}
	if a[1].Delta != 100 || b[1].Delta != 1000 {
		t.Fatalf("MergeTracks modified its inputs")
	}
}

func TestMergeTracksIsStable(t *testing.T) {
	a := smf.Track{ev(240, midi.NoteOn(1, 1, 1)), ev(0, midi.NoteOn(1, 2, 1)), ev(0, midi.NoteOn(1, 3, 1))}
	b := smf.Track{ev(240, midi.NoteOn(2, 1, 1)), ev(0, midi.NoteOn(2, 2, 1))}
	merged := midimerge.MergeTracks(a, b)
	expected := smf.Track{
		ev(240, midi.NoteOn(1, 1, 1)),
		ev(0, midi.NoteOn(1, 2, 1)),
		ev(0, midi.NoteOn(1, 3, 1)),
		ev(0, midi.NoteOn(2, 1, 1)),
		ev(0, midi.NoteOn(2, 2, 1)),
	}
	if !reflect.DeepEqual(merged, expected) {
		t.Fatalf("got %v, expected %v", merged, expected)
	}
}

func TestMergeWithEmptyTrack(t *testing.T) {
	a := smf.Track{ev(10, onC4), ev(20, offC4)}
	if got := midimerge.MergeTracks(a, smf.Track{}); !reflect.DeepEqual(got, a) {
		t.Fatalf("merging with an empty track: got %v, expected %v", got, a)
	}
	if got := midimerge.MergeTracks(nil, a); !reflect.DeepEqual(got, a) {
		t.Fatalf("merging an empty track: got %v, expected %v", got, a)
	}
}

func TestConvertKeepsMetaOrder(t *testing.T) {
	name := smf.MetaTrackSequenceName("Piano")
	meter := smf.MetaMeter(3, 4)
	s := smf.New()
	s.Tracks = []smf.Track{
		{ev(0, name), ev(0, onC4), ev(0, meter), ev(96, offC4), ev(12, tempo)},
		{ev(48, onE4), ev(48, offE4)},
		{ev(7, onC4)},
	}
	third := append(smf.Track(nil), s.Tracks[2]...)
	if err := midimerge.Convert(s); err != nil {
		t.Fatalf("Convert failed: %v", err)
	}
	expected0 := smf.Track{ev(0, name), ev(0, meter), ev(12, tempo)}
	if !reflect.DeepEqual(s.Tracks[0], expected0) {
		t.Fatalf("track 0 mismatch, got %v, expected %v", s.Tracks[0], expected0)
	}
	for _, e := range s.Tracks[0] {
		if midimerge.Classify(e.Message) != midimerge.Meta {
			t.Fatalf("track 0 still contains %v", e.Message)
		}
	}
	expected1 := smf.Track{ev(0, onC4), ev(48, onE4), ev(48, offC4), ev(0, offE4)}
	if !reflect.DeepEqual(s.Tracks[1], expected1) {
		t.Fatalf("track 1 mismatch, got %v, expected %v", s.Tracks[1], expected1)
	}
	if !reflect.DeepEqual(s.Tracks[2], third) {
		t.Fatalf("track 2 was modified")
	}
}

func TestConvertTwiceIsNoop(t *testing.T) {
	s := scenario()
	if err := midimerge.Convert(s); err != nil {
		t.Fatalf("Convert failed: %v", err)
	}
	first := append(smf.Track(nil), s.Tracks[1]...)
	meta := append(smf.Track(nil), s.Tracks[0]...)
	if err := midimerge.Convert(s); err != nil {
		t.Fatalf("second Convert failed: %v", err)
	}
	if !reflect.DeepEqual(s.Tracks[1], first) {
		t.Fatalf("second conversion changed track 1, got %v, expected %v", s.Tracks[1], first)
	}
	if !reflect.DeepEqual(s.Tracks[0], meta) {
		t.Fatalf("second conversion changed track 0, got %v, expected %v", s.Tracks[0], meta)
	}
}

func TestConvertInsufficientTracks(t *testing.T) {
	s := smf.New()
	s.Tracks = []smf.Track{{ev(0, tempo), ev(0, onC4)}}
	err := midimerge.Convert(s)
	if !errors.Is(err, midimerge.ErrInsufficientTracks) {
		t.Fatalf("expected ErrInsufficientTracks, got %v", err)
	}
	if len(s.Tracks) != 1 || len(s.Tracks[0]) != 2 {
		t.Fatalf("Convert modified a file it rejected")
	}
	if err := midimerge.Convert(nil); !errors.Is(err, midimerge.ErrInsufficientTracks) {
		t.Fatalf("expected ErrInsufficientTracks for nil, got %v", err)
	}
}

func TestClassify(t *testing.T) {
	cases := []struct {
		msg  []byte
		kind midimerge.Kind
	}{
		{tempo, midimerge.Meta},
		{onC4, midimerge.Channel},
		{midi.ControlChange(3, 7, 100), midimerge.Channel},
		{midi.Pitchbend(0, 100), midimerge.Channel},
		{[]byte{0xF0, 0x7E, 0xF7}, midimerge.SysEx},
		{nil, midimerge.Invalid},
	}
	for _, c := range cases {
		if got := midimerge.Classify(smf.Message(c.msg)); got != c.kind {
			t.Fatalf("Classify(% X) = %v, expected %v", c.msg, got, c.kind)
		}
	}
}
