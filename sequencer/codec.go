package sequencer

import (
	"bytes"
	"encoding/json"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

// Format is a document encoding
type Format string

const (
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

// Ext returns the file extension for the format
func (f Format) Ext() string {
	if f == FormatYAML {
		return ".yaml"
	}
	return ".json"
}

// ParseFormat maps a name or extension to a Format, defaulting to JSON
func ParseFormat(name string) Format {
	switch name {
	case "yaml", "yml", ".yaml", ".yml":
		return FormatYAML
	default:
		return FormatJSON
	}
}

// Document is the persisted shape of the engine. Pointers and slices let
// the decoder tell a missing field from a zero value.
type Document struct {
	CurrentScene *int          `json:"currentScene,omitempty" yaml:"currentScene,omitempty"`
	IsRunning    *bool         `json:"isRunning,omitempty" yaml:"isRunning,omitempty"`
	Scenes       []SceneRecord `json:"scenes,omitempty" yaml:"scenes,omitempty"`
}

// SceneRecord is one scene in a Document
type SceneRecord struct {
	IsEmpty *bool         `json:"isEmpty,omitempty" yaml:"isEmpty,omitempty"`
	Tracks  []TrackRecord `json:"tracks,omitempty" yaml:"tracks,omitempty"`
}

// TrackRecord is one track in a SceneRecord
type TrackRecord struct {
	StepCount     *int      `json:"stepCount,omitempty" yaml:"stepCount,omitempty"`
	DivisionIndex *int      `json:"divisionIndex,omitempty" yaml:"divisionIndex,omitempty"`
	Direction     *int      `json:"direction,omitempty" yaml:"direction,omitempty"`
	Pitches       []float64 `json:"pitches,omitempty" yaml:"pitches,omitempty"`
	Gates         []bool    `json:"gates,omitempty" yaml:"gates,omitempty"`
}

// NewDocument captures the persistent part of a state as a full Document
func NewDocument(s *State) Document {
	current := s.CurrentScene
	running := s.Running
	doc := Document{
		CurrentScene: &current,
		IsRunning:    &running,
		Scenes:       make([]SceneRecord, NumScenes),
	}
	for i := range s.Scenes {
		sc := &s.Scenes[i]
		empty := sc.IsEmpty
		rec := SceneRecord{IsEmpty: &empty, Tracks: make([]TrackRecord, NumTracks)}
		for t := range sc.Tracks {
			td := &sc.Tracks[t]
			steps, div, dir := td.StepCount, td.DivisionIndex, int(td.Direction)
			rec.Tracks[t] = TrackRecord{
				StepCount:     &steps,
				DivisionIndex: &div,
				Direction:     &dir,
				Pitches:       append([]float64(nil), td.Pitches[:]...),
				Gates:         append([]bool(nil), td.Gates[:]...),
			}
		}
		doc.Scenes[i] = rec
	}
	return doc
}

// Apply writes a Document onto s. Missing fields keep what s already
// holds, short arrays fill only the entries present, surplus entries are
// ignored and every index is clamped before it is stored.
func Apply(doc *Document, s *State) {
	if doc.CurrentScene != nil {
		s.CurrentScene = clampInt(*doc.CurrentScene, 0, NumScenes-1)
	}
	if doc.IsRunning != nil {
		s.Running = *doc.IsRunning
	}
	for i := 0; i < NumScenes && i < len(doc.Scenes); i++ {
		rec := &doc.Scenes[i]
		sc := &s.Scenes[i]
		if rec.IsEmpty != nil {
			sc.IsEmpty = *rec.IsEmpty
		}
		for t := 0; t < NumTracks && t < len(rec.Tracks); t++ {
			applyTrack(&rec.Tracks[t], &sc.Tracks[t])
		}
	}
	// scene 0 and the current scene always hold data
	s.Scenes[0].IsEmpty = false
	s.Scenes[s.CurrentScene].IsEmpty = false
}

func applyTrack(rec *TrackRecord, td *TrackData) {
	if rec.StepCount != nil {
		td.StepCount = *rec.StepCount
	}
	if rec.DivisionIndex != nil {
		td.DivisionIndex = *rec.DivisionIndex
	}
	if rec.Direction != nil {
		td.Direction = Direction(*rec.Direction)
	}
	for i := 0; i < NumSteps; i++ {
		if i < len(rec.Pitches) {
			td.Pitches[i] = rec.Pitches[i]
		}
		if i < len(rec.Gates) {
			td.Gates[i] = rec.Gates[i]
		}
	}
	td.Normalize()
}

// Encode serializes the persistent part of s
func Encode(s *State, f Format) ([]byte, error) {
	doc := NewDocument(s)
	switch f {
	case FormatYAML:
		b, err := yaml.Marshal(&doc)
		return b, errors.Wrap(err, "encode yaml")
	default:
		b, err := json.MarshalIndent(&doc, "", "  ")
		return b, errors.Wrap(err, "encode json")
	}
}

// ParseDocument reads a Document in either format. JSON is tried first,
// then YAML.
func ParseDocument(data []byte) (*Document, Format, error) {
	var doc Document
	errJSON := json.Unmarshal(data, &doc)
	if errJSON == nil {
		return &doc, FormatJSON, nil
	}
	doc = Document{}
	if errYAML := yaml.NewDecoder(bytes.NewReader(data)).Decode(&doc); errYAML != nil {
		return nil, "", errors.Errorf("document is neither json (%v) nor yaml (%v)", errJSON, errYAML)
	}
	return &doc, FormatYAML, nil
}

// Decode parses data and applies it onto s
func Decode(data []byte, s *State) (Format, error) {
	doc, f, err := ParseDocument(data)
	if err != nil {
		return "", err
	}
	Apply(doc, s)
	return f, nil
}
