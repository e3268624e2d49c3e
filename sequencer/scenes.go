package sequencer

import "math"

// SceneMode is how the next scene-button tap is interpreted
type SceneMode int

const (
	SceneSelecting SceneMode = iota
	SceneCopyArmed
	SceneDeleteArmed
)

var sceneModeNames = []string{"select", "copy", "delete"}

func (m SceneMode) String() string {
	if m < 0 || int(m) >= len(sceneModeNames) {
		return "?"
	}
	return sceneModeNames[m]
}

// SceneMode reports the scene store's modal state
func (s *State) SceneMode() SceneMode {
	switch {
	case s.CopySource >= 0:
		return SceneCopyArmed
	case s.DeleteArmed:
		return SceneDeleteArmed
	default:
		return SceneSelecting
	}
}

// TapCopy arms copy with the current scene as source, or cancels it
func (s *State) TapCopy() {
	s.DeleteArmed = false
	if s.CopySource < 0 {
		s.CopySource = s.CurrentScene
	} else {
		s.CopySource = -1
	}
}

// TapDelete toggles delete mode, cancelling any pending copy
func (s *State) TapDelete() {
	s.CopySource = -1
	s.DeleteArmed = !s.DeleteArmed
}

// TapScene handles a scene button. It returns true when the current scene
// (or its content) changed and the panel must be reloaded from it.
func (s *State) TapScene(idx int) bool {
	if idx < 0 || idx >= NumScenes {
		return false
	}

	if s.CopySource >= 0 {
		s.Scenes[idx] = s.Scenes[s.CopySource]
		s.Scenes[idx].IsEmpty = false
		s.CopySource = -1
		s.CurrentScene = idx
		return true
	}

	if s.DeleteArmed {
		// scene 0 is protected; the tap is swallowed and delete stays armed
		if idx == 0 {
			return false
		}
		s.Scenes[idx] = NewSceneData()
		s.DeleteArmed = false
		if s.CurrentScene == idx {
			s.CurrentScene = 0
			return true
		}
		return false
	}

	if s.Scenes[idx].IsEmpty {
		s.Scenes[idx] = s.Scenes[s.CurrentScene]
		s.Scenes[idx].IsEmpty = false
	}
	s.CurrentScene = idx
	return true
}

// SceneIndexForVoltage quantizes a scene CV to a scene slot (floor, clamped)
func SceneIndexForVoltage(v float64) int {
	if math.IsNaN(v) {
		return 0
	}
	return clampInt(int(math.Floor(clampFloat(v, -1, NumScenes))), 0, NumScenes-1)
}

// SelectByCV switches to the scene addressed by a CV if it holds data.
// Empty targets are ignored; CV never creates scenes.
func (s *State) SelectByCV(v float64) bool {
	idx := SceneIndexForVoltage(v)
	if idx == s.CurrentScene || s.Scenes[idx].IsEmpty {
		return false
	}
	s.CurrentScene = idx
	return true
}

// Copy duplicates scene src into dst directly, without touching arm state
func (s *State) Copy(src, dst int) {
	if src < 0 || src >= NumScenes || dst < 0 || dst >= NumScenes {
		return
	}
	s.Scenes[dst] = s.Scenes[src]
	s.Scenes[dst].IsEmpty = false
}

// Delete clears scene idx through the same path as an armed tap
func (s *State) Delete(idx int) bool {
	s.CopySource = -1
	s.DeleteArmed = true
	changed := s.TapScene(idx)
	s.DeleteArmed = false
	return changed
}
