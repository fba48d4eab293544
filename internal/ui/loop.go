package ui

// LoopMode says what happens when the preview reaches the end.
type LoopMode int

const (
	LoopOff LoopMode = iota
	LoopTrack
)

// Next cycles to the next loop mode.
func (l LoopMode) Next() LoopMode {
	if l == LoopOff {
		return LoopTrack
	}
	return LoopOff
}

func (l LoopMode) String() string {
	if l == LoopTrack {
		return "track"
	}
	return "off"
}

// Icon is shown in the status line while looping.
func (l LoopMode) Icon() string {
	if l == LoopTrack {
		return "[loop]"
	}
	return ""
}
