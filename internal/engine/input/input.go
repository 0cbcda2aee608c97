// Package input turns backend events into per-frame keyboard and mouse state.
package input

// Event types for game use
type EventType int

const (
	EventNone EventType = iota
	EventQuit
	EventWindowResize
	EventWindowClose
	EventKeyDown
	EventKeyUp
	EventMouseMove
	EventMouseDown
	EventMouseUp
)

// Key is a physical key position. Values follow the USB HID usage table,
// which SDL scancodes share, so backends can convert with a plain cast.
type Key uint32

// Keys used by the engine and the bundled game.
const (
	KeyUnknown     Key = 0
	KeyA           Key = 4
	KeyD           Key = 7
	KeyS           Key = 22
	KeyW           Key = 26
	KeyEnter       Key = 40
	KeyEscape      Key = 41
	KeyBackspace   Key = 42
	KeyTab         Key = 43
	KeySpace       Key = 44
	KeyF1          Key = 58
	KeyF12         Key = 69
	KeyRight       Key = 79
	KeyLeft        Key = 80
	KeyDown        Key = 81
	KeyUp          Key = 82
	KeyKeypadEnter Key = 88

	maxKey = 512
)

// Event represents a processed input event.
type Event struct {
	Type     EventType
	WindowID uint32
	Key      Key
	Repeat   bool
	Width    int
	Height   int
	MouseX   int
	MouseY   int
	Button   uint8
}

// ButtonState is the state of a key or mouse button for the current frame.
type ButtonState struct {
	Pressed     bool
	JustPressed bool
}

// State accumulates events into frame state.
type State struct {
	events  []Event
	keys    [maxKey]ButtonState
	mouseX  int
	mouseY  int
	buttons [8]ButtonState
	quit    bool
}

// New creates a new input state.
func New() *State {
	return &State{
		events: make([]Event, 0, 16),
	}
}

// Update starts a new frame and applies events to it.
// Returns true if a quit was requested.
func (s *State) Update(events []Event) bool {
	s.events = append(s.events[:0], events...)

	for i := range s.keys {
		s.keys[i].JustPressed = false
	}
	for i := range s.buttons {
		s.buttons[i].JustPressed = false
	}

	for _, e := range events {
		switch e.Type {
		case EventQuit:
			s.quit = true

		case EventKeyDown:
			if e.Key < maxKey {
				k := &s.keys[e.Key]
				k.JustPressed = !k.Pressed && !e.Repeat
				k.Pressed = true
			}

		case EventKeyUp:
			if e.Key < maxKey {
				s.keys[e.Key] = ButtonState{}
			}

		case EventMouseMove:
			s.mouseX, s.mouseY = e.MouseX, e.MouseY

		case EventMouseDown:
			s.mouseX, s.mouseY = e.MouseX, e.MouseY
			if int(e.Button) < len(s.buttons) {
				b := &s.buttons[e.Button]
				b.JustPressed = !b.Pressed
				b.Pressed = true
			}

		case EventMouseUp:
			s.mouseX, s.mouseY = e.MouseX, e.MouseY
			if int(e.Button) < len(s.buttons) {
				s.buttons[e.Button] = ButtonState{}
			}
		}
	}

	return s.quit
}

// Events returns the events from the last Update.
func (s *State) Events() []Event {
	return s.events
}

// Key returns the state of k.
func (s *State) Key(k Key) ButtonState {
	if k >= maxKey {
		return ButtonState{}
	}
	return s.keys[k]
}

// IsKeyPressed reports whether k is held down.
func (s *State) IsKeyPressed(k Key) bool {
	return s.Key(k).Pressed
}

// IsKeyJustPressed reports whether k went down this frame.
func (s *State) IsKeyJustPressed(k Key) bool {
	return s.Key(k).JustPressed
}

// Mouse returns the last known cursor position.
func (s *State) Mouse() (x, y int) {
	return s.mouseX, s.mouseY
}

// Button returns the state of mouse button b.
func (s *State) Button(b uint8) ButtonState {
	if int(b) >= len(s.buttons) {
		return ButtonState{}
	}
	return s.buttons[b]
}

// QuitRequested reports whether a quit event has been seen.
func (s *State) QuitRequested() bool {
	return s.quit
}
