package input

import (
	"sync"

	"github.com/go-gl/glfw/v3.3/glfw"
)

// Action represents a logical viewer action, not a physical key
type Action int

const (
	ActionMoveForward Action = iota
	ActionMoveBackward
	ActionMoveLeft
	ActionMoveRight
	ActionMoveUp
	ActionMoveDown
	ActionSprint
	ActionPause
	ActionToggleWireframe
	ActionToggleVisibility
	ActionToggleOcclusion
	ActionToggleSmoothLighting
	ActionDumpProfiling
	ActionTimeOfDay
	ActionMouseLeft
	ActionMouseRight
	ActionCount // Sentinel value for array sizing
)

// trigger is a key or a mouse button; exactly one field is meaningful.
type trigger struct {
	key    glfw.Key
	button glfw.MouseButton
	mouse  bool
}

var defaultBindings = map[trigger]Action{
	{key: glfw.KeyW}:           ActionMoveForward,
	{key: glfw.KeyS}:           ActionMoveBackward,
	{key: glfw.KeyA}:           ActionMoveLeft,
	{key: glfw.KeyD}:           ActionMoveRight,
	{key: glfw.KeySpace}:       ActionMoveUp,
	{key: glfw.KeyLeftShift}:   ActionMoveDown,
	{key: glfw.KeyLeftControl}: ActionSprint,
	{key: glfw.KeyEscape}:      ActionPause,
	{key: glfw.KeyF}:           ActionToggleWireframe,
	{key: glfw.KeyV}:           ActionToggleVisibility,
	{key: glfw.KeyO}:           ActionToggleOcclusion,
	{key: glfw.KeyL}:           ActionToggleSmoothLighting,
	{key: glfw.KeyP}:           ActionDumpProfiling,
	{key: glfw.KeyT}:           ActionTimeOfDay,

	{button: glfw.MouseButtonLeft, mouse: true}:  ActionMouseLeft,
	{button: glfw.MouseButtonRight, mouse: true}: ActionMouseRight,
}

// InputManager maps GLFW key and mouse events to actions and keeps the held
// and pressed-this-frame state of each.
type InputManager struct {
	mu       sync.Mutex
	bindings map[trigger]Action
	held     [ActionCount]bool
	pressed  [ActionCount]bool
}

// NewInputManager creates a new InputManager with default key bindings
func NewInputManager() *InputManager {
	im := &InputManager{bindings: make(map[trigger]Action, len(defaultBindings))}
	for t, a := range defaultBindings {
		im.bindings[t] = a
	}
	return im
}

// BindKey binds key to action, replacing its previous binding.
func (im *InputManager) BindKey(key glfw.Key, action Action) {
	im.bind(trigger{key: key}, action)
}

// BindMouseButton binds button to action, replacing its previous binding.
func (im *InputManager) BindMouseButton(button glfw.MouseButton, action Action) {
	im.bind(trigger{button: button, mouse: true}, action)
}

func (im *InputManager) bind(t trigger, action Action) {
	if action < 0 || action >= ActionCount {
		return
	}
	im.mu.Lock()
	im.bindings[t] = action
	im.mu.Unlock()
}

func (im *InputManager) handle(t trigger, down bool) {
	im.mu.Lock()
	defer im.mu.Unlock()
	a, ok := im.bindings[t]
	if !ok {
		return
	}
	if down && !im.held[a] {
		im.pressed[a] = true
	}
	im.held[a] = down
}

// SetCallbacks routes the window's key and mouse button events through
// the manager. It should be called once during initialization.
func (im *InputManager) SetCallbacks(window *glfw.Window) {
	window.SetKeyCallback(func(w *glfw.Window, key glfw.Key, scancode int, action glfw.Action, mods glfw.ModifierKey) {
		if action == glfw.Repeat {
			return
		}
		im.handle(trigger{key: key}, action == glfw.Press)
	})
	window.SetMouseButtonCallback(func(w *glfw.Window, button glfw.MouseButton, action glfw.Action, mods glfw.ModifierKey) {
		im.handle(trigger{button: button, mouse: true}, action == glfw.Press)
	})
}

// PostUpdate clears the pressed-this-frame flags. Call it once per frame
// after all input checks.
func (im *InputManager) PostUpdate() {
	im.mu.Lock()
	im.pressed = [ActionCount]bool{}
	im.mu.Unlock()
}

// IsActive returns true if the action is currently being held down
func (im *InputManager) IsActive(action Action) bool {
	if action < 0 || action >= ActionCount {
		return false
	}
	im.mu.Lock()
	defer im.mu.Unlock()
	return im.held[action]
}

// JustPressed returns true only if the action was pressed in the current frame
func (im *InputManager) JustPressed(action Action) bool {
	if action < 0 || action >= ActionCount {
		return false
	}
	im.mu.Lock()
	defer im.mu.Unlock()
	return im.pressed[action]
}
