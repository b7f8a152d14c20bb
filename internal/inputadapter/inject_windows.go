//go:build windows

package inputadapter

import (
	"fmt"
	"unsafe"

	"golang.org/x/sys/windows"
)

var (
	user32               = windows.NewLazySystemDLL("user32.dll")
	procSendInput        = user32.NewProc("SendInput")
	procGetSystemMetrics = user32.NewProc("GetSystemMetrics")
	procMapVirtualKeyW   = user32.NewProc("MapVirtualKeyW")
)

const (
	smCXScreen = 0
	smCYScreen = 1

	inputTypeMouse    = 0
	inputTypeKeyboard = 1

	mouseEventFMove       = 0x0001
	mouseEventFAbsolute   = 0x8000
	mouseEventFLeftDown   = 0x0002
	mouseEventFLeftUp     = 0x0004
	mouseEventFRightDown  = 0x0008
	mouseEventFRightUp    = 0x0010
	mouseEventFMiddleDown = 0x0020
	mouseEventFMiddleUp   = 0x0040
	mouseEventFWheel      = 0x0800

	keyEventFScancode = 0x0008
	keyEventFKeyUp    = 0x0002

	mapvkVKToVSC = 0
)

// mouseInput and keybdInput mirror the Win32 MOUSEINPUT / KEYBDINPUT
// structures. input's Mi field is sized to the larger of the two
// (mouseInput, 32 bytes on amd64 once the compiler pads dwExtraInfo
// to an 8-byte boundary) so a keybdInput can be overlaid onto the same
// bytes, the same way the union works in the C struct.
type mouseInput struct {
	Dx          int32
	Dy          int32
	MouseData   uint32
	DwFlags     uint32
	Time        uint32
	DwExtraInfo uintptr
}

type keybdInput struct {
	WVk         uint16
	WScan       uint16
	DwFlags     uint32
	Time        uint32
	DwExtraInfo uintptr
}

type input struct {
	Type uint32
	Mi   mouseInput
}

func sendInputs(inputs []input) error {
	if len(inputs) == 0 {
		return nil
	}
	ret, _, _ := procSendInput.Call(
		uintptr(len(inputs)),
		uintptr(unsafe.Pointer(&inputs[0])),
		unsafe.Sizeof(inputs[0]),
	)
	if int(ret) != len(inputs) {
		return fmt.Errorf("send_input partial send expected=%d sent=%d", len(inputs), ret)
	}
	return nil
}

func getSystemMetric(index uintptr) int32 {
	ret, _, _ := procGetSystemMetrics.Call(index)
	v := int32(ret)
	if v < 1 {
		v = 1
	}
	return v
}

func makeMouseInput(flags uint32, data int32, dx, dy int32) input {
	return input{
		Type: inputTypeMouse,
		Mi: mouseInput{
			Dx:        dx,
			Dy:        dy,
			MouseData: uint32(data),
			DwFlags:   flags,
		},
	}
}

func makeKeyInput(vk uint16, keyUp bool) input {
	scan, _, _ := procMapVirtualKeyW.Call(uintptr(vk), mapvkVKToVSC)
	flags := uint32(keyEventFScancode)
	if keyUp {
		flags |= keyEventFKeyUp
	}
	var in input
	in.Type = inputTypeKeyboard
	ki := (*keybdInput)(unsafe.Pointer(&in.Mi))
	ki.WVk = 0
	ki.WScan = uint16(scan)
	ki.DwFlags = flags
	return in
}

func mapButton(name string, down bool) (uint32, bool) {
	switch {
	case name == "left" && down:
		return mouseEventFLeftDown, true
	case name == "left" && !down:
		return mouseEventFLeftUp, true
	case name == "right" && down:
		return mouseEventFRightDown, true
	case name == "right" && !down:
		return mouseEventFRightUp, true
	case name == "middle" && down:
		return mouseEventFMiddleDown, true
	case name == "middle" && !down:
		return mouseEventFMiddleUp, true
	default:
		return 0, false
	}
}

// virtualKeyCodes maps a browser KeyboardEvent.code to a Win32 virtual
// key code, covering the alphanumeric keys, common control keys, and
// arrows that spec §4.5 names explicitly.
var virtualKeyCodes = map[string]uint16{
	"KeyA": 0x41, "KeyB": 0x42, "KeyC": 0x43, "KeyD": 0x44, "KeyE": 0x45,
	"KeyF": 0x46, "KeyG": 0x47, "KeyH": 0x48, "KeyI": 0x49, "KeyJ": 0x4A,
	"KeyK": 0x4B, "KeyL": 0x4C, "KeyM": 0x4D, "KeyN": 0x4E, "KeyO": 0x4F,
	"KeyP": 0x50, "KeyQ": 0x51, "KeyR": 0x52, "KeyS": 0x53, "KeyT": 0x54,
	"KeyU": 0x55, "KeyV": 0x56, "KeyW": 0x57, "KeyX": 0x58, "KeyY": 0x59,
	"KeyZ": 0x5A,
	"Digit0": 0x30, "Digit1": 0x31, "Digit2": 0x32, "Digit3": 0x33, "Digit4": 0x34,
	"Digit5": 0x35, "Digit6": 0x36, "Digit7": 0x37, "Digit8": 0x38, "Digit9": 0x39,
	"Enter": 0x0D, "Backspace": 0x08, "Tab": 0x09, "Escape": 0x1B, "Space": 0x20,
	"ShiftLeft": 0x10, "ShiftRight": 0x10,
	"ControlLeft": 0x11, "ControlRight": 0x11,
	"AltLeft": 0x12, "AltRight": 0x12,
	"ArrowUp": 0x26, "ArrowDown": 0x28, "ArrowLeft": 0x25, "ArrowRight": 0x27,
}

func injectEvent(e event) error {
	switch e.Kind {
	case kindMouseMoveAbs:
		if e.XNorm == nil {
			return fmt.Errorf("x_norm missing")
		}
		if e.YNorm == nil {
			return fmt.Errorf("y_norm missing")
		}
		width := getSystemMetric(smCXScreen)
		height := getSystemMetric(smCYScreen)
		absX := absoluteCoord(*e.XNorm, width)
		absY := absoluteCoord(*e.YNorm, height)
		return sendInputs([]input{makeMouseInput(mouseEventFMove|mouseEventFAbsolute, 0, absX, absY)})

	case kindMouseDown:
		if e.Button == "" {
			return fmt.Errorf("button missing")
		}
		flags, ok := mapButton(e.Button, true)
		if !ok {
			return fmt.Errorf("invalid mouse button: %s", e.Button)
		}
		return sendInputs([]input{makeMouseInput(flags, 0, 0, 0)})

	case kindMouseUp:
		if e.Button == "" {
			return fmt.Errorf("button missing")
		}
		flags, ok := mapButton(e.Button, false)
		if !ok {
			return fmt.Errorf("invalid mouse button: %s", e.Button)
		}
		return sendInputs([]input{makeMouseInput(flags, 0, 0, 0)})

	case kindMouseWheel:
		if e.DeltaY == nil {
			return fmt.Errorf("delta_y missing")
		}
		return sendInputs([]input{makeMouseInput(mouseEventFWheel, *e.DeltaY, 0, 0)})

	case kindKeyDown:
		if e.Code == "" {
			return fmt.Errorf("code missing")
		}
		vk, ok := virtualKeyCodes[e.Code]
		if !ok {
			return fmt.Errorf("unmapped key code: %s", e.Code)
		}
		return sendInputs([]input{makeKeyInput(vk, false)})

	case kindKeyUp:
		if e.Code == "" {
			return fmt.Errorf("code missing")
		}
		vk, ok := virtualKeyCodes[e.Code]
		if !ok {
			return fmt.Errorf("unmapped key code: %s", e.Code)
		}
		return sendInputs([]input{makeKeyInput(vk, true)})

	default:
		return fmt.Errorf("unsupported input kind: %s", e.Kind)
	}
}
