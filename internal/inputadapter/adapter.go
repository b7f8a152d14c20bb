// Package inputadapter turns a JSON-encoded input event arriving over
// the bot's "input" data channel into a host OS input injection, per
// spec §4.5. The JSON decoding and coordinate math are shared across
// platforms; the actual injection is platform-specific and lives in
// inject_windows.go / inject_other.go behind a build tag, mirroring
// the #[cfg(windows)] split in the system this was distilled from.
package inputadapter

import (
	"encoding/json"
	"fmt"
	"math"
)

// event is the wire shape of one input message. Only the fields
// relevant to Kind are populated by the sender.
type event struct {
	Kind   string   `json:"kind"`
	XNorm  *float64 `json:"x_norm,omitempty"`
	YNorm  *float64 `json:"y_norm,omitempty"`
	Button string   `json:"button,omitempty"`
	DeltaY *int32   `json:"delta_y,omitempty"`
	Code   string   `json:"code,omitempty"`
}

const (
	kindMouseMoveAbs = "mouse_move_abs"
	kindMouseDown    = "mouse_down"
	kindMouseUp      = "mouse_up"
	kindMouseWheel   = "mouse_wheel"
	kindKeyDown      = "key_down"
	kindKeyUp        = "key_up"
)

// InjectFromJSON decodes payload and dispatches it to the platform
// injector. The only error reported here is malformed JSON; everything
// else (missing required field, unmapped key code, invalid button,
// unsupported kind, OS-level send failure, unsupported platform) is
// reported by injectEvent.
func InjectFromJSON(payload string) error {
	var e event
	if err := json.Unmarshal([]byte(payload), &e); err != nil {
		return fmt.Errorf("input json parse failed: %w", err)
	}
	return injectEvent(e)
}

// clampNorm restricts a normalized coordinate to [0, 1], tolerating
// the slightly-out-of-range values a browser's pointer events can
// report near an element's edge.
func clampNorm(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

// absoluteCoord converts a normalized [0,1] coordinate to the 0..65535
// virtual-desktop range SendInput's MOUSEEVENTF_ABSOLUTE expects,
// given the screen extent in pixels along that axis.
//
// The expanded form (rather than the algebraically equivalent
// v*65535) is kept because it is what the original injector computes.
// An extent of 1 pixel or less would make w-1 zero, so that case uses
// v*65535 directly instead of dividing by zero.
func absoluteCoord(norm float64, extent int32) int32 {
	w := float64(extent)
	x := clampNorm(norm)
	if w <= 1 {
		return int32(math.Round(x * 65535.0))
	}
	return int32(math.Round(x * (w - 1) * (65535.0 / (w - 1))))
}
