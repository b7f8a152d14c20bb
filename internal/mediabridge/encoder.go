package mediabridge

import (
	"fmt"
	"io"
	"os/exec"
)

// encoderArgs is the external contract of spec §4.3 / SPEC_FULL §6.3,
// recovered verbatim from the original implementation's ffmpeg
// invocation: capture the primary display via Desktop Duplication at
// 60fps with the cursor drawn, route through the Intel Quick Sync
// hardware path, encode baseline-profile H.264 at 5 Mbit/s with a
// 60-frame GOP, no B-frames, AUD NALs inserted by a bitstream filter,
// and emit raw Annex-B bytes on stdout.
var encoderArgs = []string{
	"-hide_banner", "-loglevel", "warning",
	"-init_hw_device", "d3d11va=dx",
	"-init_hw_device", "qsv=qs@dx",
	"-filter_hw_device", "dx",
	"-f", "lavfi",
	"-i", "ddagrab=framerate=60:output_idx=0:draw_mouse=1",
	"-vf", "hwmap=derive_device=qsv,format=qsv",
	"-an",
	"-c:v", "h264_qsv",
	"-profile:v", "baseline",
	"-preset", "veryfast",
	"-g", "60",
	"-keyint_min", "60",
	"-b:v", "5M",
	"-maxrate", "5M",
	"-bufsize", "5M",
	"-bf", "0",
	"-look_ahead", "0",
	"-async_depth", "1",
	"-bsf:v", "h264_metadata=aud=insert",
	"-f", "h264",
	"-",
}

// encoderBinary is the external collaborator named in spec §6; it is
// never implemented by this repo, only invoked.
const encoderBinary = "ffmpeg"

// EncoderProcess wraps the spawned child so the caller can read its
// Annex-B stdout and later kill it from the pump's cleanup path.
type EncoderProcess struct {
	cmd    *exec.Cmd
	Stdout io.ReadCloser
}

// spawnEncoder starts the external H.264 encoder with stdout piped and
// stderr captured for diagnostics, per spec §4.3.
func spawnEncoder() (*EncoderProcess, error) {
	cmd := exec.Command(encoderBinary, encoderArgs...)
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, fmt.Errorf("encoder stdout pipe: %w", err)
	}
	stderr, err := cmd.StderrPipe()
	if err != nil {
		return nil, fmt.Errorf("encoder stderr pipe: %w", err)
	}
	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("encoder spawn: %w", err)
	}
	go drainStderr(stderr)
	return &EncoderProcess{cmd: cmd, Stdout: stdout}, nil
}

// drainStderr copies warnings from the encoder to the process log so
// the child never blocks on a full stderr pipe.
func drainStderr(stderr io.ReadCloser) {
	buf := make([]byte, 4096)
	for {
		n, err := stderr.Read(buf)
		if n > 0 {
			bridgeLog.Printf("[encoder] %s", buf[:n])
		}
		if err != nil {
			return
		}
	}
}

func (e *EncoderProcess) Kill() error {
	if e.cmd.Process == nil {
		return nil
	}
	return e.cmd.Process.Kill()
}
