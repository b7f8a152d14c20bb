package mediabridge

import (
	"fmt"
	"io"
	"time"

	"github.com/pion/webrtc/v4"
	"github.com/pion/webrtc/v4/pkg/media"
)

// pumpToTrack owns the encoder's stdout for the lifetime of one
// streamSession: it reads Annex-B bytes, feeds them through a
// Reframer, and writes each completed access unit to the outbound
// video track as a single sample, per spec §4.4. It returns once the
// encoder's stdout closes or a write fails, and always kills the
// encoder process on the way out.
func pumpToTrack(session *streamSession, track *webrtc.TrackLocalStaticSample) error {
	session.mu.Lock()
	encoder := session.encoder
	session.mu.Unlock()

	defer func() {
		session.mu.Lock()
		_ = encoder.Kill()
		session.mu.Unlock()
	}()

	var writeErr error
	reframer := NewReframer(func(sample []byte) {
		if writeErr != nil {
			return
		}
		writeErr = track.WriteSample(media.Sample{
			Data:     sample,
			Duration: sampleDuration * time.Millisecond,
		})
	})

	buf := make([]byte, readChunk)
	for {
		n, err := encoder.Stdout.Read(buf)
		if n > 0 {
			reframer.Write(buf[:n])
			if writeErr != nil {
				return fmt.Errorf("write_sample failed: %w", writeErr)
			}
		}
		if err != nil {
			if err == io.EOF {
				reframer.Flush()
				if writeErr != nil {
					return fmt.Errorf("write_sample failed: %w", writeErr)
				}
				return nil
			}
			return fmt.Errorf("encoder stdout read failed: %w", err)
		}
	}
}
