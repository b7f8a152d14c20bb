//go:build !windows

package inputadapter

import "fmt"

func injectEvent(_ event) error {
	return fmt.Errorf("input injection is only supported on Windows")
}
