package diagnostics

import "github.com/lcalzada-xor/softapd/internal/core/ports"

// Nop discards diagnostics requests. Used when no capture directory
// is configured.
type Nop struct{}

func (Nop) StartLogging(string) error { return nil }

func (Nop) StopLogging(string) {}

var _ ports.Diagnostics = Nop{}
