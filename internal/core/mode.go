// Package core is the orchestration layer.  It composes the transport,
// the command interpreter and the device outputs into complete
// operational modes and provides a builder that selects the right mode
// from a Config.
//
// Architecture layers (bottom → top):
//
//	hw, netid, session  →  transport, blink, command  →  core  →  cmd (CLI)
package core

import "context"

// Mode represents a complete operational mode of picoctl (the device
// endpoint or the console client).  Each mode owns its full lifecycle
// from bring-up to teardown.
type Mode interface {
	Run(ctx context.Context) error
}
