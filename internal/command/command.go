// Package command parses one line of client input into a Command and
// dispatches it against the device's outputs.
package command

import "fmt"

// Kind is the closed set of commands the device understands.
type Kind int

const (
	Unrecognized Kind = iota
	ShowHelp
	CloseSession
	ToggleBlink
	ShowIPAddress
	SoundBeep
)

// String returns the command word, or "unrecognized".
func (k Kind) String() string {
	switch k {
	case ShowHelp:
		return "help"
	case CloseSession:
		return "exit"
	case ToggleBlink:
		return "piscar"
	case ShowIPAddress:
		return "ip"
	case SoundBeep:
		return "beep"
	case Unrecognized:
		return "unrecognized"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// Command is one parsed line.  Raw keeps the token as received.
type Command struct {
	Kind Kind
	Raw  string
}

var words = map[string]Kind{
	"help":   ShowHelp,
	"exit":   CloseSession,
	"piscar": ToggleBlink,
	"ip":     ShowIPAddress,
	"beep":   SoundBeep,
}

// Parse matches a terminator-free line against the command words.
// Matching is exact and case-sensitive; surrounding spaces make a line
// unrecognized.
func Parse(line []byte) Command {
	raw := string(line)
	if k, ok := words[raw]; ok {
		return Command{Kind: k, Raw: raw}
	}
	return Command{Kind: Unrecognized, Raw: raw}
}
