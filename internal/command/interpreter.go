package command

import (
	"context"
	"fmt"
	"time"

	"picoctl/internal/blink"
	"picoctl/internal/hw"
	"picoctl/internal/metrics"
	"picoctl/internal/netid"
	"picoctl/internal/session"
	"picoctl/util"
)

// Prompt ends the help text.  No newline follows it.
const Prompt = "]====run=====> "

// Fixed responses.
const (
	HelpText = "---------------------------\n" +
		"Comandos disponíveis:\n" +
		"---------------------------\n" +
		"ip - Mostra o endereço IP\n" +
		"help - Mostra esta mensagem\n" +
		"beep - Emite um som do buzzer\n" +
		"exit - Fecha a conexão\n" +
		"piscar - Faz o LED piscar\n" +
		Prompt

	Farewell     = "Fechando conexão...\n"
	BlinkOn      = "LED piscando!\n"
	BlinkOff     = "LED parado!\n"
	BeepDone     = "Beep emitido!\n"
	Hint         = "Digite 'help' para ajuda. \n"
	ipResponseFm = "Endereço IP: %s\n"
)

// Interpreter dispatches commands.  It is not safe for concurrent use;
// the device loop is its only caller.
type Interpreter struct {
	Blink        *blink.Scheduler
	Actuator     hw.Actuator
	Identity     netid.Identity
	BeepDuration time.Duration
	Logger       *util.Logger
	Metrics      *metrics.Collector
}

// Handle normalizes input through the session's line buffer, parses it
// and dispatches the command.  It returns the response to send and
// whether the session should be closed once the response is out.
func (in *Interpreter) Handle(ctx context.Context, sess *session.Session, input []byte) ([]byte, bool) {
	buf := sess.Buffer()
	if dropped := buf.Load(input); dropped > 0 {
		sess.Logger.Verbose("input truncated to %d bytes (%d dropped)", buf.Cap(), dropped)
		in.Metrics.InputTruncated()
	}

	line := buf.Line()
	sess.Logger.Verbose("received: %q", line)

	return in.Dispatch(ctx, Parse(line))
}

// Dispatch performs cmd's side effect and builds its response.
func (in *Interpreter) Dispatch(ctx context.Context, cmd Command) ([]byte, bool) {
	in.Metrics.CommandDispatched(cmd.Kind.String(), cmd.Kind != Unrecognized)

	switch cmd.Kind {
	case ShowHelp:
		return []byte(HelpText), false

	case CloseSession:
		return []byte(Farewell), true

	case ToggleBlink:
		if in.Blink.Toggle() {
			return []byte(BlinkOn), false
		}
		return []byte(BlinkOff), false

	case ShowIPAddress:
		return []byte(fmt.Sprintf(ipResponseFm, in.Identity)), false

	case SoundBeep:
		if err := in.Actuator.Pulse(ctx, hw.Buzzer, in.BeepDuration); err != nil {
			in.Logger.Warn("beep: %v", err)
			in.Metrics.RecordError(err.Error())
		} else {
			in.Metrics.Beep()
		}
		return []byte(BeepDone), false

	default:
		return []byte(Hint), false
	}
}
