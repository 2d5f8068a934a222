package bot

import "strings"

// Command is a recognised chat command.
type Command int

const (
	CommandUnknown Command = iota
	CommandRelay
	CommandArm
	CommandDisarm
	CommandStatus
	CommandHelp
)

var commandNames = map[string]Command{
	"photo":    CommandRelay,
	"photos":   CommandRelay,
	"snapshot": CommandRelay,
	"arm":      CommandArm,
	"disarm":   CommandDisarm,
	"status":   CommandStatus,
	"start":    CommandHelp,
	"help":     CommandHelp,
}

func (c Command) String() string {
	switch c {
	case CommandRelay:
		return "photo"
	case CommandArm:
		return "arm"
	case CommandDisarm:
		return "disarm"
	case CommandStatus:
		return "status"
	case CommandHelp:
		return "help"
	default:
		return "unknown"
	}
}

// ParseCommand maps "/photo", "/photo@MyBot extra args" and the like to a
// Command. self is the bot's own username. A command addressed to another
// bot ("/arm@OtherBot") is reported as not addressed so the caller can stay
// silent; a command without a target is always addressed. Anything that is
// not a slash command is CommandUnknown.
func ParseCommand(text, self string) (cmd Command, addressed bool) {
	fields := strings.Fields(text)
	if len(fields) == 0 || !strings.HasPrefix(fields[0], "/") {
		return CommandUnknown, true
	}
	name, target, _ := strings.Cut(strings.TrimPrefix(fields[0], "/"), "@")
	if target != "" && !strings.EqualFold(target, self) {
		return CommandUnknown, false
	}
	if c, ok := commandNames[strings.ToLower(name)]; ok {
		return c, true
	}
	return CommandUnknown, true
}

const helpText = `Commands:
/photo - send a snapshot from every camera now
/arm - pause motion alerts (manual /photo still works)
/disarm - resume motion alerts
/status - show whether motion alerts are paused`
