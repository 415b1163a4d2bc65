package telegram

import (
	"strconv"
	"strings"
)

// CommandKind identifies a parsed text command.
type CommandKind int

const (
	CmdUnknown CommandKind = iota
	CmdStatus
	CmdSettings
	CmdMenu
	CmdInfo
	CmdThresholds
	CmdHealth
	CmdEvents
	CmdHelp
	CmdDiag
	CmdSetWarn
	CmdSetHigh
	CmdSetRemind
	CmdQuietOn
	CmdQuietOff
	CmdQuietWindow
	CmdPreset
)

// Command is a parsed text command.
type Command struct {
	Kind   CommandKind
	Value  int    // warn/high/remind argument
	Start  int    // quiet window start hour
	End    int    // quiet window end hour
	Preset string // preset name
}

// ParseCommand parses a chat message. Returns ok=false for anything
// that is not a recognized command.
func ParseCommand(text string) (Command, bool) {
	fields := strings.Fields(strings.TrimSpace(text))
	if len(fields) == 0 || !strings.HasPrefix(fields[0], "/") {
		return Command{}, false
	}

	// "/status@airmon_bot" addresses this bot in a group.
	name := strings.ToLower(fields[0])
	if i := strings.IndexByte(name, '@'); i > 0 {
		name = name[:i]
	}
	args := fields[1:]

	switch name {
	case "/status":
		return Command{Kind: CmdStatus}, true
	case "/settings":
		return Command{Kind: CmdSettings}, true
	case "/menu":
		return Command{Kind: CmdMenu}, true
	case "/info":
		return Command{Kind: CmdInfo}, true
	case "/thresholds":
		return Command{Kind: CmdThresholds}, true
	case "/health":
		return Command{Kind: CmdHealth}, true
	case "/events":
		return Command{Kind: CmdEvents}, true
	case "/help", "/start":
		return Command{Kind: CmdHelp}, true
	case "/diag":
		return Command{Kind: CmdDiag}, true
	case "/warn":
		return parseValueCommand(CmdSetWarn, args)
	case "/high":
		return parseValueCommand(CmdSetHigh, args)
	case "/remind":
		return parseValueCommand(CmdSetRemind, args)
	case "/quiet":
		return parseQuiet(args)
	case "/preset":
		if len(args) != 1 {
			return Command{}, false
		}
		return Command{Kind: CmdPreset, Preset: strings.ToLower(args[0])}, true
	}
	return Command{}, false
}

func parseValueCommand(kind CommandKind, args []string) (Command, bool) {
	if len(args) != 1 {
		return Command{}, false
	}
	v, err := strconv.Atoi(args[0])
	if err != nil {
		return Command{}, false
	}
	return Command{Kind: kind, Value: v}, true
}

func parseQuiet(args []string) (Command, bool) {
	switch len(args) {
	case 1:
		switch strings.ToLower(args[0]) {
		case "on":
			return Command{Kind: CmdQuietOn}, true
		case "off":
			return Command{Kind: CmdQuietOff}, true
		}
	case 2:
		start, err1 := strconv.Atoi(args[0])
		end, err2 := strconv.Atoi(args[1])
		if err1 != nil || err2 != nil {
			return Command{}, false
		}
		return Command{Kind: CmdQuietWindow, Start: start, End: end}, true
	}
	return Command{}, false
}

// ActionKind identifies a parsed callback action.
type ActionKind int

const (
	ActMenuMain ActionKind = iota
	ActMenuThresholds
	ActMenuQuiet
	ActAdjust
	ActQuietOn
	ActQuietOff
	ActPreset
)

// Adjustment step sizes for keyboard buttons.
const (
	StepPPM       = 50
	StepRemindMin = 5
	StepQuietHour = 1
)

// Action is a parsed callback-data token.
type Action struct {
	Kind   ActionKind
	Field  string // "warn", "high", "remind", "qstart", "qend"
	Delta  int
	Preset string
}

// ParseCallback parses inline-keyboard callback data. Returns
// ok=false for tokens the current build does not know, which happens
// when a user presses a button on a card sent by an older build.
func ParseCallback(data string) (Action, bool) {
	parts := strings.Split(data, ":")
	switch parts[0] {
	case "menu":
		if len(parts) != 2 {
			return Action{}, false
		}
		switch parts[1] {
		case "main":
			return Action{Kind: ActMenuMain}, true
		case "thr":
			return Action{Kind: ActMenuThresholds}, true
		case "quiet":
			return Action{Kind: ActMenuQuiet}, true
		}

	case "thr":
		if len(parts) != 3 {
			return Action{}, false
		}
		step := StepPPM
		switch parts[1] {
		case "warn", "high":
		case "remind":
			step = StepRemindMin
		default:
			return Action{}, false
		}
		switch parts[2] {
		case "+":
			return Action{Kind: ActAdjust, Field: parts[1], Delta: step}, true
		case "-":
			return Action{Kind: ActAdjust, Field: parts[1], Delta: -step}, true
		}

	case "cfg":
		if len(parts) != 3 {
			return Action{}, false
		}
		switch parts[1] {
		case "quiet":
			switch parts[2] {
			case "on":
				return Action{Kind: ActQuietOn}, true
			case "off":
				return Action{Kind: ActQuietOff}, true
			}
		case "qstart", "qend":
			switch parts[2] {
			case "+":
				return Action{Kind: ActAdjust, Field: parts[1], Delta: StepQuietHour}, true
			case "-":
				return Action{Kind: ActAdjust, Field: parts[1], Delta: -StepQuietHour}, true
			}
		}

	case "preset":
		if len(parts) != 2 {
			return Action{}, false
		}
		return Action{Kind: ActPreset, Preset: parts[1]}, true
	}
	return Action{}, false
}
