package extrinsic

import (
	"fmt"
	"log/slog"
)

// Verbosity controls how much the tool reports while working. It only
// affects logging; no decision in this package depends on it.
type Verbosity int

const (
	// VerbosityDefault is the standard reporting level.
	VerbosityDefault Verbosity = iota
	// VerbosityQuiet suppresses everything but errors.
	VerbosityQuiet
	// VerbosityVerbose reports each step of extrinsic submission.
	VerbosityVerbose
)

func (v Verbosity) String() string {
	switch v {
	case VerbosityQuiet:
		return "quiet"
	case VerbosityVerbose:
		return "verbose"
	default:
		return "default"
	}
}

// LogLevel maps the verbosity to an slog level.
func (v Verbosity) LogLevel() slog.Level {
	switch v {
	case VerbosityQuiet:
		return slog.LevelError
	case VerbosityVerbose:
		return slog.LevelDebug
	default:
		return slog.LevelInfo
	}
}

// ParseVerbosity resolves the --quiet/--verbose flag pair. Both set is
// rejected.
func ParseVerbosity(quiet, verbose bool) (Verbosity, error) {
	switch {
	case quiet && verbose:
		return VerbosityDefault, fmt.Errorf("--quiet and --verbose are mutually exclusive")
	case quiet:
		return VerbosityQuiet, nil
	case verbose:
		return VerbosityVerbose, nil
	default:
		return VerbosityDefault, nil
	}
}
