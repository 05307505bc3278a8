// Package logging contains the singleton logger that repobuild uses globally.
// It deliberately has little else since it's a dependency everywhere.
package logging

import (
	"os"

	"gopkg.in/op/go-logging.v1"
)

// Log is the singleton logger instance.
var Log = logging.MustGetLogger("repobuild")

// Level is a re-export of the library type.
type Level = logging.Level

// Re-exports of various log levels.
const (
	CRITICAL = logging.CRITICAL
	ERROR    = logging.ERROR
	WARNING  = logging.WARNING
	NOTICE   = logging.NOTICE
	INFO     = logging.INFO
	DEBUG    = logging.DEBUG
)

// Init sets up the backend with the given verbosity. Called once from main.
func Init(verbosity Level) {
	backend := logging.NewLogBackend(os.Stderr, "", 0)
	format := logging.MustStringFormatter(
		`%{color}%{time:15:04:05.000} %{level:-7s}: %{color:reset}%{message}`,
	)
	formatted := logging.NewBackendFormatter(backend, format)
	leveled := logging.AddModuleLevel(formatted)
	leveled.SetLevel(verbosity, "")
	logging.SetBackend(leveled)
}
