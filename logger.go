// Logger construction shared by the library and the CLI.
package words

import (
	"os"

	"github.com/charmbracelet/log"
)

// NewLogger builds the structured logger the engine and registry report
// through. Unknown levels fall back to info.
func NewLogger(level string) *log.Logger {
	logger := log.NewWithOptions(os.Stderr, log.Options{
		ReportTimestamp: true,
		Prefix:          "words",
	})
	parsed, err := log.ParseLevel(level)
	if err != nil {
		parsed = log.InfoLevel
	}
	logger.SetLevel(parsed)
	return logger
}
