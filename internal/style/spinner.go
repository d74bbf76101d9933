package style

import (
	"time"

	"github.com/briandowns/spinner"
)

// NewSpinner returns a spinner preconfigured with flowtoy's default
// charset and color, started by the caller via Start/Stop, matching the
// teacher's internal/style/spinner.go usage.
func NewSpinner(suffix string) *spinner.Spinner {
	s := spinner.New(spinner.CharSets[14], 100*time.Millisecond)
	s.Suffix = " " + suffix
	_ = s.Color("cyan")
	return s
}
