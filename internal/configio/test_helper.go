package configio

import (
	"os"
	"testing"

	// Import shared test helper for logging configuration
	_ "github.com/flowtoy/flowtoy/internal/testhelper"
)

// TestMain runs before all tests in this package
func TestMain(m *testing.M) {
	// Logging setup is handled by testhelper package
	os.Exit(m.Run())
}
