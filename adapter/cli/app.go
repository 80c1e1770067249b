package cli

import (
	"github.com/felixgeelhaar/reserva/internal/app"
)

// cliApp holds the wired container for commands that need it.
var cliApp *app.Container

// SetApp sets the application container used by CLI commands.
func SetApp(c *app.Container) {
	cliApp = c
}

// GetApp returns the application container, or nil when the CLI is running
// without a database connection.
func GetApp() *app.Container {
	return cliApp
}
