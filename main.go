// alarmd schedules briefing alarms that survive restarts.
package main

import (
	"os"

	"github.com/manav03panchal/alarmd/cmd"
)

func main() {
	os.Exit(cmd.Execute())
}
