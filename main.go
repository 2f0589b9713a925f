// The main package for the leadscan executable.
package main

import (
	"github.com/hdcnetworks/leadscan/cmd"
)

func main() {
	cmd.Execute()
}
