// Command projectdash serves the project dashboard.
package main

import (
	"github.com/JakeFAU/project-dashboard/cmd"
)

func main() {
	cmd.Execute()
}
