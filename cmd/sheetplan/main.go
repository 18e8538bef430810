// Command sheetplan manages and runs spreadsheet filter plans.
package main

import "github.com/mesh-intelligence/sheetplan/internal/cli"

func main() {
	cli.Execute()
}
