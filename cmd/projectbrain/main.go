// Command projectbrain is a terminal client for the Project Brain
// construction document assistant.
package main

import "github.com/diogo/projectbrain/internal/commands"

func main() {
	commands.Execute()
}
