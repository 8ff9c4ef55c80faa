// Command hook is a personal project tracker with MARKED and HOOKED jump
// targets and whole-set editing in $EDITOR.
package main

import "github.com/mesh-intelligence/hook/internal/cli"

func main() {
	cli.Execute()
}
