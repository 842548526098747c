package main

import "crafthost/internal/cli/cmd"

func main() {
	cmd.Execute()
}
