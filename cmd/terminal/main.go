package main

import "possync/cmd/terminal/cmd"

func main() {
	cmd.Execute()
}
