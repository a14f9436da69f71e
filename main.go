package main

import "mudlink/cmd"

func main() {
	cmd.Execute()
}
