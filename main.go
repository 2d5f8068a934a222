package main

import "shinobi-relay/cmd"

func main() {
	cmd.Execute()
}
