package main

import "tournament-sync/cmd"

func main() {
	cmd.Execute()
}
