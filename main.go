package main

import "synvoy-client/cmd"

func main() {
	cmd.Run()
}
