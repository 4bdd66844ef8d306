package main

import "github.com/kozaktomas/face-overlay/cmd"

func main() {
	cmd.Execute()
}
