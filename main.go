package main

import "github.com/kozaktomas/attendance-check/cmd"

func main() {
	cmd.Execute()
}
