package main

import "github.com/nfrund/presetmarket/cmd/presetctl/cmd"

func main() {
	cmd.Execute()
}
