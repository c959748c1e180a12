package main

import "github.com/skyfold/astro-session/cmd"

func main() {
	cmd.Execute()
}
