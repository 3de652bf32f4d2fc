package main

import "github.com/talentpulse/interview-engine/internal/cli"

func main() {
	cli.Execute()
}
