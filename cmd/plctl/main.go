package main

import "github.com/mcoot/pointsbot/internal/cli"

func main() {
	cli.Execute()
}
