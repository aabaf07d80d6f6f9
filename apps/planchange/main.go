package main

import "github.com/railzwaylabs/planchange/internal/cli"

func main() {
	cli.Execute()
}
