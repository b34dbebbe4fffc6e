package main

import "github.com/chronicle-project/chronicle/internal/cli"

func main() {
	cli.Execute()
}
