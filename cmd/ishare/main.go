package main

import "github.com/urbanbyte/ishare/internal/cli"

func main() {
	cli.Execute()
}
