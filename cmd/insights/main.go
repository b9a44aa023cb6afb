package main

import "invoicer/internal/cli"

func main() {
	cli.Execute()
}
