package main

import "github.com/letmeget/swapgate/internal/cli"

func main() {
	cli.Execute()
}
