package main

import "github.com/mcoot/creditshop/internal/cli"

func main() {
	cli.Execute()
}
