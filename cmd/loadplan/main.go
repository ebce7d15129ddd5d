package main

import (
	"github.com/gidabrams23/COT-Freight-Optimization-Tool-sub000/internal/adapters/cli"
)

func main() {
	cli.Execute()
}
