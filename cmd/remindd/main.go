package main

import (
	"github.com/sandeepkv93/remindd/internal/cli"
)

func main() {
	cli.Execute()
}
