package main

import (
	"os"

	"github.com/tj-smith47/particle-go/internal/command"
)

func main() {
	os.Exit(command.Main(os.Args))
}
