package main

import (
	"github.com/bbshockey/RiboRez-V1/cmd"
)

func main() {
	cmd.Execute() // initialize cobra commands
}
