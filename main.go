package main

import (
	"github.com/vitrina/feedsmith/internal/cmd"
)

func main() {
	cmd.Execute()
}
