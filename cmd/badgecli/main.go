package main

import (
	"github.com/robotalks/badge.go/pkg/badge/env"
	"github.com/robotalks/badge.go/pkg/cli/sh"
)

//go-build: CGO_ENABLED=0

func init() {
	env.SetupFlags()
}

func main() {
	sh.Main()
}
