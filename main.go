package main

import (
	"log"

	"github.com/anoixa/imagebank/cmd"
	"github.com/anoixa/imagebank/config"
)

func main() {
	log.Printf("imagebank %s (%s)", config.Version, config.CommitHash)
	cmd.Execute()
}
