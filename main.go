package main

import (
	"log"

	"github.com/sorahel/streamlog/cmd/streamlog"
)

func main() {
	log.SetFlags(log.LstdFlags | log.Lshortfile)
	streamlog.Execute()
}
