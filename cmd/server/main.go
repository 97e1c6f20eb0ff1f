package main

import (
	"github.com/outpost-labs/basecamp/guide"
	"github.com/outpost-labs/basecamp/logger"
)

func main() {
	l := logger.New()

	g, err := guide.New()
	if err != nil {
		l.Fatal("booting", &logger.LogContext{Error: err})
	}

	if err := g.Serve(); err != nil {
		l.Fatal("serving", &logger.LogContext{Error: err})
	}
}
