package server

import (
	"io"
	"os"
	"time"
)

// Config holds the server configuration.
type Config struct {
	Host         string        // default "localhost"
	Port         int           // default 8080
	ReadTimeout  time.Duration // default 30s
	WriteTimeout time.Duration // default 60s
	IdleTimeout  time.Duration // default 60s

	MaxJobs        int           // concurrent searches and perft runs
	MaxSearchDepth int           // deepest search a request may ask for
	MaxPerftDepth  int           // deepest perft a request may ask for
	SearchTimeout  time.Duration // a search past this returns its best completed move
	Workers        int           // goroutines per job; 0 uses GOMAXPROCS

	AccessLog io.Writer // combined-format request log; nil disables it
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	return Config{
		Host:           "localhost",
		Port:           8080,
		ReadTimeout:    30 * time.Second,
		WriteTimeout:   60 * time.Second,
		IdleTimeout:    60 * time.Second,
		MaxJobs:        4,
		MaxSearchDepth: 8,
		MaxPerftDepth:  7,
		SearchTimeout:  20 * time.Second,
		AccessLog:      os.Stdout,
	}
}
