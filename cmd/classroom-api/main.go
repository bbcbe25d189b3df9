// Package main is the entry point for the Classroom API server.
package main

import (
	"os"

	"github.com/noah-isme/classroom-api/cmd/classroom-api/app"
)

// @title Classroom API
// @version 1.0.0
// @description Teacher and student administration API
// @BasePath /
// @schemes http

func main() {
	if err := app.NewRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
