package main

import (
	"os"

	"reelforge/cmd"
)

// @title           Reelforge API
// @version         1.0
// @description     Phrase synchronization & segmentation engine for short-form video production.
// @BasePath        /api/v1

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
