package main

import (
	"os"

	"docchat/cmd"
)

// @title           docchat API
// @version         1.0
// @description     Role-based streaming chat and document question answering.
// @BasePath        /
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
