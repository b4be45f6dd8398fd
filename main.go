package main

import (
	_ "github.com/joho/godotenv/autoload" // Autoload .env file.

	"github.com/thefndrs/allons-api/cmd/app"
)

// @contact.name   Allons Support
// @contact.email  allonsapp@outlook.com
//
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Bearer token
func main() {
	if err := app.Start(); err != nil {
		panic(err)
	}
}
