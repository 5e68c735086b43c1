package main

import (
	_ "github.com/joho/godotenv/autoload"

	"github.com/harishcmuthyala/portfolio/cmd"
)

func main() {
	cmd.Execute()
}
