package main

import "github.com/i474232898/agro-weather/internal/cli"

func main() {
	cli.Execute()
}
