package main

import (
	"cryptomonitor/internal/cli"
)

func main() {
	cli.Execute()
}
