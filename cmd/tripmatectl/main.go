package main

import "github.com/kailas-cloud/tripmate/internal/cli"

func main() {
	cli.Execute()
}
