package main

import "github.com/eldtechnologies/webhookd/internal/cli"

func main() {
	cli.Execute()
}
