package main

import "github.com/sentrahq/sentra/cmd/sentra/cmd"

func main() {
	cmd.Execute()
}
