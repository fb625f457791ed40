package main

import "cashcraft/cmd/client/cmd"

func main() {
	cmd.Execute()
}
