package main

import "github.com/MeKo-Tech/formscan/cmd/formscan/cmd"

func main() {
	cmd.Execute()
}
