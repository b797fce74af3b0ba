package main

import "github.com/tutorrio/icalsender/cmd"

func main() {
	cmd.Execute()
}
