package main

import cmd "github.com/rohmanhakim/fic-roulette/internal/cli"

func main() {
	cmd.Execute()
}
