package main

import "github.com/MeKo-Tech/contourbg/internal/cmd"

func main() {
	cmd.Execute()
}
