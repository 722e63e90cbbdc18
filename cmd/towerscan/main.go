package main

import "github.com/atikulmunna/towerscan/internal/cmd"

func main() {
	cmd.Execute()
}
