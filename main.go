package main

import "github.com/Beastly713/lsbkit/cmd"

func main() {
	cmd.Execute()
}
