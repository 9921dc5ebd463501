package main

import "github.com/KaramelBytes/mess-cli/cmd"

func main() {
	cmd.Execute()
}
