package main

import "github.com/fakeyudi/wakeblame/cmd"

func main() {
	cmd.Execute()
}
