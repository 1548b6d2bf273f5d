package main

import "karmabot/cmd"

func main() {
	cmd.Execute()
}
