package main

import "jvmget/cmd"

func main() {
	cmd.Execute()
}
