package main

import "irisload/cmd"

func main() {
	cmd.Execute()
}
