package main

import "imchat/cli"

func main() {
	cli.Execute()
}
