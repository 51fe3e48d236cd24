package main

import "github.com/vietdv277/shotty/cmd"

func main() {
	cmd.Execute()
}
