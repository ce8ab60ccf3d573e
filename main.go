package main

import "github.com/inovacc/stanup/cmd"

func main() {
	cmd.Execute()
}
