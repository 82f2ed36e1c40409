package main

import "jobboard_back_end_go/cmd"

func main() {
	cmd.Execute()
}
