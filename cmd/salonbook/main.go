package main

import "github.com/example/salon-booking/cmd"

func main() {
	cmd.Execute()
}
