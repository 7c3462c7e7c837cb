package main

import "github.com/pcchou102/cwa-weather/cmd"

func main() {
	cmd.Execute()
}
