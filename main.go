package main

import "grantnet/netintel/cmd"

func main() {
	cmd.Execute()
}
