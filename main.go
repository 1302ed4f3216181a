package main

import "github.com/PraveenPrabhuT/nvpn/cmd"

func main() {
	cmd.Execute()
}
