package main

import "github.com/MeKo-Tech/lexocr/cmd/lexocr/cmd"

func main() {
	cmd.Execute()
}
