package main

import "github.com/vietddude/adsim/internal/cli"

func main() {
	cli.Execute()
}
