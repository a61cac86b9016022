package main

import "github.com/brianwhu/xillium-sub000/internal/cli"

func main() {
	cli.Execute()
}
