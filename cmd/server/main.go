package main

import "github.com/eleven-am/sanpo-guide/internal/bootstrap"

func main() {
	bootstrap.Run()
}
