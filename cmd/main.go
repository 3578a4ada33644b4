package main

import (
	cmd "github.com/jwh1000/Manga2EPUB/cmd/manga2epub"
)

func main() {
	cmd.Execute()
}
