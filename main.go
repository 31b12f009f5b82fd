package main

import "langextract/cmd/langextract"

func main() {
	cmd.Execute()
}
