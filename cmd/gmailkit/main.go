package main

import "github.com/lu-zhengda/gmailkit/internal/cli"

func main() {
	cli.Execute()
}
