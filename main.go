package main

import "github.com/vibast-solutions/ms-go-shop-auth/cmd"

func main() {
	cmd.Execute()
}
