/*
Copyright © 2025 NAME HERE <EMAIL ADDRESS>
*/
package main

import "github.com/thierry1804/toa-permit/cmd"

func main() {
	cmd.Execute()
}
