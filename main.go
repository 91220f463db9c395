/*
Copyright © 2026 NAME HERE <EMAIL ADDRESS>
*/
package main

import "github.com/identia/apiserver/cmd"

func main() {
	cmd.Execute()
}
