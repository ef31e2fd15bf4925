package main

import "github.com/EricA1019/Godot-MCP/internal/cli"

func main() {
	cli.Execute()
}
