package main

import "github.com/voxelio/voxel-studio/cmd"

func main() {
	cmd.Execute()
}
