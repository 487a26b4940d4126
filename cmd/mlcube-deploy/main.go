package main

import "github.com/mlcommons/mlcube-deploy/cmd/mlcube-deploy/cmd"

func main() {
	cmd.Execute()
}
