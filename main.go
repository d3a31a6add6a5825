package main

import "github.com/dnitsch/aws-adfs-auth/cmd"

func main() {
	cmd.Execute()
}
