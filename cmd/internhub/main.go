package main

import "github.com/InternHub-KE/client/cmd/internhub/cmd"

func main() {
	cmd.Execute()
}
