package main

import "github.com/nekruzvatanshoev/autovalue/pkg/cmd"

func main() {
	cmd.Execute()
}
