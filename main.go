package main

import "github.com/fiscalbyte/budgetlens/cmd"

func main() {
	cmd.Execute()
}
