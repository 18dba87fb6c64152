package main

import "github.com/ValentinKolb/perfDB/cmd"

func main() {
	cmd.Execute()
}
