package main

import "github.com/kamilpajak/diagnosa/cmd/diagnosa"

func main() {
	diagnosa.Execute()
}
