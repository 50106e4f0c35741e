// The main package for the newspipe executable.
package main

import (
	"github.com/fredjeong/news-data-processing/cmd"
)

func main() {
	cmd.Execute()
}
