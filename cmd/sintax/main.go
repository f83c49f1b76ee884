// Command sintax builds and queries SINTAX-style taxonomic classification
// databases for short nucleotide sequences.
package main

import "github.com/dnasintax/sintax/cmd/sintax/cmd"

func main() {
	cmd.Run()
}
