package internal

import (
	"iter"
)

// Defines collects one or more define sequences into a single table.
// Later sequences override earlier ones.
func Defines(seqs ...iter.Seq2[string, string]) (table map[string]string) {
	table = map[string]string{}
	for _, seq := range seqs {
		for key, value := range seq {
			table[key] = value
		}
	}

	return
}
