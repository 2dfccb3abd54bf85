package main

import (
	"bufio"
	"strings"
	"testing"
)

func TestReadIntDefault(t *testing.T) {
	tests := []struct {
		name  string
		input string
		def   int
		want  int
	}{
		{name: "value", input: "4\n", def: 1, want: 4},
		{name: "empty line", input: "\n", def: 1, want: 1},
		{name: "not a number", input: "abc\n", def: 3, want: 3},
		{name: "padded", input: "  7  \n", def: 0, want: 7},
		{name: "eof", input: "", def: 2, want: 2},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			reader := bufio.NewReader(strings.NewReader(tt.input))
			if got := readIntDefault(reader, "", tt.def); got != tt.want {
				t.Fatalf("readIntDefault(%q) = %d, want %d", tt.input, got, tt.want)
			}
		})
	}
}
