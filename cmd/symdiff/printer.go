package main

import (
	"fmt"
)

type Printer interface {
	PrintLine(string)
}

type StdoutPrinter struct{}

func (p *StdoutPrinter) PrintLine(line string) {
	fmt.Println(line)
}

type BufferedPrinter struct {
	Lines []string
}

func (p *BufferedPrinter) PrintLine(line string) {
	p.Lines = append(p.Lines, line)
}

func (p *BufferedPrinter) Reset() {
	p.Lines = nil
}
