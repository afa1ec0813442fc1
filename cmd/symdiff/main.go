package main

import (
	"fmt"
	"os"

	"github.com/alecthomas/kingpin/v2"
	"github.com/go-kit/log"

	"github.com/njchilds90/symdiff"
)

func main() {
	app := kingpin.New("symdiff", "Differentiate, evaluate and solve expression trees given in JSON form.")
	app.HelpFlag.Short('h')

	var (
		logLevel string
		logger   = log.NewNopLogger()
	)
	app.Flag("log.level", "Only log messages with the given severity or above.").Default("info").EnumVar(&logLevel, symdiff.LogLevels...)
	app.PreAction(func(*kingpin.ParseContext) error {
		l, err := symdiff.NewLogger(os.Stderr, logLevel)
		if err != nil {
			return err
		}
		logger = l
		return nil
	})

	printer := &StdoutPrinter{}
	loggerFn := func() log.Logger { return logger }

	diff := &DiffCommand{}
	diff.Register(app, printer)
	eval := &EvalCommand{}
	eval.Register(app, printer)
	solve := &SolveCommand{}
	solve.Register(app, loggerFn, printer)

	if _, err := app.Parse(os.Args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "symdiff: %v\n", err)
		os.Exit(1)
	}
}
