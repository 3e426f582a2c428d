package cmd

import (
	"fmt"
	"io"
	"time"

	"github.com/krpsim/krpsim/sim"
	"github.com/krpsim/krpsim/sim/rules"
	"github.com/krpsim/krpsim/sim/trace"
)

func printParsing(w io.Writer, rs *rules.Ruleset) {
	fmt.Fprintf(w, "\nNice file! %d processes, %d stocks, 1 to optimize\n\n",
		rs.Catalog.Len(), len(rs.Resources()))
}

func printStock(w io.Writer, title string, stock sim.Stock) {
	fmt.Fprintln(w, title)
	for _, name := range stock.Names() {
		fmt.Fprintf(w, " %s => %d\n", name, stock[name])
	}
	fmt.Fprintln(w)
}

func printResult(w io.Writer, summary *trace.TraceSummary, proj *sim.Projection, elapsed time.Duration) {
	fmt.Fprintln(w, "Main walk:")
	for _, ps := range summary.Processes {
		fmt.Fprintln(w, ps.Describe())
	}
	fmt.Fprintf(w, "\nNo more process doable at cycle %d\n\n", proj.EndCycle)
	printStock(w, "Stock:", proj.Stock)
	fmt.Fprintf(w, "time: %.3fs\n", elapsed.Seconds())
}
