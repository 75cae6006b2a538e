package main

import (
	"flag"
	"fmt"
	"maps"
	"os"
	"slices"
	"text/tabwriter"

	"github.com/ayusman/repcoach/internal/stats"
)

func runHistory(args []string) error {
	fs := flag.NewFlagSet("history", flag.ExitOnError)
	var c common
	c.register(fs)
	mode := fs.String("mode", "", "only sessions of this mode")
	limit := fs.Int("n", 10, "number of sessions")
	fs.Parse(args)

	c.noStore = false
	_, st, err := c.open()
	if err != nil {
		return err
	}
	defer st.Close()

	sessions, err := st.Sessions().List(*mode, *limit)
	if err != nil {
		return err
	}
	if len(sessions) == 0 {
		fmt.Println("No sessions recorded yet.")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "STARTED\tMODE\tDURATION\tFRAMES\tREPS\tMATCH\tSOURCE")
	for _, s := range sessions {
		fmt.Fprintf(w, "%s\t%s\t%.0fs\t%d\t%g\t%.0f%%\t%s\n",
			s.StartedAt.Local().Format("2006-01-02 15:04"), s.Mode, s.Duration().Seconds(),
			s.Frames, s.Reps, s.MeanMatch*100, s.Source)
	}
	return w.Flush()
}

func sortedNames(st stats.Statistics) []string {
	return slices.Sorted(maps.Keys(st))
}
