package main

import (
	"flag"
	"fmt"

	"github.com/cheggaaa/pb/v3"
)

const progressTemplate = `{{ string . "prefix" }} {{counters . "%s/%s" "%s/?"}} {{bar . }} {{percent . "%.01f%%" "?"}} {{etime . "%s elapsed"}}`

func runExtract(args []string) error {
	fs := flag.NewFlagSet("extract", flag.ExitOnError)
	var c common
	c.register(fs)
	fs.Parse(args)

	if fs.NArg() == 0 {
		return fmt.Errorf("no video given")
	}

	a, st, err := c.open()
	if err != nil {
		return err
	}
	if st != nil {
		defer st.Close()
	}

	ctx, cancel := signalContext()
	defer cancel()

	for _, video := range fs.Args() {
		bar := pb.ProgressBarTemplate(progressTemplate).New(0)
		bar.Set("prefix", video)
		bar.Start()

		ex, err := a.Extract(ctx, video, func(done, total int) {
			if total > 0 && bar.Total() != int64(total) {
				bar.SetTotal(int64(total))
			}
			bar.SetCurrent(int64(done))
		})
		bar.Finish()
		if err != nil {
			return err
		}

		fmt.Printf("%s: %d frames written to %s (%d without a person)\n",
			ex.Video, ex.Frames, ex.Output, ex.Skipped)
	}
	return nil
}
