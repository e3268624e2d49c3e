package main

import (
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"

	"go-cvseq/sequencer"
)

func main() {
	in := flag.String("in", "", "Saved document to read (.json or .yaml). Use - for standard input.")
	out := flag.String("out", "", "Write the normalized document here. Use - for standard output.")
	format := flag.String("format", "", "Output format: json or yaml. Defaults to the extension of -out, then to the input format.")
	summary := flag.Bool("summary", false, "Print a per-scene summary instead of (or in addition to) writing a document.")
	help := flag.Bool("h", false, "Show help.")
	flag.Usage = printUsage
	flag.Parse()
	if *in == "" && flag.NArg() > 0 {
		*in = flag.Arg(0)
	}
	if *in == "" || *help {
		flag.Usage()
		os.Exit(0)
	}
	if *out == "" && !*summary {
		*summary = true
	}

	if err := run(*in, *out, *format, *summary, os.Stdout); err != nil {
		fmt.Fprintf(os.Stderr, "scenedump: %v\n", err)
		os.Exit(1)
	}
}

func run(in, out, format string, summary bool, w io.Writer) error {
	var data []byte
	var err error
	if in == "-" {
		data, err = io.ReadAll(os.Stdin)
	} else {
		data, err = os.ReadFile(in)
	}
	if err != nil {
		return errors.Wrapf(err, "read %s", in)
	}

	st := sequencer.NewState()
	inFormat, err := sequencer.Decode(data, st)
	if err != nil {
		return errors.Wrapf(err, "decode %s", in)
	}

	if summary {
		printSummary(w, st)
	}

	if out == "" {
		return nil
	}
	f := inFormat
	switch {
	case format != "":
		f = sequencer.ParseFormat(format)
	case out != "-" && filepath.Ext(out) != "":
		f = sequencer.ParseFormat(filepath.Ext(out))
	}
	encoded, err := sequencer.Encode(st, f)
	if err != nil {
		return err
	}
	if out == "-" {
		_, err = w.Write(encoded)
		return err
	}
	return errors.Wrapf(os.WriteFile(out, encoded, 0644), "write %s", out)
}

func printSummary(w io.Writer, st *sequencer.State) {
	run := "stopped"
	if st.Running {
		run = "running"
	}
	fmt.Fprintf(w, "current scene %d, %s\n", st.CurrentScene+1, run)
	for i := range st.Scenes {
		sc := &st.Scenes[i]
		if sc.IsEmpty {
			fmt.Fprintf(w, "scene %d: empty\n", i+1)
			continue
		}
		fmt.Fprintf(w, "scene %d:\n", i+1)
		for t := range sc.Tracks {
			fmt.Fprintf(w, "  %s\n", trackLine(t, &sc.Tracks[t]))
		}
	}
}

func trackLine(t int, td *sequencer.TrackData) string {
	var gates, pitches strings.Builder
	for s := 0; s < sequencer.NumSteps; s++ {
		switch {
		case s >= td.StepCount:
			gates.WriteByte('-')
		case td.Gates[s]:
			gates.WriteByte('x')
		default:
			gates.WriteByte('.')
		}
		if s > 0 {
			pitches.WriteByte(' ')
		}
		fmt.Fprintf(&pitches, "%.2f", td.Pitches[s])
	}
	return fmt.Sprintf("T%d len=%d div=%s dir=%s gates=%s pitch=[%s]",
		t+1, td.StepCount, sequencer.DivisionName(td.DivisionIndex), td.Direction, gates.String(), pitches.String())
}

func printUsage() {
	fmt.Fprintf(flag.CommandLine.Output(), "Inspect or convert go-cvseq scene documents.\nUsage: %s [flags] [file]\n", os.Args[0])
	flag.PrintDefaults()
}
