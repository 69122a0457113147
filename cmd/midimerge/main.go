package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"io/fs"
	"log"
	"os"
	"path/filepath"

	"github.com/vsariola/midimerge"
	"github.com/vsariola/midimerge/config"
	"github.com/vsariola/midimerge/naming"
	"github.com/vsariola/midimerge/report"
	"github.com/vsariola/midimerge/version"
)

type options struct {
	out     string
	safe    bool
	list    bool
	summary string
	compare string
	namer   *naming.Namer
	logger  *log.Logger
}

func main() {
	outPath := flag.String("o", "", "Output file or directory. A directory receives the templated output names. By default, outputs are placed next to their inputs.")
	tmpl := flag.String("t", "", "Output name template, using text/template with sprig functions. Fields: .Name .Ext .Dir .Base (default \""+naming.DefaultTemplate+"\")")
	safe := flag.Bool("n", false, "Never overwrite files; if the output already exists, give an error.")
	list := flag.Bool("l", false, "Do not write files; just list the files that would be written.")
	textOut := flag.Bool("s", false, "Print a summary of every converted file.")
	yamlOut := flag.Bool("y", false, "Print the summary of every converted file as yaml.")
	jsonOut := flag.Bool("j", false, "Print the summary of every converted file as json.")
	jobFile := flag.String("c", "", "Read the conversions to do from this .yml or .json job file.")
	compare := flag.String("compare", "", "Compare the track names of the converted file with this reference file.")
	verbose := flag.Bool("verbose", false, "Log what is being done.")
	help := flag.Bool("h", false, "Show help.")
	versionFlag := flag.Bool("v", false, "Print version.")
	flag.Usage = printUsage
	flag.Parse()
	if *versionFlag {
		fmt.Println(version.VersionOrHash)
		os.Exit(0)
	}
	if (flag.NArg() == 0 && *jobFile == "") || *help {
		flag.Usage()
		os.Exit(0)
	}
	logger := log.New(os.Stderr, "midimerge: ", 0)
	if !*verbose {
		logger.SetOutput(io.Discard)
	}
	opts := options{out: *outPath, safe: *safe, list: *list, compare: *compare, logger: logger}
	switch {
	case *jsonOut:
		opts.summary = "json"
	case *yamlOut:
		opts.summary = "yaml"
	case *textOut:
		opts.summary = "text"
	}
	retval := 0
	if *jobFile != "" {
		c, err := config.Load(*jobFile)
		if err != nil {
			fmt.Fprintf(os.Stderr, "could not load job file: %v\n", err)
			os.Exit(1)
		}
		jobOpts := opts
		jobTmpl := *tmpl
		if jobTmpl == "" {
			jobTmpl = c.Template
		}
		if jobOpts.namer, err = naming.New(jobTmpl); err != nil {
			fmt.Fprintf(os.Stderr, "%v\n", err)
			os.Exit(1)
		}
		jobOpts.safe = opts.safe || c.Safe
		for _, job := range c.Jobs {
			o := jobOpts
			o.out = job.Output
			if o.out == "" {
				o.out = c.OutDir
				if c.OutDir != "" {
					o.out = c.OutDir + string(filepath.Separator)
				}
			}
			if job.Compare != "" {
				o.compare = job.Compare
			}
			if err := process(job.Input, o); err != nil {
				fmt.Fprintf(os.Stderr, "could not process file %v: %v\n", job.Input, err)
				retval = 1
			}
		}
	}
	if flag.NArg() > 0 {
		var err error
		if opts.namer, err = naming.New(*tmpl); err != nil {
			fmt.Fprintf(os.Stderr, "%v\n", err)
			os.Exit(1)
		}
	}
	for _, param := range flag.Args() {
		if info, err := os.Stat(param); err == nil && info.IsDir() {
			files, err := midiFiles(param)
			if err != nil {
				fmt.Fprintf(os.Stderr, "could not glob the path %v for midi files: %v\n", param, err)
				retval = 1
				continue
			}
			o := opts
			if o.out != "" {
				o.out += string(filepath.Separator) // several inputs never go to one file
			}
			for _, file := range files {
				if err := process(file, o); err != nil {
					fmt.Fprintf(os.Stderr, "could not process file %v: %v\n", file, err)
					retval = 1
				}
			}
		} else {
			if err := process(param, opts); err != nil {
				fmt.Fprintf(os.Stderr, "could not process file %v: %v\n", param, err)
				retval = 1
			}
		}
	}
	os.Exit(retval)
}

func midiFiles(dir string) ([]string, error) {
	var files []string
	for _, pattern := range []string{"*.mid", "*.midi"} {
		matches, err := filepath.Glob(filepath.Join(dir, pattern))
		if err != nil {
			return nil, err
		}
		files = append(files, matches...)
	}
	return files, nil
}

func process(filename string, opts options) error {
	output, err := opts.namer.Output(filename, opts.out)
	if err != nil {
		return err
	}
	if opts.safe {
		if _, err := os.Stat(output); err == nil {
			return fmt.Errorf("file %v would be overwritten", output)
		} else if !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("could not check output %v: %v", output, err)
		}
	}
	opts.logger.Printf("converting %v", filename)
	c, err := midimerge.Open(filename)
	if err != nil {
		return err
	}
	opts.logger.Printf("%v: %d tracks %q", filename, len(c.SMF().Tracks), c.TrackNames())
	if err := c.Convert(); err != nil {
		return err
	}
	if opts.list {
		fmt.Println(output)
	} else {
		if dir := filepath.Dir(output); dir != "" {
			if err := os.MkdirAll(dir, os.ModePerm); err != nil {
				return fmt.Errorf("could not create output directory %v: %v", dir, err)
			}
		}
		if err := c.Save(output); err != nil {
			return err
		}
		opts.logger.Printf("wrote %v", output)
	}
	var diffs []midimerge.TrackNameDiff
	if opts.compare != "" {
		if diffs, err = c.Compare(opts.compare); err != nil {
			return fmt.Errorf("could not compare with %v: %w", opts.compare, err)
		}
		if opts.summary == "" {
			for _, d := range diffs {
				fmt.Printf("%v: track %d is named %q, reference has %q\n", output, d.Index, d.Have, d.Want)
			}
		}
	}
	if opts.summary == "" {
		return nil
	}
	sum := report.Summarize(output, c.SMF())
	sum.Diffs = diffs
	var b []byte
	switch opts.summary {
	case "json":
		b, err = sum.JSON()
	case "yaml":
		b, err = sum.YAML()
	default:
		return sum.WriteText(os.Stdout)
	}
	if err != nil {
		return err
	}
	fmt.Println(string(b))
	return nil
}

func printUsage() {
	fmt.Fprintf(os.Stderr, "midimerge moves the notes of the first track of a MuseScore 4 .mid file into the second track, so that FL Studio imports it correctly.\nUsage: %s [flags] [path ...]\n", os.Args[0])
	flag.PrintDefaults()
}
