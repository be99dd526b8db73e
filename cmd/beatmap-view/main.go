package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"runtime"
	"runtime/pprof"

	"gioui.org/app"
	"github.com/vsariola/beatmap"
	"github.com/vsariola/beatmap/view"
	"github.com/vsariola/beatmap/view/gioui"
)

var cpuprofile = flag.String("cpuprofile", "", "write cpu profile to `file`")
var memprofile = flag.String("memprofile", "", "write memory profile to `file`")
var verbose = flag.Bool("v", false, "log every batch of tiles requested")

func main() {
	flag.Usage = printUsage
	flag.Parse()
	if flag.NArg() != 1 {
		flag.Usage()
		os.Exit(2)
	}
	var f *os.File
	if *cpuprofile != "" {
		var err error
		f, err = os.Create(*cpuprofile)
		if err != nil {
			log.Fatal("could not create CPU profile: ", err)
		}
		if err := pprof.StartCPUProfile(f); err != nil {
			log.Fatal("could not start CPU profile: ", err)
		}
	}
	manifestPath := flag.Arg(0)
	manifest, err := readManifest(manifestPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	// relative tile sources are resolved against the manifest's directory
	loader := view.DirLoader(os.DirFS(filepath.Dir(manifestPath)))
	broker := view.NewBroker()
	viewer, err := gioui.NewViewer(broker, manifest, loader)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	viewer.SetVerbose(*verbose)
	viewer.Title = fmt.Sprintf("Beatmap - %s", filepath.Base(manifestPath))
	interrupt := make(chan os.Signal, 1)
	signal.Notify(interrupt, os.Interrupt)
	go func() {
		select {
		case <-interrupt:
			broker.CloseView <- struct{}{}
		case <-broker.FinishedView:
		}
	}()
	go func() {
		viewer.Main()
		if *cpuprofile != "" {
			pprof.StopCPUProfile()
			f.Close()
		}
		if *memprofile != "" {
			f, err := os.Create(*memprofile)
			if err != nil {
				log.Fatal("could not create memory profile: ", err)
			}
			defer f.Close()
			runtime.GC()
			if err := pprof.WriteHeapProfile(f); err != nil {
				log.Fatal("could not write memory profile: ", err)
			}
		}
		os.Exit(0)
	}()
	app.Main()
}

func readManifest(path string) (*beatmap.Manifest, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	m, err := beatmap.ReadManifest(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return m, nil
}

func printUsage() {
	fmt.Fprintf(os.Stderr, "Usage: %s [flags] manifest.yml\n\nShows the tiled waveform described by the manifest.\n\nFlags:\n", os.Args[0])
	flag.PrintDefaults()
}
