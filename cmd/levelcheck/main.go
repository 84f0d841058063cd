// Command levelcheck validates level files and can write back repaired
// copies.
//
//	levelcheck -dir levels            check every level in dir
//	levelcheck -dir levels -fix a b   repair and save levels a and b
package main

import (
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/milk9111/tractorbeam/levels"
)

func main() {
	dir := flag.String("dir", "levels", "directory holding <name>.json level files")
	fix := flag.Bool("fix", false, "write repaired levels back to -dir")
	bundled := flag.Bool("bundled", true, "include the bundled default levels")
	flag.Parse()

	store := levels.NewStore(*dir)
	if !*bundled {
		store.Fallback = nil
	}
	os.Exit(run(store, flag.Args(), *fix, os.Stdout))
}

// run checks names (every known level when empty) and returns the exit
// status: 0 clean, 1 warnings, 2 a level could not be read or written.
func run(store *levels.Store, names []string, fix bool, out io.Writer) int {
	if len(names) == 0 {
		all, err := store.List()
		if err != nil {
			fmt.Fprintf(out, "list: %v\n", err)
			return 2
		}
		names = all
	}

	status := 0
	for _, name := range names {
		lvl, warnings, err := store.Load(name)
		if err != nil {
			fmt.Fprintf(out, "%s: %v\n", name, err)
			status = 2
			continue
		}
		warnings = append(warnings, levels.Validate(lvl)...)
		if len(warnings) == 0 {
			fmt.Fprintf(out, "%s: ok (%d objects, %d connections)\n", name, len(lvl.Objects), len(lvl.Connections))
		}
		for _, w := range warnings {
			fmt.Fprintf(out, "%s: %s\n", name, w)
		}
		if len(warnings) > 0 && status == 0 {
			status = 1
		}

		if fix {
			if _, err := store.Save(name, lvl); err != nil {
				fmt.Fprintf(out, "%s: save: %v\n", name, err)
				status = 2
				continue
			}
			fmt.Fprintf(out, "%s: saved %s\n", name, store.Path(name))
		}
	}
	return status
}
