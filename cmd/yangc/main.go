// Copyright (c) 2021, AT&T Intellectual Property. All rights reserved.
//
// SPDX-License-Identifier: MPL-2.0

// Command yangc loads a set of YANG files through a ctx.Repository and
// prints the result, either as re-serialised YANG or as a pyang-style
// tree.
//
// Usage: yangc [--path DIR[,DIR...]] [--format FORMAT] [--feature MOD:FEAT] FILE ...
package main

import (
	"fmt"
	"io/ioutil"
	"os"
	"path/filepath"
	"strings"

	"github.com/pborman/getopt"
	log "github.com/sirupsen/logrus"

	"github.com/danos/yangschema/ctx"
	"github.com/danos/yangschema/print"
)

type dirLocator struct {
	paths []string
}

func (d *dirLocator) Locate(name, revision string) (string, bool, error) {
	candidates := []string{name + ".yang"}
	if revision != "" {
		candidates = append([]string{name + "@" + revision + ".yang"}, candidates...)
	}
	for _, dir := range d.paths {
		for _, c := range candidates {
			text, err := ioutil.ReadFile(filepath.Join(dir, c))
			if err == nil {
				return string(text), true, nil
			}
		}
	}
	return "", false, nil
}

type featureSet map[string]bool

func (f featureSet) Enabled(moduleAndFeature string) bool {
	if len(f) == 0 {
		return true
	}
	return f[moduleAndFeature]
}

func main() {
	var paths []string
	var format string
	var features []string
	var help bool
	var debug bool

	getopt.ListVarLong(&paths, "path", 0, "comma separated list of directories for the module locator; the loader does not consult it, so imports/includes resolve only among the FILEs given", "DIR[,DIR...]")
	getopt.StringVarLong(&format, "format", 0, "output format: yang, tree, none", "FORMAT")
	getopt.ListVarLong(&features, "feature", 0, "enable module:feature (repeatable); default is all features enabled", "MOD:FEAT")
	getopt.BoolVarLong(&debug, "debug", 0, "dump the resolved schema tree via godebug/pretty")
	getopt.BoolVarLong(&help, "help", '?', "display help")
	getopt.SetParameters("FILE ...")

	if err := getopt.Getopt(nil); err != nil {
		fmt.Fprintln(os.Stderr, err)
		getopt.PrintUsage(os.Stderr)
		os.Exit(1)
	}

	if help {
		getopt.CommandLine.PrintUsage(os.Stderr)
		os.Exit(0)
	}

	if format == "" {
		format = "tree"
	}

	files := getopt.Args()
	if len(files) == 0 {
		fmt.Fprintln(os.Stderr, "yangc: no input files")
		getopt.PrintUsage(os.Stderr)
		os.Exit(1)
	}

	fs := make(featureSet)
	for _, f := range features {
		fs[f] = true
	}

	logger := log.New()
	r := ctx.New(ctx.Config{
		Locator:  &dirLocator{paths: paths},
		Features: fs,
		Logger:   log.NewEntry(logger),
	})

	sources := make(map[string]string, len(files))
	for _, path := range files {
		text, err := ioutil.ReadFile(path)
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}
		sources[moduleNameOf(path)] = string(text)
	}

	if err := r.ParseModules(sources); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	for name := range sources {
		m, ok := r.GetModule(name, "")
		if !ok {
			continue
		}
		switch format {
		case "yang":
			if err := print.YANG(os.Stdout, m); err != nil {
				fmt.Fprintln(os.Stderr, err)
				os.Exit(1)
			}
		case "tree":
			if err := print.Tree(os.Stdout, m); err != nil {
				fmt.Fprintln(os.Stderr, err)
				os.Exit(1)
			}
		case "none":
		default:
			fmt.Fprintf(os.Stderr, "yangc: unknown format %q\n", format)
			os.Exit(1)
		}
		if debug {
			fmt.Println(print.Dump(m))
		}
	}
}

// moduleNameOf derives a module name from a source file path the way the
// teacher's loaders do: strip directory and .yang/.yin suffix, and any
// trailing "@revision".
func moduleNameOf(path string) string {
	base := filepath.Base(path)
	base = strings.TrimSuffix(base, filepath.Ext(base))
	if i := strings.LastIndex(base, "@"); i >= 0 {
		base = base[:i]
	}
	return base
}
