package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/gnana997/iconpark/pkg/catalog"
	"github.com/gnana997/iconpark/pkg/registry"
	"github.com/gnana997/iconpark/pkg/snippet"
)

const maxWidth = 80

// printIconHuman prints a human-readable icon summary.
func printIconHuman(w io.Writer, icon *catalog.Icon, hasSource bool) {
	header := icon.Name
	if icon.Title != "" && icon.Title != icon.Name {
		header = fmt.Sprintf("%s  (%s)", icon.Name, icon.Title)
	}
	fmt.Fprintf(w, "%s  [%s]\n", header, icon.Category)
	if icon.CategoryLocalized != "" {
		fmt.Fprintf(w, "  Category: %s / %s\n", icon.Category, icon.CategoryLocalized)
	}
	if icon.Author != "" {
		fmt.Fprintf(w, "  Author: %s\n", icon.Author)
	}
	if icon.RTL {
		fmt.Fprintln(w, "  Mirrors in right-to-left layouts")
	}

	fmt.Fprintln(w)
	if len(icon.Tags) == 0 {
		fmt.Fprintln(w, "Tags  (none)")
	} else {
		fmt.Fprintln(w, "Tags")
		printWrapped(w, strings.Join(icon.Tags, ", "), 2, maxWidth)
	}

	component := registry.ToPascalCase(icon.Name)
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Import")
	for _, f := range snippet.Frameworks() {
		fmt.Fprintf(w, "  import { %s } from %q\n", component, f.Package())
	}

	fmt.Fprintln(w)
	if hasSource {
		fmt.Fprintln(w, "Source  available")
	} else {
		fmt.Fprintln(w, "Source  (missing: export is unavailable)")
	}
}

// printWrapped prints text word-wrapped to width with the given indent.
func printWrapped(w io.Writer, text string, indent, width int) {
	prefix := strings.Repeat(" ", indent)
	words := strings.Fields(text)
	if len(words) == 0 {
		return
	}

	line := prefix + words[0]
	for _, word := range words[1:] {
		if len(line)+1+len(word) > width {
			fmt.Fprintln(w, line)
			line = prefix + word
		} else {
			line += " " + word
		}
	}
	fmt.Fprintln(w, line)
}
