// Package validate performs light syntax checks on generated code. A failed
// check produces a warning status and never rejects the output.
package validate

import (
	"regexp"
	"strings"
)

var fencePattern = regexp.MustCompile("(?s)```([A-Za-z0-9_+.-]*)[ \\t]*\\r?\\n(.*?)```")

type fence struct {
	lang string
	body string
	full string
}

func fences(text string) []fence {
	var out []fence
	for _, m := range fencePattern.FindAllStringSubmatch(text, -1) {
		out = append(out, fence{lang: strings.ToLower(m[1]), body: m[2], full: m[0]})
	}
	return out
}

// firstFence returns the first block tagged with one of langs. An empty
// string in langs matches an untagged block.
func firstFence(text string, langs ...string) (fence, bool) {
	blocks := fences(text)
	for _, lang := range langs {
		for _, b := range blocks {
			if b.lang == lang {
				return b, true
			}
		}
	}
	return fence{}, false
}
