package textutil

import (
	"regexp"
	"strconv"
	"strings"
)

var whitespaceRegex = regexp.MustCompile(`\s+`)

// numberRegex matches the rolled values embedded in a stat line.
// the leading minus folds into the value ("-7 to Mana Cost"), while a
// leading plus stays part of the surrounding text ("+15 to maximum Life").
var numberRegex = regexp.MustCompile(`-?\d+(?:\.\d+)?`)

func NormalizeName(name string) string {
	name = strings.ToLower(name)
	name = strings.Trim(name, " \n\t")
	name = whitespaceRegex.ReplaceAllString(name, "")
	return name
}

// Templatize replaces every embedded number in a stat line with a `#`
// placeholder, so that all rolls of the same modifier produce an
// identical string.
//
// Ex. "+15 to maximum Life" and "+27 to maximum Life" both become
// "+# to maximum life".
func Templatize(line string) string {
	line = numberRegex.ReplaceAllString(line, "#")
	line = strings.ToLower(line)
	line = strings.Trim(line, " \n\t")
	line = whitespaceRegex.ReplaceAllString(line, " ")
	return line
}

// ExtractValues returns the numbers embedded in a stat line, in order of
// appearance.
func ExtractValues(line string) []float64 {
	matches := numberRegex.FindAllString(line, -1)
	if len(matches) == 0 {
		return nil
	}
	out := make([]float64, 0, len(matches))
	for _, m := range matches {
		v, err := strconv.ParseFloat(m, 64)
		if err != nil {
			continue
		}
		out = append(out, v)
	}
	return out
}
