// Package debug implements the QSH_DEBUG category-masked trace log.
//
// QSH_DEBUG holds a hex mask of categories; setting it to a value that
// parses to zero enables every category.
package debug

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/fatih/color"
)

// Category is a bit in the QSH_DEBUG mask.
type Category uint

const (
	Tokenizer Category = 1 << iota
	Parser
	Executor
	Profiler
	Jobs
	Stores

	All Category = ^Category(0)
)

func (c Category) String() string {
	switch c {
	case Tokenizer:
		return "TOKENIZER"
	case Parser:
		return "PARSER"
	case Executor:
		return "EXECUTOR"
	case Profiler:
		return "PROFILER"
	case Jobs:
		return "JOBS"
	case Stores:
		return "STORES"
	default:
		return "DEBUG"
	}
}

var (
	enabled    bool
	categories Category

	tagColor = color.New(color.FgYellow)
)

// Init reads QSH_DEBUG from the environment.
func Init() {
	mask, ok := os.LookupEnv("QSH_DEBUG")
	if !ok {
		return
	}
	enabled = true
	parsed, err := strconv.ParseUint(mask, 16, 32)
	if err != nil || parsed == 0 {
		categories = All
		return
	}
	categories = Category(parsed)
}

// Enable turns debug logging on or off independent of the environment.
func Enable(on bool, mask Category) {
	enabled = on
	categories = mask
}

// Logf writes a timestamped, category-tagged line to stderr when the
// category is enabled.
func Logf(category Category, format string, args ...interface{}) {
	if !enabled || categories&category == 0 {
		return
	}
	fmt.Fprintf(os.Stderr, "[%s] %s %s\n",
		time.Now().Format("15:04:05"),
		tagColor.Sprintf("[%s]", category),
		fmt.Sprintf(format, args...))
}
