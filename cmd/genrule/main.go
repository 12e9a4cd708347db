// cmd/genrule scaffolds a rule document outside the rulehub directory layout,
// for seeding a shareable corpus repo. Run via: go run ./cmd/genrule <number> <slug> [dir]
package main

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"

	"github.com/odyssey/rulehub/internal/rule"
)

func main() {
	if len(os.Args) < 3 {
		log.Fatalf("usage: genrule <number> <slug> [dir]")
	}

	number := os.Args[1]
	slug := os.Args[2]
	outputDirpath := "."
	if len(os.Args) > 3 {
		outputDirpath = os.Args[3]
	}

	filename := fmt.Sprintf("%s-%s.md", number, slug)
	if !rule.IsRuleFilename(filename) {
		log.Fatalf("'%s' is not a valid rule filename; expected NNN[a-z]-topic-name.md", filename)
	}

	content, err := rule.NewRuleContent(slug, time.Now())
	if err != nil {
		log.Fatalf("failed to render rule: %v", err)
	}

	outputFilepath := filepath.Join(outputDirpath, filename)
	if _, err := os.Stat(outputFilepath); err == nil {
		log.Fatalf("%s already exists", outputFilepath)
	}
	if err := os.WriteFile(outputFilepath, []byte(content), 0644); err != nil {
		log.Fatalf("failed to write %s: %v", outputFilepath, err)
	}

	log.Printf("Generated %s", outputFilepath)
}
