package cmd

import (
	"langextract/internal/langextract/rawoutput"
	"langextract/internal/langextract/resolver"
)

func newRawOutputWriter(dir string) (resolver.RawOutputWriter, error) {
	return rawoutput.New(dir, "langextract-cli", "json")
}
