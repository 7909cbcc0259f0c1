// Command to compute sha256 pins for skill archive URLs.
// Usage: go run pin_skill_archives.go <url>... > pinned.json
//
// The output entries match the catalog entry shape pkg/skills consumes,
// so a pinned URL can be handed to the fetcher with its checksum.
package main

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"path"
	"strings"
)

type pinnedEntry struct {
	Name   string `json:"name"`
	URL    string `json:"url"`
	SHA256 string `json:"sha256"`
}

func main() {
	if len(os.Args) < 2 {
		fmt.Fprintln(os.Stderr, "Usage: go run pin_skill_archives.go <url>...")
		os.Exit(1)
	}

	var entries []pinnedEntry
	for _, url := range os.Args[1:] {
		resp, err := http.Get(url)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error downloading %s: %v\n", url, err)
			os.Exit(1)
		}
		data, err := io.ReadAll(resp.Body)
		resp.Body.Close()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error reading %s: %v\n", url, err)
			os.Exit(1)
		}
		if resp.StatusCode != http.StatusOK {
			fmt.Fprintf(os.Stderr, "Error downloading %s: HTTP %d\n", url, resp.StatusCode)
			os.Exit(1)
		}

		sum := sha256.Sum256(data)
		entries = append(entries, pinnedEntry{
			Name:   strings.TrimSuffix(path.Base(url), ".zip"),
			URL:    url,
			SHA256: hex.EncodeToString(sum[:]),
		})
	}

	out, err := json.MarshalIndent(entries, "", "  ")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error encoding output: %v\n", err)
		os.Exit(1)
	}
	fmt.Println(string(out))
}
