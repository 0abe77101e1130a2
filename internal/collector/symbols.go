package collector

import (
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"regexp"
	"strings"
)

var (
	symbolPattern = regexp.MustCompile(`^[A-Z0-9_]+_USDT$`)
	urlPrefix     = regexp.MustCompile(`(?i)^https?://[^/]+/(?:futures(?:/perpetual)?/)?`)
)

// NormalizeSymbol cleans a raw symbol: strips URL prefixes some sources
// prepend, uppercases, and validates the SYMBOL_USDT shape.
func NormalizeSymbol(raw string) (string, bool) {
	s := strings.TrimSpace(raw)
	s = urlPrefix.ReplaceAllString(s, "")
	s = strings.ToUpper(s)
	if !symbolPattern.MatchString(s) {
		return "", false
	}
	return s, true
}

// LoadSymbols returns the monitored symbol list. It reads the cache file when
// present; otherwise it fetches the full contract list from the exchange and
// writes the file for the next start. Whitelist, when non-empty, restricts the
// list; blacklist removes entries.
func LoadSymbols(ctx context.Context, fetcher Fetcher, path string, whitelist, blacklist []string) ([]string, error) {
	symbols, err := readSymbolsFile(path)
	if err != nil {
		return nil, err
	}
	if len(symbols) == 0 {
		log.Printf("[INFO] symbols file %s missing or empty, fetching from %s", path, fetcher.Name())
		symbols, err = fetcher.FetchSymbols(ctx)
		if err != nil {
			return nil, fmt.Errorf("fetch symbols: %w", err)
		}
		if err := writeSymbolsFile(path, symbols); err != nil {
			log.Printf("[WARN] write symbols file: %v", err)
		}
	}

	symbols = filterSymbols(symbols, whitelist, blacklist)
	if len(symbols) == 0 {
		return nil, fmt.Errorf("no symbols to monitor after filtering")
	}
	return symbols, nil
}

func readSymbolsFile(path string) ([]string, error) {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read symbols file: %w", err)
	}

	var symbols []string
	skipped := 0
	for _, line := range strings.Split(string(data), "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		sym, ok := NormalizeSymbol(line)
		if !ok {
			skipped++
			continue
		}
		symbols = append(symbols, sym)
	}
	if skipped > 0 {
		log.Printf("[WARN] skipped %d invalid symbols in %s", skipped, path)
	}
	return symbols, nil
}

func writeSymbolsFile(path string, symbols []string) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	return os.WriteFile(path, []byte(strings.Join(symbols, "\n")+"\n"), 0o644)
}

func filterSymbols(symbols, whitelist, blacklist []string) []string {
	allow := make(map[string]bool, len(whitelist))
	for _, s := range whitelist {
		if sym, ok := NormalizeSymbol(s); ok {
			allow[sym] = true
		}
	}
	deny := make(map[string]bool, len(blacklist))
	for _, s := range blacklist {
		if sym, ok := NormalizeSymbol(s); ok {
			deny[sym] = true
		}
	}

	var out []string
	for _, sym := range symbols {
		if len(allow) > 0 && !allow[sym] {
			continue
		}
		if deny[sym] {
			continue
		}
		out = append(out, sym)
	}
	return out
}
