package util

import (
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/aki237/nscjar"
)

const cookiesDir = "cookies"

var (
	cookiesCache   = make(map[string][]*http.Cookie)
	cookiesCacheMu sync.Mutex
)

// parses a netscape cookie file from the cookies directory.
// parsed files are cached for the process lifetime
func ParseCookieFile(fileName string) ([]*http.Cookie, error) {
	cookiesCacheMu.Lock()
	defer cookiesCacheMu.Unlock()

	cachedCookies, ok := cookiesCache[fileName]
	if ok {
		return cachedCookies, nil
	}
	cookiePath := filepath.Join(cookiesDir, fileName)
	cookieFile, err := os.Open(cookiePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open cookie file: %w", err)
	}
	defer cookieFile.Close()

	var parser nscjar.Parser
	cookies, err := parser.Unmarshal(cookieFile)
	if err != nil {
		return nil, fmt.Errorf("failed to parse cookie file: %w", err)
	}
	cookiesCache[fileName] = cookies
	return cookies, nil
}

// strips query and fragment from a raw reference
func StripQuery(ref string) string {
	if idx := strings.IndexAny(ref, "?#"); idx >= 0 {
		return ref[:idx]
	}
	return ref
}
