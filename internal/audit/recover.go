package audit

import (
	"bufio"
	"fmt"
	"os"
	"regexp"
)

// startLine is the fixed-format record the mirror engine logs at the
// beginning of every run.
var startLine = regexp.MustCompile(`Starting download for (\S+) into (\S+)`)

// RecoverRoot scans a prior run's log for the line recording the start URL
// and destination folder. The last occurrence wins, and the recovered
// folder must still exist on disk.
func RecoverRoot(logPath string) (baseURL, root string, err error) {
	f, err := os.Open(logPath)
	if err != nil {
		return "", "", fmt.Errorf("open log %s: %w", logPath, err)
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		if m := startLine.FindStringSubmatch(scanner.Text()); m != nil {
			baseURL, root = m[1], m[2]
		}
	}
	if err := scanner.Err(); err != nil {
		return "", "", fmt.Errorf("scan log %s: %w", logPath, err)
	}
	if root == "" {
		return "", "", fmt.Errorf("no download record found in %s", logPath)
	}
	info, err := os.Stat(root)
	if err != nil || !info.IsDir() {
		return "", "", fmt.Errorf("recovered folder %s does not exist", root)
	}
	return baseURL, root, nil
}
