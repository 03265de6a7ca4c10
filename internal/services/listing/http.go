// SPDX-FileCopyrightText: © 2025 DSLab - Fondazione Bruno Kessler
//
// SPDX-License-Identifier: Apache-2.0

package listing

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"strconv"
	"strings"

	"github.com/mlops-lab/dsingest/internal/utils"
)

// HTTPSource fetches members as <base>/<name>. Plain HTTP has no
// enumeration, so the member sequence comes from a manifest file with
// one "name size" pair per line. Lines starting with '#' are ignored.
type HTTPSource struct {
	httpClient   *http.Client
	base         string
	manifestPath string
}

func NewHTTPSource(httpClient *http.Client, base, manifestPath string) *HTTPSource {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &HTTPSource{
		httpClient:   httpClient,
		base:         strings.TrimSuffix(base, "/"),
		manifestPath: manifestPath,
	}
}

func (s *HTTPSource) List(ctx context.Context) ([]ArchiveMember, error) {
	f, err := os.Open(s.manifestPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open manifest: %w", err)
	}
	defer f.Close()
	return parseManifest(f)
}

func parseManifest(r io.Reader) ([]ArchiveMember, error) {
	var members []ArchiveMember
	scanner := bufio.NewScanner(r)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		fields := strings.Fields(line)
		m := ArchiveMember{Name: fields[0]}
		if len(fields) > 1 {
			size, err := strconv.ParseInt(fields[1], 10, 64)
			if err != nil {
				return nil, fmt.Errorf("manifest line %d: bad size %q", lineNo, fields[1])
			}
			m.Size = size
		}
		members = append(members, m)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read manifest: %w", err)
	}
	return members, nil
}

func (s *HTTPSource) Fetch(ctx context.Context, name, destPath string) (int64, error) {
	url := s.base + "/" + name

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return 0, err
	}
	resp, err := s.httpClient.Do(req)
	if err != nil {
		return 0, fmt.Errorf("failed to fetch %s: %w", url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return 0, fmt.Errorf("failed to fetch %s: %s", url, resp.Status)
	}

	out, err := os.Create(destPath)
	if err != nil {
		return 0, fmt.Errorf("failed to create local file: %w", err)
	}
	defer out.Close()

	// progress line even without verbose
	gp := &utils.GlobalProgress{}
	if resp.ContentLength > 0 {
		gp.TotalKnown = true
		gp.TotalBytes = resp.ContentLength
	}

	var written int64
	buf := make([]byte, 1024*128) // 128KB
	for {
		n, readErr := resp.Body.Read(buf)
		if n > 0 {
			if _, werr := out.Write(buf[:n]); werr != nil {
				return written, werr
			}
			written += int64(n)
			gp.Add(int64(n))
			gp.Render(false)
		}
		if readErr != nil {
			if readErr == io.EOF {
				break
			}
			return written, readErr
		}
	}
	gp.Done()
	return written, nil
}
