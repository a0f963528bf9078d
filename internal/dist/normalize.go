// SPDX-License-Identifier: MPL-2.0

package dist

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
)

const (
	// EntryFileName is the canonical entry document at the dist tree root.
	EntryFileName = "index.html"
	// AlternateEntryFileName is the client-side-rendering entry file some
	// framework builds emit instead of index.html.
	AlternateEntryFileName = "index.csr.html"

	// defaultBaseHref is used when the alternate entry file carries no
	// base href attribute.
	defaultBaseHref = "/"
)

// baseHrefRe matches the href value of a <base> tag.
var baseHrefRe = regexp.MustCompile(`(<base[^>]*\bhref=")([^"]*)(")`)

type (
	// NormalizeResult describes what the normalizer did. Degraded success
	// (no entry document at all) is reported through Warning rather than
	// an error so the pipeline can proceed to archiving.
	NormalizeResult struct {
		// EntryPath is the canonical entry document path when one exists.
		EntryPath string
		// Synthesized is true when index.html was produced from the
		// alternate entry file.
		Synthesized bool
		// BaseHref is the resolved base href of a synthesized entry.
		BaseHref string
		// Warning is a non-fatal message; empty on full success.
		Warning string
	}
)

// NormalizeEntry ensures distDir contains a canonical index.html.
//
// When index.html already exists this is a no-op (an alternate entry file,
// if present, is left untouched). When only index.csr.html exists, its
// content is rewritten with a resolved base href, written as index.html,
// and the alternate file is deleted - both files never coexist afterwards.
// When neither exists, a warning is returned and archiving proceeds without
// a guaranteed entry document.
func NormalizeEntry(distDir string) (*NormalizeResult, error) {
	entryPath := filepath.Join(distDir, EntryFileName)
	if _, err := os.Stat(entryPath); err == nil {
		return &NormalizeResult{EntryPath: entryPath}, nil
	} else if !os.IsNotExist(err) {
		return nil, fmt.Errorf("failed to stat %s: %w", entryPath, err)
	}

	altPath := filepath.Join(distDir, AlternateEntryFileName)
	altInfo, err := os.Stat(altPath)
	if err != nil {
		if os.IsNotExist(err) {
			return &NormalizeResult{
				Warning: fmt.Sprintf("no %s or %s found in %s; archive will not contain an entry document",
					EntryFileName, AlternateEntryFileName, distDir),
			}, nil
		}
		return nil, fmt.Errorf("failed to stat %s: %w", altPath, err)
	}

	content, err := os.ReadFile(altPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", altPath, err)
	}

	baseHref := defaultBaseHref
	if m := baseHrefRe.FindSubmatch(content); m != nil {
		baseHref = string(m[2])
	}

	// Rewrite the attribute in place. Identity in the common case; the
	// point is that the synthesized entry always carries a concrete value.
	rewritten := baseHrefRe.ReplaceAllFunc(content, func(match []byte) []byte {
		m := baseHrefRe.FindSubmatch(match)
		out := append([]byte{}, m[1]...)
		out = append(out, baseHref...)
		return append(out, m[3]...)
	})

	if err := os.WriteFile(entryPath, rewritten, altInfo.Mode().Perm()); err != nil {
		return nil, fmt.Errorf("failed to write %s: %w", entryPath, err)
	}
	if err := os.Remove(altPath); err != nil {
		return nil, fmt.Errorf("failed to remove %s: %w", altPath, err)
	}

	return &NormalizeResult{
		EntryPath:   entryPath,
		Synthesized: true,
		BaseHref:    baseHref,
	}, nil
}
