package vpk

import (
	"fmt"
	"log/slog"
)

// Tree maps a full logical path to its directory entry.
type Tree map[string]*DirectoryEntry

// JoinPath rebuilds a logical path from the three tree strings. Placeholder
// stands for an empty name, no extension, or the root directory.
func JoinPath(extension, directory, name string) string {
	path := name
	if path == Placeholder {
		path = ""
	}
	if extension != Placeholder {
		path += "." + extension
	}
	if directory != Placeholder {
		path = directory + "/" + path
	}
	return path
}

// DecodeTree reads the tree that follows the header on c.
//
// The tree is three nested levels of NUL-terminated strings (extension,
// directory, name), each level ended by an empty string. Every name is
// followed by a directory entry and its preload bytes. Any error aborts the
// whole decode and wraps ErrFormat.
//
// A path that appears twice keeps the last entry.
func DecodeTree(c *Cursor, logger *slog.Logger) (Tree, error) {
	if logger == nil {
		logger = slog.Default()
	}

	tree := make(Tree)
	for {
		extension, err := c.ReadCString()
		if err != nil {
			return nil, fmt.Errorf("%w: failed to read extension: %w", ErrFormat, err)
		}
		if extension == "" {
			break
		}

		for {
			directory, err := c.ReadCString()
			if err != nil {
				return nil, fmt.Errorf("%w: failed to read directory under %q: %w", ErrFormat, extension, err)
			}
			if directory == "" {
				break
			}

			for {
				name, err := c.ReadCString()
				if err != nil {
					return nil, fmt.Errorf("%w: failed to read name under %q: %w", ErrFormat, directory, err)
				}
				if name == "" {
					break
				}

				path := JoinPath(extension, directory, name)

				entry, err := DecodeEntry(c)
				if err != nil {
					return nil, fmt.Errorf("%w: failed to read entry for %s: %w", ErrFormat, path, err)
				}
				if err := c.Skip(int(entry.PreloadBytes)); err != nil {
					return nil, fmt.Errorf("%w: failed to skip preload for %s: %w", ErrFormat, path, err)
				}

				if _, dup := tree[path]; dup {
					logger.Debug("duplicate path in tree, keeping last entry", "path", path)
				}
				tree[path] = entry
			}
		}
	}

	return tree, nil
}
