package indexer

import (
	"path/filepath"
	"strings"
	"unicode"

	"github.com/google/uuid"
	"golang.org/x/text/unicode/norm"
)

// UploadURLPrefix is the path under which uploaded documents are linked.
const UploadURLPrefix = "uploads/"

var allowedUploads = map[string]struct{}{
	".pdf": {}, ".txt": {}, ".doc": {}, ".docx": {},
}

// AllowedUpload reports whether filename has an accepted document extension.
func AllowedUpload(filename string) bool {
	_, ok := allowedUploads[strings.ToLower(filepath.Ext(filename))]
	return ok
}

// SecureFilename reduces a client-supplied filename to a safe base name: path
// separators become spaces, accents are dropped, anything other than ASCII
// letters, digits, '_', '.' and '-' is removed and runs of whitespace become '_'.
// The result never starts or ends with '.' or '_' and may be empty.
func SecureFilename(name string) string {
	name = strings.NewReplacer("/", " ", `\`, " ").Replace(name)

	var b strings.Builder
	for _, r := range norm.NFKD.String(name) {
		switch {
		case r > unicode.MaxASCII:
			// combining marks and non-ASCII letters
		case unicode.IsLetter(r), unicode.IsDigit(r), r == '_', r == '.', r == '-':
			b.WriteRune(r)
		case unicode.IsSpace(r):
			b.WriteRune(' ')
		}
	}
	return strings.Trim(strings.Join(strings.Fields(b.String()), "_"), "._")
}

// UniqueFilename returns the secure form of name prefixed with a random id.
func UniqueFilename(name string) string {
	safe := SecureFilename(name)
	if filepath.Ext(safe) == "" {
		safe = "upload" + strings.ToLower(filepath.Ext(name))
	}
	return uuid.NewString() + "_" + safe
}
