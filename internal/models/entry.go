// Package models defines core data structures for glossary entries, queries, and responses.
package models

import (
	"fmt"
	"strings"
)

// Entry is one glossary record with parallel fields across several languages plus
// contextual metadata. Nil fields are absent on the wire, which is distinct from an
// empty string.
type Entry struct {
	ID       int64   `json:"-" db:"id"`
	IsiZulu  *string `json:"isiZulu" db:"isizulu"`
	English  *string `json:"English" db:"english"`
	IsiXhosa *string `json:"isiXhosa" db:"isixhosa"`
	SiSwati  *string `json:"siSwati" db:"siswati"`
	Context  *string `json:"Context" db:"context"`
	Page     *string `json:"Page" db:"page"`
	FilePath *string `json:"file_path" db:"file_path"`
	// Source is the glossary file an imported entry came from; empty otherwise.
	Source string `json:"-" db:"source"`
}

// EntryInput is the input for adding an entry to the corpus.
type EntryInput struct {
	IsiZulu  string `json:"isiZulu"`
	English  string `json:"English"`
	IsiXhosa string `json:"isiXhosa"`
	SiSwati  string `json:"siSwati"`
	Context  string `json:"Context"`
	Page     string `json:"Page"`
	FilePath string `json:"file_path,omitempty"`
}

// Validate trims every field and requires isiZulu, English and Context.
func (in *EntryInput) Validate() error {
	in.IsiZulu = strings.TrimSpace(in.IsiZulu)
	in.English = strings.TrimSpace(in.English)
	in.IsiXhosa = strings.TrimSpace(in.IsiXhosa)
	in.SiSwati = strings.TrimSpace(in.SiSwati)
	in.Context = strings.TrimSpace(in.Context)
	in.Page = strings.TrimSpace(in.Page)
	in.FilePath = strings.TrimSpace(in.FilePath)
	if in.IsiZulu == "" || in.English == "" || in.Context == "" {
		return fmt.Errorf("isiZulu, English and Context are required")
	}
	return nil
}

// Entry converts the input into an Entry. Empty optional fields become absent.
func (in *EntryInput) Entry() *Entry {
	return &Entry{
		IsiZulu:  StringPtr(in.IsiZulu),
		English:  StringPtr(in.English),
		IsiXhosa: optional(in.IsiXhosa),
		SiSwati:  optional(in.SiSwati),
		Context:  StringPtr(in.Context),
		Page:     optional(in.Page),
		FilePath: optional(in.FilePath),
	}
}

// StringPtr returns a pointer to s.
func StringPtr(s string) *string {
	return &s
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

// Text returns the value of p, or "" when p is nil.
func Text(p *string) string {
	if p == nil {
		return ""
	}
	return *p
}

// ImportRecord remembers the state of an imported glossary file so unchanged
// files are not imported twice.
type ImportRecord struct {
	Path    string
	ModTime int64
	Size    int64
	Entries int
}
