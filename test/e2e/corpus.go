// Package e2e exercises the glossary end to end: file import, storage, term
// index, HTTP API and the lookup controller.
package e2e

// Header is the first row of every fixture glossary file.
var Header = []string{"isiZulu", "English", "isiXhosa", "siSwati", "Context", "Page"}

// Row is one glossary line in a fixture file.
type Row struct {
	IsiZulu  string
	English  string
	IsiXhosa string
	SiSwati  string
	Context  string
	Page     string
}

// Cells returns the row in Header order.
func (r Row) Cells() []string {
	return []string{r.IsiZulu, r.English, r.IsiXhosa, r.SiSwati, r.Context, r.Page}
}

// Glossary is the fixture corpus. No term is a substring of another row's
// fields unless a LookupCase says so.
var Glossary = []Row{
	{"umfula", "river", "umlambo", "umfula", "geography", "12"},
	{"umfula omkhulu", "big river", "umlambo omkhulu", "umfula lomkhulu", "geography", "13"},
	{"intaba", "mountain", "intaba", "intsaba", "geography", "14"},
	{"inja", "dog", "inja", "inja", "animals", "3"},
	{"ikati", "cat", "ikati", "likati", "animals", "4"},
	{"inkomo", "cow", "inkomo", "inkhomo", "animals", "5"},
	{"isikole", "school", "isikolo", "sikolwa", "education", "20"},
	{"uthisha", "teacher", "utitshala", "thishela", "education", "21"},
	{"incwadi", "book", "incwadi", "incwadzi", "education", "22"},
	{"amanzi", "water", "amanzi", "emanti", "nature", "30"},
	{"ilanga", "sun", "ilanga", "lilanga", "nature", "31"},
	{"inyanga", "moon", "inyanga", "inyanga", "nature", "32"},
	{"indlu", "house", "indlu", "indlu", "home", "40"},
	{"umnyango", "door", "ucango", "umnyango", "home", "41"},
	{"ifasitela", "window", "ifestile", "lifasitelo", "home", "42"},
}

// LookupCase is a query and the English titles of the entries it must
// render, in order.
type LookupCase struct {
	Query  string
	Titles []string
}

// LookupCases are the queries checked against Glossary.
var LookupCases = []LookupCase{
	{Query: "umfula", Titles: []string{"river", "big river"}},
	{Query: "river", Titles: []string{"river", "big river"}},
	{Query: "inja", Titles: []string{"dog"}},
	{Query: "BOOK", Titles: []string{"book"}},
	{Query: "  amanzi  ", Titles: []string{"water"}},
	{Query: "umlambo omkhulu", Titles: []string{"big river"}},
}
