// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Wikicat Contributors

package dbpedia

import (
	"bufio"
	"errors"
	"io"
	"strings"

	"github.com/knakk/rdf"

	wkerr "github.com/wikicat/wikicat/pkg/errors"
)

// TermKind distinguishes the three N-Triples term types.
type TermKind int

const (
	IRI TermKind = iota
	BlankNode
	Literal
)

// Datatypes the decoder attaches to plain and language-tagged literals.
const (
	xsdString    = "http://www.w3.org/2001/XMLSchema#string"
	rdfLangString = "http://www.w3.org/1999/02/22-rdf-syntax-ns#langString"
)

// Term is one position of a triple.
type Term struct {
	Kind     TermKind
	Value    string
	Lang     string
	Datatype string
}

// Triple is one parsed N-Triples statement.
type Triple struct {
	Subject   Term
	Predicate Term
	Object    Term
}

func parseErr(err error, line string) error {
	if len(line) > 80 {
		line = line[:80] + "..."
	}
	return wkerr.Wrap(err, wkerr.CodeTripleParseInvalid, "parsing triple", wkerr.Field("line", line))
}

// ParseTriple parses one line. ok is false for blank and comment lines.
func ParseTriple(line string) (t Triple, ok bool, err error) {
	s := strings.TrimSpace(line)
	if s == "" || s[0] == '#' {
		return Triple{}, false, nil
	}

	dec := rdf.NewTripleDecoder(strings.NewReader(s), rdf.NTriples)
	rt, err := dec.Decode()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return Triple{}, false, nil
		}
		return Triple{}, false, parseErr(err, s)
	}
	// One statement per line.
	if _, err := dec.Decode(); !errors.Is(err, io.EOF) {
		if err == nil {
			err = errors.New("more than one statement on the line")
		}
		return Triple{}, false, parseErr(err, s)
	}

	return Triple{
		Subject:   convertTerm(rt.Subj),
		Predicate: convertTerm(rt.Pred),
		Object:    convertTerm(rt.Obj),
	}, true, nil
}

func convertTerm(term rdf.Term) Term {
	switch v := term.(type) {
	case rdf.IRI:
		return Term{Kind: IRI, Value: v.String()}
	case rdf.Blank:
		return Term{Kind: BlankNode, Value: strings.TrimPrefix(v.String(), "_:")}
	case rdf.Literal:
		t := Term{Kind: Literal, Value: v.String(), Lang: v.Lang()}
		if dt := v.DataType.String(); dt != xsdString && dt != rdfLangString {
			t.Datatype = dt
		}
		return t
	default:
		return Term{Kind: Literal, Value: term.String()}
	}
}

// maxLine bounds a single N-Triples statement.
const maxLine = 1 << 20

// TripleReader reads triples from an N-Triples stream, skipping blank and
// comment lines.
type TripleReader struct {
	sc   *bufio.Scanner
	line int
}

// NewTripleReader returns a reader over r.
func NewTripleReader(r io.Reader) *TripleReader {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 64*1024), maxLine)
	return &TripleReader{sc: sc}
}

// Next returns the next triple, or io.EOF.
func (r *TripleReader) Next() (Triple, error) {
	for r.sc.Scan() {
		r.line++
		t, ok, err := ParseTriple(r.sc.Text())
		if err != nil {
			return Triple{}, wkerr.With(err, wkerr.Field("line_number", r.line))
		}
		if ok {
			return t, nil
		}
	}
	if err := r.sc.Err(); err != nil {
		return Triple{}, wkerr.Wrap(err, wkerr.CodeTripleParseInvalid, "reading triples", wkerr.Field("line_number", r.line))
	}
	return Triple{}, io.EOF
}

// Line returns the number of the last line read.
func (r *TripleReader) Line() int {
	return r.line
}
