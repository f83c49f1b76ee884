// Package seqio provides a streaming, record-by-record FASTA reader. It is
// deliberately minimal: FASTA parsing is an external collaborator per
// spec.md section 1 ("out of scope"), and the core only needs the
// record-iterator contract this package exposes, in the same spirit as
// encoding/fastq.Scanner in the teacher repository.
package seqio

import (
	"bufio"
	"io"
	"strings"

	"github.com/pkg/errors"
)

// Record is a single FASTA entry: an identifier (the text after '>' up to
// the first space) and its nucleotide sequence with embedded newlines
// removed.
type Record struct {
	ID  string
	Seq string
}

// Scanner reads FASTA records one at a time from an underlying reader.
// Scanners are not thread-safe and, like fastq.Scanner, are driven with a
// for Scan() loop:
//
//	s := seqio.NewScanner(r)
//	var rec seqio.Record
//	for s.Scan(&rec) {
//	    ... use rec ...
//	}
//	if err := s.Err(); err != nil { ... }
type Scanner struct {
	b    *bufio.Scanner
	err  error
	done bool

	// pendingHeader holds a header line already consumed by the previous
	// Scan call (needed because a FASTA record's end is only recognized
	// by seeing the next '>' line, or EOF).
	pendingHeader string
	havePending   bool
}

const maxLineBuf = 64 * 1024 * 1024

// NewScanner constructs a Scanner reading from r.
func NewScanner(r io.Reader) *Scanner {
	b := bufio.NewScanner(r)
	b.Buffer(make([]byte, 0, 64*1024), maxLineBuf)
	return &Scanner{b: b}
}

// Scan reads the next record into *rec, returning false at EOF or on
// error. Once Scan returns false, it never returns true again; the
// caller should check Err to distinguish a clean EOF from a parse
// failure. A malformed record (sequence data before any header) is
// reported via Err and silently terminates the stream, matching the
// "per-record parse failure is recovered by dropping the record" policy
// of spec.md section 4.3 -- it is the caller's job to keep going with the
// next file if it wants partial results; this package only guarantees it
// never panics on malformed input.
func (s *Scanner) Scan(rec *Record) bool {
	if s.err != nil || s.done {
		return false
	}

	var header string
	if s.havePending {
		header = s.pendingHeader
		s.havePending = false
	} else {
		if !s.advancePastBlankLines() {
			s.done = true
			return false
		}
		line := s.b.Text()
		if len(line) == 0 || line[0] != '>' {
			s.err = errMalformed
			return false
		}
		header = line
	}

	var seq strings.Builder
	for s.b.Scan() {
		line := s.b.Text()
		if len(line) == 0 {
			continue
		}
		if line[0] == '>' {
			s.pendingHeader = line
			s.havePending = true
			break
		}
		seq.WriteString(line)
	}
	if err := s.b.Err(); err != nil {
		s.err = errors.Wrap(err, "seqio: couldn't read FASTA data")
		return false
	}
	if !s.havePending {
		s.done = true // this was the last record
	}

	rec.ID = headerID(header)
	rec.Seq = seq.String()
	return true
}

func (s *Scanner) advancePastBlankLines() bool {
	for s.b.Scan() {
		if len(s.b.Text()) > 0 {
			return true
		}
	}
	return false
}

// Err returns the error that stopped scanning, or nil on a clean EOF.
func (s *Scanner) Err() error {
	if s.err == errMalformed {
		return s.err
	}
	return s.err
}

var errMalformed = malformedError{}

type malformedError struct{}

func (malformedError) Error() string { return "seqio: malformed FASTA record" }

// headerID extracts the sequence name: the text after '>' up to the
// first space, matching the convention documented in
// encoding/fasta.Fasta ("Any text appear after a space are ignored").
func headerID(header string) string {
	rest := header[1:]
	if sp := strings.IndexByte(rest, ' '); sp >= 0 {
		return rest[:sp]
	}
	return rest
}
