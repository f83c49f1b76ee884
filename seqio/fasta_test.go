package seqio

import (
	"strings"
	"testing"
)

func scanAll(t *testing.T, data string) []Record {
	t.Helper()
	s := NewScanner(strings.NewReader(data))
	var recs []Record
	var r Record
	for s.Scan(&r) {
		recs = append(recs, r)
	}
	if err := s.Err(); err != nil {
		t.Fatalf("unexpected scan error: %v", err)
	}
	return recs
}

func TestScannerBasic(t *testing.T) {
	data := ">r1\nATCG\nATCG\n>r2 some description\nGGGG\n"
	recs := scanAll(t, data)
	if len(recs) != 2 {
		t.Fatalf("got %d records, want 2", len(recs))
	}
	if recs[0].ID != "r1" || recs[0].Seq != "ATCGATCG" {
		t.Errorf("got %+v", recs[0])
	}
	if recs[1].ID != "r2" || recs[1].Seq != "GGGG" {
		t.Errorf("got %+v", recs[1])
	}
}

func TestScannerTrailingBlankLines(t *testing.T) {
	data := ">r1\nATCG\n\n\n>r2\nGGGG\n\n"
	recs := scanAll(t, data)
	if len(recs) != 2 {
		t.Fatalf("got %d records, want 2", len(recs))
	}
}

func TestScannerEmpty(t *testing.T) {
	recs := scanAll(t, "")
	if len(recs) != 0 {
		t.Fatalf("got %d records, want 0", len(recs))
	}
}

func TestScannerMalformedLeadsToError(t *testing.T) {
	s := NewScanner(strings.NewReader("not a header\nATCG\n"))
	var r Record
	if s.Scan(&r) {
		t.Fatalf("expected scan to fail on malformed input")
	}
	if s.Err() == nil {
		t.Fatalf("expected non-nil error")
	}
}

func TestScannerSingleRecordNoTrailingNewline(t *testing.T) {
	recs := scanAll(t, ">only\nACGTACGT")
	if len(recs) != 1 || recs[0].Seq != "ACGTACGT" {
		t.Fatalf("got %+v", recs)
	}
}
