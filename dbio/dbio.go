// Package dbio serializes and deserializes the inverted index to and from
// the compressed ".srs" database file format pinned by spec.md section 6.
// Encoding is a hand-rolled varint binary layout -- the same "write our own
// tiny framing, lean on a library only for the compressor" split
// cmd/bio-fusion/io.go uses for gob+recordiozstd, except here the frame
// itself is part of the cross-build compatibility contract (spec.md section
// 6) so it cannot be handed off to a general-purpose codec.
package dbio

import (
	"bufio"
	"bytes"
	"encoding/binary"
	"fmt"
	"hash"
	"io"

	"github.com/klauspost/compress/gzip"
	"github.com/minio/highwayhash"

	"github.com/dnasintax/sintax/bitset"
	"github.com/dnasintax/sintax/index"
)

// magic identifies a sintax database file; version allows the framing to
// evolve without silently misparsing an old file.
var magic = [4]byte{'S', 'R', 'D', 'B'}

const formatVersion = 1

// checksumKey is a fixed, non-secret key: highwayhash requires exactly 32
// bytes of key material, and here it is being used only as an integrity
// check against accidental truncation/corruption, not as a MAC against a
// malicious adversary, so a constant key is appropriate.
var checksumKey = [32]byte{
	0x73, 0x69, 0x6e, 0x74, 0x61, 0x78, 0x2d, 0x64,
	0x62, 0x2d, 0x63, 0x68, 0x65, 0x63, 0x6b, 0x73,
	0x75, 0x6d, 0x2d, 0x6b, 0x65, 0x79, 0x2d, 0x76,
	0x31, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00,
}

// header is the fixed-size, uncompressed preamble written before the
// compressed payload. KmerSize and DownsamplingFactor are persisted per the
// recommendation in spec.md section 9's Open Question (c): classify
// rejects a database built with different parameters rather than silently
// producing wrong results.
type header struct {
	KmerSize           uint8
	DownsamplingFactor uint8
	Checksum           uint64
}

const headerSize = 4 + 1 + 1 + 1 + 8 // magic + version + kmerSize + dsFactor + checksum

// ErrBadMagic is returned by Read when the file does not start with the
// sintax database magic bytes.
var ErrBadMagic = fmt.Errorf("dbio: not a sintax database file")

// ErrChecksumMismatch is returned by Read when the stored checksum does not
// match the compressed payload, indicating a truncated or corrupted file.
var ErrChecksumMismatch = fmt.Errorf("dbio: checksum mismatch, file is corrupt or truncated")

// ErrParamMismatch is returned by Read when the caller's expected
// (kmerSize, downsamplingFactor) does not match what the database was
// built with.
type ErrParamMismatch struct {
	WantKmerSize, GotKmerSize                     int
	WantDownsamplingFactor, GotDownsamplingFactor int
}

func (e *ErrParamMismatch) Error() string {
	return fmt.Sprintf("dbio: database built with kmer-size=%d downsampling-factor=%d, but classify requested kmer-size=%d downsampling-factor=%d",
		e.GotKmerSize, e.GotDownsamplingFactor, e.WantKmerSize, e.WantDownsamplingFactor)
}

func newChecksum() hash.Hash64 {
	h, err := highwayhash.New64(checksumKey[:])
	if err != nil {
		// checksumKey is a compile-time constant of the right length; this
		// can only fail if the constant above is ever edited incorrectly.
		panic(err)
	}
	return h
}

// Write encodes idx as a compressed database and writes it to w, preceded
// by a header recording kmerSize and downsamplingFactor. The payload is
// built fully in memory before anything is written, so a write that fails
// partway through never leaves a file that looks valid but silently
// truncates mid-record (spec.md section 4.4's "write is all-or-nothing").
func Write(w io.Writer, idx *index.Index, kmerSize, downsamplingFactor int) error {
	var payload bytes.Buffer
	gz := gzip.NewWriter(&payload)
	if err := encodePayload(gz, idx); err != nil {
		return err
	}
	if err := gz.Close(); err != nil {
		return err
	}

	csum := newChecksum()
	csum.Write(payload.Bytes())

	hdr := header{
		KmerSize:           uint8(kmerSize),
		DownsamplingFactor: uint8(downsamplingFactor),
		Checksum:           csum.Sum64(),
	}
	if err := writeHeader(w, hdr); err != nil {
		return err
	}
	_, err := w.Write(payload.Bytes())
	return err
}

// Read decodes a database previously written by Write, verifying its
// integrity checksum and that it was built with the expected kmerSize and
// downsamplingFactor. A mismatch on either parameter is rejected with
// *ErrParamMismatch rather than silently classifying against an
// incompatible index.
func Read(r io.Reader, wantKmerSize, wantDownsamplingFactor int) (*index.Index, error) {
	hdr, body, err := readHeader(r)
	if err != nil {
		return nil, err
	}

	compressed, err := io.ReadAll(body)
	if err != nil {
		return nil, err
	}
	csum := newChecksum()
	csum.Write(compressed)
	if csum.Sum64() != hdr.Checksum {
		return nil, ErrChecksumMismatch
	}

	if int(hdr.KmerSize) != wantKmerSize || int(hdr.DownsamplingFactor) != wantDownsamplingFactor {
		return nil, &ErrParamMismatch{
			WantKmerSize:           wantKmerSize,
			GotKmerSize:            int(hdr.KmerSize),
			WantDownsamplingFactor: wantDownsamplingFactor,
			GotDownsamplingFactor:  int(hdr.DownsamplingFactor),
		}
	}

	gz, err := gzip.NewReader(bytes.NewReader(compressed))
	if err != nil {
		return nil, err
	}
	defer gz.Close()
	return decodePayload(gz)
}

func writeHeader(w io.Writer, hdr header) error {
	var buf [headerSize]byte
	copy(buf[0:4], magic[:])
	buf[4] = formatVersion
	buf[5] = hdr.KmerSize
	buf[6] = hdr.DownsamplingFactor
	binary.LittleEndian.PutUint64(buf[7:15], hdr.Checksum)
	_, err := w.Write(buf[:])
	return err
}

func readHeader(r io.Reader) (header, io.Reader, error) {
	br := bufio.NewReader(r)
	var buf [headerSize]byte
	n, err := io.ReadFull(br, buf[0:4])
	if !bytes.Equal(buf[0:n], magic[:n]) {
		return header{}, nil, ErrBadMagic
	}
	if err != nil {
		return header{}, nil, err
	}
	if _, err := io.ReadFull(br, buf[4:]); err != nil {
		return header{}, nil, err
	}
	if buf[4] != formatVersion {
		return header{}, nil, fmt.Errorf("dbio: unsupported database format version %d", buf[4])
	}
	hdr := header{
		KmerSize:           buf[5],
		DownsamplingFactor: buf[6],
		Checksum:           binary.LittleEndian.Uint64(buf[7:15]),
	}
	return hdr, br, nil
}

// encodePayload writes the two fields spec.md section 6 pins, in order:
// (1) the hash -> bitset map, (2) the ordinal -> id vector. All integers
// are varint-encoded.
func encodePayload(w io.Writer, idx *index.Index) error {
	bw := &varintWriter{w: bufio.NewWriter(w)}

	bw.putUvarint(uint64(len(idx.Hashes)))
	for h, set := range idx.Hashes {
		bw.putUvarint(h)
		bw.putUvarint(uint64(set.Cap()))
		words := set.Words()
		bw.putUvarint(uint64(len(words)))
		for _, word := range words {
			bw.putUvarint(word)
		}
	}

	bw.putUvarint(uint64(len(idx.IDs)))
	for _, id := range idx.IDs {
		bw.putUvarint(uint64(len(id)))
		bw.writeString(id)
	}

	return bw.flush()
}

func decodePayload(r io.Reader) (*index.Index, error) {
	br := &varintReader{r: bufio.NewReader(r)}

	numHashes, err := br.uvarint()
	if err != nil {
		return nil, err
	}
	hashes := make(map[uint64]*bitset.Set, numHashes)
	for i := uint64(0); i < numHashes; i++ {
		h, err := br.uvarint()
		if err != nil {
			return nil, err
		}
		cap, err := br.uvarint()
		if err != nil {
			return nil, err
		}
		numWords, err := br.uvarint()
		if err != nil {
			return nil, err
		}
		words := make([]uint64, numWords)
		for j := range words {
			w, err := br.uvarint()
			if err != nil {
				return nil, err
			}
			words[j] = w
		}
		hashes[h] = bitset.FromWords(words, int(cap))
	}

	numIDs, err := br.uvarint()
	if err != nil {
		return nil, err
	}
	ids := make([]string, numIDs)
	for i := range ids {
		n, err := br.uvarint()
		if err != nil {
			return nil, err
		}
		s, err := br.readString(int(n))
		if err != nil {
			return nil, err
		}
		ids[i] = s
	}

	return &index.Index{Hashes: hashes, IDs: ids}, nil
}
