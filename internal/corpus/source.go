package corpus

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"iter"
	"os"
)

// #region records

// Records returns a lazy sequence over every record of every path, in path
// order. Only one location is open at a time and records are decoded one by
// one. Each call to the returned sequence starts over from the first path.
// The first error ends the sequence.
func Records(paths ...string) iter.Seq2[Record, error] {
	return func(yield func(Record, error) bool) {
		for _, path := range paths {
			if !readLocation(path, yield) {
				return
			}
		}
	}
}

// readLocation streams one JSON array. It reports false when iteration must
// stop, either because the consumer broke out or because an error was yielded.
func readLocation(path string, yield func(Record, error) bool) bool {
	f, err := os.Open(path)
	if err != nil {
		yield(Record{}, &LocationError{Kind: ErrIO, Location: path, Index: -1, Err: err})
		return false
	}
	defer f.Close()

	dec := json.NewDecoder(bufio.NewReader(f))

	tok, err := dec.Token()
	if err != nil {
		yield(Record{}, locationErr(path, -1, err))
		return false
	}
	if d, ok := tok.(json.Delim); !ok || d != '[' {
		yield(Record{}, &LocationError{Kind: ErrParse, Location: path, Index: -1, Err: errors.New("expected a JSON array of records")})
		return false
	}

	for i := 0; dec.More(); i++ {
		var rec Record
		if err := dec.Decode(&rec); err != nil {
			yield(Record{}, locationErr(path, i, err))
			return false
		}
		if !yield(rec, nil) {
			return false
		}
	}

	if _, err := dec.Token(); err != nil {
		yield(Record{}, locationErr(path, -1, err))
		return false
	}

	// the array must be the whole document
	tok, err = dec.Token()
	if err == io.EOF {
		return true
	}
	if err == nil {
		err = fmt.Errorf("unexpected %v after the record list", tok)
	}
	yield(Record{}, locationErr(path, -1, err))
	return false
}

// locationErr classifies a decode failure. Read errors from the file itself
// are I/O; everything else the decoder reports is a parse failure.
func locationErr(path string, index int, err error) *LocationError {
	kind := ErrParse
	var pe *fs.PathError
	if errors.As(err, &pe) {
		kind = ErrIO
	}
	return &LocationError{Kind: kind, Location: path, Index: index, Err: err}
}

// #endregion records

// #region adapters

// Collect materializes a sequence. It returns the first error unchanged.
func Collect(seq iter.Seq2[Record, error]) ([]Record, error) {
	var out []Record
	for rec, err := range seq {
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, nil
}

// FromSlice adapts in-memory records to the sequence type used by Records.
func FromSlice(records []Record) iter.Seq2[Record, error] {
	return func(yield func(Record, error) bool) {
		for _, rec := range records {
			if !yield(rec, nil) {
				return
			}
		}
	}
}

// #endregion adapters
