package datasource

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
)

var errNotArray = errors.New("response is not a JSON array")

// recordStream decodes a JSON array one element at a time, so records are
// produced while the body is still being read. When the schema names a
// root field the array is looked up inside a wrapping object.
type recordStream struct {
	dec     *json.Decoder
	schema  *schema
	started bool
	done    bool
}

func newRecordStream(r io.Reader, s *schema) *recordStream {
	dec := json.NewDecoder(r)
	dec.UseNumber()
	return &recordStream{dec: dec, schema: s}
}

// next returns io.EOF once the array is exhausted.
func (rs *recordStream) next() (Record, error) {
	if rs.done {
		return nil, io.EOF
	}
	if !rs.started {
		rs.started = true
		if err := rs.open(); err != nil {
			rs.done = true
			return nil, err
		}
	}
	if !rs.dec.More() {
		rs.done = true
		return nil, io.EOF
	}

	var raw map[string]any
	if err := rs.dec.Decode(&raw); err != nil {
		rs.done = true
		return nil, fmt.Errorf("decode element: %w", err)
	}
	return rs.schema.decode(raw), nil
}

// open positions the decoder just inside the array.
func (rs *recordStream) open() error {
	tok, err := rs.dec.Token()
	if err != nil {
		if err == io.EOF {
			return io.EOF
		}
		return err
	}

	switch tok {
	case nil:
		return io.EOF
	case json.Delim('['):
		return nil
	case json.Delim('{'):
		if rs.schema.root == "" {
			return fmt.Errorf("%w: got an object, set schema.root to the field holding the list", errNotArray)
		}
		return rs.seekRoot()
	default:
		return fmt.Errorf("%w: got %v", errNotArray, tok)
	}
}

func (rs *recordStream) seekRoot() error {
	for rs.dec.More() {
		keyTok, err := rs.dec.Token()
		if err != nil {
			return err
		}
		key, _ := keyTok.(string)
		if key != rs.schema.root {
			var skip json.RawMessage
			if err := rs.dec.Decode(&skip); err != nil {
				return err
			}
			continue
		}

		tok, err := rs.dec.Token()
		if err != nil {
			return err
		}
		switch tok {
		case nil:
			return io.EOF
		case json.Delim('['):
			return nil
		default:
			return fmt.Errorf("%w: field %q holds %v", errNotArray, key, tok)
		}
	}
	return io.EOF
}
