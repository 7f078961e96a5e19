// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package kar

import (
	"bytes"
	"io"
	"io/ioutil"
	"sort"

	"github.com/pierrec/lz4"
	"github.com/pkg/errors"
	"golang.org/x/exp/mmap"
)

// Open opens the kar archived from r. It will also check
// if the file is actually a kar archive, will return an error
// when file incorrect.
func Open(r io.ReaderAt) (*Archive, error) {
	preamble := make([]byte, preambleLength)
	if num, err := r.ReadAt(preamble, 0); num < preambleLength {
		if err != nil && err != io.EOF {
			return nil, err
		}
		return nil, ErrFileFormat
	}
	if !bytes.Equal(preamble[:MagicLength], magic[:]) {
		return nil, ErrFileFormat
	}

	headerSize, err := binaryToint64(preamble[MagicLength:])
	if err != nil || headerSize <= 0 || headerSize > maxHeaderSize {
		return nil, ErrFileFormat
	}
	total, sized := readerSize(r)
	if sized && headerSize > total-preambleLength {
		return nil, ErrFileFormat
	}

	headerBytes := make([]byte, headerSize)
	if num, err := r.ReadAt(headerBytes, preambleLength); int64(num) < headerSize {
		if err != nil && err != io.EOF {
			return nil, err
		}
		return nil, ErrFileFormat
	}

	var header Header
	if err := gobDecode(&header, headerBytes); err != nil {
		return nil, errors.Wrap(ErrFileFormat, err.Error())
	}

	dataOffset := preambleLength + headerSize
	for _, e := range header.Index {
		if e.Size < 0 || e.CompressedSize < 0 || e.Offset < 0 {
			return nil, errors.Wrap(ErrFileFormat, e.Name)
		}
		if sized && e.Offset > total-dataOffset-e.CompressedSize {
			return nil, errors.Wrapf(ErrFileFormat, "%s past end of archive", e.Name)
		}
	}

	ar := &Archive{
		reader:     r,
		header:     header,
		dataOffset: dataOffset,
		index:      make(map[string]IndexEntry, len(header.Index)),
	}
	for _, e := range header.Index {
		ar.index[e.Name] = e
	}
	return ar, nil
}

// readerSize reports the total size of r when it knows it,
// as *bytes.Reader and *mmap.ReaderAt do.
func readerSize(r io.ReaderAt) (int64, bool) {
	if s, ok := r.(interface{ Size() int64 }); ok {
		return s.Size(), true
	}
	return 0, false
}

// OpenFile memory maps the archive at path
func OpenFile(path string) (*Archive, error) {
	r, err := mmap.Open(path)
	if err != nil {
		return nil, err
	}
	ar, err := Open(r)
	if err != nil {
		r.Close()
		return nil, err
	}
	ar.closer = r
	return ar, nil
}

// Archive provides concurrent io for a kar file, and can provide
// an io.Reader for each file separately to perform actions on.
type Archive struct {
	reader     io.ReaderAt
	closer     io.Closer
	header     Header
	dataOffset int64
	index      map[string]IndexEntry
}

// Header returns the archive header, index included
func (a *Archive) Header() Header {
	return a.header
}

// Names returns the names of all files in the archive, sorted
func (a *Archive) Names() []string {
	names := make([]string, 0, len(a.index))
	for name := range a.index {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Stat returns the index entry of a file
func (a *Archive) Stat(name string) (IndexEntry, error) {
	e, ok := a.index[name]
	if !ok {
		return IndexEntry{}, errors.Wrap(ErrNotFound, name)
	}
	return e, nil
}

// ReadAll returns the entire contents of a file with a given name
func (a *Archive) ReadAll(name string) ([]byte, error) {
	r, err := a.Open(name)
	if err != nil {
		return nil, err
	}
	data, err := ioutil.ReadAll(io.LimitReader(r, r.entry.Size))
	if err != nil {
		return nil, errors.Wrapf(err, "read %s", name)
	}
	if int64(len(data)) != r.entry.Size {
		return nil, errors.Wrapf(io.ErrUnexpectedEOF, "read %s", name)
	}
	return data, nil
}

// Open returns a Reader for a file in the Archive
func (a *Archive) Open(name string) (*Reader, error) {
	e, err := a.Stat(name)
	if err != nil {
		return nil, err
	}
	section := io.NewSectionReader(a.reader, a.dataOffset+e.Offset, e.CompressedSize)
	return &Reader{
		Reader:  lz4.NewReader(section),
		archive: a,
		entry:   e,
	}, nil
}

// Close releases the memory map when the archive was opened with OpenFile
func (a *Archive) Close() error {
	if a.closer == nil {
		return nil
	}
	return a.closer.Close()
}

// Reader is a reader for a single file in an Archive.
// Abstracts away the location that needs to be known.
type Reader struct {
	io.Reader

	archive *Archive
	entry   IndexEntry
}

// Size is the decompressed size of the file
func (r *Reader) Size() int64 {
	return r.entry.Size
}
