package column

import (
	lru "github.com/hashicorp/golang-lru/v2"
)

// Caches covers the three caches spec §4.3 requires with two LRU caches:
// one of open *PartReaders, which keep both the decoded footer and the
// Elias-Fano sidecar resident, and one of decoded row-group pages. Both
// are concurrent and bounded by entry count, which for these
// fixed-shape entries is a reasonable proxy for the byte budget spec §4.3
// asks for.
type Caches struct {
	readers *lru.Cache[string, *PartReader]
	pages   *lru.Cache[pageKey, any]
}

type pageKey struct {
	path        string
	rowGroupIdx int
}

// NewCaches builds the cache set. readerCapacity bounds how many open
// part files (footer + EF sidecar resident) are kept around; pageCapacity
// bounds how many decoded row groups are kept around.
func NewCaches(readerCapacity, pageCapacity int) (*Caches, error) {
	readers, err := lru.NewWithEvict[string, *PartReader](readerCapacity, func(_ string, r *PartReader) {
		_ = r.Close()
	})
	if err != nil {
		return nil, err
	}
	pages, err := lru.New[pageKey, any](pageCapacity)
	if err != nil {
		return nil, err
	}
	return &Caches{readers: readers, pages: pages}, nil
}

// GetReader returns a cached *PartReader for path, or opens it via open
// and caches the result.
func (c *Caches) GetReader(path string, open func(string) (*PartReader, error)) (*PartReader, bool, error) {
	if r, ok := c.readers.Get(path); ok {
		return r, true, nil
	}
	r, err := open(path)
	if err != nil {
		return nil, false, err
	}
	c.readers.Add(path, r)
	return r, false, nil
}

// GetPage returns a cached decoded row group, or decodes it via decode
// and caches the result. Callers type-assert the returned value to the
// slice type decode produces.
func (c *Caches) GetPage(path string, rowGroupIdx int, decode func() (any, error)) (any, bool, error) {
	key := pageKey{path: path, rowGroupIdx: rowGroupIdx}
	if page, ok := c.pages.Get(key); ok {
		return page, true, nil
	}
	page, err := decode()
	if err != nil {
		return nil, false, err
	}
	c.pages.Add(key, page)
	return page, false, nil
}

// Close closes every cached reader.
func (c *Caches) Close() {
	c.readers.Purge()
}
