package ledger

import "strconv"

var linksHeader = []string{"counter", "page_link", "city"}

// LinksLedger records discovered detail-page links. The first append of a run
// starts the file fresh with a header; every later append goes to the end.
type LinksLedger struct {
	path    string
	started bool
}

// NewLinksLedger creates a links ledger backed by the CSV file at path.
func NewLinksLedger(path string) *LinksLedger {
	return &LinksLedger{path: path}
}

// Path returns the backing file path.
func (l *LinksLedger) Path() string {
	return l.path
}

// Append writes one discovered link for the given target. The counter column
// carries the page number the link was found on. Each call is durable on
// return.
func (l *LinksLedger) Append(page int, link, target string) error {
	if !l.started {
		if err := appendRow(l.path, true, linksHeader); err != nil {
			return err
		}
		l.started = true
	}
	return appendRow(l.path, false, []string{strconv.Itoa(page), link, target})
}

// HasData reports whether the backing file holds at least one data row. It
// reads the file on disk, so it works before a run starts.
func (l *LinksLedger) HasData() (bool, error) {
	_, rows, err := readRows(l.path)
	if err != nil {
		return false, err
	}
	return len(rows) > 0, nil
}

// ReadLinks returns every recorded link in file order.
func (l *LinksLedger) ReadLinks() ([]string, error) {
	header, rows, err := readRows(l.path)
	if err != nil {
		return nil, err
	}
	col := columnIndex(header, "page_link", 1)
	var links []string
	for _, row := range rows {
		if col < len(row) && row[col] != "" {
			links = append(links, row[col])
		}
	}
	return links, nil
}

func columnIndex(header []string, name string, fallback int) int {
	for i, h := range header {
		if h == name {
			return i
		}
	}
	return fallback
}
