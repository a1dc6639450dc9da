package chess

import (
	_ "embed"
	"encoding/json"
	"fmt"

	"github.com/timclh/Chess-v1-sub000/engine"
)

//go:embed book.json
var bookData []byte

// bookMinPieces gates the book to the opening: once captures have taken the
// position below this count, the search takes over.
const bookMinPieces = 26

type bookFile struct {
	Positions map[string]bookPosition `json:"positions"`
}

type bookPosition struct {
	Name  string     `json:"name"`
	Moves []bookMove `json:"moves"`
}

type bookMove struct {
	UCI    string `json:"uci"`
	Weight int    `json:"weight"`
	Name   string `json:"name"`
}

// DefaultBook returns the embedded hand-curated opening book. Keys are
// position-class fingerprints (see Position.Fingerprint), values a handful of
// mainline replies with selection weights.
func DefaultBook() *engine.OpeningBook {
	b, err := ParseBook(bookData)
	if err != nil {
		// The embedded book is validated by tests; a parse failure here is
		// a build defect.
		panic("chess: embedded book: " + err.Error())
	}
	return b
}

// ParseBook decodes a JSON book into engine form.
func ParseBook(data []byte) (*engine.OpeningBook, error) {
	var f bookFile
	if err := json.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("decode book: %w", err)
	}
	book := engine.NewOpeningBook(bookMinPieces)
	for fp, pos := range f.Positions {
		for _, bm := range pos.Moves {
			m, err := parseUCI(bm.UCI)
			if err != nil {
				return nil, fmt.Errorf("position %q: %w", fp, err)
			}
			name := bm.Name
			if name == "" {
				name = pos.Name
			}
			book.Add(fp, engine.BookEntry{Move: m, Weight: bm.Weight, Name: name})
		}
	}
	return book, nil
}

func parseUCI(uci string) (engine.Move, error) {
	if len(uci) != 4 && len(uci) != 5 {
		return engine.Move{}, fmt.Errorf("bad uci move %q", uci)
	}
	from, err := ParseSquare(uci[:2])
	if err != nil {
		return engine.Move{}, err
	}
	to, err := ParseSquare(uci[2:4])
	if err != nil {
		return engine.Move{}, err
	}
	m := engine.Move{From: from, To: to}
	if len(uci) == 5 {
		switch uci[4] {
		case 'q':
			m.Promotion = Queen
		case 'r':
			m.Promotion = Rook
		case 'b':
			m.Promotion = Bishop
		case 'n':
			m.Promotion = Knight
		default:
			return engine.Move{}, fmt.Errorf("bad promotion in %q", uci)
		}
	}
	return m, nil
}
