package deck

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/eslsoft/taboo/internal/entity"
	"github.com/eslsoft/taboo/internal/repository"
)

const (
	defaultBatchSize = 200
	formatVersion    = 1
)

// Format is the on-disk encoding of a deck.
type Format string

const (
	FormatJSONL Format = "jsonl"
	FormatYAML  Format = "yaml"
)

// ParseFormat guesses the format from an explicit value or a file name.
func ParseFormat(explicit, filename string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(explicit)) {
	case "jsonl", "json":
		return FormatJSONL, nil
	case "yaml", "yml":
		return FormatYAML, nil
	case "":
	default:
		return "", fmt.Errorf("deck: unsupported format %q", explicit)
	}
	lower := strings.ToLower(strings.TrimSuffix(filename, ".gz"))
	if strings.HasSuffix(lower, ".yaml") || strings.HasSuffix(lower, ".yml") {
		return FormatYAML, nil
	}
	return FormatJSONL, nil
}

type ProgressReporter interface {
	Start(total int)
	Increment(delta int)
	Finish()
}

type noopProgress struct{}

func (noopProgress) Start(int)     {}
func (noopProgress) Increment(int) {}
func (noopProgress) Finish()       {}

// Service moves card decks between files and the card repository.
type Service struct {
	cards     repository.CardRepository
	batchSize int
	language  entity.Language
	reporter  ProgressReporter
	clock     func() time.Time
}

type Option func(*Service)

func WithBatchSize(size int) Option {
	return func(s *Service) {
		if size > 0 {
			s.batchSize = size
		}
	}
}

// WithDefaultLanguage sets the language of cards that do not declare one.
func WithDefaultLanguage(lang entity.Language) Option {
	return func(s *Service) {
		if lang.Supported() {
			s.language = lang
		}
	}
}

// WithProgressReporter registers a reporter that receives progress callbacks.
func WithProgressReporter(reporter ProgressReporter) Option {
	return func(s *Service) {
		if reporter != nil {
			s.reporter = reporter
		}
	}
}

// NewService constructs a deck service on top of a card repository.
func NewService(cards repository.CardRepository, opts ...Option) *Service {
	s := &Service{
		cards:     cards,
		batchSize: defaultBatchSize,
		language:  entity.LanguageEnglish,
		reporter:  noopProgress{},
		clock:     time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// ImportReport summarises an import run.
type ImportReport struct {
	Read     int
	Imported int
	Rejected []Rejection
}

// Rejection is a card that failed validation. Position is the JSONL line
// number or the 1-based index in a YAML deck.
type Rejection struct {
	Position   int
	AnswerWord string
	Reason     string
}

type record struct {
	Type       string            `json:"type"`
	Version    int               `json:"version,omitempty"`
	ExportedAt *time.Time        `json:"exported_at,omitempty"`
	Count      int               `json:"count,omitempty"`
	Card       *entity.TabooCard `json:"card,omitempty"`
}

type cardKey struct {
	language entity.Language
	answer   string
}

type yamlDeck struct {
	Language entity.Language    `yaml:"language"`
	Category string             `yaml:"category"`
	Cards    []entity.TabooCard `yaml:"cards"`
}

// Import reads a deck, validates every card and upserts the valid ones.
// Invalid cards are reported, not fatal.
func (s *Service) Import(ctx context.Context, r io.Reader, format Format) (*ImportReport, error) {
	var (
		cards []entity.TabooCard
		lines []int
		err   error
	)
	switch format {
	case FormatYAML:
		cards, lines, err = decodeYAML(r)
	default:
		cards, lines, err = decodeJSONL(r)
	}
	if err != nil {
		return nil, err
	}

	report := &ImportReport{Read: len(cards)}
	now := s.clock()
	valid := make([]entity.TabooCard, 0, len(cards))
	// A multi-row upsert may not touch the same key twice.
	firstSeen := make(map[cardKey]int, len(cards))
	for i := range cards {
		card := cards[i]
		card.ID = 0
		card.Active = true
		if card.Language == entity.LanguageUnspecified {
			card.Language = s.language
		}
		card.Normalize(now)
		if err := card.Validate(); err != nil {
			report.Rejected = append(report.Rejected, Rejection{Position: lines[i], AnswerWord: card.AnswerWord, Reason: err.Error()})
			continue
		}
		key := cardKey{language: card.Language, answer: card.AnswerWord}
		if pos, dup := firstSeen[key]; dup {
			report.Rejected = append(report.Rejected, Rejection{
				Position:   lines[i],
				AnswerWord: card.AnswerWord,
				Reason:     fmt.Sprintf("duplicate of card at position %d", pos),
			})
			continue
		}
		firstSeen[key] = lines[i]
		valid = append(valid, card)
	}

	s.reporter.Start(len(valid))
	for start := 0; start < len(valid); start += s.batchSize {
		end := min(start+s.batchSize, len(valid))
		n, err := s.cards.Upsert(ctx, valid[start:end])
		if err != nil {
			return report, fmt.Errorf("deck: upsert batch at %d: %w", start, err)
		}
		report.Imported += n
		s.reporter.Increment(end - start)
	}
	s.reporter.Finish()
	return report, nil
}

// Export writes every card matching query as JSONL, preceded by a meta record.
func (s *Service) Export(ctx context.Context, w io.Writer, query repository.ListCardQuery) (int, error) {
	query.PageNo = 1
	query.PageSize = int32(min(s.batchSize, repository.MaxPageSize))

	writer := bufio.NewWriter(w)
	defer writer.Flush()

	first, total, err := s.cards.List(ctx, &query)
	if err != nil {
		return 0, fmt.Errorf("deck: list cards: %w", err)
	}

	now := s.clock().UTC()
	if err := writeRecord(writer, record{Type: "meta", Version: formatVersion, ExportedAt: &now, Count: int(total)}); err != nil {
		return 0, err
	}

	s.reporter.Start(int(total))
	written := 0
	page := first
	for len(page) > 0 {
		for i := range page {
			if err := writeRecord(writer, record{Type: "card", Card: &page[i]}); err != nil {
				return written, err
			}
			written++
		}
		s.reporter.Increment(len(page))
		if int64(written) >= total {
			break
		}
		query.PageNo++
		if page, _, err = s.cards.List(ctx, &query); err != nil {
			return written, fmt.Errorf("deck: list cards: %w", err)
		}
	}
	s.reporter.Finish()
	return written, writer.Flush()
}

func decodeJSONL(r io.Reader) ([]entity.TabooCard, []int, error) {
	br := bufio.NewReader(r)
	var (
		cards  []entity.TabooCard
		lines  []int
		lineNo int
	)
	for {
		line, err := br.ReadBytes('\n')
		if err != nil && !errors.Is(err, io.EOF) {
			return nil, nil, fmt.Errorf("deck: read: %w", err)
		}
		lineNo++
		line = bytes.TrimSpace(line)
		if len(line) > 0 {
			var rec record
			if err := json.Unmarshal(line, &rec); err != nil {
				return nil, nil, fmt.Errorf("deck: line %d: %w", lineNo, err)
			}
			switch rec.Type {
			case "meta":
				if rec.Version != formatVersion {
					return nil, nil, fmt.Errorf("deck: unsupported format version %d", rec.Version)
				}
			case "card", "":
				if rec.Card == nil {
					return nil, nil, fmt.Errorf("deck: line %d: missing card payload", lineNo)
				}
				cards = append(cards, *rec.Card)
				lines = append(lines, lineNo)
			}
		}
		if errors.Is(err, io.EOF) {
			break
		}
	}
	return cards, lines, nil
}

func decodeYAML(r io.Reader) ([]entity.TabooCard, []int, error) {
	var doc yamlDeck
	dec := yaml.NewDecoder(r)
	if err := dec.Decode(&doc); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, nil, nil
		}
		return nil, nil, fmt.Errorf("deck: decode yaml: %w", err)
	}
	lines := make([]int, len(doc.Cards))
	for i := range doc.Cards {
		if doc.Cards[i].Language == entity.LanguageUnspecified {
			doc.Cards[i].Language = doc.Language
		}
		if doc.Cards[i].Category == "" {
			doc.Cards[i].Category = doc.Category
		}
		lines[i] = i + 1
	}
	return doc.Cards, lines, nil
}

func writeRecord(w io.Writer, rec record) error {
	data, err := json.Marshal(rec)
	if err != nil {
		return err
	}
	if _, err := w.Write(data); err != nil {
		return err
	}
	if _, err := w.Write([]byte("\n")); err != nil {
		return err
	}
	return nil
}
