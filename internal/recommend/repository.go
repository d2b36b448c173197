// Package recommend loads the clinical recommendation reference set from a
// CSV file and serves random picks for question generation.
package recommend

import (
	"encoding/csv"
	"fmt"
	"io"
	"log"
	"math/rand"
	"os"
	"sort"
	"strings"
	"sync"
	"time"

	"reco-quiz-service/internal/domain"
)

// Repository holds the loaded recommendation set. Safe for concurrent use.
type Repository struct {
	recs []domain.Recommendation

	mu  sync.Mutex
	rnd *rand.Rand
}

// Load reads the CSV file at path.
func Load(path string) (*Repository, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open recommendations: %w", err)
	}
	defer f.Close()
	repo, err := FromReader(f)
	if err != nil {
		return nil, err
	}
	log.Printf("recommend: loaded %d recommendations from %s", repo.Len(), path)
	return repo, nil
}

// FromReader parses CSV content with a header row of
// Theme,Topic,Recommendation,Grade,Evidence,References,Link. Rows missing the
// recommendation or evidence text are dropped.
func FromReader(r io.Reader) (*Repository, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}
	col := make(map[string]int, len(header))
	for i, name := range header {
		col[strings.TrimSpace(name)] = i
	}
	for _, required := range []string{"Theme", "Topic", "Recommendation", "Grade", "Evidence", "References"} {
		if _, ok := col[required]; !ok {
			return nil, fmt.Errorf("missing column %q", required)
		}
	}

	field := func(record []string, name string) string {
		idx, ok := col[name]
		if !ok || idx >= len(record) {
			return ""
		}
		return strings.TrimSpace(record[idx])
	}

	var recs []domain.Recommendation
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read row: %w", err)
		}
		rec := domain.Recommendation{
			Theme:      field(record, "Theme"),
			Topic:      field(record, "Topic"),
			Text:       field(record, "Recommendation"),
			Grade:      field(record, "Grade"),
			Evidence:   field(record, "Evidence"),
			References: field(record, "References"),
			Link:       field(record, "Link"),
		}
		if rec.Text == "" || rec.Evidence == "" {
			continue
		}
		recs = append(recs, rec)
	}

	return &Repository{
		recs: recs,
		rnd:  rand.New(rand.NewSource(time.Now().UnixNano())),
	}, nil
}

// Len reports the number of usable recommendations.
func (r *Repository) Len() int {
	return len(r.recs)
}

// Random returns a random recommendation, filtered by topic when topic is
// non-empty.
func (r *Repository) Random(topic string) (domain.Recommendation, error) {
	candidates := r.recs
	if topic != "" {
		candidates = r.byTopic(topic)
	}
	if len(candidates) == 0 {
		return domain.Recommendation{}, domain.ErrNoRecommendation
	}
	r.mu.Lock()
	idx := r.rnd.Intn(len(candidates))
	r.mu.Unlock()
	return candidates[idx], nil
}

// ByTopic returns every recommendation for a topic.
func (r *Repository) ByTopic(topic string) []domain.Recommendation {
	return r.byTopic(topic)
}

func (r *Repository) byTopic(topic string) []domain.Recommendation {
	var out []domain.Recommendation
	for _, rec := range r.recs {
		if rec.Topic == topic {
			out = append(out, rec)
		}
	}
	return out
}

// Topics lists the distinct topics in sorted order.
func (r *Repository) Topics() []string {
	return r.distinct(func(rec domain.Recommendation) string { return rec.Topic })
}

// Themes lists the distinct themes in sorted order.
func (r *Repository) Themes() []string {
	return r.distinct(func(rec domain.Recommendation) string { return rec.Theme })
}

func (r *Repository) distinct(key func(domain.Recommendation) string) []string {
	seen := make(map[string]struct{})
	var out []string
	for _, rec := range r.recs {
		k := key(rec)
		if k == "" {
			continue
		}
		if _, ok := seen[k]; ok {
			continue
		}
		seen[k] = struct{}{}
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
