// Package refdb holds the static reference tables used by every audit engine:
// procedure metadata, bundling rules, the severity lexicon, evidence patterns,
// semantic keyword groups and the body-area table.
//
// A Database is built once (from the embedded YAML or a user-supplied file)
// and is read-only afterwards. Accessors return shared slices; callers must
// not modify them. Concurrent readers need no locking.
package refdb

import (
	_ "embed"
	"fmt"
	"os"
	"sort"
	"sync"

	"gopkg.in/yaml.v3"

	"github.com/gyeh/claimaudit/internal/model"
	"github.com/gyeh/claimaudit/internal/normalize"
)

//go:embed reference.yaml
var referenceYAML []byte

// MinSeverity and MaxSeverity bound every procedure and lexicon level.
const (
	MinSeverity = 1
	MaxSeverity = 5
)

// SemanticGroup is a synonym set for one body area or procedure type.
// A group is relevant to a procedure when any trigger appears in its description.
type SemanticGroup struct {
	Name     string   `yaml:"name"`
	Triggers []string `yaml:"triggers"`
	Keywords []string `yaml:"keywords"`
}

type areaKeyword struct {
	Keyword string `yaml:"keyword"`
	Area    string `yaml:"area"`
}

// yamlReference is the on-disk YAML structure.
type yamlReference struct {
	Procedures       []model.ProcedureReference `yaml:"procedures"`
	BundlingRules    []model.BundlingRule       `yaml:"bundling_rules"`
	SeverityLexicon  map[int][]string           `yaml:"severity_lexicon"`
	EvidencePatterns map[string][]string        `yaml:"evidence_patterns"`
	SemanticGroups   []SemanticGroup            `yaml:"semantic_groups"`
	BodyAreas        struct {
		Codes    map[string][]string `yaml:"codes"`
		Keywords []areaKeyword       `yaml:"keywords"`
	} `yaml:"body_areas"`
	StopTerms       []string `yaml:"stop_terms"`
	DenialPhrases   []string `yaml:"denial_phrases"`
	NoRecordMarkers []string `yaml:"no_record_markers"`
}

// Database is the immutable, process-wide reference lookup.
type Database struct {
	procedures       map[string]model.ProcedureReference
	codes            []string
	rules            []model.BundlingRule
	lexicon          [MaxSeverity + 1][]string
	evidencePatterns map[string][]string
	groups           []SemanticGroup
	areaByCode       map[string]string
	areaKeywords     []areaKeyword
	stopTerms        map[string]struct{}
	denialPhrases    []string
	noRecordMarkers  []string
}

var (
	defaultOnce sync.Once
	defaultDB   *Database
)

// Default returns the database parsed from the embedded reference tables.
// The embedded document is validated by tests, so a parse failure is a
// programming error.
func Default() *Database {
	defaultOnce.Do(func() {
		db, err := Load(referenceYAML)
		if err != nil {
			panic(fmt.Sprintf("load embedded reference.yaml: %v", err))
		}
		defaultDB = db
	})
	return defaultDB
}

// LoadFile reads a reference YAML file with the same schema as the embedded one.
func LoadFile(path string) (*Database, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read reference file: %w", err)
	}
	db, err := Load(data)
	if err != nil {
		return nil, fmt.Errorf("load reference file %s: %w", path, err)
	}
	return db, nil
}

// Load parses and validates reference tables. Codes, keywords and phrases
// are normalized so engines can match against normalized claim text.
func Load(data []byte) (*Database, error) {
	var yr yamlReference
	if err := yaml.Unmarshal(data, &yr); err != nil {
		return nil, fmt.Errorf("parse reference yaml: %w", err)
	}

	db := &Database{
		procedures:       make(map[string]model.ProcedureReference, len(yr.Procedures)),
		evidencePatterns: make(map[string][]string, len(yr.EvidencePatterns)),
		areaByCode:       make(map[string]string),
		stopTerms:        make(map[string]struct{}, len(yr.StopTerms)),
	}

	for _, p := range yr.Procedures {
		p.Code = normalize.Code(p.Code)
		if p.Code == "" {
			return nil, fmt.Errorf("procedure with empty code")
		}
		if p.Severity < MinSeverity || p.Severity > MaxSeverity {
			return nil, fmt.Errorf("procedure %s: severity %d outside [%d,%d]", p.Code, p.Severity, MinSeverity, MaxSeverity)
		}
		if p.AverageCost < 0 {
			return nil, fmt.Errorf("procedure %s: negative average cost", p.Code)
		}
		if _, ok := model.CategoryByName(p.Category); !ok {
			return nil, fmt.Errorf("procedure %s: unknown category %q", p.Code, p.Category)
		}
		if _, dup := db.procedures[p.Code]; dup {
			return nil, fmt.Errorf("procedure %s: duplicate code", p.Code)
		}
		db.procedures[p.Code] = p
		db.codes = append(db.codes, p.Code)
	}
	sort.Strings(db.codes)

	for i, r := range yr.BundlingRules {
		r.PrimaryCode = normalize.Code(r.PrimaryCode)
		r.ReplacementCode = normalize.Code(r.ReplacementCode)
		if r.PrimaryCode == "" || len(r.BundledCodes) == 0 {
			return nil, fmt.Errorf("bundling rule %d: primary code and bundled codes are required", i)
		}
		bundled := make([]string, 0, len(r.BundledCodes))
		for _, c := range r.BundledCodes {
			if c = normalize.Code(c); c != "" {
				bundled = append(bundled, c)
			}
		}
		r.BundledCodes = bundled
		db.rules = append(db.rules, r)
	}

	for level, words := range yr.SeverityLexicon {
		if level < MinSeverity || level > MaxSeverity {
			return nil, fmt.Errorf("severity lexicon: level %d outside [%d,%d]", level, MinSeverity, MaxSeverity)
		}
		db.lexicon[level] = normalizeAll(words)
	}

	for code, phrases := range yr.EvidencePatterns {
		db.evidencePatterns[normalize.Code(code)] = normalizeAll(phrases)
	}

	for _, g := range yr.SemanticGroups {
		db.groups = append(db.groups, SemanticGroup{
			Name:     g.Name,
			Triggers: normalizeAll(g.Triggers),
			Keywords: normalizeAll(g.Keywords),
		})
	}

	areas := make([]string, 0, len(yr.BodyAreas.Codes))
	for area := range yr.BodyAreas.Codes {
		areas = append(areas, area)
	}
	sort.Strings(areas)
	for _, area := range areas {
		for _, code := range yr.BodyAreas.Codes[area] {
			code = normalize.Code(code)
			if prev, ok := db.areaByCode[code]; ok && prev != area {
				return nil, fmt.Errorf("body areas: code %s mapped to both %s and %s", code, prev, area)
			}
			db.areaByCode[code] = area
		}
	}
	for _, ak := range yr.BodyAreas.Keywords {
		db.areaKeywords = append(db.areaKeywords, areaKeyword{Keyword: normalize.Text(ak.Keyword), Area: ak.Area})
	}

	for _, t := range yr.StopTerms {
		db.stopTerms[normalize.Text(t)] = struct{}{}
	}
	db.denialPhrases = normalizeAll(yr.DenialPhrases)
	db.noRecordMarkers = normalizeAll(yr.NoRecordMarkers)

	return db, nil
}

func normalizeAll(in []string) []string {
	out := make([]string, 0, len(in))
	for _, s := range in {
		if s = normalize.Text(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}

// Procedure looks up a code. Codes are matched after normalization.
func (db *Database) Procedure(code string) (model.ProcedureReference, bool) {
	p, ok := db.procedures[normalize.Code(code)]
	return p, ok
}

// Codes returns every known procedure code in sorted order.
func (db *Database) Codes() []string { return db.codes }

// BundlingRules returns the rules in file order.
func (db *Database) BundlingRules() []model.BundlingRule { return db.rules }

// Keywords returns the lexicon phrases for a severity level.
func (db *Database) Keywords(level int) []string {
	if level < MinSeverity || level > MaxSeverity {
		return nil
	}
	return db.lexicon[level]
}

// EvidencePatterns returns the phrases expected in notes for a code.
func (db *Database) EvidencePatterns(code string) []string {
	return db.evidencePatterns[normalize.Code(code)]
}

// GroupsFor returns the semantic groups relevant to a procedure description.
func (db *Database) GroupsFor(description string) []SemanticGroup {
	text := normalize.Text(description)
	var out []SemanticGroup
	for _, g := range db.groups {
		if len(normalize.MatchPhrases(text, g.Triggers)) > 0 {
			out = append(out, g)
		}
	}
	return out
}

// AreaFor resolves the body area of a procedure: the code table first, then
// the first keyword found in the description. Returns "" when unknown.
func (db *Database) AreaFor(code, description string) string {
	if area, ok := db.areaByCode[normalize.Code(code)]; ok {
		return area
	}
	text := normalize.Text(description)
	for _, ak := range db.areaKeywords {
		if normalize.ContainsPhrase(text, ak.Keyword) {
			return ak.Area
		}
	}
	return ""
}

// IsStopTerm reports whether a word is too generic to count as evidence.
func (db *Database) IsStopTerm(word string) bool {
	_, ok := db.stopTerms[word]
	return ok
}

// DenialPhrases returns phrases that mark a service as explicitly not rendered.
func (db *Database) DenialPhrases() []string { return db.denialPhrases }

// NoRecordMarkers returns phrases that force "no evidence" severity.
func (db *Database) NoRecordMarkers() []string { return db.noRecordMarkers }

// HasDenial reports whether normalized notes contain a denial phrase.
func (db *Database) HasDenial(notes string) bool {
	return len(normalize.MatchPhrases(notes, db.denialPhrases)) > 0
}

// CategoryOf returns the category record for a code, if both are known.
func (db *Database) CategoryOf(code string) (model.Category, bool) {
	p, ok := db.Procedure(code)
	if !ok {
		return model.Category{}, false
	}
	return model.CategoryByName(p.Category)
}
