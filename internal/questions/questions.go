/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

// Package questions holds the prompt catalog and the per-round selection of a
// group prompt and a divergent impostor prompt.
package questions

import (
	_ "embed"
	"errors"
	"fmt"
	"os"
	"slices"
	"strings"

	"go.yaml.in/yaml/v3"

	"github.com/Seednode/impostor/internal/common/random"
)

//go:embed catalog.yaml
var defaultCatalog []byte

// ErrEmptyCatalog is returned when a catalog has no prompts of some kind.
// There is no sensible fallback, so callers should treat it as fatal.
var ErrEmptyCatalog = errors.New("question catalog must contain group and impostor prompts")

type Kind string

const (
	KindGroup    Kind = "group"
	KindImpostor Kind = "impostor"
)

// Question is an immutable catalog entry.
type Question struct {
	ID   string
	Text string
	Kind Kind
	Tags []string

	// Opposite is the id of the other half of this question's pair.
	Opposite string
}

func (q Question) sharesTag(o Question) bool {
	for _, t := range q.Tags {
		if slices.Contains(o.Tags, t) {
			return true
		}
	}
	return false
}

// Used records which question ids a room has already been served.
type Used map[string]struct{}

// Pair is one round's worth of prompts.
type Pair struct {
	Group    Question
	Impostor Question
}

type Catalog struct {
	group    []Question
	impostor []Question
}

type entry struct {
	ID   string `yaml:"id"`
	Text string `yaml:"text"`
}

type catalogFile struct {
	Pairs []struct {
		Tags     []string `yaml:"tags"`
		Group    entry    `yaml:"group"`
		Impostor entry    `yaml:"impostor"`
	} `yaml:"pairs"`
}

// Default returns the catalog compiled into the binary.
func Default() (*Catalog, error) {
	return Parse(defaultCatalog)
}

// Load reads a YAML catalog from disk.
func Load(path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading question catalog: %w", err)
	}

	return Parse(data)
}

// Parse decodes a YAML catalog and checks that ids are unique and that both
// kinds are represented.
func Parse(data []byte) (*Catalog, error) {
	var f catalogFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parsing question catalog: %w", err)
	}

	c := &Catalog{}
	seen := make(map[string]struct{}, len(f.Pairs)*2)

	for i, p := range f.Pairs {
		for _, e := range []entry{p.Group, p.Impostor} {
			if strings.TrimSpace(e.ID) == "" || strings.TrimSpace(e.Text) == "" {
				return nil, fmt.Errorf("question pair %d: id and text are required", i+1)
			}
			if _, dup := seen[e.ID]; dup {
				return nil, fmt.Errorf("question pair %d: duplicate id %q", i+1, e.ID)
			}
			seen[e.ID] = struct{}{}
		}

		c.group = append(c.group, Question{
			ID:       p.Group.ID,
			Text:     p.Group.Text,
			Kind:     KindGroup,
			Tags:     p.Tags,
			Opposite: p.Impostor.ID,
		})
		c.impostor = append(c.impostor, Question{
			ID:       p.Impostor.ID,
			Text:     p.Impostor.Text,
			Kind:     KindImpostor,
			Tags:     p.Tags,
			Opposite: p.Group.ID,
		})
	}

	if len(c.group) == 0 || len(c.impostor) == 0 {
		return nil, ErrEmptyCatalog
	}

	return c, nil
}

// Len reports the number of group and impostor prompts.
func (c *Catalog) Len() (group, impostor int) {
	return len(c.group), len(c.impostor)
}

func available(qs []Question, used Used) []Question {
	out := make([]Question, 0, len(qs))
	for _, q := range qs {
		if _, ok := used[q.ID]; !ok {
			out = append(out, q)
		}
	}
	return out
}

func filter(qs []Question, keep func(Question) bool) []Question {
	out := make([]Question, 0, len(qs))
	for _, q := range qs {
		if keep(q) {
			out = append(out, q)
		}
	}
	return out
}

// SelectPair draws a group prompt and an impostor prompt that avoids the
// group prompt's opposite and, where possible, its topics. Once either kind
// runs out of unused prompts the used set is cleared and selection starts over
// from the full catalog. Both chosen ids are recorded in used.
func (c *Catalog) SelectPair(used Used, src random.Source) (Pair, error) {
	if c == nil || len(c.group) == 0 || len(c.impostor) == 0 {
		return Pair{}, ErrEmptyCatalog
	}

	groups := available(c.group, used)
	impostors := available(c.impostor, used)
	if len(groups) == 0 || len(impostors) == 0 {
		clear(used)
		groups, impostors = c.group, c.impostor
	}

	g := groups[src.IntN(len(groups))]

	pool := filter(impostors, func(q Question) bool {
		return q.ID != g.Opposite && !g.sharesTag(q)
	})
	if len(pool) == 0 {
		pool = filter(impostors, func(q Question) bool {
			return q.ID != g.Opposite
		})
	}
	if len(pool) == 0 {
		pool = impostors
	}

	i := pool[src.IntN(len(pool))]

	used[g.ID] = struct{}{}
	used[i.ID] = struct{}{}

	return Pair{Group: g, Impostor: i}, nil
}
