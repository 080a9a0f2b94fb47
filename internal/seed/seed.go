// Package seed loads categories and recurring rules from a YAML file and
// applies them through the services, skipping what already exists.
package seed

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"bilancio/internal/core"
	"bilancio/internal/services"
)

// File is the YAML document layout.
type File struct {
	Categories []Category `yaml:"categories,omitempty"`
	Rules      []Rule     `yaml:"rules,omitempty"`
}

type Category struct {
	Name string `yaml:"name"`
	Kind string `yaml:"kind"`
}

type Rule struct {
	Description string     `yaml:"description"`
	Amount      string     `yaml:"amount"` // decimal, dot or comma separated
	Day         int        `yaml:"day"`
	Start       string     `yaml:"start"`         // YYYY-MM-DD
	End         string     `yaml:"end,omitempty"` // YYYY-MM-DD, open ended when empty
	Kind        string     `yaml:"kind"`
	Category    string     `yaml:"category,omitempty"` // category name
	Overrides   []Override `yaml:"overrides,omitempty"`
}

type Override struct {
	Year   int    `yaml:"year"`
	Month  int    `yaml:"month"` // 1-12
	Amount string `yaml:"amount"`
}

// Result counts what Apply created and skipped.
type Result struct {
	CategoriesCreated int
	CategoriesSkipped int
	RulesCreated      int
	RulesSkipped      int
	OverridesSet      int
}

// Load reads and parses a seed file.
func Load(path string) (*File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading seed file: %w", err)
	}
	return Parse(data)
}

// Parse decodes a seed document. Unknown keys are rejected.
func Parse(data []byte) (*File, error) {
	var f File
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&f); err != nil {
		if errors.Is(err, io.EOF) {
			return &f, nil
		}
		return nil, fmt.Errorf("parsing seed file: %w", err)
	}
	return &f, nil
}

// Apply creates the file's categories and rules. Categories are matched by
// name and rules by description, kind and start date, so applying the same
// file twice creates nothing the second time.
func Apply(ctx context.Context, svc *services.Services, f *File, now time.Time) (Result, error) {
	var res Result

	existing, err := svc.Categories.List(ctx)
	if err != nil {
		return res, fmt.Errorf("list categories: %w", err)
	}
	byName := make(map[string]core.Category, len(existing))
	for _, c := range existing {
		byName[strings.ToLower(c.Name)] = c
	}

	for i, c := range f.Categories {
		if _, ok := byName[strings.ToLower(strings.TrimSpace(c.Name))]; ok {
			res.CategoriesSkipped++
			continue
		}
		created, err := svc.Categories.Create(ctx, c.Name, core.Kind(c.Kind))
		if err != nil {
			return res, fmt.Errorf("category %d (%s): %w", i+1, c.Name, err)
		}
		byName[strings.ToLower(created.Name)] = created
		res.CategoriesCreated++
	}

	rules, err := svc.Rules.List(ctx)
	if err != nil {
		return res, fmt.Errorf("list rules: %w", err)
	}
	seen := make(map[string]bool, len(rules))
	for _, r := range rules {
		seen[ruleKey(r.Description, r.Kind, r.StartDate)] = true
	}

	for i, r := range f.Rules {
		rule, err := r.toCore(byName)
		if err != nil {
			return res, fmt.Errorf("rule %d (%s): %w", i+1, r.Description, err)
		}
		if seen[ruleKey(rule.Description, rule.Kind, rule.StartDate)] {
			res.RulesSkipped++
			continue
		}
		created, err := svc.Rules.Create(ctx, rule, now)
		if err != nil {
			return res, fmt.Errorf("rule %d (%s): %w", i+1, r.Description, err)
		}
		seen[ruleKey(created.Description, created.Kind, created.StartDate)] = true
		res.RulesCreated++

		for _, o := range r.Overrides {
			cents, err := core.ParseNonNegativeCents(o.Amount)
			if err != nil {
				return res, fmt.Errorf("rule %d (%s) override %d-%02d: %w", i+1, r.Description, o.Year, o.Month, err)
			}
			if _, err := svc.Overrides.SetMonthAmount(ctx, created.ID, o.Year, time.Month(o.Month), core.Cents(cents)); err != nil {
				return res, fmt.Errorf("rule %d (%s) override %d-%02d: %w", i+1, r.Description, o.Year, o.Month, err)
			}
			res.OverridesSet++
		}
	}

	slog.InfoContext(ctx, "Seed applied",
		"categories_created", res.CategoriesCreated,
		"categories_skipped", res.CategoriesSkipped,
		"rules_created", res.RulesCreated,
		"rules_skipped", res.RulesSkipped,
		"overrides", res.OverridesSet)
	return res, nil
}

// LoadAndApply is Load followed by Apply.
func LoadAndApply(ctx context.Context, svc *services.Services, path string, now time.Time) (Result, error) {
	f, err := Load(path)
	if err != nil {
		return Result{}, err
	}
	return Apply(ctx, svc, f, now)
}

func (r Rule) toCore(categories map[string]core.Category) (core.RecurringRule, error) {
	cents, err := core.ParseDecimalToCents(r.Amount)
	if err != nil {
		return core.RecurringRule{}, err
	}
	start, err := core.ParseDate(r.Start)
	if err != nil {
		return core.RecurringRule{}, core.NewValidationError("start", "must be YYYY-MM-DD")
	}
	var end core.Date
	if strings.TrimSpace(r.End) != "" {
		if end, err = core.ParseDate(r.End); err != nil {
			return core.RecurringRule{}, core.NewValidationError("end", "must be YYYY-MM-DD")
		}
	}
	var categoryID string
	if name := strings.TrimSpace(r.Category); name != "" {
		c, ok := categories[strings.ToLower(name)]
		if !ok {
			return core.RecurringRule{}, core.NewValidationError("category", fmt.Sprintf("unknown category %q", name))
		}
		categoryID = c.ID
	}
	return core.RecurringRule{
		Description:   strings.TrimSpace(r.Description),
		DefaultAmount: core.Cents(cents),
		DayOfMonth:    r.Day,
		StartDate:     start,
		EndDate:       end,
		Kind:          core.Kind(r.Kind),
		CategoryID:    categoryID,
	}, nil
}

func ruleKey(desc string, kind core.Kind, start core.Date) string {
	return strings.ToLower(strings.TrimSpace(desc)) + "|" + string(kind) + "|" + start.String()
}
