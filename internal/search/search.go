package search

import (
	"context"
	"sort"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"

	"github.com/rcliao/madlab/internal/domain"
)

// TaskLister is the part of the repository the searcher needs.
type TaskLister interface {
	ListTasks(ctx context.Context, filter domain.TaskFilter) ([]domain.Task, error)
}

type Options struct {
	Filter domain.TaskFilter
	Lang   domain.Lang
	Limit  int
	Offset int
}

type Result struct {
	Task      domain.Task `json:"task"`
	Score     float64     `json:"score"`
	MatchType string      `json:"matchType"`
	Snippet   string      `json:"snippet"`
}

// Searcher ranks tasks by keyword matches over both languages of the name,
// the section, the assignee, the id and the dependency list. Matching
// ignores case and accents.
type Searcher struct {
	tasks TaskLister
}

func NewSearcher(tasks TaskLister) *Searcher {
	return &Searcher{tasks: tasks}
}

func (s *Searcher) Search(ctx context.Context, query string, opts Options) ([]Result, error) {
	tasks, err := s.tasks.ListTasks(ctx, opts.Filter)
	if err != nil {
		return nil, err
	}

	q := fold(strings.TrimSpace(query))
	if q == "" {
		return []Result{}, nil
	}

	var results []Result
	for _, task := range tasks {
		if score := keywordScore(task, q); score > 0 {
			results = append(results, Result{
				Task:      task,
				Score:     score,
				MatchType: "keyword",
				Snippet:   highlight(task.Name.In(opts.Lang), query),
			})
		}
		if score := fieldScore(task, q); score > 0 {
			results = append(results, Result{
				Task:      task,
				Score:     score,
				MatchType: "field",
				Snippet:   fieldSnippet(task, q, query),
			})
		}
		if score := structuralScore(task, q); score > 0 {
			results = append(results, Result{
				Task:      task,
				Score:     score,
				MatchType: "structural",
				Snippet:   structuralSnippet(task, q),
			})
		}
	}

	merged := mergeAndRank(results)

	if opts.Limit > 0 {
		end := opts.Offset + opts.Limit
		if end > len(merged) {
			end = len(merged)
		}
		if opts.Offset < len(merged) {
			merged = merged[opts.Offset:end]
		} else {
			merged = []Result{}
		}
	}

	return merged, nil
}

func keywordScore(task domain.Task, q string) float64 {
	score := 0.0
	for _, name := range []string{task.Name.ES, task.Name.EN} {
		n := fold(name)
		if n == "" || !strings.Contains(n, q) {
			continue
		}
		score += 10.0
		if n == q {
			score += 5.0
		}
	}
	return score
}

func fieldScore(task domain.Task, q string) float64 {
	score := 0.0
	if strings.Contains(fold(task.Section), q) {
		score += 5.0
	}
	if strings.Contains(fold(task.Assignee), q) {
		score += 4.0
	}
	return score
}

func structuralScore(task domain.Task, q string) float64 {
	score := 0.0
	id := fold(task.ID)
	if id == q {
		score += 15.0
	} else if strings.Contains(id, q) {
		score += 3.0
	}
	for _, dep := range task.Dependencies {
		if fold(dep) == q {
			score += 6.0
		}
	}
	return score
}

func fieldSnippet(task domain.Task, q, query string) string {
	if strings.Contains(fold(task.Section), q) {
		return "Section: " + highlight(task.Section, query)
	}
	return "Assignee: " + highlight(task.Assignee, query)
}

func structuralSnippet(task domain.Task, q string) string {
	for _, dep := range task.Dependencies {
		if fold(dep) == q {
			return "Dependency: " + dep
		}
	}
	return "ID: " + task.ID
}

// highlight wraps the first case-insensitive occurrence of query in text.
// Matches found only after accent folding are left unmarked.
func highlight(text, query string) string {
	query = strings.TrimSpace(query)
	index := strings.Index(strings.ToLower(text), strings.ToLower(query))
	if index == -1 || query == "" {
		return text
	}
	end := index + len(query)
	if end > len(text) {
		return text
	}
	return text[:index] + "**" + text[index:end] + "**" + text[end:]
}

func mergeAndRank(results []Result) []Result {
	byID := make(map[string]*Result)
	best := make(map[string]float64)
	var order []string

	for _, r := range results {
		existing, ok := byID[r.Task.ID]
		if !ok {
			byID[r.Task.ID] = &r
			best[r.Task.ID] = r.Score
			order = append(order, r.Task.ID)
			continue
		}
		existing.Score += r.Score
		if r.Score > best[r.Task.ID] {
			best[r.Task.ID] = r.Score
			existing.MatchType = r.MatchType
			existing.Snippet = r.Snippet
		}
	}

	merged := make([]Result, 0, len(order))
	for _, id := range order {
		merged = append(merged, *byID[id])
	}
	sort.SliceStable(merged, func(i, j int) bool {
		if merged[i].Score != merged[j].Score {
			return merged[i].Score > merged[j].Score
		}
		return merged[i].Task.ID < merged[j].Task.ID
	})
	return merged
}

// fold lowercases s and strips diacritics so "diseno" matches "Diseño".
func fold(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	out, _, err := transform.String(t, strings.ToLower(s))
	if err != nil {
		return strings.ToLower(s)
	}
	return out
}
