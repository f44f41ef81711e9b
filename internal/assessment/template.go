// Package assessment runs the assessment engine: template instantiation on
// acknowledgment, task progression, and the eager cost rollup.
package assessment

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"sync"

	"github.com/Rhymond/go-money"

	"caseflow/pkg/domain"
	"caseflow/pkg/platform/sentinel"
)

// StageTemplate describes one stage of a template set.
type StageTemplate struct {
	Sequence            int    `json:"sequence"`
	Name                string `json:"name"`
	RequiredForDecision bool   `json:"requiredForDecision"`
}

// TaskTemplate describes one task row. Role picks the hourly rate when the
// task is instantiated.
type TaskTemplate struct {
	Code           string      `json:"code"`
	Name           string      `json:"name"`
	StageSequence  int         `json:"stageSequence"`
	Role           domain.Role `json:"role"`
	EstimatedHours float64     `json:"estimatedHours"`
}

// TemplateSet is the stage/task blueprint for one (requestType, council)
// pair.
type TemplateSet struct {
	ID     string          `json:"id"`
	Stages []StageTemplate `json:"stages"`
	Tasks  []TaskTemplate  `json:"tasks"`
}

// BudgetedHours sums the estimated hours across all task rows.
func (t *TemplateSet) BudgetedHours() float64 {
	var total float64
	for _, task := range t.Tasks {
		total += task.EstimatedHours
	}
	return total
}

// TemplateStore resolves the template set for a request. A missing template
// is an operator configuration error, reported as sentinel.ErrNotFound and
// never silently skipped.
type TemplateStore interface {
	Resolve(ctx context.Context, requestType domain.RequestType, council domain.Council) (*TemplateSet, error)
}

// MemoryTemplateStore holds template sets registered at startup.
type MemoryTemplateStore struct {
	mu        sync.RWMutex
	templates map[string]*TemplateSet
}

func NewMemoryTemplateStore() *MemoryTemplateStore {
	return &MemoryTemplateStore{templates: make(map[string]*TemplateSet)}
}

// Register installs a template set for the (requestType, council) pair.
func (s *MemoryTemplateStore) Register(requestType domain.RequestType, council domain.Council, set *TemplateSet) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.templates[templateKey(requestType, council)] = set
}

func (s *MemoryTemplateStore) Resolve(_ context.Context, requestType domain.RequestType, council domain.Council) (*TemplateSet, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	set, ok := s.templates[templateKey(requestType, council)]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	return set, nil
}

func templateKey(requestType domain.RequestType, council domain.Council) string {
	return fmt.Sprintf("%s/%s", requestType, council)
}

// TemplateFileEntry is one binding in a template configuration file.
type TemplateFileEntry struct {
	RequestType domain.RequestType `json:"requestType"`
	Council     domain.Council     `json:"council"`
	Template    TemplateSet        `json:"template"`
}

// LoadTemplateFile reads template bindings from a JSON file and registers
// them on the store.
func LoadTemplateFile(path string, store *MemoryTemplateStore) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read template file: %w", err)
	}
	var entries []TemplateFileEntry
	if err := json.Unmarshal(data, &entries); err != nil {
		return fmt.Errorf("parse template file: %w", err)
	}
	for _, entry := range entries {
		set := entry.Template
		store.Register(entry.RequestType, entry.Council, &set)
	}
	return nil
}

// RateCard resolves the hourly rate charged for work done by a role.
type RateCard struct {
	rates    map[domain.Role]int64
	currency string
}

// NewRateCard builds a rate card from minor-unit amounts.
func NewRateCard(rates map[domain.Role]int64, currency string) RateCard {
	return RateCard{rates: rates, currency: currency}
}

// RateFor returns the hourly rate for a role, falling back to the staff rate
// for roles without an explicit entry.
func (r RateCard) RateFor(role domain.Role) *money.Money {
	amount, ok := r.rates[role]
	if !ok {
		amount = r.rates[domain.RoleStaff]
	}
	return money.New(amount, r.currency)
}

// Currency returns the rate card's currency code.
func (r RateCard) Currency() string { return r.currency }
