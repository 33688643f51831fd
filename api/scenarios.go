/*
scenarios.go - Demo scenario loaders for testing and demonstrations

PURPOSE:
  Provides pre-built scenarios that populate the database with employees
  and timesheets, ready for a pay-run. Scenarios are YAML documents: the
  built-in ones are embedded from scenarios/, and the server can seed from
  any file with the same shape (SEED_FILE / -seed).

AVAILABLE SCENARIOS:
  reference-week:         Alice (37h, allowances) and Bob (45h, overtime)
  overlapping-timesheets: Carol with two timesheets overlapping one week

HOW SCENARIOS WORK:
  1. Parse and validate the YAML (same rules as the HTTP endpoints, and
     every timesheet must belong to one of the scenario's employees)
  2. In one transaction: reset database, create employees, submit timesheets

USAGE VIA API:
  POST /api/scenarios/load
  {"name": "reference-week"}

ADDING NEW SCENARIOS:
  Drop a .yaml file into api/scenarios/. Its "name" field is the ID.

NOTE:
  Scenarios reset the database. Only use in development/demo environments.

SEE ALSO:
  - handlers.go: Handler and error helpers
  - validation.go: Rules every scenario must pass
*/
package api

import (
	"context"
	"embed"
	"encoding/json"
	"fmt"
	"io/fs"
	"net/http"
	"os"
	"sort"

	"github.com/shopspring/decimal"
	"github.com/warp/payroll-engine/store/sqlite"
	"gopkg.in/yaml.v3"
)

//go:embed scenarios/*.yaml
var scenarioFiles embed.FS

// =============================================================================
// SCENARIO DEFINITIONS
// =============================================================================

// Scenario is a set of employees and timesheets loaded as one unit.
type Scenario struct {
	Name        string              `yaml:"name"`
	Description string              `yaml:"description"`
	Employees   []scenarioEmployee  `yaml:"employees"`
	Timesheets  []scenarioTimesheet `yaml:"timesheets"`
}

type scenarioEmployee struct {
	ID             string `yaml:"id"`
	FirstName      string `yaml:"first_name"`
	LastName       string `yaml:"last_name"`
	Type           string `yaml:"type"`
	BaseHourlyRate string `yaml:"base_hourly_rate"`
	SuperRate      string `yaml:"super_rate"`
	Bank           struct {
		BSB     string `yaml:"bsb"`
		Account string `yaml:"account"`
	} `yaml:"bank"`
}

type scenarioTimesheet struct {
	EmployeeID  string `yaml:"employee_id"`
	PeriodStart string `yaml:"period_start"`
	PeriodEnd   string `yaml:"period_end"`
	Allowances  string `yaml:"allowances"`
	Entries     []struct {
		Date            string `yaml:"date"`
		Start           string `yaml:"start"`
		End             string `yaml:"end"`
		UnpaidBreakMins int    `yaml:"unpaid_break_mins"`
	} `yaml:"entries"`
}

// ParseScenario decodes a YAML scenario document.
func ParseScenario(data []byte) (*Scenario, error) {
	var sc Scenario
	if err := yaml.Unmarshal(data, &sc); err != nil {
		return nil, fmt.Errorf("scenario: parse yaml: %w", err)
	}
	if sc.Name == "" {
		return nil, fmt.Errorf("scenario: name must be set")
	}
	return &sc, nil
}

// LoadScenarioFile reads a scenario from disk.
func LoadScenarioFile(path string) (*Scenario, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("scenario: read file %s: %w", path, err)
	}
	return ParseScenario(b)
}

// BuiltinScenarios returns the embedded scenarios ordered by name.
func BuiltinScenarios() ([]*Scenario, error) {
	paths, err := fs.Glob(scenarioFiles, "scenarios/*.yaml")
	if err != nil {
		return nil, err
	}

	var out []*Scenario
	for _, p := range paths {
		b, err := scenarioFiles.ReadFile(p)
		if err != nil {
			return nil, err
		}
		sc, err := ParseScenario(b)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", p, err)
		}
		out = append(out, sc)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (sc *Scenario) dto() ScenarioDTO {
	return ScenarioDTO{
		Name:        sc.Name,
		Description: sc.Description,
		Employees:   len(sc.Employees),
		Timesheets:  len(sc.Timesheets),
	}
}

// build validates every record with the HTTP rules before anything is
// written.
func (sc *Scenario) build() ([]sqlite.Employee, []sqlite.Timesheet, error) {
	employees := make([]sqlite.Employee, 0, len(sc.Employees))
	known := make(map[string]bool, len(sc.Employees))
	for i, e := range sc.Employees {
		req := CreateEmployeeRequest{
			ID:        e.ID,
			FirstName: e.FirstName,
			LastName:  e.LastName,
			Type:      e.Type,
			Bank:      BankDTO{BSB: e.Bank.BSB, Account: e.Bank.Account},
		}
		if e.BaseHourlyRate != "" {
			d, err := decimal.NewFromString(e.BaseHourlyRate)
			if err != nil {
				return nil, nil, fmt.Errorf("employees[%d].base_hourly_rate: %w", i, err)
			}
			req.BaseHourlyRate = &Money{Decimal: d}
		}
		if e.SuperRate != "" {
			d, err := decimal.NewFromString(e.SuperRate)
			if err != nil {
				return nil, nil, fmt.Errorf("employees[%d].super_rate: %w", i, err)
			}
			req.SuperRate = &Rate{Decimal: d}
		}

		emp, err := parseEmployee(req)
		if err != nil {
			return nil, nil, fmt.Errorf("employees[%d]: %w", i, err)
		}
		employees = append(employees, emp)
		known[emp.ID] = true
	}

	timesheets := make([]sqlite.Timesheet, 0, len(sc.Timesheets))
	for i, t := range sc.Timesheets {
		req := TimesheetRequest{
			EmployeeID:  t.EmployeeID,
			PeriodStart: t.PeriodStart,
			PeriodEnd:   t.PeriodEnd,
		}
		if t.Allowances != "" {
			d, err := decimal.NewFromString(t.Allowances)
			if err != nil {
				return nil, nil, fmt.Errorf("timesheets[%d].allowances: %w", i, err)
			}
			req.Allowances = &Money{Decimal: d}
		}
		for _, e := range t.Entries {
			req.Entries = append(req.Entries, TimesheetEntryDTO{
				Date:            e.Date,
				Start:           e.Start,
				End:             e.End,
				UnpaidBreakMins: e.UnpaidBreakMins,
			})
		}

		ts, err := parseTimesheet(req)
		if err != nil {
			return nil, nil, fmt.Errorf("timesheets[%d]: %w", i, err)
		}
		if !known[ts.EmployeeID] {
			verr := &ValidationError{}
			verr.add(fmt.Sprintf("timesheets[%d].employee_id", i), "%q is not an employee of this scenario", ts.EmployeeID)
			return nil, nil, verr
		}
		timesheets = append(timesheets, ts)
	}
	return employees, timesheets, nil
}

// ApplyScenario replaces the store contents with sc. The document is
// validated first, and the reset and inserts share one transaction, so a
// failed load leaves the previous data in place.
func ApplyScenario(ctx context.Context, store *sqlite.Store, sc *Scenario) error {
	employees, timesheets, err := sc.build()
	if err != nil {
		return err
	}
	return store.ReplaceAll(ctx, employees, timesheets)
}

// =============================================================================
// HANDLERS
// =============================================================================

// ListScenarios returns available scenarios.
func (h *Handler) ListScenarios(w http.ResponseWriter, r *http.Request) {
	scenarios, err := BuiltinScenarios()
	if err != nil {
		h.writeInternalError(w, r, "Failed to read scenarios", err)
		return
	}

	dtos := make([]ScenarioDTO, len(scenarios))
	for i, sc := range scenarios {
		dtos[i] = sc.dto()
	}
	writeJSON(w, http.StatusOK, dtos)
}

// GetCurrentScenario returns the currently loaded scenario, if any.
func (h *Handler) GetCurrentScenario(w http.ResponseWriter, r *http.Request) {
	h.mu.Lock()
	current := h.currentScenario
	h.mu.Unlock()

	if current == nil {
		writeJSON(w, http.StatusOK, nil)
		return
	}
	writeJSON(w, http.StatusOK, current.dto())
}

// LoadScenario loads a built-in scenario by name.
func (h *Handler) LoadScenario(w http.ResponseWriter, r *http.Request) {
	var req LoadScenarioRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	scenarios, err := BuiltinScenarios()
	if err != nil {
		h.writeInternalError(w, r, "Failed to read scenarios", err)
		return
	}

	var sc *Scenario
	for _, s := range scenarios {
		if s.Name == req.Name {
			sc = s
			break
		}
	}
	if sc == nil {
		writeError(w, http.StatusBadRequest, "Unknown scenario", fmt.Errorf("no scenario named %q", req.Name))
		return
	}

	if err := h.applyScenario(r.Context(), sc); err != nil {
		h.handleError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"status": "loaded", "scenario": sc.Name})
}

// ResetDatabase clears all data.
func (h *Handler) ResetDatabase(w http.ResponseWriter, r *http.Request) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if err := h.Store.Reset(r.Context()); err != nil {
		h.writeInternalError(w, r, "Failed to reset database", err)
		return
	}
	h.currentScenario = nil
	writeJSON(w, http.StatusOK, map[string]string{"status": "reset"})
}

// applyScenario loads sc and remembers it as the current scenario. A failed
// load keeps the previous one.
func (h *Handler) applyScenario(ctx context.Context, sc *Scenario) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	if err := ApplyScenario(ctx, h.Store, sc); err != nil {
		return err
	}
	h.currentScenario = sc
	h.Logger.Info("scenario loaded",
		"scenario", sc.Name,
		"employees", len(sc.Employees),
		"timesheets", len(sc.Timesheets),
	)
	return nil
}
