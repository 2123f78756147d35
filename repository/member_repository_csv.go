package repository

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"strconv"
	"strings"

	"smartsacco/domain"
)

var memberColumns = []string{
	"member_id",
	"first_name",
	"last_name",
	"email",
	"total_savings",
	"credit_score",
	"guarantor_count",
	"guarantor_avg_credit_score",
	"has_defaulted_before",
}

// CSVMemberRepository serves members from a CSV export loaded once at
// startup. It is read-only and safe for concurrent use.
type CSVMemberRepository struct {
	members []domain.Member
	byID    map[string]int
}

// NewCSVMemberRepository loads path. Any unreadable or malformed row fails
// the whole load.
func NewCSVMemberRepository(path string) (*CSVMemberRepository, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open member data: %w", err)
	}
	defer f.Close()
	return LoadMembersCSV(f)
}

func LoadMembersCSV(r io.Reader) (*CSVMemberRepository, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("read member data header: %w", err)
	}
	cols := make(map[string]int, len(header))
	for i, name := range header {
		cols[strings.TrimSpace(strings.TrimPrefix(name, "\ufeff"))] = i
	}
	for _, name := range memberColumns {
		if _, ok := cols[name]; !ok {
			return nil, fmt.Errorf("member data is missing column %q", name)
		}
	}

	repo := &CSVMemberRepository{byID: make(map[string]int)}
	for line := 2; ; line++ {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read member data line %d: %w", line, err)
		}
		m, err := parseMember(record, cols)
		if err != nil {
			return nil, fmt.Errorf("member data line %d: %w", line, err)
		}
		if _, dup := repo.byID[m.ID]; dup {
			return nil, fmt.Errorf("member data line %d: duplicate member_id %q", line, m.ID)
		}
		repo.byID[m.ID] = len(repo.members)
		repo.members = append(repo.members, m)
	}
	return repo, nil
}

func parseMember(record []string, cols map[string]int) (domain.Member, error) {
	get := func(name string) string {
		return strings.TrimSpace(record[cols[name]])
	}

	m := domain.Member{
		ID:        get("member_id"),
		FirstName: get("first_name"),
		LastName:  get("last_name"),
		Email:     get("email"),
	}
	if m.ID == "" {
		return domain.Member{}, domain.ValidationError{Field: "member_id", Reason: "is required"}
	}

	var err error
	if m.Snapshot.TotalSavings, err = parseDecimal("total_savings", get("total_savings")); err != nil {
		return domain.Member{}, err
	}
	if m.Snapshot.CreditScore, err = parseWhole("credit_score", get("credit_score")); err != nil {
		return domain.Member{}, err
	}
	if m.Snapshot.GuarantorCount, err = parseWhole("guarantor_count", get("guarantor_count")); err != nil {
		return domain.Member{}, err
	}
	// An empty average is recorded by the export when there are no guarantors.
	if raw := get("guarantor_avg_credit_score"); raw != "" || m.Snapshot.GuarantorCount > 0 {
		if m.Snapshot.GuarantorAvgCreditScore, err = parseWhole("guarantor_avg_credit_score", raw); err != nil {
			return domain.Member{}, err
		}
	}
	if m.Snapshot.HasDefaultedBefore, err = parseFlag("has_defaulted_before", get("has_defaulted_before")); err != nil {
		return domain.Member{}, err
	}

	if err := domain.ValidateSnapshot(m.Snapshot); err != nil {
		return domain.Member{}, err
	}
	return m, nil
}

func parseDecimal(field, raw string) (float64, error) {
	v, err := strconv.ParseFloat(strings.ReplaceAll(raw, ",", ""), 64)
	if err != nil {
		return 0, domain.ValidationError{Field: field, Reason: fmt.Sprintf("%q is not a number", raw)}
	}
	return v, nil
}

// parseWhole accepts integers written as floats ("650.0") by spreadsheet exports.
func parseWhole(field, raw string) (int, error) {
	v, err := parseDecimal(field, raw)
	if err != nil {
		return 0, err
	}
	if math.IsNaN(v) || math.IsInf(v, 0) || v != math.Trunc(v) {
		return 0, domain.ValidationError{Field: field, Reason: fmt.Sprintf("%q is not a whole number", raw)}
	}
	return int(v), nil
}

func parseFlag(field, raw string) (bool, error) {
	switch strings.ToLower(raw) {
	case "yes", "y":
		return true, nil
	case "no", "n", "":
		return false, nil
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		n, nerr := strconv.ParseFloat(raw, 64)
		if nerr != nil {
			return false, domain.ValidationError{Field: field, Reason: fmt.Sprintf("%q is not a boolean", raw)}
		}
		return n != 0, nil
	}
	return v, nil
}

func (r *CSVMemberRepository) FindByID(_ context.Context, id string) (domain.Member, error) {
	i, ok := r.byID[strings.TrimSpace(id)]
	if !ok {
		return domain.Member{}, memberNotFound(id)
	}
	return r.members[i], nil
}

// Search returns matches in file order.
func (r *CSVMemberRepository) Search(_ context.Context, query string) ([]domain.Member, error) {
	q, err := normalizeQuery(query)
	if err != nil {
		return nil, err
	}
	out := []domain.Member{}
	for _, m := range r.members {
		if matchesMember(m, q) {
			out = append(out, m)
		}
	}
	return out, nil
}

// Len reports how many members were loaded.
func (r *CSVMemberRepository) Len() int {
	return len(r.members)
}
