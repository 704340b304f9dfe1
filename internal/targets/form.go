package targets

import (
	"errors"
	"fmt"
	"net/url"
	"sort"
	"strconv"
	"strings"
)

const (
	categoryField = "sel_"
	surnameField  = "surname_"
	target1Field  = "target1_"
	target2Field  = "target2_"
)

type FormResult struct {
	Applied int `json:"applied"`
	Skipped int `json:"skipped"`
}

// ApplyForm resets the store to branchIDs and applies every target row of
// the submitted form. Field suffixes are "<branch>_<n>" with n starting at
// 1. Rows with a missing or non-numeric target are skipped; the remaining
// rows are still applied and their errors joined.
func ApplyForm(store *Store, form url.Values, branchIDs []string) (FormResult, error) {
	store.Reset(branchIDs)

	keys := make([]string, 0, len(form))
	for key := range form {
		if strings.HasPrefix(key, categoryField) {
			keys = append(keys, key)
		}
	}
	sort.Strings(keys)

	var (
		result FormResult
		errs   []error
	)
	for _, key := range keys {
		suffix := strings.TrimPrefix(key, categoryField)
		branchID, n, ok := splitSuffix(suffix)
		if !ok {
			result.Skipped++
			continue
		}

		target1, ok1 := parseTarget(form.Get(target1Field + suffix))
		target2, ok2 := parseTarget(form.Get(target2Field + suffix))
		if !ok1 || !ok2 {
			result.Skipped++
			continue
		}

		err := store.SetDishTarget(branchID, n-1, form.Get(key), &target1, &target2, form.Get(surnameField+suffix))
		if err != nil {
			result.Skipped++
			errs = append(errs, fmt.Errorf("%s: %w", key, err))
			continue
		}
		result.Applied++
	}

	return result, errors.Join(errs...)
}

// splitSuffix splits "<branch>_<n>" on the last underscore so branch ids may
// contain underscores themselves.
func splitSuffix(suffix string) (string, int, bool) {
	idx := strings.LastIndex(suffix, "_")
	if idx <= 0 || idx == len(suffix)-1 {
		return "", 0, false
	}
	n, err := strconv.Atoi(suffix[idx+1:])
	if err != nil || n < 1 {
		return "", 0, false
	}
	return suffix[:idx], n, true
}

// parseTarget treats a comma as the decimal separator, as staff type it:
// "12,5" is 12.5 and "1,000" is 1. Mixed or repeated separators such as
// "1,000.5" or "1,000,000" are rejected.
func parseTarget(raw string) (float64, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0, false
	}
	if commas := strings.Count(raw, ","); commas > 1 || (commas == 1 && strings.Contains(raw, ".")) {
		return 0, false
	}
	raw = strings.Replace(raw, ",", ".", 1)
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, false
	}
	return v, validTarget(&v)
}
