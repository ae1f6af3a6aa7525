package validation

import (
	"fmt"
	"regexp"
	"slices"
	"sort"
	"strconv"
	"strings"
	"unicode/utf8"
)

// ── Types ────────────────────────────────────────────────────────────────────

// Errors holds validation errors per field.
// JSON output: {"errors": {"field": ["msg1", "msg2"]}}
type Errors struct {
	Bag map[string][]string `json:"errors"`
}

func (e *Errors) add(field, msg string) {
	if e.Bag == nil {
		e.Bag = make(map[string][]string)
	}
	e.Bag[field] = append(e.Bag[field], msg)
}

// Has returns true if there are any errors.
func (e *Errors) Has() bool { return len(e.Bag) > 0 }

// First returns the first error for a field.
func (e *Errors) First(field string) string {
	if msgs, ok := e.Bag[field]; ok && len(msgs) > 0 {
		return msgs[0]
	}
	return ""
}

// Error joins every message, fields in name order, so *Errors can travel as
// an error value.
func (e *Errors) Error() string {
	fields := make([]string, 0, len(e.Bag))
	for f := range e.Bag {
		fields = append(fields, f)
	}
	sort.Strings(fields)
	var msgs []string
	for _, f := range fields {
		msgs = append(msgs, e.Bag[f]...)
	}
	return strings.Join(msgs, " ")
}

// ── Validator ────────────────────────────────────────────────────────────────

// Rules is a map of field → pipe-separated rule string.
// e.g. Rules{"product": "required|alpha_dash", "quantity": "required|integer|between:1,99"}
type Rules map[string]string

// Validator validates a flat map of input values.
type Validator struct {
	data   map[string]string
	rules  Rules
	errors *Errors
	ran    bool
}

// Make creates a new Validator.
func Make(data map[string]string, rules Rules) *Validator {
	return &Validator{
		data:   data,
		rules:  rules,
		errors: &Errors{},
	}
}

// Fails runs validation and returns true if any rule fails.
func (v *Validator) Fails() bool {
	v.validate()
	return v.errors.Has()
}

// Passes runs validation and returns true if all rules pass.
func (v *Validator) Passes() bool { return !v.Fails() }

// Errors returns the validation error bag.
func (v *Validator) Errors() *Errors { return v.errors }

// Validate returns the error bag as an error, or nil when every rule passes.
func (v *Validator) Validate() error {
	if v.Fails() {
		return v.errors
	}
	return nil
}

// ── Core validation loop ─────────────────────────────────────────────────────

// check reports whether value passes; a non-empty message means it failed.
type check func(field, value, param string) string

var checks = map[string]check{
	"required": func(field, value, _ string) string {
		if strings.TrimSpace(value) == "" {
			return fmt.Sprintf("The %s field is required.", field)
		}
		return ""
	},
	"numeric": func(field, value, _ string) string {
		if _, err := strconv.ParseFloat(value, 64); err != nil {
			return fmt.Sprintf("The %s must be a number.", field)
		}
		return ""
	},
	"integer": func(field, value, _ string) string {
		if _, err := strconv.Atoi(value); err != nil {
			return fmt.Sprintf("The %s must be an integer.", field)
		}
		return ""
	},
	"min": func(field, value, param string) string {
		n, _ := strconv.Atoi(param)
		if utf8.RuneCountInString(value) < n {
			return fmt.Sprintf("The %s must be at least %d characters.", field, n)
		}
		return ""
	},
	"max": func(field, value, param string) string {
		n, _ := strconv.Atoi(param)
		if utf8.RuneCountInString(value) > n {
			return fmt.Sprintf("The %s may not be greater than %d characters.", field, n)
		}
		return ""
	},
	"between": func(field, value, param string) string {
		lo, hi, ok := strings.Cut(param, ",")
		if !ok {
			return ""
		}
		min, _ := strconv.ParseFloat(strings.TrimSpace(lo), 64)
		max, _ := strconv.ParseFloat(strings.TrimSpace(hi), 64)
		f, err := strconv.ParseFloat(value, 64)
		if err != nil || f < min || f > max {
			return fmt.Sprintf("The %s must be between %s and %s.", field, strings.TrimSpace(lo), strings.TrimSpace(hi))
		}
		return ""
	},
	"in": func(field, value, param string) string {
		if !slices.Contains(splitList(param), value) {
			return fmt.Sprintf("The selected %s is invalid.", field)
		}
		return ""
	},
	"alpha_dash": func(field, value, _ string) string {
		if !alphaDash.MatchString(value) {
			return fmt.Sprintf("The %s may only contain letters, numbers, dashes and underscores.", field)
		}
		return ""
	},
	"uuid": func(field, value, _ string) string {
		if !uuidPattern.MatchString(value) {
			return fmt.Sprintf("The %s must be a valid UUID.", field)
		}
		return ""
	},
	"gte": compare(func(f, t float64) bool { return f >= t }, "greater than or equal to"),
	"lte": compare(func(f, t float64) bool { return f <= t }, "less than or equal to"),
}

var (
	alphaDash   = regexp.MustCompile(`^[a-zA-Z0-9_-]+$`)
	uuidPattern = regexp.MustCompile(`^[0-9a-fA-F]{8}-[0-9a-fA-F]{4}-[0-9a-fA-F]{4}-[0-9a-fA-F]{4}-[0-9a-fA-F]{12}$`)
)

func compare(ok func(f, t float64) bool, phrase string) check {
	return func(field, value, param string) string {
		f, err := strconv.ParseFloat(value, 64)
		t, _ := strconv.ParseFloat(param, 64)
		if err != nil || !ok(f, t) {
			return fmt.Sprintf("The %s must be %s %s.", field, phrase, param)
		}
		return ""
	}
}

func splitList(param string) []string {
	parts := strings.Split(param, ",")
	for i := range parts {
		parts[i] = strings.TrimSpace(parts[i])
	}
	return parts
}

func (v *Validator) validate() {
	if v.ran {
		return
	}
	v.ran = true

fields:
	for field, ruleStr := range v.rules {
		value := v.data[field]
		for _, rule := range strings.Split(ruleStr, "|") {
			rule = strings.TrimSpace(rule)
			if rule == "" {
				continue
			}

			// min:3 → name=min, param=3
			name, param, _ := strings.Cut(rule, ":")

			switch name {
			case "nullable", "sometimes":
				if value == "" {
					continue fields
				}
				continue
			}

			c, ok := checks[name]
			if !ok {
				continue
			}
			if msg := c(field, value, param); msg != "" {
				v.errors.add(field, msg)
				continue fields // stop on first failure
			}
		}
	}
}
