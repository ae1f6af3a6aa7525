// Package validation checks flat string input against pipe-separated rules.
//
// # Basic Usage
//
//	v := validation.Make(map[string]string{
//	    "product":  "espresso-beans",
//	    "quantity": "2",
//	}, validation.Rules{
//	    "product":  "required|alpha_dash|max:64",
//	    "quantity": "required|integer|between:1,99",
//	})
//
//	if err := v.Validate(); err != nil {
//	    // err is *Errors; JSON: {"errors": {"field": ["message"]}}
//	}
//
// # Available Rules
//
//	required         field must be present and non-empty
//	min:n            at least n UTF-8 characters
//	max:n            at most n UTF-8 characters
//	alpha_dash       letters, numbers, dashes and underscores
//	uuid             canonical textual UUID
//	numeric          parseable as float64
//	integer          parseable as int
//	between:min,max  numeric value within [min, max]
//	gte:n            numeric value >= n
//	lte:n            numeric value <= n
//	in:a,b,c         one of the listed values
//	nullable         skip the remaining rules when empty
//	sometimes        same as nullable
//
// Unknown rule names are ignored. Each field stops at its first failure.
package validation
