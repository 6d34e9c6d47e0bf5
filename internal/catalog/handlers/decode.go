package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"sort"

	"go.uber.org/multierr"

	"github.com/Ultrahd-dev/course-catalog-app/internal/apperr"
	"github.com/Ultrahd-dev/course-catalog-app/internal/catalog"
)

// courseFields lists the body keys of a new course in report order.
var courseFields = []string{"title", "duration", "fee", "description"}

// decodeCourseInput reads a new course from the request body. Each key is
// decoded on its own, so a value of the wrong type is reported against its
// field together with every other invalid field.
func decodeCourseInput(r *http.Request) (catalog.NewCourseInput, error) {
	var raw map[string]json.RawMessage
	if err := json.NewDecoder(r.Body).Decode(&raw); err != nil || raw == nil {
		return catalog.NewCourseInput{}, apperr.InvalidInput(apperr.Field("body", "must be a JSON object"))
	}

	var input catalog.NewCourseInput
	targets := map[string]interface{}{
		"title":       &input.Title,
		"duration":    &input.Duration,
		"fee":         &input.Fee,
		"description": &input.Description,
	}

	typeErrs := make(map[string]string)
	for name, value := range raw {
		target, known := targets[name]
		if !known {
			continue
		}
		if err := json.Unmarshal(value, target); err != nil {
			if name == "fee" {
				typeErrs[name] = "must be a positive number"
			} else {
				typeErrs[name] = "must be a string"
			}
		}
	}

	var unknown []string
	for name := range raw {
		if _, known := targets[name]; !known {
			unknown = append(unknown, name)
		}
	}
	sort.Strings(unknown)

	if len(typeErrs) == 0 && len(unknown) == 0 {
		return input, nil
	}

	// Merge with the domain checks so one response names every bad field.
	reasons := make(map[string]string)
	var invalid *apperr.Error
	if errors.As(input.Validate(), &invalid) {
		for _, f := range invalid.Fields {
			reasons[f.Field] = f.Reason
		}
	}
	for name, reason := range typeErrs {
		reasons[name] = reason
	}

	var errs error
	for _, name := range courseFields {
		if reason, ok := reasons[name]; ok {
			errs = multierr.Append(errs, apperr.Field(name, reason))
		}
	}
	for _, name := range unknown {
		errs = multierr.Append(errs, apperr.Field(name, "is not a course field"))
	}
	return catalog.NewCourseInput{}, apperr.InvalidInput(errs)
}
