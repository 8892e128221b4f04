package ocean

// Report is the outcome of a depth grid sanity check.
type Report struct {
	Valid    bool     `json:"valid"`
	Errors   []string `json:"errors,omitempty"`
	Warnings []string `json:"warnings,omitempty"`
}

// Validate checks that a field is surfable: it needs dry land to start from,
// shallow water for waves to break in, and ideally deep water for them to form.
func Validate(d *DepthField) Report {
	var hasDry, hasShallow, hasDeep bool

	for r := 0; r < d.rows; r++ {
		for c := 0; c < d.cols; c++ {
			v := d.grid.At(r, c)
			switch {
			case v == 0:
				hasDry = true
			case v < 2.0:
				hasShallow = true
			case v > 5.0:
				hasDeep = true
			}
		}
	}

	rep := Report{Valid: true}
	if !hasDry {
		rep.Errors = append(rep.Errors, "no dry cells: the surfer needs a beach to start from")
		rep.Valid = false
	}
	if !hasShallow {
		rep.Warnings = append(rep.Warnings, "no shallow water (< 2m): waves will not break properly")
	}
	if !hasDeep {
		rep.Warnings = append(rep.Warnings, "no deep water (> 5m): limited wave formation")
	}
	if !hasDry && !hasShallow {
		rep.Errors = append(rep.Errors, "too deep everywhere: need beach or shallow water")
	}
	return rep
}
