package config

import (
	"fmt"
	"strings"
)

type Validation struct {
	Errors   []string `json:"errors"`
	Warnings []string `json:"warnings"`
}

func (v *Validation) addErr(format string, args ...any) {
	v.Errors = append(v.Errors, fmt.Sprintf(format, args...))
}
func (v *Validation) addWarn(format string, args ...any) {
	v.Warnings = append(v.Warnings, fmt.Sprintf(format, args...))
}
func (v Validation) OK() bool { return len(v.Errors) == 0 }

// NormalizeAndValidate returns a copy with trimmed, de-duplicated term and
// keyword lists, plus the validation outcome.
func NormalizeAndValidate(cfg Config) (Config, Validation) {
	var out = cfg
	var res Validation

	trimList := func(xs []string) []string {
		seen := map[string]bool{}
		var ys []string
		for _, x := range xs {
			x = strings.TrimSpace(x)
			if x == "" {
				continue
			}
			key := strings.ToLower(x)
			if seen[key] {
				continue
			}
			seen[key] = true
			ys = append(ys, x)
		}
		return ys
	}

	out.Categories = make([]Category, len(cfg.Categories))
	for i, c := range cfg.Categories {
		c.Name = strings.TrimSpace(c.Name)
		c.Terms = trimList(c.Terms)
		c.HebrewTerms = trimList(c.HebrewTerms)
		out.Categories[i] = c
	}
	out.Filter.NegativeKeywords = trimList(out.Filter.NegativeKeywords)
	out.Filter.PositiveKeywords = trimList(out.Filter.PositiveKeywords)
	out.Email.SMTP.Recipients = trimList(out.Email.SMTP.Recipients)

	if err := Validate(out); err != nil {
		for _, line := range strings.Split(err.Error(), "\n- ")[1:] {
			res.addErr("%s", line)
		}
	}

	if len(out.EnabledPlatforms()) == 0 {
		res.addWarn("no platforms enabled; runs will find nothing")
	}
	if len(out.Categories) == 0 {
		res.addWarn("no categories configured; runs will find nothing")
	}
	if out.Poll.TermDelay > 0 && out.Poll.TermDelay.Seconds() < 1 {
		res.addWarn("poll.term_delay is very low (%s) and may trigger rate limits", out.Poll.TermDelay)
	}
	if len(out.Schedule.Daily) == 0 && out.Schedule.Interval == 0 {
		res.addWarn("no schedule configured; runs only happen when triggered manually")
	}
	if !out.Email.Enabled && !out.Telegram.Enabled {
		res.addWarn("no notifier enabled; digests are only logged")
	}

	for _, p := range out.EnabledPlatforms() {
		if !p.HebrewTerms {
			continue
		}
		missing := 0
		for _, c := range out.Categories {
			if len(c.HebrewTerms) == 0 {
				missing++
			}
		}
		if missing > 0 {
			res.addWarn("platform %q searches Hebrew terms but %d categories have none and will be skipped", p.Name, missing)
		}
	}

	// keyword that is both required and forbidden can never match
	negSet := map[string]bool{}
	for _, n := range out.Filter.NegativeKeywords {
		negSet[strings.ToLower(n)] = true
	}
	for _, p := range out.Filter.PositiveKeywords {
		if negSet[strings.ToLower(p)] {
			res.addWarn("keyword appears in both positive and negative lists: %q", p)
		}
	}

	return out, res
}
