// Package classify maps job and slot records to the dotted metric names they
// contribute to.
package classify

import (
	"regexp"
	"sort"
	"strings"

	"poolmon/internal/pkg/model"
)

const (
	Unknown = "unknown"

	// DefaultAccountingGroup is assumed for jobs that carry no accounting group.
	DefaultAccountingGroup = "group_unknown"

	// FacilitySite is the matched site reported for jobs running on the
	// generic facility; the job's resource name is more specific there.
	FacilitySite = "FNAL"

	// ImpossibleUsageModel labels idle jobs that desire no usage model at all.
	ImpossibleUsageModel = "impossible"
)

var groupToken = regexp.MustCompile(`(?:group_)?(\w+)`)

// JobClass is the classification of one job record.
type JobClass struct {
	Experiment string
	User       string
	Subgroups  []string
	// Suffixes are the status specific counter suffixes, e.g. ".idle.totals".
	Suffixes []string
	// Metrics are the fully expanded metric name prefixes.
	Metrics []string
}

// Job classifies a job record. It never fails: missing or malformed
// attributes resolve to "unknown" placeholders.
func Job(r model.Record) JobClass {
	user := r.StringOr(model.AttrOwner, Unknown)
	if user == "" {
		user = Unknown
	}
	group := r.StringOr(model.AttrAccountingGroup, DefaultAccountingGroup)
	exp, subgroups := ParseAccountingGroup(group, user)

	c := JobClass{
		Experiment: exp,
		User:       user,
		Subgroups:  subgroups,
		Suffixes:   jobSuffixes(r),
	}
	c.Metrics = expand(c.Experiment, c.User, c.Subgroups, c.Suffixes)
	return c
}

// ParseAccountingGroup splits an accounting group such as
// "group_atlas.prod.alice@fnal.gov" into its experiment ("atlas") and
// subgroups (["prod"]). A trailing token equal to user is a per-user group and
// is dropped.
func ParseAccountingGroup(group, user string) (string, []string) {
	if i := strings.IndexByte(group, '@'); i >= 0 {
		group = group[:i]
	}
	matches := groupToken.FindAllStringSubmatch(group, -1)
	if len(matches) == 0 {
		return Unknown, nil
	}
	tokens := make([]string, len(matches))
	for i, m := range matches {
		tokens[i] = m[1]
	}
	exp := tokens[0]
	if len(tokens) == 1 {
		return exp, nil
	}
	rest := tokens[1:]
	if tokens[len(tokens)-1] == user {
		rest = tokens[1 : len(tokens)-1]
	}
	if len(rest) == 0 {
		return exp, nil
	}
	return exp, rest
}

func jobSuffixes(r model.Record) []string {
	if model.IsSchedulerUniverse(r) {
		return []string{".dag.totals"}
	}
	switch model.Status(r) {
	case model.JobIdle:
		return idleSuffixes(r)
	case model.JobRunning:
		return []string{".running.totals", ".running.sites." + runningSite(r)}
	case model.JobHeld:
		return []string{".held.totals"}
	default:
		return []string{".unknown.totals"}
	}
}

func idleSuffixes(r model.Record) []string {
	out := []string{".idle.totals"}
	models, err := r.String(model.AttrDesiredUsageModel)
	if err != nil {
		return append(out, ".idle.usage_models."+Unknown)
	}
	if sites, err := r.String(model.AttrDesiredSites); err == nil {
		for _, s := range splitList(sites) {
			out = append(out, ".idle.sites."+s)
		}
	}
	set := splitList(models)
	sort.Strings(set)
	label := strings.Join(set, "_")
	if label == "" {
		label = ImpossibleUsageModel
	}
	return append(out, ".idle.usage_models."+label)
}

func runningSite(r model.Record) string {
	site, err := r.String(model.AttrMatchSite)
	if err != nil || site == "" {
		return Unknown
	}
	if site == FacilitySite {
		if name, err := r.String(model.AttrMatchResourceName); err == nil && name != "" {
			return name
		}
	}
	return site
}

// splitList splits a comma separated list, trimming blanks and dropping
// empty and repeated entries while keeping first-seen order.
func splitList(s string) []string {
	var out []string
	seen := make(map[string]struct{})
	for _, item := range strings.Split(s, ",") {
		item = strings.TrimSpace(item)
		if item == "" {
			continue
		}
		if _, ok := seen[item]; ok {
			continue
		}
		seen[item] = struct{}{}
		out = append(out, item)
	}
	return out
}

func expand(exp, user string, subgroups, suffixes []string) []string {
	n := 4
	if len(subgroups) > 0 {
		n = 5
	}
	out := make([]string, 0, n*len(suffixes))
	for _, sfx := range suffixes {
		out = append(out,
			"totals"+sfx,
			"experiments."+exp+".totals"+sfx,
			"experiments."+exp+".users."+user+sfx,
		)
		if len(subgroups) > 0 {
			out = append(out, "experiments."+exp+".subgroups."+strings.Join(subgroups, ".")+sfx)
		}
		out = append(out, "users."+user+sfx)
	}
	return out
}
