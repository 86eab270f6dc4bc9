package classify

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"poolmon/internal/pkg/model"
)

func job(attrs map[string]any) model.Record { return model.NewRecord(attrs) }

func TestJobIdleScenario(t *testing.T) {
	c := Job(job(map[string]any{
		"Owner":           "alice",
		"AccountingGroup": "group_atlas.alice@fnal",
		"JobStatus":       1,
		"QDate":           1000,
	}))
	assert.Equal(t, "atlas", c.Experiment)
	assert.Equal(t, "alice", c.User)
	assert.Empty(t, c.Subgroups)
	assert.Equal(t, []string{".idle.totals", ".idle.usage_models.unknown"}, c.Suffixes)
	assert.Contains(t, c.Metrics, "totals.idle.totals")
	assert.Contains(t, c.Metrics, "experiments.atlas.totals.idle.totals")
	assert.Contains(t, c.Metrics, "experiments.atlas.users.alice.idle.totals")
	assert.Contains(t, c.Metrics, "users.alice.idle.totals")
	assert.Len(t, c.Metrics, 8)
}

func TestParseAccountingGroup(t *testing.T) {
	cases := []struct {
		name, group, user string
		exp               string
		subgroups         []string
	}{
		{"default", DefaultAccountingGroup, "bob", "unknown", nil},
		{"experiment only", "group_cms", "bob", "cms", nil},
		{"per-user group", "group_atlas.alice", "alice", "atlas", nil},
		{"domain dropped", "group_atlas.alice@fnal.gov", "alice", "atlas", nil},
		{"subgroups kept", "group_atlas.prod.sim", "alice", "atlas", []string{"prod", "sim"}},
		{"subgroups minus user", "group_atlas.prod.alice", "alice", "atlas", []string{"prod"}},
		{"nested group prefixes", "group_nova.group_prod.carol@fnal.gov", "dave", "nova", []string{"prod", "carol"}},
		{"no word characters", "...@@", "bob", "unknown", nil},
		{"empty", "", "bob", "unknown", nil},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			exp, sub := ParseAccountingGroup(c.group, c.user)
			assert.Equal(t, c.exp, exp)
			assert.Equal(t, c.subgroups, sub)
		})
	}
}

func TestJobSubgroupMetric(t *testing.T) {
	c := Job(job(map[string]any{
		"Owner":           "alice",
		"AccountingGroup": "group_atlas.prod.alice",
		"JobStatus":       5,
	}))
	assert.Equal(t, []string{
		"totals.held.totals",
		"experiments.atlas.totals.held.totals",
		"experiments.atlas.users.alice.held.totals",
		"experiments.atlas.subgroups.prod.held.totals",
		"users.alice.held.totals",
	}, c.Metrics)
}

func TestJobIdleUsageModelsAndSites(t *testing.T) {
	c := Job(job(map[string]any{
		"Owner":               "bob",
		"JobStatus":           1,
		"DESIRED_usage_model": "OPPORTUNISTIC,DEDICATED,OPPORTUNISTIC",
		"DESIRED_Sites":       "FNAL, Cornell,FNAL",
	}))
	assert.Equal(t, []string{
		".idle.totals",
		".idle.sites.FNAL",
		".idle.sites.Cornell",
		".idle.usage_models.DEDICATED_OPPORTUNISTIC",
	}, c.Suffixes)
	assert.Equal(t, "unknown", c.Experiment)

	c = Job(job(map[string]any{"Owner": "bob", "JobStatus": 1, "DESIRED_usage_model": ""}))
	assert.Equal(t, []string{".idle.totals", ".idle.usage_models.impossible"}, c.Suffixes)
}

func TestJobRunningSite(t *testing.T) {
	cases := []struct {
		name  string
		attrs map[string]any
		want  string
	}{
		{"no site", map[string]any{}, ".running.sites.unknown"},
		{"plain site", map[string]any{"MATCH_GLIDEIN_Site": "MIT"}, ".running.sites.MIT"},
		{"facility remapped", map[string]any{"MATCH_GLIDEIN_Site": "FNAL", "MATCH_EXP_JOBGLIDEIN_ResourceName": "GPGrid"}, ".running.sites.GPGrid"},
		{"facility without resource", map[string]any{"MATCH_GLIDEIN_Site": "FNAL"}, ".running.sites.FNAL"},
		{"resource ignored elsewhere", map[string]any{"MATCH_GLIDEIN_Site": "MIT", "MATCH_EXP_JOBGLIDEIN_ResourceName": "GPGrid"}, ".running.sites.MIT"},
		{"non string site", map[string]any{"MATCH_GLIDEIN_Site": 12}, ".running.sites.unknown"},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			attrs := map[string]any{"Owner": "alice", "JobStatus": 2}
			for k, v := range c.attrs {
				attrs[k] = v
			}
			got := Job(job(attrs))
			require.Len(t, got.Suffixes, 2)
			assert.Equal(t, ".running.totals", got.Suffixes[0])
			assert.Equal(t, c.want, got.Suffixes[1])
		})
	}
}

func TestJobStatusPrecedence(t *testing.T) {
	dag := Job(job(map[string]any{"Owner": "alice", "JobStatus": 2, "JobUniverse": 7}))
	assert.Equal(t, []string{".dag.totals"}, dag.Suffixes)

	unk := Job(job(map[string]any{"Owner": "alice", "JobStatus": 4}))
	assert.Equal(t, []string{".unknown.totals"}, unk.Suffixes)

	missing := Job(job(map[string]any{"Owner": "alice"}))
	assert.Equal(t, []string{".unknown.totals"}, missing.Suffixes)
}

func TestJobAlwaysHasTotalsAndUser(t *testing.T) {
	records := []map[string]any{
		{},
		{"Owner": 17, "AccountingGroup": 3.5},
		{"Owner": "", "JobStatus": "running"},
		{"Owner": "eve", "JobStatus": 1, "DESIRED_usage_model": "/Expr(foo)/"},
		{"Owner": "eve", "JobStatus": 2, "JobUniverse": "vanilla"},
		{"Owner": "eve", "JobStatus": 5, "AccountingGroup": "group_x.y.eve@z"},
	}
	for _, attrs := range records {
		c := Job(job(attrs))
		require.NotEmpty(t, c.User)
		require.NotEmpty(t, c.Suffixes)
		status := c.Suffixes[0]
		assert.Contains(t, c.Metrics, "totals"+status)
		assert.Contains(t, c.Metrics, "users."+c.User+status)
	}
}

func TestJobIsDeterministic(t *testing.T) {
	r := job(map[string]any{
		"Owner":               "alice",
		"AccountingGroup":     "group_atlas.prod.sim",
		"JobStatus":           1,
		"DESIRED_usage_model": "b,a,c",
		"DESIRED_Sites":       "x,y",
	})
	assert.Equal(t, Job(r), Job(r))
}
